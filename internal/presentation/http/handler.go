package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	appcheckout "github.com/fanaka-furniture/checkout/internal/application/checkout"
	domcart "github.com/fanaka-furniture/checkout/internal/domain/cart"
	domorder "github.com/fanaka-furniture/checkout/internal/domain/order"
	dompayment "github.com/fanaka-furniture/checkout/internal/domain/payment"
	"github.com/fanaka-furniture/checkout/internal/observability"
	"github.com/go-chi/chi/v5"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerSessionID      = "X-Session-ID"
)

// CheckoutService is the slice of the checkout orchestrator the handler needs.
type CheckoutService interface {
	Pay(ctx context.Context, in appcheckout.PayInput) (*appcheckout.PayResult, error)
	Attempt(ctx context.Context, id string) (*dompayment.Attempt, error)
	Order(ctx context.Context, id string) (*domorder.Order, error)
}

// CartService is the slice of the cart service the handler needs.
type CartService interface {
	Get(ctx context.Context, sessionID string) (*domcart.Cart, error)
	AddItem(ctx context.Context, sessionID string, line domcart.Line) (*domcart.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*domcart.Cart, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (*domcart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type Handler struct {
	checkout CheckoutService
	carts    CartService
	log      observability.Logger
	tel      observability.Telemetry
}

func NewHandler(checkoutSvc CheckoutService, cartSvc CartService, tel observability.Telemetry) *Handler {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Handler{
		checkout: checkoutSvc,
		carts:    cartSvc,
		log:      tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:      tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(ObservabilityMiddleware(h.log, func(r *http.Request) string {
		return r.Header.Get(headerRequestID)
	}, h.tel))

	r.Get("/health", h.handleHealth)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.handleGetCart)
		r.Delete("/", h.handleClearCart)
		r.Post("/items", h.handleAddItem)
		r.Patch("/items/{productID}", h.handleUpdateQuantity)
		r.Delete("/items/{productID}", h.handleRemoveItem)
	})

	r.Post("/checkout/pay", h.handlePay)
	r.Get("/checkout/attempts/{attemptID}", h.handleGetAttempt)
	r.Get("/orders/{orderID}", h.handleGetOrder)

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type cartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type cartResponse struct {
	Items []cartLineResponse `json:"items"`
	Total int64              `json:"total"`
}

func toCartResponse(c *domcart.Cart) cartResponse {
	resp := cartResponse{Items: make([]cartLineResponse, 0, len(c.Lines)), Total: c.Total()}
	for _, l := range c.Lines {
		resp.Items = append(resp.Items, cartLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		})
	}
	return resp
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	crt, err := h.carts.Get(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(crt))
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	crt, err := h.carts.AddItem(r.Context(), sessionID, domcart.Line{
		ProductID: req.ProductID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(crt))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req updateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	crt, err := h.carts.UpdateQuantity(r.Context(), sessionID, chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(crt))
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	crt, err := h.carts.RemoveItem(r.Context(), sessionID, chi.URLParam(r, "productID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(crt))
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if err := h.carts.Clear(r.Context(), sessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type payRequest struct {
	OrderID  string `json:"order_id,omitempty"`
	Phone    string `json:"phone"`
	Shipping struct {
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		City       string `json:"city"`
		County     string `json:"county"`
		PostalCode string `json:"postal_code"`
	} `json:"shipping"`
}

type payResponse struct {
	OrderID   string                   `json:"order_id"`
	AttemptID string                   `json:"attempt_id"`
	Status    dompayment.AttemptStatus `json:"status"`
}

func (h *Handler) handlePay(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req payRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.checkout.Pay(r.Context(), appcheckout.PayInput{
		SessionID: sessionID,
		OrderID:   req.OrderID,
		Phone:     req.Phone,
		Shipping: domorder.ShippingInfo{
			FirstName:  req.Shipping.FirstName,
			LastName:   req.Shipping.LastName,
			Email:      req.Shipping.Email,
			Phone:      req.Shipping.Phone,
			City:       req.Shipping.City,
			County:     req.Shipping.County,
			PostalCode: req.Shipping.PostalCode,
		},
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// 202: the outcome is resolved out-of-band by the confirmation poller.
	writeJSON(w, http.StatusAccepted, payResponse{
		OrderID:   result.OrderID,
		AttemptID: result.AttemptID,
		Status:    result.Status,
	})
}

type attemptResponse struct {
	ID                string                   `json:"id"`
	OrderID           string                   `json:"order_id"`
	CheckoutRequestID string                   `json:"checkout_request_id,omitempty"`
	Status            dompayment.AttemptStatus `json:"status"`
	FailureReason     string                   `json:"failure_reason,omitempty"`
	AmountRequested   int64                    `json:"amount_requested"`
	PollCount         int                      `json:"poll_count"`
	StartedAt         time.Time                `json:"started_at"`
}

func (h *Handler) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	att, err := h.checkout.Attempt(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attemptResponse{
		ID:                att.ID,
		OrderID:           att.OrderID,
		CheckoutRequestID: att.CheckoutRequestID,
		Status:            att.Status,
		FailureReason:     att.FailureReason,
		AmountRequested:   att.AmountRequested,
		PollCount:         att.PollCount,
		StartedAt:         att.StartedAt,
	})
}

type orderResponse struct {
	ID     string          `json:"id"`
	Status domorder.Status `json:"status"`
	Total  int64           `json:"total"`
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ord, err := h.checkout.Order(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{
		ID:     ord.ID,
		Status: ord.Status,
		Total:  ord.Total,
	})
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid := r.Header.Get(headerSessionID)
	if sid == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing "+headerSessionID+" header"))
		return "", false
	}
	return sid, true
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	var validation *domorder.ValidationError
	var creation *dompayment.OrderCreationError
	var initiation *dompayment.InitiationError

	switch {
	case errors.As(err, &validation),
		errors.Is(err, dompayment.ErrInvalidPhone),
		errors.Is(err, domcart.ErrEmptyCart),
		errors.Is(err, domcart.ErrInvalidQuantity),
		errors.Is(err, domcart.ErrInvalidUnitPrice):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, dompayment.ErrAttemptNotFound),
		errors.Is(err, domcart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, dompayment.ErrAttemptInFlight),
		errors.Is(err, appcheckout.ErrOrderNotPayable):
		writeError(w, http.StatusConflict, err)
	case errors.As(err, &creation), errors.As(err, &initiation):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
