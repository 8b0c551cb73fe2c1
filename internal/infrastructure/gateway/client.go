package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fanaka-furniture/checkout/internal/application/checkout"
	domorder "github.com/fanaka-furniture/checkout/internal/domain/order"
	dompayment "github.com/fanaka-furniture/checkout/internal/domain/payment"
	"github.com/fanaka-furniture/checkout/internal/observability"
)

// Client is a thin adapter over the remote order/payment REST service. It
// shapes requests and classifies errors; retry decisions belong to callers.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        observability.Logger
	tel        observability.Telemetry
}

func NewClient(baseURL string, timeout time.Duration, tel observability.Telemetry) *Client {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		log:        tel.Logger().With(observability.F("component", "payment_gateway")),
		tel:        tel,
	}
}

type draftLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type draftShipping struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	County     string `json:"county,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

type createOrderRequest struct {
	Items       []draftLine   `json:"items"`
	Shipping    draftShipping `json:"shipping"`
	Subtotal    int64         `json:"subtotal"`
	ShippingFee int64         `json:"shipping_fee"`
	Tax         int64         `json:"tax"`
	Total       int64         `json:"total"`
}

type createOrderResponse struct {
	ID     string `json:"id"`
	Total  int64  `json:"total"`
	Status string `json:"status"`
}

// CreateOrder persists a new order remotely. The call is not idempotent:
// calling twice creates two orders.
func (c *Client) CreateOrder(ctx context.Context, draft *domorder.Draft, token string) (*domorder.Order, error) {
	body := createOrderRequest{
		Items:       make([]draftLine, 0, len(draft.Items)),
		Shipping:    toDraftShipping(draft.Shipping),
		Subtotal:    draft.Subtotal,
		ShippingFee: draft.ShippingFee,
		Tax:         draft.Tax,
		Total:       draft.Total,
	}
	for _, it := range draft.Items {
		body.Items = append(body.Items, draftLine{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}

	var resp createOrderResponse
	if err := c.postJSON(ctx, "/orders", token, body, &resp); err != nil {
		return nil, &dompayment.OrderCreationError{Err: err}
	}
	if resp.ID == "" {
		return nil, &dompayment.OrderCreationError{Err: fmt.Errorf("remote order has no id")}
	}

	now := time.Now().UTC()
	items := make([]domorder.LineItem, len(draft.Items))
	copy(items, draft.Items)
	return &domorder.Order{
		ID:        resp.ID,
		Items:     items,
		Total:     resp.Total,
		Status:    domorder.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type initiatePaymentRequest struct {
	OrderID string `json:"order_id"`
	Phone   string `json:"phone"`
	Amount  int64  `json:"amount"`
}

type initiatePaymentResponse struct {
	Accepted          bool   `json:"accepted"`
	CheckoutRequestID string `json:"checkout_request_id,omitempty"`
}

// InitiatePayment triggers the push-payment prompt. accepted=true means a
// prompt may have been sent; completion is only learned by polling.
func (c *Client) InitiatePayment(ctx context.Context, orderID, msisdn string, amount int64, token string) (checkout.InitiateResult, error) {
	body := initiatePaymentRequest{
		OrderID: orderID,
		Phone:   msisdn,
		Amount:  amount,
	}
	var resp initiatePaymentResponse
	if err := c.postJSON(ctx, "/payments/initiate", token, body, &resp); err != nil {
		return checkout.InitiateResult{}, &dompayment.InitiationError{Err: err}
	}
	return checkout.InitiateResult{
		Accepted:          resp.Accepted,
		CheckoutRequestID: resp.CheckoutRequestID,
	}, nil
}

type statusResponse struct {
	Status string `json:"status"`
}

// CheckStatus is a pure query, safe to repeat for the same id.
func (c *Client) CheckStatus(ctx context.Context, checkoutRequestID string) (checkout.GatewayStatus, error) {
	endpoint := c.baseURL + "/payments/status?" + url.Values{
		"checkout_request_id": {checkoutRequestID},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &dompayment.TransportError{Err: err}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	c.recordRequest("check_status", start, err)
	if err != nil {
		return "", &dompayment.TransportError{Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return "", &dompayment.TransportError{Err: fmt.Errorf("unexpected status %d", httpResp.StatusCode)}
	}

	var resp statusResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return "", &dompayment.TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}

	switch checkout.GatewayStatus(resp.Status) {
	case checkout.GatewayStatusPending, checkout.GatewayStatusSuccess, checkout.GatewayStatusFailed:
		return checkout.GatewayStatus(resp.Status), nil
	default:
		return "", &dompayment.TransportError{Err: fmt.Errorf("unknown payment status %q", resp.Status)}
	}
}

func (c *Client) postJSON(ctx context.Context, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.recordRequest(path, start, err)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) recordRequest(op string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.tel.Counter(observability.MGatewayRequests).Add(1,
		observability.L("op", op),
		observability.L("outcome", outcome),
	)
	c.log.Debug("gateway_request",
		observability.F("op", op),
		observability.F("outcome", outcome),
		observability.F("latency_ms", time.Since(start).Milliseconds()),
	)
}

func toDraftShipping(s domorder.ShippingInfo) draftShipping {
	return draftShipping{
		FirstName:  s.FirstName,
		LastName:   s.LastName,
		Email:      s.Email,
		Phone:      s.Phone,
		City:       s.City,
		County:     s.County,
		PostalCode: s.PostalCode,
	}
}
