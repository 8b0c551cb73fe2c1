package order

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("order: not found")

type Status string

const (
	StatusDraft          Status = "draft"
	StatusPendingPayment Status = "pending_payment"
	StatusPaid           Status = "paid"
	StatusFailed         Status = "failed"
)

// ValidationError reports a malformed order draft before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("order: invalid %s: %s", e.Field, e.Reason)
}

// LineItem is an immutable snapshot of a cart line at draft time.
type LineItem struct {
	ProductID string
	Name      string
	UnitPrice int64
	Quantity  int
}

func (li LineItem) Subtotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

type ShippingInfo struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	City       string
	County     string
	PostalCode string
}

// Draft is the immutable order payload sent to the remote create-order call.
// ShippingFee and Tax are fixed at zero by current policy but stay named
// fields so a policy change is a one-line update, not a schema change.
type Draft struct {
	Items       []LineItem
	Shipping    ShippingInfo
	Subtotal    int64
	ShippingFee int64
	Tax         int64
	Total       int64
}

// Order mirrors the remote service's order locally as a read-mostly snapshot.
// ID is assigned by the remote service on creation and immutable afterwards.
type Order struct {
	ID        string
	Items     []LineItem
	Total     int64
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o *Order) MarkPendingPayment() {
	o.Status = StatusPendingPayment
	o.touch()
}

func (o *Order) MarkPaid() {
	o.Status = StatusPaid
	o.touch()
}

func (o *Order) MarkFailed() {
	o.Status = StatusFailed
	o.touch()
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = make([]LineItem, len(o.Items))
	copy(clone.Items, o.Items)
	return &clone
}
