package memory_test

import (
	"context"
	"testing"

	domcart "github.com/fanaka-furniture/checkout/internal/domain/cart"
	domorder "github.com/fanaka-furniture/checkout/internal/domain/order"
	dompayment "github.com/fanaka-furniture/checkout/internal/domain/payment"
	"github.com/fanaka-furniture/checkout/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartStoreUnknownSessionGetsEmptyCart(t *testing.T) {
	s := memory.NewCartStore()

	crt, err := s.Get(context.Background(), "new-session")
	require.NoError(t, err)
	assert.True(t, crt.IsEmpty())
}

func TestCartStoreIsolatesCallersFromStoredState(t *testing.T) {
	s := memory.NewCartStore()
	ctx := context.Background()

	crt := domcart.New()
	require.NoError(t, crt.AddLine(domcart.Line{ProductID: "a", UnitPrice: 100, Quantity: 1}))
	require.NoError(t, s.Save(ctx, "sess-1", crt))

	// Mutating the returned clone must not leak into the store.
	got, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NoError(t, got.UpdateQuantity("a", 99))

	again, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Lines[0].Quantity)
}

func TestCartStoreClear(t *testing.T) {
	s := memory.NewCartStore()
	ctx := context.Background()

	crt := domcart.New()
	require.NoError(t, crt.AddLine(domcart.Line{ProductID: "a", UnitPrice: 100, Quantity: 1}))
	require.NoError(t, s.Save(ctx, "sess-1", crt))
	require.NoError(t, s.Clear(ctx, "sess-1"))

	got, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestOrderStoreRoundTrip(t *testing.T) {
	s := memory.NewOrderStore()
	ctx := context.Background()

	ord := &domorder.Order{ID: "ord-1", Total: 16250, Status: domorder.StatusPendingPayment}
	require.NoError(t, s.Save(ctx, ord))

	got, err := s.Get(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusPendingPayment, got.Status)

	// Upsert replaces the snapshot.
	ord.MarkPaid()
	require.NoError(t, s.Save(ctx, ord))
	got, err = s.Get(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusPaid, got.Status)
}

func TestOrderStoreErrors(t *testing.T) {
	s := memory.NewOrderStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, domorder.ErrNotFound)

	assert.Error(t, s.Save(ctx, nil))
	assert.Error(t, s.Save(ctx, &domorder.Order{}))
}

func TestAttemptStoreRoundTrip(t *testing.T) {
	s := memory.NewAttemptStore()
	ctx := context.Background()

	att := &dompayment.Attempt{ID: "att-1", OrderID: "ord-1", Status: dompayment.AttemptAwaitingConfirmation}
	require.NoError(t, s.Save(ctx, att))

	got, err := s.Get(ctx, "att-1")
	require.NoError(t, err)
	assert.Equal(t, dompayment.AttemptAwaitingConfirmation, got.Status)

	// Returned attempts are clones.
	got.Status = dompayment.AttemptFailed
	again, err := s.Get(ctx, "att-1")
	require.NoError(t, err)
	assert.Equal(t, dompayment.AttemptAwaitingConfirmation, again.Status)
}

func TestAttemptStoreErrors(t *testing.T) {
	s := memory.NewAttemptStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, dompayment.ErrAttemptNotFound)

	assert.Error(t, s.Save(ctx, nil))
}
