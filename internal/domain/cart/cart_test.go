package cart_test

import (
	"testing"

	"github.com/fanaka-furniture/checkout/internal/domain/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLineMergesQuantities(t *testing.T) {
	c := cart.New()
	require.NoError(t, c.AddLine(cart.Line{ProductID: "sofa-1", Name: "Sofa", UnitPrice: 15000, Quantity: 1}))
	require.NoError(t, c.AddLine(cart.Line{ProductID: "sofa-1", Name: "Sofa", UnitPrice: 15000, Quantity: 2}))

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.Equal(t, int64(45000), c.Total())
}

func TestAddLineRejectsBadInput(t *testing.T) {
	c := cart.New()
	assert.ErrorIs(t, c.AddLine(cart.Line{ProductID: "p", Quantity: 0}), cart.ErrInvalidQuantity)
	assert.ErrorIs(t, c.AddLine(cart.Line{ProductID: "p", Quantity: -1}), cart.ErrInvalidQuantity)
	assert.ErrorIs(t, c.AddLine(cart.Line{ProductID: "p", UnitPrice: -5, Quantity: 1}), cart.ErrInvalidUnitPrice)
	assert.True(t, c.IsEmpty())
}

func TestUpdateQuantity(t *testing.T) {
	c := cart.New()
	require.NoError(t, c.AddLine(cart.Line{ProductID: "table-1", UnitPrice: 8000, Quantity: 1}))

	require.NoError(t, c.UpdateQuantity("table-1", 4))
	assert.Equal(t, int64(32000), c.Total())

	assert.ErrorIs(t, c.UpdateQuantity("table-1", 0), cart.ErrInvalidQuantity)
	assert.ErrorIs(t, c.UpdateQuantity("missing", 1), cart.ErrLineNotFound)
}

func TestRemoveLine(t *testing.T) {
	c := cart.New()
	require.NoError(t, c.AddLine(cart.Line{ProductID: "a", UnitPrice: 100, Quantity: 1}))
	require.NoError(t, c.AddLine(cart.Line{ProductID: "b", UnitPrice: 200, Quantity: 1}))

	require.NoError(t, c.RemoveLine("a"))
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "b", c.Lines[0].ProductID)

	assert.ErrorIs(t, c.RemoveLine("a"), cart.ErrLineNotFound)
}

func TestCloneIsIndependent(t *testing.T) {
	c := cart.New()
	require.NoError(t, c.AddLine(cart.Line{ProductID: "a", UnitPrice: 100, Quantity: 1}))

	clone := c.Clone()
	require.NoError(t, clone.UpdateQuantity("a", 9))

	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.Equal(t, 9, clone.Lines[0].Quantity)
}
