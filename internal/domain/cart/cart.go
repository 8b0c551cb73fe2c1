package cart

import "errors"

var (
	ErrEmptyCart        = errors.New("cart: cart is empty")
	ErrInvalidQuantity  = errors.New("cart: quantity must be greater than zero")
	ErrInvalidUnitPrice = errors.New("cart: unit price must be zero or greater")
	ErrLineNotFound     = errors.New("cart: line not found")
)

// Line is one product entry in a cart. ProductID is unique within a cart.
type Line struct {
	ProductID string
	Name      string
	UnitPrice int64
	Quantity  int
}

func (l Line) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

type Cart struct {
	Lines []Line
}

func New() *Cart {
	return &Cart{}
}

// AddLine appends a line, merging quantities when the product is already present.
func (c *Cart) AddLine(line Line) error {
	if line.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if line.UnitPrice < 0 {
		return ErrInvalidUnitPrice
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == line.ProductID {
			c.Lines[i].Quantity += line.Quantity
			return nil
		}
	}
	c.Lines = append(c.Lines, line)
	return nil
}

func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = quantity
			return nil
		}
	}
	return ErrLineNotFound
}

func (c *Cart) RemoveLine(productID string) error {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Total is the sum of line subtotals.
func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.Subtotal()
	}
	return total
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := &Cart{Lines: make([]Line, len(c.Lines))}
	copy(clone.Lines, c.Lines)
	return clone
}
