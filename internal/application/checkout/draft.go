package checkout

import (
	domcart "github.com/fanaka-furniture/checkout/internal/domain/cart"
	domorder "github.com/fanaka-furniture/checkout/internal/domain/order"
)

// Current policy: the store absorbs delivery and the listed price is tax
// inclusive, so both charges are zero at draft time.
const (
	policyShippingFee int64 = 0
	policyTax         int64 = 0
)

// BuildDraft assembles an immutable order payload from the cart and shipping
// form. It fails with *order.ValidationError when the cart is empty or a
// required shipping field is blank. The computed total must equal the amount
// later requested from the gateway; the orchestrator re-checks that equality
// before initiating payment.
func BuildDraft(c *domcart.Cart, shipping domorder.ShippingInfo) (*domorder.Draft, error) {
	if c == nil || c.IsEmpty() {
		return nil, &domorder.ValidationError{Field: "cart", Reason: "cart is empty"}
	}
	if err := validateShipping(shipping); err != nil {
		return nil, err
	}

	items := make([]domorder.LineItem, 0, len(c.Lines))
	var subtotal int64
	for _, line := range c.Lines {
		items = append(items, domorder.LineItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
		subtotal += line.Subtotal()
	}

	return &domorder.Draft{
		Items:       items,
		Shipping:    shipping,
		Subtotal:    subtotal,
		ShippingFee: policyShippingFee,
		Tax:         policyTax,
		Total:       subtotal + policyShippingFee + policyTax,
	}, nil
}

func validateShipping(s domorder.ShippingInfo) error {
	required := []struct {
		field, value string
	}{
		{"first_name", s.FirstName},
		{"last_name", s.LastName},
		{"email", s.Email},
		{"phone", s.Phone},
		{"city", s.City},
	}
	for _, r := range required {
		if r.value == "" {
			return &domorder.ValidationError{Field: r.field, Reason: "required"}
		}
	}
	return nil
}
