package cart

import "github.com/fairyhunter13/storefront/internal/model"

// State is everything a visitor's page depends on besides the catalog.
// The zero value is an empty cart with the drawer closed.
type State struct {
	Items Cart
	Open  bool
}

// AddToCart returns the state with one more unit of p.
func (s State) AddToCart(p model.Product) State {
	s.Items = Add(s.Items, p)
	return s
}

// RemoveFromCart returns the state with one less unit of product id.
func (s State) RemoveFromCart(id int) State {
	s.Items = Remove(s.Items, id)
	return s
}

// ToggleOpen flips the drawer.
func (s State) ToggleOpen() State {
	s.Open = !s.Open
	return s
}

// CloseDrawer closes the drawer; closing a closed drawer is a no-op.
func (s State) CloseDrawer() State {
	s.Open = false
	return s
}

// BadgeCount is the number shown on the cart button.
func (s State) BadgeCount() int { return TotalCount(s.Items) }
