// Package model defines domain types used by the service.
package model

import "github.com/shopspring/decimal"

// Prices go out as JSON numbers, the shape the upstream catalog sends.
func init() { decimal.MarshalJSONWithoutQuotes = true }

// Product is a catalog item as served by the upstream catalog endpoint.
// Fields the catalog sends beyond these are ignored.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

// CartEntry pairs a product with the requested quantity.
// Amount is at least 1 while the entry is part of a cart.
type CartEntry struct {
	Product
	Amount int `json:"amount"`
}

// IntentKind names a user action on the cart or drawer.
type IntentKind string

const (
	IntentAdd    IntentKind = "add"
	IntentRemove IntentKind = "remove"
	IntentToggle IntentKind = "toggle"
	IntentClose  IntentKind = "close"
)

// Intent is one user action addressed to a session's state.
// Product is set for IntentAdd, ProductID for IntentRemove.
type Intent struct {
	Kind      IntentKind
	SessionID string
	Product   Product
	ProductID int
	Sequence  uint64
}
