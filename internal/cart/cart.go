// Package cart holds the cart state transitions. Every function here is pure:
// inputs are never modified and the same inputs always give the same result.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/storefront/internal/model"
)

// Cart is an ordered list of entries, at most one per product id.
type Cart []model.CartEntry

// Add returns a cart with one more unit of p. An existing entry keeps its
// position; a new entry is appended with amount 1.
func Add(c Cart, p model.Product) Cart {
	out := make(Cart, 0, len(c)+1)
	found := false
	for _, e := range c {
		if e.ID == p.ID {
			e.Amount++
			found = true
		}
		out = append(out, e)
	}
	if !found {
		out = append(out, model.CartEntry{Product: p, Amount: 1})
	}
	return out
}

// Remove returns a cart with one less unit of product id. An entry at amount
// 1 is dropped. An unknown id leaves the cart as it is.
func Remove(c Cart, id int) Cart {
	if indexOf(c, id) < 0 {
		return c
	}
	out := make(Cart, 0, len(c))
	for _, e := range c {
		if e.ID == id {
			if e.Amount == 1 {
				continue
			}
			e.Amount--
		}
		out = append(out, e)
	}
	return out
}

// TotalCount is the sum of amounts across entries.
func TotalCount(c Cart) int {
	n := 0
	for _, e := range c {
		n += e.Amount
	}
	return n
}

// Subtotal is amount × price for a single entry.
func Subtotal(e model.CartEntry) decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(int64(e.Amount)))
}

// Total is the sum of every entry's subtotal.
func Total(c Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range c {
		sum = sum.Add(Subtotal(e))
	}
	return sum
}

// Amount reports the quantity of product id, or 0 when absent.
func Amount(c Cart, id int) int {
	if i := indexOf(c, id); i >= 0 {
		return c[i].Amount
	}
	return 0
}

func indexOf(c Cart, id int) int {
	for i, e := range c {
		if e.ID == id {
			return i
		}
	}
	return -1
}
