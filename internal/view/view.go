// Package view renders the storefront page from the catalog snapshot and a
// visitor's cart state.
package view

import (
	"embed"
	"html/template"
	"io"

	"github.com/pkg/errors"

	"github.com/fairyhunter13/storefront/internal/cart"
	"github.com/fairyhunter13/storefront/internal/catalog"
	"github.com/fairyhunter13/storefront/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Page is the data the page template consumes.
type Page struct {
	Status   string
	Products []model.Product
	Items    cart.Cart
	Open     bool
	Badge    int
	Total    string
	Currency string
}

// Renderer holds the parsed templates.
type Renderer struct {
	tmpl     *template.Template
	currency string
}

// New parses the embedded templates. currency prefixes every price.
func New(currency string) (*Renderer, error) {
	funcs := template.FuncMap{
		"subtotal": func(e model.CartEntry) string { return cart.Subtotal(e).StringFixed(2) },
	}
	tmpl, err := template.New("storefront").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	return &Renderer{tmpl: tmpl, currency: currency}, nil
}

// Build assembles the page data. The product grid is only populated once the
// catalog has loaded.
func (r *Renderer) Build(snap catalog.Snapshot, st cart.State) Page {
	p := Page{
		Status:   snap.Status.String(),
		Items:    st.Items,
		Open:     st.Open,
		Badge:    st.BadgeCount(),
		Total:    cart.Total(st.Items).StringFixed(2),
		Currency: r.currency,
	}
	if snap.Status == catalog.StatusSuccess {
		p.Products = snap.Products
	}
	return p
}

// Render writes the full HTML page.
func (r *Renderer) Render(w io.Writer, snap catalog.Snapshot, st cart.State) error {
	return r.tmpl.ExecuteTemplate(w, "page", r.Build(snap, st))
}
