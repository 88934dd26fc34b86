package view

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type cartPage struct {
	Cart    CartView
	Pricing PricingView
}

// WriteCart renders the cart fragment. All values pass through html/template
// escaping, so product names are never interpreted as markup.
func WriteCart(w io.Writer, c CartView, p PricingView) error {
	return templates.ExecuteTemplate(w, "cart.html", cartPage{Cart: c, Pricing: p})
}

func WriteBadge(w io.Writer, b Badge) error {
	return templates.ExecuteTemplate(w, "badge.html", b)
}

func WriteProducts(w io.Writer, v ProductsView) error {
	return templates.ExecuteTemplate(w, "products.html", v)
}
