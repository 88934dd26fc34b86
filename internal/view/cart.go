// Package view turns cart, pricing and catalog state into view-models and
// HTML fragments. Rendering is a pure function of its input: the same
// snapshot always produces the same output.
package view

import (
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/pricing"
)

const EmptyCartText = "Your cart is empty."

type Badge struct {
	Visible bool `json:"visible"`
	Count   int  `json:"count"`
}

type LineView struct {
	ID        int    `json:"id"`
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	Category  string `json:"category"`
	Image     string `json:"image,omitempty"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"lineTotal"`
}

type CartView struct {
	Lines           []LineView `json:"lines"`
	TotalItems      int        `json:"totalItems"`
	TotalPrice      string     `json:"totalPrice"`
	CheckoutEnabled bool       `json:"checkoutEnabled"`
	Placeholder     string     `json:"placeholder,omitempty"`
	Badge           Badge      `json:"badge"`
}

type PricingView struct {
	Subtotal    string `json:"subtotal"`
	Discount    string `json:"discount"`
	ShippingFee string `json:"shippingFee"`
	FinalTotal  string `json:"finalTotal"`
	CouponCode  string `json:"couponCode,omitempty"`
	HasDiscount bool   `json:"hasDiscount"`
	FreeOrder   bool   `json:"freeOrder"`
}

func RenderCart(snap cart.Snapshot) CartView {
	v := CartView{
		Lines:      make([]LineView, 0, len(snap)),
		TotalItems: snap.TotalItems(),
		TotalPrice: pricing.Subtotal(snap).StringFixed(2),
		Badge:      RenderBadge(snap),
	}
	for _, l := range snap {
		v.Lines = append(v.Lines, LineView{
			ID:        l.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Brand:     l.Brand,
			Category:  l.Category,
			Image:     l.Image,
			UnitPrice: l.Price.StringFixed(2),
			Quantity:  l.Quantity,
			LineTotal: pricing.LineTotal(l).StringFixed(2),
		})
	}

	if snap.Empty() {
		v.Placeholder = EmptyCartText
	} else {
		v.CheckoutEnabled = true
	}
	return v
}

// RenderBadge is the header counter shown on every page; hidden at zero.
func RenderBadge(snap cart.Snapshot) Badge {
	n := snap.TotalItems()
	return Badge{Visible: n > 0, Count: n}
}

func RenderPricing(s pricing.Summary) PricingView {
	return PricingView{
		Subtotal:    s.Subtotal.StringFixed(2),
		Discount:    s.Discount.StringFixed(2),
		ShippingFee: s.ShippingFee.StringFixed(2),
		FinalTotal:  s.FinalTotal.StringFixed(2),
		CouponCode:  s.CouponCode,
		HasDiscount: s.Discount.IsPositive(),
		FreeOrder:   s.FreeOrder,
	}
}
