package view

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/dto"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/pricing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleCart() cart.Snapshot {
	return cart.Snapshot{
		{ID: 1, ProductID: 10, Name: "Lamp", Brand: "Acme", Category: "Home", Price: dec("10"), Quantity: 2},
		{ID: 2, ProductID: 11, Name: "Mug", Brand: "Acme", Category: "Kitchen", Price: dec("5"), Quantity: 1},
	}
}

func TestRenderCart(t *testing.T) {
	v := RenderCart(sampleCart())

	assert.Equal(t, 3, v.TotalItems)
	assert.Equal(t, "25.00", v.TotalPrice)
	assert.True(t, v.CheckoutEnabled)
	assert.Empty(t, v.Placeholder)
	assert.Equal(t, Badge{Visible: true, Count: 3}, v.Badge)

	require.Len(t, v.Lines, 2)
	assert.Equal(t, "10.00", v.Lines[0].UnitPrice)
	assert.Equal(t, "20.00", v.Lines[0].LineTotal)
}

func TestRenderEmptyCart(t *testing.T) {
	v := RenderCart(cart.Snapshot{})

	assert.Equal(t, 0, v.TotalItems)
	assert.Equal(t, "0.00", v.TotalPrice)
	assert.False(t, v.CheckoutEnabled)
	assert.Equal(t, EmptyCartText, v.Placeholder)
	assert.False(t, v.Badge.Visible)
	assert.Empty(t, v.Lines)
}

func TestRenderIsIdempotent(t *testing.T) {
	snap := sampleCart()
	p := RenderPricing(pricing.Summary{Subtotal: dec("25"), FinalTotal: dec("27.5"), ShippingFee: dec("2.5")})

	var a, b bytes.Buffer
	require.NoError(t, WriteCart(&a, RenderCart(snap), p))
	require.NoError(t, WriteCart(&b, RenderCart(snap), p))

	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, RenderCart(snap), RenderCart(snap))
}

func TestWriteCartEscapesNames(t *testing.T) {
	snap := cart.Snapshot{{ID: 1, Name: `<script>alert(1)</script>`, Price: dec("1"), Quantity: 1}}

	var buf bytes.Buffer
	require.NoError(t, WriteCart(&buf, RenderCart(snap), RenderPricing(pricing.Summary{})))

	out := buf.String()
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestWriteCartEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCart(&buf, RenderCart(nil), RenderPricing(pricing.Summary{})))

	out := buf.String()
	assert.Contains(t, out, EmptyCartText)
	assert.Contains(t, out, `<button id="checkout-btn" disabled>`)
	assert.Contains(t, out, `style="display:none"`)
}

func TestRenderPricing(t *testing.T) {
	v := RenderPricing(pricing.Summary{
		Subtotal:    dec("25"),
		Discount:    dec("2.5"),
		ShippingFee: dec("2.25"),
		FinalTotal:  dec("24.75"),
		CouponCode:  "SAVE10",
	})

	assert.Equal(t, "25.00", v.Subtotal)
	assert.Equal(t, "2.50", v.Discount)
	assert.Equal(t, "24.75", v.FinalTotal)
	assert.True(t, v.HasDiscount)
}

func TestRenderProducts(t *testing.T) {
	zero, five := 0, 5
	rating := 7.5
	page := dto.ProductPage{
		Count: 3,
		Next:  "http://shop/api/products/?page=2",
		Results: []dto.Product{
			{ID: 1, Name: "Lamp", Category: "Home", Price: dec("10"), Stock: &five, AverageRating: &rating},
			{ID: 2, Name: "Rake", Category: "Garden", Price: dec("4"), Stock: &zero},
			{ID: 3, Name: "Thing", Price: dec("1")},
		},
	}

	v := RenderProducts(page, "Home")
	assert.True(t, v.HasNext)
	assert.False(t, v.HasPrevious)
	require.Len(t, v.Cards, 3)

	assert.Equal(t, "In Stock: 5", v.Cards[0].StockText)
	assert.Equal(t, "Rating: 7.5/10", v.Cards[0].RatingText)
	assert.True(t, v.Cards[0].Visible)

	assert.Equal(t, "Out of Stock", v.Cards[1].StockText)
	assert.True(t, v.Cards[1].AddDisabled)
	assert.False(t, v.Cards[1].Visible)

	assert.Equal(t, "Rating: ?/10", v.Cards[2].RatingText)
	assert.Equal(t, "Uncategorized", v.Cards[2].Category)
	assert.False(t, v.Cards[2].AddDisabled)

	all := RenderProducts(page, "")
	for _, c := range all.Cards {
		assert.True(t, c.Visible)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProducts(&buf, v))
	assert.Contains(t, buf.String(), `<button id="prev-page" disabled>`)
}
