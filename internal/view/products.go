package view

import (
	"strconv"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/dto"
)

type ProductCard struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Image       string `json:"image,omitempty"`
	Price       string `json:"price"`
	RatingText  string `json:"ratingText"`
	StockText   string `json:"stockText"`
	InStock     bool   `json:"inStock"`
	AddDisabled bool   `json:"addDisabled"`
	Visible     bool   `json:"visible"`
}

type ProductsView struct {
	Cards       []ProductCard `json:"cards"`
	Count       int           `json:"count"`
	Category    string        `json:"category,omitempty"`
	HasNext     bool          `json:"hasNext"`
	HasPrevious bool          `json:"hasPrevious"`
}

// RenderProducts builds the card grid for one page. Cards outside category
// stay in the list but are marked invisible; an empty category shows all.
func RenderProducts(page dto.ProductPage, category string) ProductsView {
	v := ProductsView{
		Cards:       make([]ProductCard, 0, len(page.Results)),
		Count:       page.Count,
		Category:    category,
		HasNext:     page.Next != "",
		HasPrevious: page.Previous != "",
	}
	for _, p := range page.Results {
		v.Cards = append(v.Cards, productCard(p, category))
	}
	return v
}

func productCard(p dto.Product, category string) ProductCard {
	c := ProductCard{
		ID:          p.ID,
		Name:        p.Name,
		Brand:       p.Brand,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		Image:       p.Image,
		Price:       p.Price.StringFixed(2),
		RatingText:  "Rating: ?/10",
		InStock:     p.InStock(),
		Visible:     category == "" || p.Category == category,
	}
	if c.Category == "" {
		c.Category = "Uncategorized"
	}
	if p.AverageRating != nil {
		c.RatingText = "Rating: " + strconv.FormatFloat(*p.AverageRating, 'f', -1, 64) + "/10"
	}

	switch {
	case p.Stock == nil:
		c.StockText = "In Stock"
	case *p.Stock > 0:
		c.StockText = "In Stock: " + strconv.Itoa(*p.Stock)
	default:
		c.StockText = "Out of Stock"
	}
	c.AddDisabled = !c.InStock
	return c
}
