package dto

import "github.com/shopspring/decimal"

type Product struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Brand         string          `json:"brand"`
	Category      string          `json:"category"`
	Subcategory   string          `json:"subcategory"`
	Price         decimal.Decimal `json:"price"`
	Stock         *int            `json:"stock"`
	Image         string          `json:"image"`
	AverageRating *float64        `json:"average_rating"`
}

// InStock treats an unknown stock level as available.
func (p Product) InStock() bool {
	return p.Stock == nil || *p.Stock > 0
}

// ProductPage is one page of the paginated product listing. Next and Previous
// are the backend's links, empty at either end.
type ProductPage struct {
	Count    int       `json:"count"`
	Next     string    `json:"next"`
	Previous string    `json:"previous"`
	Results  []Product `json:"results"`
}

type Categories struct {
	Categories    []string `json:"categories"`
	Subcategories []string `json:"subcategories"`
}
