package clients

import (
	"context"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/dto"
)

const ProductsPath = "/api/products/"

type CatalogClient struct{ c *Client }

func NewCatalogClient(c *Client) *CatalogClient { return &CatalogClient{c: c} }

// ListProducts fetches one page. ref is ProductsPath (optionally with a query)
// or a next/previous link from an earlier page.
func (cc *CatalogClient) ListProducts(ctx context.Context, ref string) (dto.ProductPage, error) {
	if ref == "" {
		ref = ProductsPath
	}
	var out dto.ProductPage
	err := cc.c.DoJSON(ctx, "catalog.products", http.MethodGet, ref, nil, &out)
	return out, err
}

func (cc *CatalogClient) ListCategories(ctx context.Context) (dto.Categories, error) {
	var out dto.Categories
	err := cc.c.DoJSON(ctx, "catalog.categories", http.MethodGet, "/api/categories/", nil, &out)
	return out, err
}
