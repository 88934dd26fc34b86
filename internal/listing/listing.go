// Package listing browses the paginated product catalog: paging, client-side
// category filtering, server-side sorting and add-to-cart.
package listing

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/dto"
)

var ErrNoPage = errors.New("listing: no such page")

const categoriesKey = "categories"

type Catalog interface {
	ListProducts(ctx context.Context, ref string) (dto.ProductPage, error)
	ListCategories(ctx context.Context) (dto.Categories, error)
}

type CartAdder interface {
	AddItem(ctx context.Context, productID, quantity int) (cart.Snapshot, error)
}

type SortOption struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

var sortOptions = []SortOption{
	{Value: "price-asc", Text: "Price: Low to High"},
	{Value: "price-desc", Text: "Price: High to Low"},
	{Value: "rating", Text: "Rating"},
	{Value: "newest", Text: "Newest"},
}

// ordering maps a sort option to the backend's ordering parameter.
var ordering = map[string]string{
	"price-asc":  "price",
	"price-desc": "-price",
	"rating":     "-average_rating",
	"newest":     "-id",
}

func SortOptions() []SortOption {
	return append([]SortOption(nil), sortOptions...)
}

// Listing is what the product page shows right now.
type Listing struct {
	PageURL    string          `json:"pageUrl"`
	Page       dto.ProductPage `json:"page"`
	Categories dto.Categories  `json:"categories"`
	Category   string          `json:"category,omitempty"`
	Sort       string          `json:"sort,omitempty"`
}

func (l Listing) HasNext() bool     { return l.Page.Next != "" }
func (l Listing) HasPrevious() bool { return l.Page.Previous != "" }

type Browser struct {
	catalog    Catalog
	cart       CartAdder
	categories *ttlcache.Cache[string, dto.Categories]
	log        *zap.Logger

	mu      sync.Mutex
	seq     uint64
	applied uint64
	current Listing
}

func NewBrowser(catalog Catalog, c CartAdder, categoryTTL time.Duration, logger *zap.Logger) *Browser {
	return &Browser{
		catalog: catalog,
		cart:    c,
		categories: ttlcache.New[string, dto.Categories](
			ttlcache.WithTTL[string, dto.Categories](categoryTTL),
			ttlcache.WithDisableTouchOnHit[string, dto.Categories](),
		),
		log:     logger,
		current: Listing{PageURL: clients.ProductsPath},
	}
}

func (b *Browser) Listing() Listing {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Load fetches the page at ref (a path or a next/previous link) together with
// the category list. A category failure is logged and the last known list is
// kept; a page failure leaves the listing unchanged.
func (b *Browser) Load(ctx context.Context, ref string) (Listing, error) {
	if ref == "" {
		ref = clients.ProductsPath
	}

	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	var (
		page   dto.ProductPage
		cats   dto.Categories
		catsOK bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := b.catalog.ListProducts(gctx, ref)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	g.Go(func() error {
		c, err := b.loadCategories(gctx)
		if err != nil {
			b.log.Warn("categories unavailable", zap.Error(err))
			return nil
		}
		cats, catsOK = c, true
		return nil
	})
	if err := g.Wait(); err != nil {
		b.log.Warn("product page failed", zap.String("ref", ref), zap.Error(err))
		return b.Listing(), err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq <= b.applied {
		return b.current, nil
	}
	b.applied = seq
	b.current.PageURL = ref
	b.current.Page = page
	if catsOK {
		b.current.Categories = cats
	}
	return b.current, nil
}

func (b *Browser) loadCategories(ctx context.Context) (dto.Categories, error) {
	if it := b.categories.Get(categoriesKey); it != nil && !it.IsExpired() {
		return it.Value(), nil
	}
	cats, err := b.catalog.ListCategories(ctx)
	if err != nil {
		return dto.Categories{}, err
	}
	b.categories.Set(categoriesKey, cats, ttlcache.DefaultTTL)
	return cats, nil
}

func (b *Browser) Next(ctx context.Context) (Listing, error) {
	next := b.Listing().Page.Next
	if next == "" {
		return b.Listing(), ErrNoPage
	}
	return b.Load(ctx, next)
}

func (b *Browser) Previous(ctx context.Context) (Listing, error) {
	prev := b.Listing().Page.Previous
	if prev == "" {
		return b.Listing(), ErrNoPage
	}
	return b.Load(ctx, prev)
}

// FilterByCategory narrows the visible cards without a request. An empty
// category shows everything.
func (b *Browser) FilterByCategory(category string) Listing {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current.Category = category
	return b.current
}

// Sort reloads the first page ordered by option.
func (b *Browser) Sort(ctx context.Context, option string) (Listing, error) {
	key, ok := ordering[option]
	if !ok {
		return b.Listing(), apperr.Validation("sort", "Unknown sort option.")
	}

	l, err := b.Load(ctx, clients.ProductsPath+"?"+url.Values{"ordering": {key}}.Encode())
	if err != nil {
		return l, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.current.Sort = option
	return b.current, nil
}

// AddToCart refuses products the current page shows as out of stock; the
// backend has the final say on everything else.
func (b *Browser) AddToCart(ctx context.Context, productID, quantity int) (cart.Snapshot, error) {
	for _, p := range b.Listing().Page.Results {
		if p.ID == productID && !p.InStock() {
			return nil, apperr.Validation("product", "This product is out of stock.")
		}
	}
	return b.cart.AddItem(ctx, productID, quantity)
}
