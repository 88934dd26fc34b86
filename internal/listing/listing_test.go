package listing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/dto"
)

type fakeCatalog struct {
	mu       sync.Mutex
	refs     []string
	catCalls int
	pages    map[string]dto.ProductPage
	pageErr  error
	catErr   error
}

func (f *fakeCatalog) ListProducts(_ context.Context, ref string) (dto.ProductPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs = append(f.refs, ref)
	if f.pageErr != nil {
		return dto.ProductPage{}, f.pageErr
	}
	return f.pages[ref], nil
}

func (f *fakeCatalog) ListCategories(context.Context) (dto.Categories, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catCalls++
	if f.catErr != nil {
		return dto.Categories{}, f.catErr
	}
	return dto.Categories{Categories: []string{"Home", "Garden"}}, nil
}

type fakeAdder struct {
	added []int
}

func (a *fakeAdder) AddItem(_ context.Context, productID, quantity int) (cart.Snapshot, error) {
	a.added = append(a.added, productID)
	return cart.Snapshot{{ID: 1, ProductID: productID, Quantity: quantity, Price: decimal.NewFromInt(1)}}, nil
}

func intp(n int) *int { return &n }

func newCatalog() *fakeCatalog {
	return &fakeCatalog{pages: map[string]dto.ProductPage{
		"/api/products/": {
			Count: 3,
			Next:  "http://shop/api/products/?page=2",
			Results: []dto.Product{
				{ID: 1, Name: "Lamp", Category: "Home", Stock: intp(3)},
				{ID: 2, Name: "Rake", Category: "Garden", Stock: intp(0)},
			},
		},
		"http://shop/api/products/?page=2": {
			Count:    3,
			Previous: "http://shop/api/products/",
			Results:  []dto.Product{{ID: 3, Name: "Hose", Category: "Garden"}},
		},
		"/api/products/?ordering=-price": {
			Count:   3,
			Results: []dto.Product{{ID: 3}, {ID: 1}, {ID: 2}},
		},
	}}
}

func TestLoadAndPaginate(t *testing.T) {
	cat := newCatalog()
	b := NewBrowser(cat, &fakeAdder{}, time.Minute, zap.NewNop())
	ctx := context.Background()

	l, err := b.Load(ctx, "")
	require.NoError(t, err)
	assert.Len(t, l.Page.Results, 2)
	assert.Equal(t, []string{"Home", "Garden"}, l.Categories.Categories)
	assert.True(t, l.HasNext())
	assert.False(t, l.HasPrevious())

	_, err = b.Previous(ctx)
	assert.ErrorIs(t, err, ErrNoPage)

	l, err = b.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, l.Page.Results[0].ID)
	assert.True(t, l.HasPrevious())

	l, err = b.Previous(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Page.Results[0].ID)

	assert.Equal(t, 1, cat.catCalls, "categories are cached")
}

func TestLoadFailureKeepsListing(t *testing.T) {
	cat := newCatalog()
	b := NewBrowser(cat, &fakeAdder{}, time.Minute, zap.NewNop())

	_, err := b.Load(context.Background(), "")
	require.NoError(t, err)

	cat.pageErr = &apperr.NetworkError{Op: "catalog.products", Err: errors.New("down")}
	l, err := b.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, l.Page.Results[0].ID)
}

func TestCategoryFailureIsNotFatal(t *testing.T) {
	cat := newCatalog()
	cat.catErr = errors.New("boom")
	b := NewBrowser(cat, &fakeAdder{}, time.Minute, zap.NewNop())

	l, err := b.Load(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, l.Page.Results, 2)
	assert.Empty(t, l.Categories.Categories)
}

func TestFilterByCategory(t *testing.T) {
	cat := newCatalog()
	b := NewBrowser(cat, &fakeAdder{}, time.Minute, zap.NewNop())
	_, err := b.Load(context.Background(), "")
	require.NoError(t, err)

	l := b.FilterByCategory("Garden")
	assert.Equal(t, "Garden", l.Category)
	assert.Len(t, cat.refs, 1, "filtering is client-side")

	assert.Empty(t, b.FilterByCategory("").Category)
}

func TestSort(t *testing.T) {
	cat := newCatalog()
	b := NewBrowser(cat, &fakeAdder{}, time.Minute, zap.NewNop())

	l, err := b.Sort(context.Background(), "price-desc")
	require.NoError(t, err)
	assert.Equal(t, "price-desc", l.Sort)
	assert.Equal(t, "/api/products/?ordering=-price", cat.refs[0])
	assert.Equal(t, 3, l.Page.Results[0].ID)

	_, err = b.Sort(context.Background(), "cheapest")
	assert.True(t, apperr.IsValidation(err))
}

func TestSortOptions(t *testing.T) {
	opts := SortOptions()
	require.Len(t, opts, 4)
	assert.Equal(t, SortOption{Value: "price-asc", Text: "Price: Low to High"}, opts[0])
	assert.Equal(t, "newest", opts[3].Value)

	opts[0].Text = "changed"
	assert.Equal(t, "Price: Low to High", SortOptions()[0].Text)
}

func TestAddToCart(t *testing.T) {
	adder := &fakeAdder{}
	b := NewBrowser(newCatalog(), adder, time.Minute, zap.NewNop())
	_, err := b.Load(context.Background(), "")
	require.NoError(t, err)

	_, err = b.AddToCart(context.Background(), 2, 1)
	assert.True(t, apperr.IsValidation(err))
	assert.Empty(t, adder.added)

	snap, err := b.AddToCart(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap[0].Quantity)
	assert.Equal(t, []int{1}, adder.added)
}
