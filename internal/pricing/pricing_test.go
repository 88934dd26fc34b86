package pricing

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

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/dto"
)

type fakeIntents struct {
	mu    sync.Mutex
	calls []dto.PaymentIntentRequest
	fn    func(req dto.PaymentIntentRequest) (dto.PaymentIntentResponse, error)
}

func (f *fakeIntents) CreatePaymentIntent(_ context.Context, req dto.PaymentIntentRequest) (dto.PaymentIntentResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.fn(req)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleCart() cart.Snapshot {
	return cart.Snapshot{
		{ID: 1, ProductID: 10, Price: dec("10"), Quantity: 2},
		{ID: 2, ProductID: 11, Price: dec("5"), Quantity: 1},
	}
}

func TestSubtotal(t *testing.T) {
	assert.Equal(t, "25.00", Subtotal(sampleCart()).StringFixed(2))
	assert.True(t, Subtotal(nil).IsZero())
	assert.Equal(t, "20.00", LineTotal(sampleCart()[0]).StringFixed(2))
}

func TestRefresh(t *testing.T) {
	intents := &fakeIntents{fn: func(dto.PaymentIntentRequest) (dto.PaymentIntentResponse, error) {
		return dto.PaymentIntentResponse{
			Subtotal:    dec("25"),
			Discount:    dec("2.5"),
			ShippingFee: dec("2.25"),
			FinalTotal:  dec("24.75"),
			CouponCode:  "SAVE10",
		}, nil
	}}
	agg := NewAggregator(intents, zap.NewNop())

	sum, err := agg.Refresh(context.Background(), sampleCart())
	require.NoError(t, err)
	assert.Equal(t, "24.75", sum.FinalTotal.StringFixed(2))
	assert.Equal(t, "SAVE10", sum.CouponCode)
	assert.Equal(t, sum, agg.Current())

	require.Len(t, intents.calls, 1)
	assert.Len(t, intents.calls[0].Cart, 2)
	assert.Empty(t, intents.calls[0].Email)
}

func TestRefreshFailureKeepsPreviousSummary(t *testing.T) {
	fail := false
	intents := &fakeIntents{fn: func(dto.PaymentIntentRequest) (dto.PaymentIntentResponse, error) {
		if fail {
			return dto.PaymentIntentResponse{}, errors.New("boom")
		}
		return dto.PaymentIntentResponse{Subtotal: dec("25"), FinalTotal: dec("27.5"), ShippingFee: dec("2.5")}, nil
	}}
	agg := NewAggregator(intents, zap.NewNop())

	_, err := agg.Refresh(context.Background(), sampleCart())
	require.NoError(t, err)

	fail = true
	sum, err := agg.Refresh(context.Background(), sampleCart())
	require.Error(t, err)
	assert.Equal(t, "27.50", sum.FinalTotal.StringFixed(2))
	assert.Equal(t, "27.50", agg.Current().FinalTotal.StringFixed(2))
}

func TestEmptyCartSkipsRequest(t *testing.T) {
	intents := &fakeIntents{fn: func(dto.PaymentIntentRequest) (dto.PaymentIntentResponse, error) {
		return dto.PaymentIntentResponse{Subtotal: dec("25"), FinalTotal: dec("25")}, nil
	}}
	agg := NewAggregator(intents, zap.NewNop())

	_, err := agg.Refresh(context.Background(), sampleCart())
	require.NoError(t, err)

	sum, err := agg.Refresh(context.Background(), cart.Snapshot{})
	require.NoError(t, err)
	assert.True(t, sum.FinalTotal.IsZero())
	assert.Len(t, intents.calls, 1)
}

func TestFallbackSubtotal(t *testing.T) {
	intents := &fakeIntents{fn: func(dto.PaymentIntentRequest) (dto.PaymentIntentResponse, error) {
		return dto.PaymentIntentResponse{FreeOrder: true}, nil
	}}
	agg := NewAggregator(intents, zap.NewNop())

	sum, err := agg.Refresh(context.Background(), sampleCart())
	require.NoError(t, err)
	assert.True(t, sum.FreeOrder)
	assert.Equal(t, "25.00", sum.Subtotal.StringFixed(2))
}

func TestListenerRefreshesOnCartChange(t *testing.T) {
	intents := &fakeIntents{fn: func(req dto.PaymentIntentRequest) (dto.PaymentIntentResponse, error) {
		return dto.PaymentIntentResponse{Subtotal: Subtotal(req.Cart), FinalTotal: Subtotal(req.Cart)}, nil
	}}
	agg := NewAggregator(intents, zap.NewNop())

	agg.Listener(time.Second)(context.Background(), sampleCart()[:1])
	agg.Wait()
	assert.Equal(t, "20.00", agg.Current().FinalTotal.StringFixed(2))

	agg.Listener(time.Second)(context.Background(), cart.Snapshot{})
	assert.True(t, agg.Current().FinalTotal.IsZero())
	assert.Len(t, intents.calls, 1)
}

type instantBackend struct{}

func (instantBackend) List(context.Context) ([]cart.Line, error) { return nil, nil }

func (instantBackend) Add(_ context.Context, productID, quantity int) ([]cart.Line, error) {
	return []cart.Line{{ID: 1, ProductID: productID, Price: dec("10"), Quantity: quantity}}, nil
}

func (instantBackend) Update(context.Context, int, int) ([]cart.Line, error) { return nil, nil }

func (instantBackend) Remove(context.Context, int) ([]cart.Line, error) { return nil, nil }

func TestSlowQuoteDoesNotDelayCartMutation(t *testing.T) {
	release := make(chan struct{})
	intents := &fakeIntents{fn: func(dto.PaymentIntentRequest) (dto.PaymentIntentResponse, error) {
		<-release
		return dto.PaymentIntentResponse{}, errors.New("quote timed out")
	}}
	agg := NewAggregator(intents, zap.NewNop())

	svc := cart.NewService(instantBackend{}, cart.NewStore(), zap.NewNop())
	svc.Subscribe(agg.Listener(time.Minute))

	start := time.Now()
	snap, err := svc.AddItem(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Len(t, snap, 1)
	assert.Less(t, time.Since(start), 200*time.Millisecond)

	close(release)
	agg.Wait()
	assert.True(t, agg.Current().FinalTotal.IsZero())
}

func TestListenerTimeout(t *testing.T) {
	var deadline time.Time
	blocking := &ctxIntents{fn: func(ctx context.Context) (dto.PaymentIntentResponse, error) {
		deadline, _ = ctx.Deadline()
		<-ctx.Done()
		return dto.PaymentIntentResponse{}, ctx.Err()
	}}
	agg := NewAggregator(blocking, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	agg.Listener(20*time.Millisecond)(ctx, sampleCart())
	// the caller's cancellation does not cut the background quote short
	cancel()
	agg.Wait()

	assert.False(t, deadline.IsZero())
	assert.Equal(t, 1, blocking.calls())
}

type ctxIntents struct {
	mu sync.Mutex
	n  int
	fn func(ctx context.Context) (dto.PaymentIntentResponse, error)
}

func (f *ctxIntents) CreatePaymentIntent(ctx context.Context, _ dto.PaymentIntentRequest) (dto.PaymentIntentResponse, error) {
	f.mu.Lock()
	f.n++
	f.mu.Unlock()
	return f.fn(ctx)
}

func (f *ctxIntents) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}
