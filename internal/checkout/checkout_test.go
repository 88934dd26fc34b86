package checkout

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
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
)

type fakeOrders struct {
	mu            sync.Mutex
	intentCalls   int
	completeCalls []dto.CompleteOrderRequest

	intentFn   func(ctx context.Context) (dto.PaymentIntentResponse, error)
	completeFn func(req dto.CompleteOrderRequest) (dto.CompleteOrderResponse, error)
}

func (f *fakeOrders) CreatePaymentIntent(ctx context.Context, _ dto.PaymentIntentRequest) (dto.PaymentIntentResponse, error) {
	f.mu.Lock()
	f.intentCalls++
	f.mu.Unlock()
	return f.intentFn(ctx)
}

func (f *fakeOrders) CompleteOrder(_ context.Context, req dto.CompleteOrderRequest) (dto.CompleteOrderResponse, error) {
	f.mu.Lock()
	f.completeCalls = append(f.completeCalls, req)
	f.mu.Unlock()
	if f.completeFn != nil {
		return f.completeFn(req)
	}
	return dto.CompleteOrderResponse{Success: true, OrderID: 42, TotalPaid: decimal.RequireFromString("24.75")}, nil
}

func (f *fakeOrders) intents() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.intentCalls
}

type fakeProvider struct {
	mu       sync.Mutex
	confirms int
	err      error
	gate     chan struct{}
}

func (p *fakeProvider) CreateCardElement(context.Context) (*CardElement, error) {
	return &CardElement{ID: "card_1"}, nil
}

func (p *fakeProvider) ConfirmPayment(_ context.Context, secret string, card *CardElement, _ BillingDetails) (PaymentResult, error) {
	p.mu.Lock()
	p.confirms++
	gate, err := p.gate, p.err
	p.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return PaymentResult{}, err
	}
	return PaymentResult{PaymentIntentID: "pi_1", Status: "succeeded"}, nil
}

func (p *fakeProvider) confirmed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.confirms
}

type fakeCart struct {
	mu      sync.Mutex
	snap    cart.Snapshot
	cleared int
}

func (c *fakeCart) Snapshot() cart.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.Clone()
}

func (c *fakeCart) Clear(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared++
	c.snap = cart.Snapshot{}
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []events.Envelope[events.OrderCompleted]
	err  error
}

func (p *recordingPublisher) PublishOrderCompleted(_ context.Context, env events.Envelope[events.OrderCompleted]) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, env)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newCart() *fakeCart {
	return &fakeCart{snap: cart.Snapshot{{ID: 1, ProductID: 10, Price: decimal.NewFromInt(10), Quantity: 2}}}
}

var validForm = Form{Address: "1 Main St", Email: "a@b.c", PaymentMethod: "pm_card_visa"}

func paidIntent(context.Context) (dto.PaymentIntentResponse, error) {
	return dto.PaymentIntentResponse{ClientSecret: "pi_1_secret_abc"}, nil
}

func TestFreeOrderSkipsConfirmation(t *testing.T) {
	orders := &fakeOrders{intentFn: func(context.Context) (dto.PaymentIntentResponse, error) {
		return dto.PaymentIntentResponse{FreeOrder: true}, nil
	}}
	provider := &fakeProvider{}
	c := newCart()
	pub := &recordingPublisher{}
	o := New(orders, provider, c, pub, "FREE_ORDER", zap.NewNop())

	require.NoError(t, o.Open(context.Background()))
	out, err := o.Submit(context.Background(), validForm)
	require.NoError(t, err)

	assert.True(t, out.FreeOrder)
	assert.Equal(t, "FREE_ORDER", out.PaymentIntentID)
	assert.Equal(t, 0, provider.confirms)
	require.Len(t, orders.completeCalls, 1)
	assert.Equal(t, "FREE_ORDER", orders.completeCalls[0].PaymentIntentID)

	assert.Equal(t, Done, o.State())
	assert.False(t, o.IsOpen())
	assert.Equal(t, 1, c.cleared)
	require.Len(t, pub.sent, 1)
	assert.True(t, pub.sent[0].Payload.FreeOrder)
}

func TestPaidOrder(t *testing.T) {
	orders := &fakeOrders{intentFn: paidIntent}
	provider := &fakeProvider{}
	c := newCart()
	o := New(orders, provider, c, nil, "FREE_ORDER", zap.NewNop())

	require.NoError(t, o.Open(context.Background()))
	out, err := o.Submit(context.Background(), validForm)
	require.NoError(t, err)

	assert.Equal(t, 42, out.OrderID)
	assert.Equal(t, "pi_1", out.PaymentIntentID)
	assert.Equal(t, 1, provider.confirms)
	assert.Len(t, orders.completeCalls[0].Cart, 1)

	res, ok := o.Result()
	require.True(t, ok)
	assert.Equal(t, "24.75", res.TotalPaid.StringFixed(2))
}

func TestSubmitValidation(t *testing.T) {
	tests := map[string]struct {
		form  Form
		empty bool
		field string
	}{
		"empty cart":    {form: validForm, empty: true, field: "cart"},
		"no email":      {form: Form{Address: "x"}, field: "email"},
		"bad email":     {form: Form{Address: "x", Email: "nope"}, field: "email"},
		"blank address": {form: Form{Address: "   ", Email: "a@b.c"}, field: "address"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			orders := &fakeOrders{intentFn: paidIntent}
			c := newCart()
			if tt.empty {
				c.snap = cart.Snapshot{}
			}
			o := New(orders, &fakeProvider{}, c, nil, "FREE_ORDER", zap.NewNop())
			require.NoError(t, o.Open(context.Background()))

			_, err := o.Submit(context.Background(), tt.form)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, 0, orders.intents())
			assert.Equal(t, Idle, o.State())
		})
	}
}

func TestSubmitRequiresOpenForm(t *testing.T) {
	o := New(&fakeOrders{intentFn: paidIntent}, &fakeProvider{}, newCart(), nil, "FREE_ORDER", zap.NewNop())
	_, err := o.Submit(context.Background(), validForm)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestReentrantSubmitSendsOneIntent(t *testing.T) {
	release := make(chan struct{})
	orders := &fakeOrders{intentFn: func(context.Context) (dto.PaymentIntentResponse, error) {
		<-release
		return dto.PaymentIntentResponse{ClientSecret: "pi_1_secret_abc"}, nil
	}}
	o := New(orders, &fakeProvider{}, newCart(), nil, "FREE_ORDER", zap.NewNop())
	require.NoError(t, o.Open(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background(), validForm)
		done <- err
	}()

	require.Eventually(t, func() bool { return o.State() == AwaitingIntent }, time.Second, time.Millisecond)
	assert.False(t, o.SubmitEnabled())

	_, err := o.Submit(context.Background(), validForm)
	assert.ErrorIs(t, err, ErrInFlight)
	assert.ErrorIs(t, o.Open(context.Background()), ErrInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, orders.intents())
	assert.Equal(t, Done, o.State())
}

func TestConfirmFailureAllowsRetry(t *testing.T) {
	orders := &fakeOrders{intentFn: paidIntent}
	provider := &fakeProvider{err: apperr.Validation("card", "Your card was declined.")}
	c := newCart()
	o := New(orders, provider, c, nil, "FREE_ORDER", zap.NewNop())
	require.NoError(t, o.Open(context.Background()))

	_, err := o.Submit(context.Background(), validForm)
	require.Error(t, err)
	assert.Equal(t, "Your card was declined.", apperr.UserMessage(err))
	assert.Equal(t, Failed, o.State())
	assert.Equal(t, err, o.Err())
	assert.True(t, o.SubmitEnabled())
	assert.Empty(t, orders.completeCalls)
	assert.Equal(t, 0, c.cleared)

	provider.err = nil
	_, err = o.Submit(context.Background(), validForm)
	require.NoError(t, err)
	assert.Equal(t, Done, o.State())
	assert.Equal(t, 2, orders.intents())
}

func TestIntentFailure(t *testing.T) {
	orders := &fakeOrders{intentFn: func(context.Context) (dto.PaymentIntentResponse, error) {
		return dto.PaymentIntentResponse{}, &apperr.ServerError{Op: "orders.payment_intent", Status: 400, Message: "Empty cart"}
	}}
	provider := &fakeProvider{}
	o := New(orders, provider, newCart(), nil, "FREE_ORDER", zap.NewNop())
	require.NoError(t, o.Open(context.Background()))

	_, err := o.Submit(context.Background(), validForm)
	require.Error(t, err)
	assert.Equal(t, Failed, o.State())
	assert.Equal(t, 0, provider.confirms)
}

func TestCompletionRejected(t *testing.T) {
	orders := &fakeOrders{
		intentFn: paidIntent,
		completeFn: func(dto.CompleteOrderRequest) (dto.CompleteOrderResponse, error) {
			return dto.CompleteOrderResponse{Success: false}, nil
		},
	}
	c := newCart()
	o := New(orders, &fakeProvider{}, c, nil, "FREE_ORDER", zap.NewNop())
	require.NoError(t, o.Open(context.Background()))

	_, err := o.Submit(context.Background(), validForm)
	require.Error(t, err)
	assert.True(t, apperr.IsServer(err))
	assert.Equal(t, Failed, o.State())
	assert.Equal(t, 0, c.cleared)
}

func TestCloseAbandonsInFlightAttempt(t *testing.T) {
	release := make(chan struct{})
	orders := &fakeOrders{intentFn: func(context.Context) (dto.PaymentIntentResponse, error) {
		<-release
		return dto.PaymentIntentResponse{ClientSecret: "pi_1_secret_abc"}, nil
	}}
	provider := &fakeProvider{}
	o := New(orders, provider, newCart(), nil, "FREE_ORDER", zap.NewNop())
	require.NoError(t, o.Open(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background(), validForm)
		done <- err
	}()
	require.Eventually(t, func() bool { return o.State() == AwaitingIntent }, time.Second, time.Millisecond)

	o.Close()
	assert.Equal(t, Idle, o.State())
	assert.False(t, o.IsOpen())

	// the abandoned intent request is still outstanding
	assert.ErrorIs(t, o.Open(context.Background()), ErrInFlight)
	assert.False(t, o.SubmitEnabled())

	close(release)
	assert.ErrorIs(t, <-done, ErrAbandoned)
	assert.Equal(t, Idle, o.State())
	assert.Equal(t, 0, provider.confirms)
	assert.Empty(t, orders.completeCalls)

	require.NoError(t, o.Open(context.Background()))
	assert.True(t, o.SubmitEnabled())
}

func TestReopenAfterCloseSendsOneIntentAtATime(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	release := make(chan struct{})
	orders := &fakeOrders{intentFn: func(context.Context) (dto.PaymentIntentResponse, error) {
		mu.Lock()
		active++
		if active > maxSeen {
			maxSeen = active
		}
		mu.Unlock()
		<-release
		mu.Lock()
		active--
		mu.Unlock()
		return dto.PaymentIntentResponse{FreeOrder: true}, nil
	}}
	o := New(orders, &fakeProvider{}, newCart(), nil, "FREE_ORDER", zap.NewNop())
	require.NoError(t, o.Open(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background(), validForm)
		done <- err
	}()
	require.Eventually(t, func() bool { return orders.intents() == 1 }, time.Second, time.Millisecond)

	o.Close()
	require.ErrorIs(t, o.Open(context.Background()), ErrInFlight)
	_, err := o.Submit(context.Background(), validForm)
	assert.ErrorIs(t, err, ErrNotOpen)

	close(release)
	assert.ErrorIs(t, <-done, ErrAbandoned)
	assert.Equal(t, 1, orders.intents())
	mu.Lock()
	assert.Equal(t, 1, maxSeen)
	mu.Unlock()
}

func TestCloseDuringConfirmStillCompletesOrder(t *testing.T) {
	orders := &fakeOrders{intentFn: paidIntent}
	provider := &fakeProvider{gate: make(chan struct{})}
	c := newCart()
	pub := &recordingPublisher{}
	o := New(orders, provider, c, pub, "FREE_ORDER", zap.NewNop())
	require.NoError(t, o.Open(context.Background()))

	type result struct {
		out Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := o.Submit(context.Background(), validForm)
		done <- result{out, err}
	}()
	require.Eventually(t, func() bool { return provider.confirmed() == 1 }, time.Second, time.Millisecond)

	o.Close()
	assert.False(t, o.IsOpen())
	assert.Equal(t, ConfirmingPayment, o.State())
	assert.ErrorIs(t, o.Open(context.Background()), ErrInFlight)

	close(provider.gate)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, 42, res.out.OrderID)

	require.Len(t, orders.completeCalls, 1)
	assert.Equal(t, "pi_1", orders.completeCalls[0].PaymentIntentID)
	assert.Equal(t, Done, o.State())
	assert.False(t, o.IsOpen())
	assert.Equal(t, 1, c.cleared)
	assert.Len(t, pub.sent, 1)
}

func TestPublishFailureDoesNotFailCheckout(t *testing.T) {
	orders := &fakeOrders{intentFn: paidIntent}
	pub := &recordingPublisher{err: errors.New("broker down")}
	o := New(orders, &fakeProvider{}, newCart(), pub, "FREE_ORDER", zap.NewNop())
	require.NoError(t, o.Open(context.Background()))

	_, err := o.Submit(context.Background(), validForm)
	require.NoError(t, err)
	assert.Equal(t, Done, o.State())
	assert.Len(t, pub.sent, 1)
}

func TestUnconfiguredProviderRefusesCards(t *testing.T) {
	orders := &fakeOrders{intentFn: paidIntent}
	o := New(orders, Unconfigured{}, newCart(), nil, "FREE_ORDER", zap.NewNop())
	require.NoError(t, o.Open(context.Background()))

	_, err := o.Submit(context.Background(), validForm)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, Failed, o.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "confirming_payment", ConfirmingPayment.String())
	assert.True(t, Completing.InFlight())
	assert.False(t, Failed.InFlight())
}
