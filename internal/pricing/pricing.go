// Package pricing derives the cart's monetary summary. Subtotals are computed
// locally; discount, shipping and the final total come from the backend quote.
package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/dto"
)

// IntentCreator prices a cart. The payment-intent endpoint answers with the
// full breakdown, so it doubles as the quote source.
type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, req dto.PaymentIntentRequest) (dto.PaymentIntentResponse, error)
}

type Summary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	FinalTotal  decimal.Decimal `json:"final_total"`
	CouponCode  string          `json:"coupon_code,omitempty"`
	FreeOrder   bool            `json:"free_order"`
}

func LineTotal(l cart.Line) decimal.Decimal { return l.Total() }

func Subtotal(snap cart.Snapshot) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range snap {
		sum = sum.Add(LineTotal(l))
	}
	return sum
}

func fromResponse(resp dto.PaymentIntentResponse) Summary {
	return Summary{
		Subtotal:    resp.Subtotal,
		Discount:    resp.Discount,
		ShippingFee: resp.ShippingFee,
		FinalTotal:  resp.FinalTotal,
		CouponCode:  resp.CouponCode,
		FreeOrder:   resp.FreeOrder,
	}
}

// Aggregator keeps the latest quote for the cart.
type Aggregator struct {
	orders IntentCreator
	log    *zap.Logger

	wg sync.WaitGroup

	mu      sync.Mutex
	seq     uint64
	applied uint64
	current Summary
}

func NewAggregator(orders IntentCreator, logger *zap.Logger) *Aggregator {
	return &Aggregator{orders: orders, log: logger}
}

func (a *Aggregator) Current() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Refresh asks the backend to price snap. On failure the previous summary is
// kept and returned together with the error. An empty cart prices to zero
// without a request.
func (a *Aggregator) Refresh(ctx context.Context, snap cart.Snapshot) (Summary, error) {
	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.mu.Unlock()

	if snap.Empty() {
		return a.apply(seq, Summary{}), nil
	}

	resp, err := a.orders.CreatePaymentIntent(ctx, dto.PaymentIntentRequest{Cart: snap})
	if err != nil {
		a.log.Warn("pricing refresh failed", zap.Int("lines", len(snap)), zap.Error(err))
		return a.Current(), err
	}

	sum := fromResponse(resp)
	if sum.Subtotal.IsZero() {
		sum.Subtotal = Subtotal(snap)
	}
	return a.apply(seq, sum), nil
}

// Listener adapts Refresh to a cart subscription. The quote is fetched in the
// background with its own timeout so a slow pricing endpoint never holds up a
// cart mutation; an empty cart is priced in place. Errors were already
// logged.
func (a *Aggregator) Listener(timeout time.Duration) cart.Listener {
	return func(ctx context.Context, snap cart.Snapshot) {
		if snap.Empty() {
			_, _ = a.Refresh(ctx, snap)
			return
		}

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
			defer cancel()
			_, _ = a.Refresh(ctx, snap)
		}()
	}
}

// Wait blocks until background refreshes started by Listener have returned.
func (a *Aggregator) Wait() { a.wg.Wait() }

// apply stores sum unless a later refresh already landed, and returns
// whatever is current afterwards.
func (a *Aggregator) apply(seq uint64, sum Summary) Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	if seq > a.applied {
		a.applied = seq
		a.current = sum
	}
	return a.current
}
