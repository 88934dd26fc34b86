// Package checkout drives one shopper through payment: intent, card
// confirmation (skipped for free orders) and order completion.
package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/dto"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

var (
	ErrInFlight  = errors.New("checkout: payment already in progress")
	ErrNotOpen   = errors.New("checkout: payment form is not open")
	ErrAbandoned = errors.New("checkout: attempt abandoned")
)

type Orders interface {
	CreatePaymentIntent(ctx context.Context, req dto.PaymentIntentRequest) (dto.PaymentIntentResponse, error)
	CompleteOrder(ctx context.Context, req dto.CompleteOrderRequest) (dto.CompleteOrderResponse, error)
}

type Cart interface {
	Snapshot() cart.Snapshot
	Clear(ctx context.Context)
}

type Form struct {
	Address       string `json:"address"`
	Email         string `json:"email"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

type Outcome struct {
	OrderID         int             `json:"orderId"`
	OrderItemIDs    []int           `json:"orderItemIds,omitempty"`
	TotalPaid       decimal.Decimal `json:"totalPaid"`
	Discount        decimal.Decimal `json:"discount"`
	PaymentIntentID string          `json:"paymentIntentId"`
	FreeOrder       bool            `json:"freeOrder"`
}

type Orchestrator struct {
	orders    Orders
	provider  PaymentProvider
	cart      Cart
	publisher events.Publisher
	sentinel  string
	log       *zap.Logger

	mu       sync.Mutex
	state    State
	inflight bool
	open     bool
	attempt  string
	card     *CardElement
	form     Form
	err      error
	outcome  *Outcome
}

func New(orders Orders, provider PaymentProvider, c Cart, publisher events.Publisher, freeOrderSentinel string, logger *zap.Logger) *Orchestrator {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Orchestrator{
		orders:    orders,
		provider:  provider,
		cart:      c,
		publisher: publisher,
		sentinel:  freeOrderSentinel,
		log:       logger,
	}
}

// Open shows the payment form with a fresh card element.
func (o *Orchestrator) Open(ctx context.Context) error {
	o.mu.Lock()
	if o.busy() {
		o.mu.Unlock()
		return ErrInFlight
	}
	o.mu.Unlock()

	card, err := o.provider.CreateCardElement(ctx)
	if err != nil {
		o.log.Warn("card element unavailable", zap.Error(err))
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy() {
		return ErrInFlight
	}
	o.state = Idle
	o.open = true
	o.attempt = ""
	o.card = card
	o.form = Form{}
	o.err = nil
	o.outcome = nil
	return nil
}

// Close hides the form. An attempt still waiting for its intent is
// abandoned and its result discarded. Once the card is being confirmed the
// attempt runs on to completion, since money may already have moved; only
// the form goes away.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.open = false
	o.card = nil
	o.form = Form{}

	switch o.state {
	case ConfirmingPayment, Completing:
		o.log.Info("checkout closed while payment settles", zap.String("attempt", o.attempt), zap.Stringer("state", o.state))
		return
	case AwaitingIntent:
		o.log.Info("checkout attempt abandoned", zap.String("attempt", o.attempt))
	}
	if o.state != Done {
		o.state = Idle
	}
	o.attempt = ""
	o.err = nil
}

// busy reports whether a Submit call is still running, including one whose
// attempt was abandoned. Callers hold o.mu.
func (o *Orchestrator) busy() bool {
	return o.inflight || o.state.InFlight()
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) IsOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open
}

// SubmitEnabled mirrors the pay button: usable only while the form is open
// and nothing is in flight.
func (o *Orchestrator) SubmitEnabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open && !o.busy()
}

// Err is the failure of the last attempt, if it ended in Failed.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

func (o *Orchestrator) Result() (Outcome, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcome == nil {
		return Outcome{}, false
	}
	return *o.outcome, true
}

func validateForm(f Form, snap cart.Snapshot) error {
	switch {
	case snap.Empty():
		return apperr.Validation("cart", "Your cart is empty.")
	case strings.TrimSpace(f.Email) == "":
		return apperr.Validation("email", "Email is required.")
	case !strings.Contains(f.Email, "@"):
		return apperr.Validation("email", "Enter a valid email address.")
	case strings.TrimSpace(f.Address) == "":
		return apperr.Validation("address", "Address is required.")
	}
	return nil
}

// Submit runs one payment attempt to completion.
func (o *Orchestrator) Submit(ctx context.Context, f Form) (Outcome, error) {
	f.Email = strings.TrimSpace(f.Email)
	f.Address = strings.TrimSpace(f.Address)

	o.mu.Lock()
	if !o.open {
		o.mu.Unlock()
		return Outcome{}, ErrNotOpen
	}
	if o.busy() {
		o.mu.Unlock()
		return Outcome{}, ErrInFlight
	}
	snap := o.cart.Snapshot()
	if err := validateForm(f, snap); err != nil {
		o.mu.Unlock()
		return Outcome{}, err
	}
	attempt := uuid.NewString()
	o.attempt = attempt
	o.state = AwaitingIntent
	o.inflight = true
	o.form = f
	o.err = nil
	card := o.card
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inflight = false
		o.mu.Unlock()
	}()

	log := o.log.With(zap.String("attempt", attempt), zap.String("correlation_id", middleware.GetCorrelationID(ctx)))

	intent, err := o.orders.CreatePaymentIntent(ctx, dto.PaymentIntentRequest{Cart: snap, Address: f.Address, Email: f.Email})
	if err != nil {
		return Outcome{}, o.fail(attempt, log, "payment intent", err)
	}

	var intentID string
	if intent.FreeOrder {
		if !o.advance(attempt, Completing) {
			return Outcome{}, ErrAbandoned
		}
		intentID = o.sentinel
	} else {
		if intent.ClientSecret == "" {
			return Outcome{}, o.fail(attempt, log, "payment intent", &apperr.ServerError{Op: "orders.payment_intent", Message: "missing client secret"})
		}
		if !o.advance(attempt, ConfirmingPayment) {
			return Outcome{}, ErrAbandoned
		}
		if card != nil && f.PaymentMethod != "" {
			c := *card
			c.PaymentMethod = f.PaymentMethod
			card = &c
		}

		res, err := o.provider.ConfirmPayment(ctx, intent.ClientSecret, card, BillingDetails{Email: f.Email, Address: f.Address})
		if err != nil {
			return Outcome{}, o.fail(attempt, log, "confirm payment", err)
		}
		// confirming attempts are never abandoned, so this always advances
		o.advance(attempt, Completing)
		intentID = res.PaymentIntentID
	}

	done, err := o.orders.CompleteOrder(ctx, dto.CompleteOrderRequest{
		Address:         f.Address,
		Email:           f.Email,
		Cart:            snap,
		PaymentIntentID: intentID,
	})
	if err == nil && !done.Success {
		err = &apperr.ServerError{Op: "orders.complete", Message: "order was not completed"}
	}
	if err != nil {
		return Outcome{}, o.fail(attempt, log.With(zap.String("payment_intent", intentID)), "complete order", err)
	}

	out := Outcome{
		OrderID:         done.OrderID,
		OrderItemIDs:    done.OrderItemIDs,
		TotalPaid:       done.TotalPaid,
		Discount:        done.Discount,
		PaymentIntentID: intentID,
		FreeOrder:       intent.FreeOrder,
	}

	o.mu.Lock()
	o.state = Done
	o.outcome = &out
	o.open = false
	o.card = nil
	o.form = Form{}
	o.mu.Unlock()

	log.Info("order completed", zap.Int("order_id", out.OrderID), zap.Bool("free_order", out.FreeOrder))

	o.cart.Clear(ctx)
	o.publish(ctx, log, out, f.Email, snap)
	return out, nil
}

func (o *Orchestrator) advance(attempt string, next State) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attempt != attempt {
		return false
	}
	o.state = next
	return true
}

func (o *Orchestrator) fail(attempt string, log *zap.Logger, step string, err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attempt != attempt {
		return ErrAbandoned
	}
	log.Warn("checkout step failed", zap.String("step", step), zap.Stringer("state", o.state), zap.Error(err))
	o.state = Failed
	o.err = err
	return err
}

func (o *Orchestrator) publish(ctx context.Context, log *zap.Logger, out Outcome, email string, snap cart.Snapshot) {
	payload := events.OrderCompleted{
		OrderID:         out.OrderID,
		Email:           email,
		TotalPaid:       out.TotalPaid,
		Discount:        out.Discount,
		PaymentIntentID: out.PaymentIntentID,
		FreeOrder:       out.FreeOrder,
	}
	for _, l := range snap {
		payload.Lines = append(payload.Lines, events.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price})
	}

	env := events.NewOrderCompletedEnvelope(payload, middleware.GetCorrelationID(ctx))
	if err := o.publisher.PublishOrderCompleted(ctx, env); err != nil {
		log.Warn("order event not published", zap.Int("order_id", out.OrderID), zap.Error(err))
	}
}
