package checkout

import (
	"context"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/apperr"
)

// CardElement is the provider's handle on the card entry field. PaymentMethod
// is the tokenised card once the shopper has filled it in.
type CardElement struct {
	ID            string
	PaymentMethod string
}

type BillingDetails struct {
	Email   string
	Address string
}

type PaymentResult struct {
	PaymentIntentID string
	Status          string
}

type PaymentProvider interface {
	CreateCardElement(ctx context.Context) (*CardElement, error)
	ConfirmPayment(ctx context.Context, clientSecret string, card *CardElement, billing BillingDetails) (PaymentResult, error)
}

// Unconfigured is used when no payment key is set. Free orders still go
// through; anything that needs a card is refused.
type Unconfigured struct{}

func (Unconfigured) CreateCardElement(context.Context) (*CardElement, error) {
	return &CardElement{ID: "card_" + uuid.NewString()}, nil
}

func (Unconfigured) ConfirmPayment(context.Context, string, *CardElement, BillingDetails) (PaymentResult, error) {
	return PaymentResult{}, apperr.Validation("card", "Card payments are not available right now.")
}
