// Package stripe confirms payment intents with a publishable key, the way the
// browser SDK does.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
)

const DefaultURL = "https://api.stripe.com"

type Provider struct {
	c   *clients.Client
	key string
	log *zap.Logger
}

func New(baseURL, publishableKey string, httpClient *http.Client, logger *zap.Logger) *Provider {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Provider{
		c:   clients.NewClient("stripe", baseURL, httpClient, nil, "", logger),
		key: publishableKey,
		log: logger,
	}
}

func (p *Provider) CreateCardElement(context.Context) (*checkout.CardElement, error) {
	return &checkout.CardElement{ID: "card_" + uuid.NewString()}, nil
}

// IntentID extracts "pi_123" from a client secret "pi_123_secret_abc".
func IntentID(clientSecret string) (string, bool) {
	id, _, ok := strings.Cut(clientSecret, "_secret_")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

type intentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *Provider) ConfirmPayment(ctx context.Context, clientSecret string, card *checkout.CardElement, billing checkout.BillingDetails) (checkout.PaymentResult, error) {
	const op = "stripe.confirm"

	if card == nil || card.PaymentMethod == "" {
		return checkout.PaymentResult{}, apperr.Validation("card", "Please enter your card details.")
	}
	id, ok := IntentID(clientSecret)
	if !ok {
		return checkout.PaymentResult{}, &apperr.ServerError{Op: op, Message: "malformed client secret"}
	}

	form := url.Values{
		"client_secret":  {clientSecret},
		"payment_method": {card.PaymentMethod},
	}
	if billing.Email != "" {
		form.Set("receipt_email", billing.Email)
	}

	headers := http.Header{
		"Authorization": {"Bearer " + p.key},
		"Content-Type":  {"application/x-www-form-urlencoded"},
		"Accept":        {"application/json"},
	}
	resp, err := p.c.Do(ctx, http.MethodPost, "/v1/payment_intents/"+url.PathEscape(id)+"/confirm", strings.NewReader(form.Encode()), headers)
	if err != nil {
		return checkout.PaymentResult{}, &apperr.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return checkout.PaymentResult{}, &apperr.NetworkError{Op: op, Err: err}
	}

	var out intentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return checkout.PaymentResult{}, &apperr.ServerError{Op: op, Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}

	if out.Error != nil {
		p.log.Warn("payment confirmation refused",
			zap.String("intent", id),
			zap.Int("status", resp.StatusCode),
			zap.String("type", out.Error.Type),
			zap.String("code", out.Error.Code))
		if out.Error.Type == "card_error" || out.Error.Type == "validation_error" {
			return checkout.PaymentResult{}, apperr.Validation("card", out.Error.Message)
		}
		return checkout.PaymentResult{}, &apperr.ServerError{Op: op, Status: resp.StatusCode, Message: out.Error.Message}
	}
	if resp.StatusCode >= 300 {
		return checkout.PaymentResult{}, &apperr.ServerError{Op: op, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	switch out.Status {
	case "succeeded", "processing":
		return checkout.PaymentResult{PaymentIntentID: out.ID, Status: out.Status}, nil
	case "requires_action":
		return checkout.PaymentResult{}, apperr.Validation("card", "Your bank asked for extra verification. Please try another card.")
	default:
		return checkout.PaymentResult{}, apperr.Validation("card", fmt.Sprintf("Payment was not completed (%s).", out.Status))
	}
}
