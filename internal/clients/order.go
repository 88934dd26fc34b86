package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/dto"
)

type OrderClient struct{ c *Client }

func NewOrderClient(c *Client) *OrderClient { return &OrderClient{c: c} }

func (oc *OrderClient) CreatePaymentIntent(ctx context.Context, req dto.PaymentIntentRequest) (dto.PaymentIntentResponse, error) {
	var out dto.PaymentIntentResponse
	err := oc.c.DoJSON(ctx, "orders.payment_intent", http.MethodPost, "/orders/create-payment-intent/", req, &out)
	return out, err
}

// ApplyCoupon stores the code in the backend session. The backend answers with
// a redirect to the cart page; the effect shows up in the next pricing quote.
func (oc *OrderClient) ApplyCoupon(ctx context.Context, code string) error {
	return oc.c.DoForm(ctx, "orders.apply_coupon", "/orders/apply-coupon/", url.Values{"discount_code": {code}})
}

func (oc *OrderClient) CompleteOrder(ctx context.Context, req dto.CompleteOrderRequest) (dto.CompleteOrderResponse, error) {
	var out dto.CompleteOrderResponse
	err := oc.c.DoJSON(ctx, "orders.complete", http.MethodPost, "/orders/complete-order/", req, &out)
	return out, err
}

func (oc *OrderClient) AddReview(ctx context.Context, req dto.ReviewRequest) (dto.ReviewResponse, error) {
	var out dto.ReviewResponse
	err := oc.c.DoJSON(ctx, "orders.add_review", http.MethodPost, "/orders/add-review/", req, &out)
	return out, err
}
