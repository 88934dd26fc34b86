package dto

import (
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

type PaymentIntentRequest struct {
	Cart    []cart.Line `json:"cart"`
	Address string      `json:"address,omitempty"`
	Email   string      `json:"email,omitempty"`
}

// PaymentIntentResponse doubles as the pricing quote: the backend prices the
// cart (coupon and shipping included) before creating the intent.
type PaymentIntentResponse struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	ShippingFee  decimal.Decimal `json:"shipping_fee"`
	FinalTotal   decimal.Decimal `json:"final_total"`
	CouponCode   string          `json:"coupon_code,omitempty"`
	FreeOrder    bool            `json:"freeOrder,omitempty"`
	ClientSecret string          `json:"clientSecret,omitempty"`
}

type CompleteOrderRequest struct {
	Address         string      `json:"address"`
	Email           string      `json:"email"`
	Cart            []cart.Line `json:"cart"`
	PaymentIntentID string      `json:"paymentIntentId"`
}

type CompleteOrderResponse struct {
	Success      bool            `json:"success"`
	OrderID      int             `json:"order_id,omitempty"`
	OrderItemIDs []int           `json:"order_item_ids,omitempty"`
	Discount     decimal.Decimal `json:"discount"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
}

type ReviewRequest struct {
	OrderID   int    `json:"order_id"`
	ProductID int    `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type ReviewResponse struct {
	Success  bool `json:"success"`
	ReviewID int  `json:"review_id"`
}
