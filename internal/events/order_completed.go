package events

import (
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	OrderCompletedEventName = "StorefrontOrderCompleted"
	OrderCompletedVersion   = 1
)

type OrderLine struct {
	ProductID int             `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderCompleted struct {
	OrderID         int             `json:"orderId"`
	Email           string          `json:"email"`
	Lines           []OrderLine     `json:"lines"`
	TotalPaid       decimal.Decimal `json:"totalPaid"`
	Discount        decimal.Decimal `json:"discount"`
	PaymentIntentID string          `json:"paymentIntentId"`
	FreeOrder       bool            `json:"freeOrder"`
}

func NewOrderCompletedEnvelope(p OrderCompleted, correlationID string) Envelope[OrderCompleted] {
	return NewEnvelope(OrderCompletedEventName, OrderCompletedVersion, strconv.Itoa(p.OrderID), correlationID, p)
}
