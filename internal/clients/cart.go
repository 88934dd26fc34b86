package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

type CartClient struct{ c *Client }

func NewCartClient(c *Client) *CartClient { return &CartClient{c: c} }

type cartItemRequest struct {
	ItemID   int `json:"item_id"`
	Quantity int `json:"quantity"`
}

// cartPayload accepts both answer shapes of the cart endpoints: a bare array
// (list, add) and {"cart": [...]} (update, remove).
type cartPayload []cart.Line

func (p *cartPayload) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var lines []cart.Line
		if err := json.Unmarshal(trimmed, &lines); err != nil {
			return err
		}
		*p = lines
		return nil
	}

	var wrapped struct {
		Cart *[]cart.Line `json:"cart"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	if wrapped.Cart == nil {
		return errors.New("response has no cart")
	}
	*p = *wrapped.Cart
	return nil
}

func (cc *CartClient) List(ctx context.Context) ([]cart.Line, error) {
	var out cartPayload
	if err := cc.c.DoJSON(ctx, "cart.list", http.MethodGet, "/api/cart/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (cc *CartClient) Add(ctx context.Context, productID, quantity int) ([]cart.Line, error) {
	var out cartPayload
	in := cartItemRequest{ItemID: productID, Quantity: quantity}
	if err := cc.c.DoJSON(ctx, "cart.add", http.MethodPost, "/api/cart/add/", in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update sets the quantity of a cart line; item_id is the line id here, not
// the product id.
func (cc *CartClient) Update(ctx context.Context, lineID, quantity int) ([]cart.Line, error) {
	var out cartPayload
	in := cartItemRequest{ItemID: lineID, Quantity: quantity}
	if err := cc.c.DoJSON(ctx, "cart.update", http.MethodPost, "/api/cart/update/", in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (cc *CartClient) Remove(ctx context.Context, lineID int) ([]cart.Line, error) {
	var out cartPayload
	path := "/api/cart/remove/" + strconv.Itoa(lineID) + "/"
	if err := cc.c.DoJSON(ctx, "cart.remove", http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
