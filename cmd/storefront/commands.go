package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/notice"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/review"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

// printer writes one JSON document per command: the result plus any notices
// the command raised.
type printer struct {
	w io.Writer
}

func (p *printer) print(sess *session.Session, result any) error {
	sess.WaitPricing()
	if st, ok := result.(session.CartState); ok {
		st.Pricing = sess.CartState().Pricing
		result = st
	}
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Result  any             `json:"result"`
		Notices []notice.Notice `json:"notices,omitempty"`
	}{result, sess.Notices().List()})
}

type cartCmd struct{}

func (c *cartCmd) Run(ctx context.Context, sess *session.Session, p *printer) error {
	st, err := sess.OnLoad(ctx)
	if err != nil {
		return err
	}
	return p.print(sess, st)
}

type addCmd struct {
	Product  int    `arg:"" help:"Product id."`
	Quantity int    `short:"n" help:"Quantity to add." default:"1"`
	Page     string `help:"Product page the product is listed on; its stock is checked before adding."`
}

func (c *addCmd) Run(ctx context.Context, sess *session.Session, p *printer) error {
	if _, err := sess.OnLoad(ctx); err != nil {
		return err
	}
	if c.Page != "" {
		if _, err := sess.OnBrowse(ctx, c.Page); err != nil {
			return err
		}
	}
	st, err := sess.OnAddToCart(ctx, c.Product, c.Quantity)
	if err != nil {
		return err
	}
	return p.print(sess, st)
}

type qtyCmd struct {
	Line     int `arg:"" help:"Cart line id."`
	Quantity int `arg:"" help:"New quantity."`
}

func (c *qtyCmd) Run(ctx context.Context, sess *session.Session, p *printer) error {
	if _, err := sess.OnLoad(ctx); err != nil {
		return err
	}
	if err := sess.OnQuantityChange(c.Line, c.Quantity); err != nil {
		return err
	}
	st, err := sess.FlushQuantities()
	if err != nil {
		return err
	}
	return p.print(sess, st)
}

type removeCmd struct {
	Line int `arg:"" help:"Cart line id."`
}

func (c *removeCmd) Run(ctx context.Context, sess *session.Session, p *printer) error {
	if _, err := sess.OnLoad(ctx); err != nil {
		return err
	}
	st, err := sess.OnRemove(ctx, c.Line)
	if err != nil {
		return err
	}
	return p.print(sess, st)
}

type productsCmd struct {
	Page     string `arg:"" optional:"" help:"Page URL to load; defaults to the first page."`
	Sort     string `help:"Sort order: price-asc, price-desc, rating or newest."`
	Category string `help:"Only show products in this category."`
}

func (c *productsCmd) Run(ctx context.Context, sess *session.Session, p *printer) error {
	st, err := sess.OnBrowse(ctx, c.Page)
	if err != nil {
		return err
	}
	if c.Sort != "" {
		if st, err = sess.OnSort(ctx, c.Sort); err != nil {
			return err
		}
	}
	if c.Category != "" {
		st = sess.OnFilter(c.Category)
	}
	return p.print(sess, st)
}

type couponCmd struct {
	Code string `arg:"" help:"Coupon code."`
}

func (c *couponCmd) Run(ctx context.Context, sess *session.Session, p *printer) error {
	if _, err := sess.OnLoad(ctx); err != nil {
		return err
	}
	st, err := sess.OnApplyCoupon(ctx, c.Code)
	if err != nil {
		return err
	}
	return p.print(sess, st)
}

type checkoutCmd struct {
	Email         string `required:"" help:"Receipt email."`
	Address       string `required:"" help:"Delivery address."`
	PaymentMethod string `help:"Payment method id for card payments; not needed for free orders."`
}

func (c *checkoutCmd) Run(ctx context.Context, sess *session.Session, p *printer) error {
	if _, err := sess.OnLoad(ctx); err != nil {
		return err
	}
	if _, err := sess.OnCheckoutOpen(ctx); err != nil {
		return err
	}
	st, err := sess.OnCheckoutSubmit(ctx, checkout.Form{
		Address:       c.Address,
		Email:         c.Email,
		PaymentMethod: c.PaymentMethod,
	})
	if err != nil {
		return err
	}
	return p.print(sess, st)
}

type reviewCmd struct {
	Order   int    `arg:"" help:"Completed order id."`
	Product int    `arg:"" help:"Product id from that order."`
	Rating  int    `short:"r" required:"" help:"Rating from 1 to 10."`
	Comment string `short:"m" help:"Review text, at most 300 characters."`
}

func (c *reviewCmd) Run(ctx context.Context, sess *session.Session, p *printer) error {
	if _, err := sess.OnLoad(ctx); err != nil {
		return err
	}
	resp, err := sess.OnReviewSubmit(ctx, review.Request{
		OrderID:   c.Order,
		ProductID: c.Product,
		Rating:    c.Rating,
		Comment:   c.Comment,
	})
	if err != nil {
		return err
	}
	return p.print(sess, resp)
}

type healthCmd struct{}

func (c *healthCmd) Run(ctx context.Context, sess *session.Session, p *printer) error {
	res := sess.Health(ctx)
	if err := p.print(sess, res); err != nil {
		return err
	}
	if !res.OK {
		return errors.New("backend is down")
	}
	return nil
}
