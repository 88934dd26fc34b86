package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/dto"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/listing"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/review"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/view"
)

type CartState struct {
	Cart    view.CartView    `json:"cart"`
	Pricing view.PricingView `json:"pricing"`
}

type CheckoutState struct {
	State         string            `json:"state"`
	Open          bool              `json:"open"`
	SubmitEnabled bool              `json:"submitEnabled"`
	Error         string            `json:"error,omitempty"`
	Outcome       *checkout.Outcome `json:"outcome,omitempty"`
}

type ProductsState struct {
	Products    view.ProductsView    `json:"products"`
	Categories  dto.Categories       `json:"categories"`
	SortOptions []listing.SortOption `json:"sortOptions"`
	Sort        string               `json:"sort,omitempty"`
}

// ReviewState mirrors the review comment box.
type ReviewState struct {
	Comment   string `json:"comment"`
	Counter   string `json:"counter"`
	NearLimit bool   `json:"nearLimit"`
	Truncated bool   `json:"truncated"`
	MaxChars  int    `json:"maxChars"`
}

// UserMessage is the notice text for err.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, checkout.ErrInFlight):
		return "Your payment is already being processed."
	case errors.Is(err, checkout.ErrNotOpen):
		return "Open the checkout form first."
	case errors.Is(err, listing.ErrNoPage):
		return "There are no more products in that direction."
	}
	return apperr.UserMessage(err)
}

func (s *Session) CartState() CartState {
	return CartState{
		Cart:    view.RenderCart(s.cart.Snapshot()),
		Pricing: view.RenderPricing(s.pricing.Current()),
	}
}

func (s *Session) CheckoutState() CheckoutState {
	st := CheckoutState{
		State:         s.checkout.State().String(),
		Open:          s.checkout.IsOpen(),
		SubmitEnabled: s.checkout.SubmitEnabled(),
	}
	if err := s.checkout.Err(); err != nil {
		st.Error = UserMessage(err)
	}
	if out, ok := s.checkout.Result(); ok {
		st.Outcome = &out
	}
	return st
}

func (s *Session) ProductsState() ProductsState {
	l := s.browser.Listing()
	return ProductsState{
		Products:    view.RenderProducts(l.Page, l.Category),
		Categories:  l.Categories,
		SortOptions: listing.SortOptions(),
		Sort:        l.Sort,
	}
}

// OnLoad primes the CSRF cookie and fetches the cart. Pricing follows from
// the cart subscription.
func (s *Session) OnLoad(ctx context.Context) (CartState, error) {
	s.primeCSRF(ctx)

	ctx, cancel := withTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	if _, err := s.cart.FetchCart(ctx); err != nil {
		return s.CartState(), s.report(err)
	}
	return s.CartState(), nil
}

func (s *Session) OnAddToCart(ctx context.Context, productID, quantity int) (CartState, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	if _, err := s.browser.AddToCart(ctx, productID, quantity); err != nil {
		return s.CartState(), s.report(err)
	}
	s.notices.Info("Item added to cart.")
	return s.CartState(), nil
}

// OnQuantityChange schedules the edit; only the last edit per line within the
// debounce window reaches the backend.
func (s *Session) OnQuantityChange(lineID, quantity int) error {
	return s.report(s.quantities.Schedule(lineID, quantity))
}

// FlushQuantities sends pending quantity edits now. A refused edit is
// already a notice; the error is returned as the backend gave it.
func (s *Session) FlushQuantities() (CartState, error) {
	err := s.quantities.Flush()
	return s.CartState(), err
}

func (s *Session) OnRemove(ctx context.Context, lineID int) (CartState, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	if _, err := s.cart.RemoveItem(ctx, lineID); err != nil {
		return s.CartState(), s.report(err)
	}
	s.notices.Info("Item removed from cart.")
	return s.CartState(), nil
}

// OnApplyCoupon stores the code in the backend session and re-prices the
// cart. Whether the code was valid shows in the new discount.
func (s *Session) OnApplyCoupon(ctx context.Context, code string) (CartState, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return s.CartState(), s.report(apperr.Validation("discount_code", "Enter a coupon code."))
	}

	ctx, cancel := withTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	if err := s.orders.ApplyCoupon(ctx, code); err != nil {
		return s.CartState(), s.report(err)
	}

	sum, err := s.pricing.Refresh(ctx, s.cart.Snapshot())
	if err != nil {
		return s.CartState(), s.report(err)
	}
	if sum.Discount.IsPositive() {
		s.notices.Info("Coupon applied.")
	} else {
		s.notices.Error("Coupon is invalid or expired.")
	}
	return s.CartState(), nil
}

func (s *Session) OnCheckoutOpen(ctx context.Context) (CheckoutState, error) {
	if err := s.checkout.Open(ctx); err != nil {
		return s.CheckoutState(), s.report(err)
	}
	return s.CheckoutState(), nil
}

// OnCheckoutSubmit sends pending quantity edits first so the order matches
// what the shopper sees.
func (s *Session) OnCheckoutSubmit(ctx context.Context, f checkout.Form) (CheckoutState, error) {
	// a refused edit keeps the old line, which is what the order will carry
	_ = s.quantities.Flush()

	out, err := s.checkout.Submit(ctx, f)
	if err != nil {
		return s.CheckoutState(), s.report(err)
	}
	s.notices.Info("Payment successful! Your order has been placed.")
	st := s.CheckoutState()
	st.Outcome = &out
	return st, nil
}

func (s *Session) OnCheckoutClose() CheckoutState {
	s.checkout.Close()
	return s.CheckoutState()
}

func (s *Session) OnBrowse(ctx context.Context, ref string) (ProductsState, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	if _, err := s.browser.Load(ctx, ref); err != nil {
		return s.ProductsState(), s.report(err)
	}
	return s.ProductsState(), nil
}

func (s *Session) OnNextPage(ctx context.Context) (ProductsState, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	if _, err := s.browser.Next(ctx); err != nil {
		return s.ProductsState(), s.report(err)
	}
	return s.ProductsState(), nil
}

func (s *Session) OnPreviousPage(ctx context.Context) (ProductsState, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	if _, err := s.browser.Previous(ctx); err != nil {
		return s.ProductsState(), s.report(err)
	}
	return s.ProductsState(), nil
}

func (s *Session) OnFilter(category string) ProductsState {
	s.browser.FilterByCategory(category)
	return s.ProductsState()
}

func (s *Session) OnSort(ctx context.Context, option string) (ProductsState, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	if _, err := s.browser.Sort(ctx, option); err != nil {
		return s.ProductsState(), s.report(err)
	}
	return s.ProductsState(), nil
}

func (s *Session) ReviewState() ReviewState {
	s.reviewMu.Lock()
	defer s.reviewMu.Unlock()
	return s.reviewStateLocked(false)
}

// OnReviewInput updates the comment box as the shopper types. Text past the
// limit is cut off and reported through Truncated.
func (s *Session) OnReviewInput(comment string) ReviewState {
	s.reviewMu.Lock()
	defer s.reviewMu.Unlock()
	cut := s.reviewForm.SetComment(comment)
	return s.reviewStateLocked(cut)
}

func (s *Session) reviewStateLocked(truncated bool) ReviewState {
	return ReviewState{
		Comment:   s.reviewForm.Comment(),
		Counter:   s.reviewForm.Counter(),
		NearLimit: s.reviewForm.NearLimit(),
		Truncated: truncated,
		MaxChars:  review.MaxChars,
	}
}

// OnReviewSubmit refuses a comment longer than the box allows instead of
// silently cutting it. The box is emptied once the review is saved.
func (s *Session) OnReviewSubmit(ctx context.Context, req review.Request) (dto.ReviewResponse, error) {
	s.reviewMu.Lock()
	cut := s.reviewForm.SetComment(req.Comment)
	s.reviewMu.Unlock()
	if cut {
		return dto.ReviewResponse{}, s.report(apperr.Validation("comment",
			fmt.Sprintf("Reviews are limited to %d characters.", review.MaxChars)))
	}

	ctx, cancel := withTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	resp, err := s.reviews.Submit(ctx, req)
	if err != nil {
		return resp, s.report(err)
	}

	s.reviewMu.Lock()
	s.reviewForm.SetComment("")
	s.reviewMu.Unlock()

	s.notices.Info("Thank you for your review!")
	return resp, nil
}
