// Package review submits product reviews for completed orders.
package review

import (
	"context"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/dto"
)

const (
	MaxChars  = 300
	MinRating = 1
	MaxRating = 10
)

// Form is the review comment box.
type Form struct {
	comment string
}

// SetComment stores s cut to MaxChars characters and reports whether it had
// to cut.
func (f *Form) SetComment(s string) bool {
	f.comment = truncate(s, MaxChars)
	return len(f.comment) != len(s)
}

func (f *Form) Comment() string { return f.comment }

func (f *Form) Len() int { return utf8.RuneCountInString(f.comment) }

func (f *Form) Counter() string {
	return strconv.Itoa(f.Len()) + " / " + strconv.Itoa(MaxChars)
}

// NearLimit is true past 90% of MaxChars.
func (f *Form) NearLimit() bool {
	return f.Len()*10 > MaxChars*9
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

type Poster interface {
	AddReview(ctx context.Context, req dto.ReviewRequest) (dto.ReviewResponse, error)
}

type Request struct {
	OrderID   int    `json:"order_id"`
	ProductID int    `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type Service struct {
	orders Poster
	policy *bluemonday.Policy
	log    *zap.Logger
}

func NewService(orders Poster, logger *zap.Logger) *Service {
	return &Service{orders: orders, policy: bluemonday.StrictPolicy(), log: logger}
}

func (s *Service) Submit(ctx context.Context, req Request) (dto.ReviewResponse, error) {
	switch {
	case req.OrderID <= 0:
		return dto.ReviewResponse{}, apperr.Validation("order_id", "Missing order.")
	case req.ProductID <= 0:
		return dto.ReviewResponse{}, apperr.Validation("product_id", "Missing product.")
	case req.Rating < MinRating || req.Rating > MaxRating:
		return dto.ReviewResponse{}, apperr.Validation("rating", "Rating must be between 1 and 10.")
	}

	comment := truncate(s.Sanitize(req.Comment), MaxChars)

	resp, err := s.orders.AddReview(ctx, dto.ReviewRequest{
		OrderID:   req.OrderID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   comment,
	})
	if err != nil {
		s.log.Warn("review not saved", zap.Int("order_id", req.OrderID), zap.Int("product_id", req.ProductID), zap.Error(err))
		return dto.ReviewResponse{}, err
	}
	if !resp.Success {
		return resp, &apperr.ServerError{Op: "orders.add_review", Message: "review was not saved"}
	}
	return resp, nil
}

// Sanitize strips markup from a comment and returns plain text. Entities are
// decoded after stripping, so the pass repeats until nothing changes.
func (s *Service) Sanitize(comment string) string {
	out := strings.TrimSpace(comment)
	for i := 0; i < 3; i++ {
		next := html.UnescapeString(s.policy.Sanitize(out))
		if next == out {
			break
		}
		out = next
	}
	return strings.TrimSpace(out)
}
