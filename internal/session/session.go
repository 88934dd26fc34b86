// Package session wires one shopper's storefront: cart, pricing, checkout,
// catalog, reviews and notices, behind command handlers that the UI server
// and the CLI call.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout/stripe"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/csrf"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/debounce"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/dto"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/listing"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/notice"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/pricing"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/review"
)

// Orders is the order endpoint family.
type Orders interface {
	CreatePaymentIntent(ctx context.Context, req dto.PaymentIntentRequest) (dto.PaymentIntentResponse, error)
	ApplyCoupon(ctx context.Context, code string) error
	CompleteOrder(ctx context.Context, req dto.CompleteOrderRequest) (dto.CompleteOrderResponse, error)
	AddReview(ctx context.Context, req dto.ReviewRequest) (dto.ReviewResponse, error)
}

// Deps are the outside collaborators of a session. Open builds them from
// config; tests pass fakes.
type Deps struct {
	Config    config.Config
	Logger    *zap.Logger
	Cart      cart.Backend
	Orders    Orders
	Catalog   listing.Catalog
	Provider  checkout.PaymentProvider
	Publisher events.Publisher

	// optional
	CSRF   *csrf.Accessor
	HTTP   *http.Client
	Health *clients.Client
}

type Session struct {
	cfg config.Config
	log *zap.Logger

	store      *cart.Store
	cart       *cart.Service
	quantities *cart.QuantityUpdater
	pricing    *pricing.Aggregator
	checkout   *checkout.Orchestrator
	browser    *listing.Browser
	reviews    *review.Service
	reviewMu   sync.Mutex
	reviewForm review.Form
	notices    *notice.Board

	orders    Orders
	publisher events.Publisher
	csrf      *csrf.Accessor
	http      *http.Client
	health    *clients.Client
}

func New(d Deps) *Session {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Provider == nil {
		d.Provider = checkout.Unconfigured{}
	}
	if d.Publisher == nil {
		d.Publisher = events.NopPublisher{}
	}

	s := &Session{
		cfg:       d.Config,
		log:       d.Logger,
		store:     cart.NewStore(),
		notices:   notice.NewBoard(d.Config.NoticeTTL),
		orders:    d.Orders,
		publisher: d.Publisher,
		csrf:      d.CSRF,
		http:      d.HTTP,
		health:    d.Health,
	}

	s.cart = cart.NewService(d.Cart, s.store, d.Logger.Named("cart"))
	s.pricing = pricing.NewAggregator(d.Orders, d.Logger.Named("pricing"))
	s.cart.Subscribe(s.pricing.Listener(d.Config.RequestTimeout))

	s.quantities = cart.NewQuantityUpdater(s.cart, debounce.New(d.Config.DebounceWindow), d.Config.RequestTimeout, s.onQuantityResult)
	s.checkout = checkout.New(d.Orders, d.Provider, s.cart, d.Publisher, d.Config.FreeOrderSentinel, d.Logger.Named("checkout"))
	s.browser = listing.NewBrowser(d.Catalog, s.cart, d.Config.CategoryTTL, d.Logger.Named("listing"))
	s.reviews = review.NewService(d.Orders, d.Logger.Named("review"))
	return s
}

// Open builds a session against the configured backend.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Session, error) {
	base, err := url.Parse(cfg.BackendURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}

	jar, err := csrf.NewJar()
	if err != nil {
		return nil, err
	}
	csrf.Seed(jar, base, cfg.SessionCookie, cfg.SessionID)

	httpClient := &http.Client{Jar: jar, Timeout: cfg.RequestTimeout}
	accessor := csrf.NewAccessor(jar, base, cfg.CSRFCookie)

	backend := clients.NewClient("shop", cfg.BackendURL, httpClient, accessor, cfg.CSRFHeader, logger.Named("backend"))
	backend.RetryMax = cfg.RetryMax

	var provider checkout.PaymentProvider = checkout.Unconfigured{}
	if cfg.StripeKey != "" {
		provider = stripe.New(cfg.StripeURL, cfg.StripeKey, &http.Client{Timeout: cfg.RequestTimeout}, logger.Named("stripe"))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := events.Dial(cfg.AMQPURL, logger.Named("events"))
		if err != nil {
			logger.Warn("event publishing disabled", zap.Error(err))
		} else {
			publisher = p
		}
	}

	return New(Deps{
		Config:    cfg,
		Logger:    logger,
		Cart:      clients.NewCartClient(backend),
		Orders:    clients.NewOrderClient(backend),
		Catalog:   clients.NewCatalogClient(backend),
		Provider:  provider,
		Publisher: publisher,
		CSRF:      accessor,
		HTTP:      httpClient,
		Health:    backend,
	}), nil
}

// Close sends quantity edits still waiting for their window, then releases
// the event connection.
func (s *Session) Close() error {
	_ = s.quantities.Flush()
	s.quantities.Stop()
	s.pricing.Wait()
	return s.publisher.Close()
}

// WaitPricing blocks until quotes triggered by earlier cart changes have
// landed or timed out.
func (s *Session) WaitPricing() { s.pricing.Wait() }

func (s *Session) Notices() *notice.Board { return s.notices }

func (s *Session) Snapshot() cart.Snapshot { return s.cart.Snapshot() }

func (s *Session) Health(ctx context.Context) clients.HealthResult {
	if s.health == nil {
		return clients.HealthResult{Name: "shop", OK: false, Error: "no backend client"}
	}
	return clients.CheckHealth(ctx, s.health, "/")
}

func (s *Session) primeCSRF(ctx context.Context) {
	if s.csrf == nil || s.http == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	if err := s.csrf.Prime(ctx, s.http); err != nil {
		s.log.Warn("csrf token unavailable", zap.Error(err))
	}
}

// report turns err into a shopper notice and hands it back.
func (s *Session) report(err error) error {
	if err == nil || errors.Is(err, checkout.ErrAbandoned) {
		return err
	}
	s.notices.Error(UserMessage(err))
	return err
}

func (s *Session) onQuantityResult(lineID int, _ cart.Snapshot, err error) {
	if err != nil {
		s.log.Warn("quantity update failed", zap.Int("line", lineID), zap.Error(err))
		s.report(err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
