package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/apperr"
)

// Backend is the cart endpoint family. Every call answers with the full cart.
type Backend interface {
	List(ctx context.Context) ([]Line, error)
	Add(ctx context.Context, productID, quantity int) ([]Line, error)
	Update(ctx context.Context, lineID, quantity int) ([]Line, error)
	Remove(ctx context.Context, lineID int) ([]Line, error)
}

// Listener runs after a response replaced the snapshot.
type Listener func(ctx context.Context, snap Snapshot)

// Service is the cart client: it issues the calls and keeps the store in step
// with the last successful response. A failed call leaves the store alone.
type Service struct {
	backend Backend
	store   *Store
	log     *zap.Logger

	mu        sync.RWMutex
	listeners []Listener
}

func NewService(backend Backend, store *Store, logger *zap.Logger) *Service {
	return &Service{backend: backend, store: store, log: logger}
}

func (s *Service) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) Snapshot() Snapshot { return s.store.Snapshot() }

func (s *Service) FetchCart(ctx context.Context) (Snapshot, error) {
	return s.mutate(ctx, "cart.fetch", s.backend.List)
}

// AddItem adds quantity (1 when not positive) of a product.
func (s *Service) AddItem(ctx context.Context, productID, quantity int) (Snapshot, error) {
	if productID <= 0 {
		return nil, apperr.Validation("product", "Cannot add product to cart: missing ID.")
	}
	if quantity <= 0 {
		quantity = 1
	}
	return s.mutate(ctx, "cart.add", func(ctx context.Context) ([]Line, error) {
		return s.backend.Add(ctx, productID, quantity)
	})
}

func (s *Service) UpdateQuantity(ctx context.Context, lineID, quantity int) (Snapshot, error) {
	if err := ValidateQuantity(lineID, quantity); err != nil {
		return nil, err
	}
	return s.mutate(ctx, "cart.update", func(ctx context.Context) ([]Line, error) {
		return s.backend.Update(ctx, lineID, quantity)
	})
}

func (s *Service) RemoveItem(ctx context.Context, lineID int) (Snapshot, error) {
	if lineID <= 0 {
		return nil, apperr.Validation("line", "Missing cart item.")
	}
	return s.mutate(ctx, "cart.remove", func(ctx context.Context) ([]Line, error) {
		return s.backend.Remove(ctx, lineID)
	})
}

// Clear empties the local snapshot after a completed order; the backend has
// already emptied its copy.
func (s *Service) Clear(ctx context.Context) {
	ticket := s.store.Ticket()
	if s.store.Apply(ticket, Snapshot{}) {
		s.notify(ctx, Snapshot{})
	}
}

func ValidateQuantity(lineID, quantity int) error {
	if lineID <= 0 {
		return apperr.Validation("line", "Missing cart item.")
	}
	if quantity < 1 {
		return apperr.Validation("quantity", "Quantity must be at least 1.")
	}
	return nil
}

func (s *Service) mutate(ctx context.Context, op string, call func(context.Context) ([]Line, error)) (Snapshot, error) {
	ticket := s.store.Ticket()

	lines, err := call(ctx)
	if err != nil {
		s.log.Warn("cart request failed", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	snap := NewSnapshot(lines)
	if !s.store.Apply(ticket, snap) {
		// a newer request already landed; its snapshot stays
		s.log.Debug("stale cart response dropped", zap.String("op", op), zap.Uint64("ticket", ticket))
		return s.store.Snapshot(), nil
	}

	s.notify(ctx, snap)
	return snap, nil
}

func (s *Service) notify(ctx context.Context, snap Snapshot) {
	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, snap.Clone())
	}
}
