package cart

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/debounce"
)

// QuantityUpdater debounces quantity edits per line: a burst of edits on one
// line becomes a single update carrying the last quantity.
type QuantityUpdater struct {
	svc      *Service
	sched    *debounce.Scheduler
	timeout  time.Duration
	onResult func(lineID int, snap Snapshot, err error)

	mu       sync.Mutex
	flushing int
	failed   []error
}

func NewQuantityUpdater(svc *Service, sched *debounce.Scheduler, timeout time.Duration, onResult func(lineID int, snap Snapshot, err error)) *QuantityUpdater {
	return &QuantityUpdater{svc: svc, sched: sched, timeout: timeout, onResult: onResult}
}

// Schedule validates the edit right away and sends it after the window.
func (u *QuantityUpdater) Schedule(lineID, quantity int) error {
	if err := ValidateQuantity(lineID, quantity); err != nil {
		return err
	}

	u.sched.Trigger(strconv.Itoa(lineID), func() {
		ctx, cancel := context.WithTimeout(context.Background(), u.timeout)
		defer cancel()

		snap, err := u.svc.UpdateQuantity(ctx, lineID, quantity)
		if err != nil {
			u.mu.Lock()
			if u.flushing > 0 {
				u.failed = append(u.failed, err)
			}
			u.mu.Unlock()
		}
		if u.onResult != nil {
			u.onResult(lineID, snap, err)
		}
	})
	return nil
}

// Flush sends every waiting edit now and returns what the backend refused,
// unchanged so callers can still classify it. Edits that fired on their own
// timer are only reported through onResult.
func (u *QuantityUpdater) Flush() error {
	u.mu.Lock()
	u.flushing++
	u.mu.Unlock()

	u.sched.Flush()

	u.mu.Lock()
	defer u.mu.Unlock()
	u.flushing--
	failed := u.failed
	if u.flushing == 0 {
		u.failed = nil
	}
	switch len(failed) {
	case 0:
		return nil
	case 1:
		return failed[0]
	}
	return errors.Join(failed...)
}

func (u *QuantityUpdater) Stop() { u.sched.Stop() }
