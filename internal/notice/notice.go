// Package notice holds the short-lived, non-blocking messages shown to the
// shopper ("Item added", "Network error ...").
package notice

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

type Notice struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`

	seq uint64
}

// Board keeps notices until their TTL runs out. Reading does not extend it.
type Board struct {
	cache *ttlcache.Cache[string, Notice]
	seq   atomic.Uint64
}

func NewBoard(ttl time.Duration) *Board {
	return &Board{
		cache: ttlcache.New[string, Notice](
			ttlcache.WithTTL[string, Notice](ttl),
			ttlcache.WithDisableTouchOnHit[string, Notice](),
		),
	}
}

func (b *Board) Info(msg string) Notice { return b.add(LevelInfo, msg) }

func (b *Board) Error(msg string) Notice { return b.add(LevelError, msg) }

func (b *Board) add(level Level, msg string) Notice {
	n := Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
		seq:       b.seq.Add(1),
	}
	b.cache.Set(n.ID, n, ttlcache.DefaultTTL)
	return n
}

// List returns live notices, newest first.
func (b *Board) List() []Notice {
	b.cache.DeleteExpired()

	out := make([]Notice, 0, b.cache.Len())
	for _, it := range b.cache.Items() {
		if it.IsExpired() {
			continue
		}
		out = append(out, it.Value())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq > out[j].seq })
	return out
}

func (b *Board) Dismiss(id string) { b.cache.Delete(id) }
