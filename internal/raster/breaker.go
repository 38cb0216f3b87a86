package raster

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// tileBreaker stops requesting tiles from a provider after consecutive
// failures. Once the cooldown has passed a single probe is let through; it
// closes the breaker on success and reopens it on failure.
type tileBreaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu        sync.Mutex
	providers map[string]*breakerState
}

type breakerState struct {
	failures int
	open     bool
	openedAt time.Time
}

func newTileBreaker(threshold int, cooldown time.Duration) *tileBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &tileBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		providers: make(map[string]*breakerState),
	}
}

func (b *tileBreaker) state(provider string) *breakerState {
	st, ok := b.providers[provider]
	if !ok {
		st = &breakerState{}
		b.providers[provider] = st
	}
	return st
}

// allow reports whether a tile request to provider may go out.
func (b *tileBreaker) allow(provider string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.state(provider)
	if !st.open {
		return true
	}
	if b.now().Sub(st.openedAt) < b.cooldown {
		return false
	}
	st.open = false
	st.failures = b.threshold - 1
	return true
}

// record counts the outcome of one tile request.
func (b *tileBreaker) record(provider string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.state(provider)
	if err == nil {
		st.failures = 0
		st.open = false
		return
	}

	st.failures++
	if !st.open && st.failures >= b.threshold {
		st.open = true
		st.openedAt = b.now()
		zap.L().Warn("raster: tile server failing, skipping its tiles",
			zap.String("tiles", provider),
			zap.Int("consecutive_failures", st.failures),
			zap.Duration("cooldown", b.cooldown),
		)
	}
}

// isOpen reports whether requests to provider are currently refused.
func (b *tileBreaker) isOpen(provider string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.state(provider)
	return st.open && b.now().Sub(st.openedAt) < b.cooldown
}
