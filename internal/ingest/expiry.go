package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/danmuck/pixelstream/internal/observability"
	"github.com/rs/zerolog/log"
)

// ExpiryListener labels flush metrics raised by layer expiry.
const ExpiryListener = "expiry"

// Expirer is a surface whose overlay layers can go stale.
type Expirer interface {
	ExpireLayers(idle time.Duration) int
	Send() error
}

// RunLayerExpiry clears overlay layers idle for longer than idle, checking
// every interval, and flushes when anything was cleared. It takes the same
// lock as the ingest loops.
func RunLayerExpiry(ctx context.Context, surface Expirer, lock sync.Locker, idle, interval time.Duration) error {
	if lock == nil {
		return ErrNilLock
	}
	if idle <= 0 {
		<-ctx.Done()
		return nil
	}
	if interval <= 0 {
		interval = max(idle/2, time.Millisecond)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			lock.Lock()
			cleared := surface.ExpireLayers(idle)
			var err error
			if cleared > 0 {
				err = surface.Send()
			}
			lock.Unlock()
			if err != nil {
				observability.RecordFlushError(ExpiryListener)
				log.Warn().Str("component", "ingest.RunLayerExpiry").Int("cleared", cleared).Err(err).Msg("flush failed")
				continue
			}
			if cleared > 0 {
				log.Debug().Str("component", "ingest.RunLayerExpiry").Int("cleared", cleared).Msg("stale layers cleared")
			}
		}
	}
}
