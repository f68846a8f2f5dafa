package monitor

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"pickwatch/pkg/apple"
	"pickwatch/pkg/logger"
	"pickwatch/pkg/notifier"
	"pickwatch/pkg/proxy"
)

// CycleStats counts notification outcomes from one evaluation pass.
type CycleStats struct {
	Sent       uint64
	Suppressed uint64
	Failed     uint64
	Skipped    uint64
}

func (s *CycleStats) add(other CycleStats) {
	atomic.AddUint64(&s.Sent, other.Sent)
	atomic.AddUint64(&s.Suppressed, other.Suppressed)
	atomic.AddUint64(&s.Failed, other.Failed)
	atomic.AddUint64(&s.Skipped, other.Skipped)
}

// Evaluator turns the stores in an availability response into
// notifications. Rejected stores never touch the dedup state, so a
// store that drifts in and out of range cannot burn a cooldown window.
type Evaluator struct {
	maxDistance float64
	banned      map[string]struct{}
	notifier    *notifier.Notifier
}

func NewEvaluator(maxDistance float64, bannedStores []string, n *notifier.Notifier) *Evaluator {
	banned := make(map[string]struct{}, len(bannedStores))
	for _, name := range bannedStores {
		banned[name] = struct{}{}
	}
	return &Evaluator{maxDistance: maxDistance, banned: banned, notifier: n}
}

// EvaluateStores fans out over the stores of one cycle and returns the
// aggregated notification counts.
func (e *Evaluator) EvaluateStores(ctx context.Context, stores []apple.Store, pxy proxy.Descriptor) CycleStats {
	var stats CycleStats
	var wg sync.WaitGroup
	for i := range stores {
		wg.Add(1)
		go func(store apple.Store) {
			defer wg.Done()
			stats.add(e.evaluateStore(ctx, store, pxy))
		}(stores[i])
	}
	wg.Wait()
	return stats
}

func (e *Evaluator) evaluateStore(ctx context.Context, store apple.Store, pxy proxy.Descriptor) CycleStats {
	var stats CycleStats

	if _, ok := e.banned[store.StoreName]; ok {
		logger.Debug("store is banned, skipping",
			zap.String("store", store.StoreName))
		stats.Skipped++
		return stats
	}
	if store.StoreDistance > e.maxDistance {
		logger.Debug("store is out of range, skipping",
			zap.String("store", store.StoreName),
			zap.Float64("distance", store.StoreDistance),
			zap.Float64("max_distance", e.maxDistance))
		stats.Skipped++
		return stats
	}

	var wg sync.WaitGroup
	for product, part := range store.PartsAvailability {
		quote := part.Regular()
		if quote.Quote == "" {
			continue
		}
		// Unavailable products produce no notification and leave the
		// dedup state untouched, so the eventual flip to available is
		// never inside a cooldown window.
		if apple.IsUnavailableQuote(quote.Quote) {
			logger.Debug("product unavailable, skipping",
				zap.String("store", store.StoreName),
				zap.String("product", product),
				zap.String("quote", quote.Quote))
			atomic.AddUint64(&stats.Skipped, 1)
			continue
		}
		title := quote.Title
		if title == "" {
			title = product
		}
		note := notifier.Notification{
			Title:   title,
			Message: quote.Quote,
			Product: product,
			Store:   store,
		}
		wg.Add(1)
		go func(note notifier.Notification) {
			defer wg.Done()
			switch e.notifier.Notify(ctx, note, pxy) {
			case notifier.ResultSent:
				atomic.AddUint64(&stats.Sent, 1)
			case notifier.ResultSuppressed:
				atomic.AddUint64(&stats.Suppressed, 1)
			case notifier.ResultFailed:
				atomic.AddUint64(&stats.Failed, 1)
			}
		}(note)
	}
	wg.Wait()
	return stats
}
