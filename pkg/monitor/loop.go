package monitor

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pickwatch/pkg/apple"
	"pickwatch/pkg/config"
	"pickwatch/pkg/logger"
	"pickwatch/pkg/proxy"
)

// ErrMissingZip is the one configuration defect that permanently stops
// a monitor: without a location there is nothing to poll.
var ErrMissingZip = errors.New("monitor has no zip code")

// Fetcher is the slice of the upstream client the loop needs. Tests
// substitute a fake to drive outcomes.
type Fetcher interface {
	FetchAvailability(ctx context.Context, country string, products []string, zip string, pxy proxy.Descriptor) (*apple.AvailabilityResult, error)
}

// Loop polls availability for one monitor row forever. Every failure
// short of a missing zip reschedules the next cycle; the loop only
// terminates on context cancellation.
type Loop struct {
	row       config.MonitorRow
	products  []string
	fetcher   Fetcher
	pool      *proxy.Pool
	evaluator *Evaluator
	registry  *Registry

	// sleep is swapped out in tests to observe the computed delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLoop wires a poll loop for one monitor. products is the resolved
// part-number list (explicit or from the catalog).
func NewLoop(row config.MonitorRow, products []string, fetcher Fetcher, pool *proxy.Pool, evaluator *Evaluator, registry *Registry) *Loop {
	return &Loop{
		row:       row,
		products:  products,
		fetcher:   fetcher,
		pool:      pool,
		evaluator: evaluator,
		registry:  registry,
		sleep:     sleepContext,
	}
}

// Run drives the loop until ctx is cancelled. It returns ErrMissingZip
// immediately when the row has no location, and ctx.Err() otherwise.
func (l *Loop) Run(ctx context.Context) error {
	log := logger.WithMonitor(logger.With(), l.row.ChannelID)

	if l.row.Zip == "" {
		log.Error("monitor has no zip code, stopping permanently")
		l.registry.markStopped(l.row.ChannelID, "missing zip code")
		return ErrMissingZip
	}

	log.Info("monitor started",
		zap.String("country", l.row.Country),
		zap.Strings("products", l.products),
		zap.String("zip", l.row.Zip),
		zap.Duration("poll_delay", l.row.PollDelay),
		zap.Duration("error_delay", l.row.ErrorDelay))

	for {
		delay := l.cycle(ctx, log)
		if err := l.sleep(ctx, withJitter(delay)); err != nil {
			log.Info("monitor stopped", zap.Error(err))
			l.registry.markStopped(l.row.ChannelID, "shutdown")
			return err
		}
	}
}

// cycle runs one poll and returns the base delay before the next one.
func (l *Loop) cycle(ctx context.Context, log *zap.Logger) time.Duration {
	cycleID := uuid.NewString()
	ctx = logger.WithCycleID(logger.WithMonitorID(ctx, l.row.ChannelID), cycleID)
	log = log.With(zap.String("cycle_id", cycleID))

	pxy := l.pool.Pick()

	result, err := l.fetcher.FetchAvailability(ctx, l.row.Country, l.products, l.row.Zip, pxy)
	if err != nil {
		log.Warn("poll cycle failed",
			zap.String("proxy", pxy.String()),
			zap.Error(err))
		l.registry.recordCycle(l.row.ChannelID, OutcomeException)
		return l.row.ErrorDelay
	}

	if result.ErrorMessage != "" {
		log.Warn("upstream declined the query",
			zap.String("error_message", result.ErrorMessage))
		l.registry.recordCycle(l.row.ChannelID, OutcomeSoftFailure)
		return l.row.PollDelay
	}

	stats := l.evaluator.EvaluateStores(ctx, result.Stores, pxy)
	l.registry.recordCycle(l.row.ChannelID, OutcomeSuccess)
	l.registry.recordNotification(l.row.ChannelID, stats.Sent, stats.Suppressed, stats.Failed)

	log.Debug("poll cycle complete",
		zap.Int("stores", len(result.Stores)),
		zap.Uint64("sent", stats.Sent),
		zap.Uint64("suppressed", stats.Suppressed),
		zap.Uint64("failed", stats.Failed),
		zap.Uint64("skipped", stats.Skipped))
	return l.row.PollDelay
}

// withJitter spreads wakeups uniformly over [1s, delay] so a fleet of
// monitors sharing a delay does not poll in lockstep.
func withJitter(delay time.Duration) time.Duration {
	floor := time.Second
	if delay <= floor {
		return delay
	}
	span := delay - floor + time.Millisecond
	return floor + time.Duration(rand.Int63n(int64(span)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
