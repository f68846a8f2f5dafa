// Package scheduler runs the periodic summary report over all monitors.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pickwatch/pkg/config"
	"pickwatch/pkg/logger"
	"pickwatch/pkg/monitor"
)

// SummaryScheduler logs an aggregate report of every monitor on a cron
// schedule. It is a purely observational job: it reads the registry and
// never touches polling state.
type SummaryScheduler struct {
	cron     *cron.Cron
	cfg      *config.SummaryConfig
	registry *monitor.Registry
	entryID  cron.EntryID
}

// NewSummaryScheduler wires the report job but does not start it.
func NewSummaryScheduler(cfg *config.SummaryConfig, registry *monitor.Registry) (*SummaryScheduler, error) {
	s := &SummaryScheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		cfg:      cfg,
		registry: registry,
	}

	entryID, err := s.cron.AddFunc(cfg.Cron, s.report)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule summary report: %w", err)
	}
	s.entryID = entryID
	return s, nil
}

// Start begins running the report on its schedule.
func (s *SummaryScheduler) Start() {
	s.cron.Start()
	logger.Info("summary scheduler started",
		zap.String("cron", s.cfg.Cron),
		zap.Time("next_run", s.cron.Entry(s.entryID).Next))
}

// Stop halts the scheduler and waits for a running report to finish.
func (s *SummaryScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("summary scheduler stopped")
}

// report logs one aggregate line plus a line per monitor.
func (s *SummaryScheduler) report() {
	cycles, sent, suppressed, failed, exceptions := s.registry.Totals()
	logger.Info("monitor summary",
		zap.Uint64("cycles", cycles),
		zap.Uint64("sent", sent),
		zap.Uint64("suppressed", suppressed),
		zap.Uint64("failed", failed),
		zap.Uint64("exceptions", exceptions))

	for _, status := range s.registry.Snapshot() {
		logger.Info("monitor status",
			zap.String("channel_id", status.ChannelID),
			zap.Bool("running", status.Running),
			zap.Uint64("cycles", status.Cycles),
			zap.Uint64("sent", status.Sent),
			zap.Uint64("suppressed", status.Suppressed),
			zap.String("last_outcome", string(status.LastOutcome)),
			zap.Time("last_cycle_at", status.LastCycleAt))
	}
}
