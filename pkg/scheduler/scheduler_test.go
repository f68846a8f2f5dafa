package scheduler

import (
	"testing"

	"pickwatch/pkg/config"
	"pickwatch/pkg/monitor"
)

func TestNewSummaryScheduler(t *testing.T) {
	registry := monitor.NewRegistry()
	registry.Register("chan-1", "us", "94102", []string{"MU123"})

	cfg := &config.SummaryConfig{Enabled: true, Cron: "0 9 * * *"}
	s, err := NewSummaryScheduler(cfg, registry)
	if err != nil {
		t.Fatalf("NewSummaryScheduler() error = %v", err)
	}

	// report must not panic on a live registry
	s.report()

	s.Start()
	s.Stop()
}

func TestNewSummarySchedulerBadCron(t *testing.T) {
	cfg := &config.SummaryConfig{Enabled: true, Cron: "not a cron"}
	if _, err := NewSummaryScheduler(cfg, monitor.NewRegistry()); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}
