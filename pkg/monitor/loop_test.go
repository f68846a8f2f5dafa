package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"pickwatch/pkg/apple"
	"pickwatch/pkg/config"
	"pickwatch/pkg/proxy"
)

type fakeFetcher struct {
	results []fetchResult
	calls   int
}

type fetchResult struct {
	result *apple.AvailabilityResult
	err    error
}

func (f *fakeFetcher) FetchAvailability(ctx context.Context, country string, products []string, zip string, pxy proxy.Descriptor) (*apple.AvailabilityResult, error) {
	r := f.results[f.calls%len(f.results)]
	f.calls++
	return r.result, r.err
}

func testRow() config.MonitorRow {
	return config.MonitorRow{
		ChannelID:  "chan-1",
		Country:    "us",
		Zip:        "94102",
		PollDelay:  30 * time.Second,
		ErrorDelay: 10 * time.Second,
		Cooldown:   10 * time.Minute,
	}
}

// runCycles runs the loop until n sleeps happened, recording the base
// delay fed into each sleep (before jitter is applied we cannot observe
// it, so the fake sleep receives the jittered value and the test checks
// its range instead).
func runCycles(t *testing.T, loop *Loop, n int) []time.Duration {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var delays []time.Duration
	loop.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		if len(delays) >= n {
			cancel()
		}
		return ctx.Err()
	}

	err := loop.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	return delays
}

func newTestLoop(row config.MonitorRow, fetcher Fetcher) (*Loop, *Registry) {
	registry := NewRegistry()
	registry.Register(row.ChannelID, row.Country, row.Zip, []string{"MU123"})
	evaluator := NewEvaluator(row.MaxDistance, row.BannedStores, nil)
	loop := NewLoop(row, []string{"MU123"}, fetcher, proxy.NewPool(nil), evaluator, registry)
	return loop, registry
}

func TestRunMissingZipStopsPermanently(t *testing.T) {
	row := testRow()
	row.Zip = ""
	loop, registry := newTestLoop(row, &fakeFetcher{})

	if err := loop.Run(context.Background()); !errors.Is(err, ErrMissingZip) {
		t.Fatalf("Run() = %v, want ErrMissingZip", err)
	}
	status, ok := registry.Get("chan-1")
	if !ok {
		t.Fatal("status not registered")
	}
	if status.Running {
		t.Error("monitor should be marked stopped")
	}
	if status.StopReason != "missing zip code" {
		t.Errorf("StopReason = %q", status.StopReason)
	}
}

func TestRunDelayPerOutcome(t *testing.T) {
	tests := []struct {
		name    string
		fetch   fetchResult
		base    func(row config.MonitorRow) time.Duration
		outcome Outcome
	}{
		{
			name:    "success uses the poll delay",
			fetch:   fetchResult{result: &apple.AvailabilityResult{}},
			base:    func(row config.MonitorRow) time.Duration { return row.PollDelay },
			outcome: OutcomeSuccess,
		},
		{
			name:    "soft failure uses the poll delay",
			fetch:   fetchResult{result: &apple.AvailabilityResult{ErrorMessage: "Enter a valid zip code"}},
			base:    func(row config.MonitorRow) time.Duration { return row.PollDelay },
			outcome: OutcomeSoftFailure,
		},
		{
			name:    "exception uses the error delay",
			fetch:   fetchResult{err: errors.New("connection refused")},
			base:    func(row config.MonitorRow) time.Duration { return row.ErrorDelay },
			outcome: OutcomeException,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := testRow()
			loop, registry := newTestLoop(row, &fakeFetcher{results: []fetchResult{tt.fetch}})

			delays := runCycles(t, loop, 5)

			base := tt.base(row)
			for _, d := range delays {
				if d < time.Second || d > base {
					t.Errorf("jittered delay %v outside [1s, %v]", d, base)
				}
			}
			status, _ := registry.Get("chan-1")
			if status.Cycles != 5 {
				t.Errorf("Cycles = %d, want 5", status.Cycles)
			}
			if status.LastOutcome != tt.outcome {
				t.Errorf("LastOutcome = %q, want %q", status.LastOutcome, tt.outcome)
			}
		})
	}
}

func TestRunSurvivesRepeatedExceptions(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{
		{err: errors.New("timeout")},
		{err: errors.New("proxy refused")},
		{result: &apple.AvailabilityResult{}},
	}}
	loop, registry := newTestLoop(testRow(), fetcher)

	runCycles(t, loop, 9)

	status, _ := registry.Get("chan-1")
	if status.Cycles != 9 {
		t.Errorf("Cycles = %d, want 9 (loop must not stop on errors)", status.Cycles)
	}
	if status.Exceptions != 6 {
		t.Errorf("Exceptions = %d, want 6", status.Exceptions)
	}
}

func TestWithJitter(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration
	}{
		{"thirty seconds", 30 * time.Second},
		{"just above floor", 1100 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				got := withJitter(tt.delay)
				if got < time.Second || got > tt.delay {
					t.Fatalf("withJitter(%v) = %v, outside [1s, %v]", tt.delay, got, tt.delay)
				}
			}
		})
	}

	t.Run("at or below floor is unchanged", func(t *testing.T) {
		if got := withJitter(time.Second); got != time.Second {
			t.Errorf("withJitter(1s) = %v", got)
		}
		if got := withJitter(500 * time.Millisecond); got != 500*time.Millisecond {
			t.Errorf("withJitter(500ms) = %v", got)
		}
	})
}

func TestRegistryTotals(t *testing.T) {
	registry := NewRegistry()
	registry.Register("a", "us", "94102", []string{"MU123"})
	registry.Register("b", "us", "10001", []string{"MU456"})

	registry.recordCycle("a", OutcomeSuccess)
	registry.recordCycle("b", OutcomeException)
	registry.recordNotification("a", 2, 1, 0)
	registry.recordNotification("b", 1, 0, 1)

	cycles, sent, suppressed, failed, exceptions := registry.Totals()
	if cycles != 2 || sent != 3 || suppressed != 1 || failed != 1 || exceptions != 1 {
		t.Errorf("Totals() = %d %d %d %d %d", cycles, sent, suppressed, failed, exceptions)
	}
	if len(registry.Snapshot()) != 2 {
		t.Errorf("Snapshot() length = %d, want 2", len(registry.Snapshot()))
	}
}
