package monitor

import (
	"sync"
	"time"
)

// Outcome labels how a poll cycle ended.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeSoftFailure Outcome = "soft_failure"
	OutcomeException   Outcome = "exception"
)

// Status is a point-in-time snapshot of one monitor.
type Status struct {
	ChannelID   string    `json:"channel_id"`
	Country     string    `json:"country"`
	Zip         string    `json:"zip"`
	Products    []string  `json:"products"`
	Running     bool      `json:"running"`
	Cycles      uint64    `json:"cycles"`
	Sent        uint64    `json:"sent"`
	Suppressed  uint64    `json:"suppressed"`
	Failed      uint64    `json:"failed"`
	Exceptions  uint64    `json:"exceptions"`
	LastOutcome Outcome   `json:"last_outcome,omitempty"`
	LastCycleAt time.Time `json:"last_cycle_at,omitempty"`
	StoppedAt   time.Time `json:"stopped_at,omitempty"`
	StopReason  string    `json:"stop_reason,omitempty"`
}

// Registry tracks the live status of every monitor in the process.
type Registry struct {
	mu       sync.RWMutex
	statuses map[string]*Status
}

func NewRegistry() *Registry {
	return &Registry{statuses: make(map[string]*Status)}
}

// Register adds a monitor before its loop starts.
func (r *Registry) Register(channelID, country, zip string, products []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[channelID] = &Status{
		ChannelID: channelID,
		Country:   country,
		Zip:       zip,
		Products:  append([]string(nil), products...),
		Running:   true,
	}
}

func (r *Registry) recordCycle(channelID string, outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.statuses[channelID]
	if !ok {
		return
	}
	s.Cycles++
	s.LastOutcome = outcome
	s.LastCycleAt = time.Now()
	if outcome == OutcomeException {
		s.Exceptions++
	}
}

func (r *Registry) recordNotification(channelID string, sent, suppressed, failed uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.statuses[channelID]
	if !ok {
		return
	}
	s.Sent += sent
	s.Suppressed += suppressed
	s.Failed += failed
}

func (r *Registry) markStopped(channelID, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.statuses[channelID]
	if !ok {
		return
	}
	s.Running = false
	s.StoppedAt = time.Now()
	s.StopReason = reason
}

// Snapshot returns copies of all statuses.
func (r *Registry) Snapshot() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Status, 0, len(r.statuses))
	for _, s := range r.statuses {
		copied := *s
		copied.Products = append([]string(nil), s.Products...)
		out = append(out, copied)
	}
	return out
}

// Get returns the status for one monitor, if registered.
func (r *Registry) Get(channelID string) (Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.statuses[channelID]
	if !ok {
		return Status{}, false
	}
	copied := *s
	copied.Products = append([]string(nil), s.Products...)
	return copied, true
}

// Totals aggregates counters across all monitors.
func (r *Registry) Totals() (cycles, sent, suppressed, failed, exceptions uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.statuses {
		cycles += s.Cycles
		sent += s.Sent
		suppressed += s.Suppressed
		failed += s.Failed
		exceptions += s.Exceptions
	}
	return
}
