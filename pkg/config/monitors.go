package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MonitorRow is one monitor definition, immutable once loaded.
// Delays arrive as milliseconds in the file and are converted here.
type MonitorRow struct {
	ChannelID    string
	Country      string
	UseFamily    bool
	Products     []string
	Family       *FamilySpec
	MaxDistance  float64
	Zip          string
	WebhookURL   string
	BannedStores []string
	ErrorDelay   time.Duration // delay after a failed cycle
	PollDelay    time.Duration // delay after a normal cycle
	Cooldown     time.Duration // notification suppression window
}

// FamilySpec describes a product family to resolve against the catalog
type FamilySpec struct {
	Model      string
	Capacities []string
	Carrier    string // "N/A" leaves the carrier unconstrained
	ScreenSize string
}

// CarrierConstrained reports whether the carrier participates in catalog filtering
func (f *FamilySpec) CarrierConstrained() bool {
	return f.Carrier != "N/A"
}

// monitor file column names, one per original CSV header
var monitorColumns = []string{
	"channelid", "country", "useFamily", "products", "family",
	"maxDistance", "zip", "webhookURL", "bannedStores",
	"handleExceptionDelay", "normalMonitorDelay", "notificationTimeout",
}

// LoadMonitorRows reads monitor definitions from a CSV file
func LoadMonitorRows(path string) ([]MonitorRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMonitorsNotFound, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%w: no monitor rows", ErrInvalidMonitor)
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range monitorColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidFormat, name)
		}
	}

	rows := make([]MonitorRow, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := parseMonitorRow(record, columns)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseMonitorRow(record []string, columns map[string]int) (MonitorRow, error) {
	cell := func(name string) string {
		idx := columns[name]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	row := MonitorRow{
		ChannelID:    cell("channelid"),
		Country:      cell("country"),
		UseFamily:    parseFlag(cell("useFamily")),
		Products:     splitList(cell("products"), ","),
		Zip:          cell("zip"),
		WebhookURL:   cell("webhookURL"),
		BannedStores: splitList(cell("bannedStores"), ","),
	}

	if row.Country == "" {
		return row, fmt.Errorf("%w: country is required", ErrInvalidMonitor)
	}

	maxDistance, err := strconv.ParseFloat(cell("maxDistance"), 64)
	if err != nil {
		return row, fmt.Errorf("%w: maxDistance: %v", ErrInvalidMonitor, err)
	}
	row.MaxDistance = maxDistance

	row.ErrorDelay, err = parseDelayMillis(cell("handleExceptionDelay"))
	if err != nil {
		return row, fmt.Errorf("%w: handleExceptionDelay: %v", ErrInvalidMonitor, err)
	}
	row.PollDelay, err = parseDelayMillis(cell("normalMonitorDelay"))
	if err != nil {
		return row, fmt.Errorf("%w: normalMonitorDelay: %v", ErrInvalidMonitor, err)
	}
	row.Cooldown, err = parseDelayMillis(cell("notificationTimeout"))
	if err != nil {
		return row, fmt.Errorf("%w: notificationTimeout: %v", ErrInvalidMonitor, err)
	}

	if row.UseFamily {
		family, err := ParseFamilySpec(cell("family"))
		if err != nil {
			return row, err
		}
		row.Family = family
	}

	return row, nil
}

// ParseFamilySpec parses "model, capacity1+capacity2, carrier, screensize"
func ParseFamilySpec(raw string) (*FamilySpec, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty descriptor", ErrInvalidFamily)
	}

	parts := splitList(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: expected 4 fields, got %d", ErrInvalidFamily, len(parts))
	}

	spec := &FamilySpec{
		Model:      parts[0],
		Capacities: splitList(parts[1], "+"),
		Carrier:    parts[2],
		ScreenSize: parts[3],
	}

	if spec.Model == "" || len(spec.Capacities) == 0 || spec.ScreenSize == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFamily, raw)
	}

	return spec, nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func parseDelayMillis(s string) (time.Duration, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if ms < 0 {
		return 0, fmt.Errorf("negative delay %d", ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func splitList(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
