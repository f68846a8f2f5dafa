package proxy

import (
	"bufio"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strings"

	"pickwatch/pkg/logger"

	"go.uber.org/zap"
)

// Descriptor is one proxy entry parsed from a host:port:user:password line.
// Entries are not validated beyond field splitting; a malformed proxy simply
// fails at connection time and is handled by the caller's retry path.
type Descriptor struct {
	Host     string
	Port     string
	Username string
	Password string
}

// IsZero reports whether the descriptor denotes a direct connection
func (d Descriptor) IsZero() bool {
	return d.Host == ""
}

// URL renders the descriptor as a forward-proxy URL
func (d Descriptor) URL() *url.URL {
	u := &url.URL{
		Scheme: "http",
		Host:   d.Host + ":" + d.Port,
	}
	if d.Username != "" {
		u.User = url.UserPassword(d.Username, d.Password)
	}
	return u
}

// Transport builds an HTTP transport routing through the proxy.
// A zero descriptor yields a direct transport.
func (d Descriptor) Transport() *http.Transport {
	if d.IsZero() {
		return &http.Transport{}
	}
	proxyURL := d.URL()
	return &http.Transport{
		Proxy: http.ProxyURL(proxyURL),
	}
}

// String renders the descriptor with credentials masked
func (d Descriptor) String() string {
	if d.IsZero() {
		return "direct"
	}
	return fmt.Sprintf("%s:%s", d.Host, d.Port)
}

// ParseDescriptor splits a host:port:user:password line
func ParseDescriptor(line string) Descriptor {
	parts := strings.SplitN(strings.TrimSpace(line), ":", 4)
	d := Descriptor{}
	if len(parts) > 0 {
		d.Host = parts[0]
	}
	if len(parts) > 1 {
		d.Port = parts[1]
	}
	if len(parts) > 2 {
		d.Username = parts[2]
	}
	if len(parts) > 3 {
		d.Password = parts[3]
	}
	return d
}

// Pool holds the proxy list, read-only after load
type Pool struct {
	descriptors []Descriptor
}

// NewPool creates a pool from pre-parsed descriptors
func NewPool(descriptors []Descriptor) *Pool {
	return &Pool{descriptors: descriptors}
}

// LoadPool reads the proxy list file, one descriptor per line.
// A missing file is created empty so the operator has somewhere to put proxies.
func LoadPool(path string) (*Pool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, nil, 0644); err != nil {
			return nil, fmt.Errorf("failed to create proxy file %s: %w", path, err)
		}
		logger.Info("Proxy file not found, created empty file", zap.String("path", path))
		return NewPool(nil), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open proxy file %s: %w", path, err)
	}
	defer f.Close()

	var descriptors []Descriptor
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		descriptors = append(descriptors, ParseDescriptor(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read proxy file %s: %w", path, err)
	}

	logger.Info("Loaded proxy pool", zap.Int("count", len(descriptors)))
	return NewPool(descriptors), nil
}

// Size returns the number of proxies in the pool
func (p *Pool) Size() int {
	return len(p.descriptors)
}

// Pick selects one proxy uniformly at random.
// An empty pool returns the zero descriptor (direct connection).
func (p *Pool) Pick() Descriptor {
	if len(p.descriptors) == 0 {
		return Descriptor{}
	}
	return p.descriptors[rand.Intn(len(p.descriptors))]
}
