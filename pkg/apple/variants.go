package apple

import (
	"fmt"
	"math/rand"
	"sync"
)

// Endpoint is one of the two availability APIs the store exposes. They
// return the same data behind different response envelopes.
type Endpoint string

const (
	EndpointPickupMessage Endpoint = "/retail/pickup-message"
	EndpointFulfillment   Endpoint = "/fulfillment-messages"
)

// Variant pairs an availability endpoint with a shop path prefix. The
// edu storefront serves the same availability data, so alternating
// between the two spreads traffic across distinct URLs.
type Variant struct {
	Endpoint Endpoint
	EduPath  bool
}

// ShopPath returns the storefront path prefix for a country code,
// e.g. "/us/shop" or "/us-edu/shop".
func (v Variant) ShopPath(country string) string {
	if v.EduPath {
		return fmt.Sprintf("/%s-edu/shop", country)
	}
	return fmt.Sprintf("/%s/shop", country)
}

var allVariants = []Variant{
	{Endpoint: EndpointPickupMessage, EduPath: false},
	{Endpoint: EndpointPickupMessage, EduPath: true},
	{Endpoint: EndpointFulfillment, EduPath: false},
	{Endpoint: EndpointFulfillment, EduPath: true},
}

// VariantPolicy chooses which endpoint/path combination the next
// availability request uses.
type VariantPolicy interface {
	Next() Variant
}

// NewVariantPolicy returns the policy named by the config value.
// Unknown names fall back to random selection.
func NewVariantPolicy(name string) VariantPolicy {
	if name == "round_robin" {
		return &roundRobinPolicy{}
	}
	return &randomPolicy{}
}

type randomPolicy struct{}

func (p *randomPolicy) Next() Variant {
	return allVariants[rand.Intn(len(allVariants))]
}

type roundRobinPolicy struct {
	mu   sync.Mutex
	next int
}

func (p *roundRobinPolicy) Next() Variant {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := allVariants[p.next%len(allVariants)]
	p.next++
	return v
}
