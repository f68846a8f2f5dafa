package apple

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pickwatch/pkg/config"
	"pickwatch/pkg/proxy"
)

func testUpstreamConfig() *config.UpstreamConfig {
	return &config.UpstreamConfig{
		VariantPolicy:  "round_robin",
		RequestTimeout: 5,
		RatePerSecond:  100,
		RateBurst:      100,
	}
}

func TestIsUnavailableQuote(t *testing.T) {
	tests := []struct {
		name        string
		quote       string
		unavailable bool
	}{
		{"currently unavailable", "Currently unavailable", true},
		{"unavailable at store", "Unavailable for pickup at Apple Union Square", true},
		{"pickup service down", "Apple Store Pickup is currently unavailable", true},
		{"future dated availability", "In-store availability on 10/5", true},
		{"available today", "Available Today at Apple Union Square", false},
		{"lowercase does not match", "currently unavailable", false},
		{"empty quote", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnavailableQuote(tt.quote); got != tt.unavailable {
				t.Errorf("IsUnavailableQuote(%q) = %v, want %v", tt.quote, got, tt.unavailable)
			}
		})
	}
}

func TestDecodeAvailability(t *testing.T) {
	payload := AvailabilityResult{
		Stores: []Store{{StoreName: "Apple Union Square", StoreDistance: 1.5}},
	}

	pickupBody, _ := json.Marshal(map[string]interface{}{"body": payload})
	fulfillmentBody, _ := json.Marshal(map[string]interface{}{
		"body": map[string]interface{}{
			"content": map[string]interface{}{"pickupMessage": payload},
		},
	})

	tests := []struct {
		name     string
		endpoint Endpoint
		body     []byte
		wantErr  bool
	}{
		{"pickup message envelope", EndpointPickupMessage, pickupBody, false},
		{"fulfillment envelope", EndpointFulfillment, fulfillmentBody, false},
		{"unknown endpoint", Endpoint("/retail/other"), pickupBody, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := decodeAvailability(tt.endpoint, tt.body)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeAvailability() error = %v", err)
			}
			if len(result.Stores) != 1 || result.Stores[0].StoreName != "Apple Union Square" {
				t.Errorf("unexpected result: %+v", result)
			}
		})
	}
}

func TestFetchAvailability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "Googlebot" {
			t.Errorf("User-Agent = %q, want Googlebot", got)
		}
		query := r.URL.Query()
		if query.Get("parts.0") != "MU123" || query.Get("parts.1") != "MU456" {
			t.Errorf("unexpected parts in query: %v", query)
		}
		if query.Get("location") != "94102" {
			t.Errorf("location = %q, want 94102", query.Get("location"))
		}

		payload := AvailabilityResult{Stores: []Store{{StoreName: "Apple Union Square"}}}
		var body interface{}
		switch {
		case strings.HasSuffix(r.URL.Path, string(EndpointPickupMessage)):
			body = map[string]interface{}{"body": payload}
		case strings.HasSuffix(r.URL.Path, string(EndpointFulfillment)):
			body = map[string]interface{}{
				"body": map[string]interface{}{
					"content": map[string]interface{}{"pickupMessage": payload},
				},
			}
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			body = map[string]interface{}{}
		}
		json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(testUpstreamConfig(), server.URL)

	// Round robin cycles all four variants; each must normalize identically.
	for i := 0; i < len(allVariants); i++ {
		result, err := client.FetchAvailability(context.Background(), "us",
			[]string{"MU123", "MU456"}, "94102", proxy.Descriptor{})
		if err != nil {
			t.Fatalf("FetchAvailability() error = %v", err)
		}
		if len(result.Stores) != 1 || result.Stores[0].StoreName != "Apple Union Square" {
			t.Errorf("unexpected result: %+v", result)
		}
	}
}

func TestFetchAvailabilityEmptyProducts(t *testing.T) {
	client := NewClient(testUpstreamConfig())
	if _, err := client.FetchAvailability(context.Background(), "us", nil, "94102", proxy.Descriptor{}); err == nil {
		t.Fatal("expected error for empty product list")
	}
}

func TestFetchAvailabilitySoftFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"body": AvailabilityResult{ErrorMessage: "Enter a valid zip code"},
		})
	}))
	defer server.Close()

	cfg := testUpstreamConfig()
	cfg.VariantPolicy = "round_robin" // first variant is pickup-message
	client := NewClientWithBaseURL(cfg, server.URL)

	result, err := client.FetchAvailability(context.Background(), "us",
		[]string{"MU123"}, "00000", proxy.Descriptor{})
	if err != nil {
		t.Fatalf("FetchAvailability() error = %v", err)
	}
	if result.ErrorMessage != "Enter a valid zip code" {
		t.Errorf("ErrorMessage = %q, want soft failure message", result.ErrorMessage)
	}
}

func TestFetchProductDetails(t *testing.T) {
	microdata, _ := json.Marshal(map[string]interface{}{
		"image": "https://example.com/iphone.png",
		"offers": []map[string]interface{}{
			{"priceCurrency": "USD", "price": 999},
		},
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/shop/updateSEO") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("m") == "" {
			t.Error("missing m query parameter")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"body": map[string]interface{}{
				"marketingData": map[string]interface{}{
					"microdataList": []string{string(microdata)},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClientWithBaseURL(testUpstreamConfig(), server.URL)
	details, err := client.FetchProductDetails(context.Background(), "us", "MU123", proxy.Descriptor{})
	if err != nil {
		t.Fatalf("FetchProductDetails() error = %v", err)
	}
	if details.Image != "https://example.com/iphone.png" {
		t.Errorf("Image = %q", details.Image)
	}
	if details.Price != "999" || details.Currency != "USD" {
		t.Errorf("Price = %q %q, want 999 USD", details.Price, details.Currency)
	}
}

func TestFetchProductDetailsEmptyMicrodata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"body": map[string]interface{}{
				"marketingData": map[string]interface{}{"microdataList": []string{}},
			},
		})
	}))
	defer server.Close()

	client := NewClientWithBaseURL(testUpstreamConfig(), server.URL)
	if _, err := client.FetchProductDetails(context.Background(), "us", "MU123", proxy.Descriptor{}); err == nil {
		t.Fatal("expected error for empty microdata list")
	}
}

func TestFetchCatalogProducts(t *testing.T) {
	catalog := []CatalogProduct{
		{PartNumber: "MU123", Capacity: "128GB", ScreenSize: "6.1", CarrierModel: "UNLOCKED/US"},
		{PartNumber: "MU456", Capacity: "256GB", ScreenSize: "6.1", CarrierModel: "UNLOCKED/US"},
		{PartNumber: "MU789", Capacity: "512GB", ScreenSize: "6.1", CarrierModel: "UNLOCKED/US"},
		{PartNumber: "MU999", Capacity: "128GB", ScreenSize: "6.7", CarrierModel: "UNLOCKED/US"},
		{PartNumber: "MU888", Capacity: "128GB", ScreenSize: "6.1", CarrierModel: "ATT/US"},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("family"); got != "iphone17" {
			t.Errorf("family = %q, want iphone17", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"body": map[string]interface{}{
				"productLocatorOverlayData": map[string]interface{}{
					"productLocatorMeta": map[string]interface{}{"products": catalog},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClientWithBaseURL(testUpstreamConfig(), server.URL)

	tests := []struct {
		name   string
		family config.FamilySpec
		want   []string
	}{
		{
			name: "carrier unconstrained",
			family: config.FamilySpec{
				Model: "iphone17", Capacities: []string{"128GB", "256GB"},
				Carrier: "N/A", ScreenSize: "6.1",
			},
			want: []string{"MU123", "MU456", "MU888"},
		},
		{
			name: "carrier constrained",
			family: config.FamilySpec{
				Model: "iphone17", Capacities: []string{"128GB"},
				Carrier: "UNLOCKED/US", ScreenSize: "6.1",
			},
			want: []string{"MU123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.FetchCatalogProducts(context.Background(), "us", tt.family, proxy.Descriptor{})
			if err != nil {
				t.Fatalf("FetchCatalogProducts() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestFetchCatalogProductsNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"body": map[string]interface{}{
				"productLocatorOverlayData": map[string]interface{}{
					"productLocatorMeta": map[string]interface{}{"products": []CatalogProduct{}},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClientWithBaseURL(testUpstreamConfig(), server.URL)
	family := config.FamilySpec{Model: "iphone17", Capacities: []string{"1TB"}, Carrier: "N/A", ScreenSize: "6.1"}
	if _, err := client.FetchCatalogProducts(context.Background(), "us", family, proxy.Descriptor{}); err == nil {
		t.Fatal("expected error when no catalog products match")
	}
}

func TestVariantPolicies(t *testing.T) {
	t.Run("round robin cycles variants", func(t *testing.T) {
		policy := NewVariantPolicy("round_robin")
		seen := make(map[Variant]bool)
		for i := 0; i < len(allVariants); i++ {
			seen[policy.Next()] = true
		}
		if len(seen) != len(allVariants) {
			t.Errorf("round robin covered %d variants, want %d", len(seen), len(allVariants))
		}
	})

	t.Run("unknown policy falls back to random", func(t *testing.T) {
		policy := NewVariantPolicy("bogus")
		if _, ok := policy.(*randomPolicy); !ok {
			t.Errorf("expected random policy fallback, got %T", policy)
		}
	})
}

func TestVariantShopPath(t *testing.T) {
	standard := Variant{Endpoint: EndpointPickupMessage, EduPath: false}
	edu := Variant{Endpoint: EndpointPickupMessage, EduPath: true}
	if got := standard.ShopPath("us"); got != "/us/shop" {
		t.Errorf("ShopPath = %q, want /us/shop", got)
	}
	if got := edu.ShopPath("us"); got != "/us-edu/shop" {
		t.Errorf("ShopPath = %q, want /us-edu/shop", got)
	}
}
