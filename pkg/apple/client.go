package apple

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pickwatch/pkg/config"
	"pickwatch/pkg/logger"
	"pickwatch/pkg/proxy"
)

const defaultBaseURL = "https://www.apple.com"

// Client talks to the retail availability APIs. Requests are rate
// limited client-side and sent through a per-call proxy so the pool
// can rotate on every poll.
type Client struct {
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
	policy  VariantPolicy
}

// NewClient builds a client from the upstream section of the config.
func NewClient(cfg *config.UpstreamConfig) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		policy:  NewVariantPolicy(cfg.VariantPolicy),
	}
}

// NewClientWithBaseURL is for tests that point the client at a local server.
func NewClientWithBaseURL(cfg *config.UpstreamConfig, baseURL string) *Client {
	c := NewClient(cfg)
	c.baseURL = baseURL
	return c
}

// ProductURL returns the public product page for a part number.
func (c *Client) ProductURL(country, product string) string {
	return fmt.Sprintf("%s/%s/shop/product/%s", c.baseURL, country, product)
}

// httpClient builds a one-shot client routed through the given proxy.
// A zero descriptor yields a direct connection.
func (c *Client) httpClient(pxy proxy.Descriptor) *http.Client {
	return &http.Client{
		Timeout:   c.timeout,
		Transport: pxy.Transport(),
	}
}

func setBrowseHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en,q=0.9")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("User-Agent", "Googlebot")
}

// FetchAvailability queries pickup availability for a set of part
// numbers near a zip code. The endpoint and shop path are chosen by
// the variant policy; both variants normalize to the same result.
func (c *Client) FetchAvailability(ctx context.Context, country string, products []string, zip string, pxy proxy.Descriptor) (*AvailabilityResult, error) {
	if len(products) == 0 {
		return nil, ErrEmptyProductList
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	variant := c.policy.Next()

	query := url.Values{}
	query.Set("pl", "true")
	query.Set("mts.0", "regular")
	for i, part := range products {
		query.Set(fmt.Sprintf("parts.%d", i), part)
	}
	query.Set("location", zip)

	requestURL := fmt.Sprintf("%s%s%s?%s",
		c.baseURL, variant.ShopPath(country), variant.Endpoint, query.Encode())

	body, err := c.get(ctx, requestURL, pxy)
	if err != nil {
		return nil, err
	}

	result, err := decodeAvailability(variant.Endpoint, body)
	if err != nil {
		return nil, err
	}

	logger.Debug("fetched availability",
		zap.String("endpoint", string(variant.Endpoint)),
		zap.Bool("edu_path", variant.EduPath),
		zap.Int("stores", len(result.Stores)))
	return result, nil
}

// decodeAvailability unwraps the endpoint-specific envelope around the
// shared availability payload. An endpoint with no mapping is a
// programming error, not a transient upstream failure.
func decodeAvailability(endpoint Endpoint, body []byte) (*AvailabilityResult, error) {
	switch endpoint {
	case EndpointPickupMessage:
		var envelope struct {
			Body AvailabilityResult `json:"body"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
		return &envelope.Body, nil
	case EndpointFulfillment:
		var envelope struct {
			Body struct {
				Content struct {
					PickupMessage AvailabilityResult `json:"pickupMessage"`
				} `json:"content"`
			} `json:"body"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
		return &envelope.Body.Content.PickupMessage, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}
}

// FetchProductDetails scrapes the product page microdata for the image
// and price shown in notifications.
func (c *Client) FetchProductDetails(ctx context.Context, country, product string, pxy proxy.Descriptor) (*ProductDetails, error) {
	seoParam, err := json.Marshal(map[string]string{
		"product":    product,
		"refererUrl": c.ProductURL(country, product),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	requestURL := fmt.Sprintf("%s/%s/shop/updateSEO?m=%s",
		c.baseURL, country, url.QueryEscape(string(seoParam)))

	body, err := c.get(ctx, requestURL, pxy)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Body struct {
			MarketingData struct {
				MicrodataList []string `json:"microdataList"`
			} `json:"marketingData"`
		} `json:"body"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if len(envelope.Body.MarketingData.MicrodataList) == 0 {
		return nil, fmt.Errorf("%w: microdata list is empty", ErrDecodeFailed)
	}

	// Each microdata entry is itself a JSON document embedded as a string.
	var microdata struct {
		Image  string `json:"image"`
		Offers []struct {
			PriceCurrency string      `json:"priceCurrency"`
			Price         json.Number `json:"price"`
		} `json:"offers"`
	}
	if err := json.Unmarshal([]byte(envelope.Body.MarketingData.MicrodataList[0]), &microdata); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	details := &ProductDetails{Image: microdata.Image}
	if len(microdata.Offers) > 0 {
		details.Currency = microdata.Offers[0].PriceCurrency
		details.Price = microdata.Offers[0].Price.String()
	}
	return details, nil
}

// FetchCatalogProducts resolves a product family filter into the part
// numbers that match its capacity, screen size and carrier constraints.
func (c *Client) FetchCatalogProducts(ctx context.Context, country string, family config.FamilySpec, pxy proxy.Descriptor) ([]string, error) {
	requestURL := fmt.Sprintf("%s/%s/shop/product-locator-meta?family=%s",
		c.baseURL, country, url.QueryEscape(family.Model))

	body, err := c.get(ctx, requestURL, pxy)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Body struct {
			ProductLocatorOverlayData struct {
				ProductLocatorMeta struct {
					Products []CatalogProduct `json:"products"`
				} `json:"productLocatorMeta"`
			} `json:"productLocatorOverlayData"`
		} `json:"body"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	var parts []string
	for _, product := range envelope.Body.ProductLocatorOverlayData.ProductLocatorMeta.Products {
		if matchesFamily(product, family) {
			parts = append(parts, product.PartNumber)
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: family %q", ErrNoCatalogProducts, family.Model)
	}

	logger.Info("resolved product family",
		zap.String("family", family.Model),
		zap.Int("products", len(parts)))
	return parts, nil
}

func matchesFamily(product CatalogProduct, family config.FamilySpec) bool {
	if !containsString(family.Capacities, product.Capacity) {
		return false
	}
	if product.ScreenSize != family.ScreenSize {
		return false
	}
	if family.CarrierConstrained() && product.CarrierModel != family.Carrier {
		return false
	}
	return true
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// get performs a GET with the standard headers through the given proxy
// and returns the raw body of a 200 response.
func (c *Client) get(ctx context.Context, requestURL string, pxy proxy.Descriptor) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	setBrowseHeaders(req)

	resp, err := c.httpClient(pxy).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return body, nil
}
