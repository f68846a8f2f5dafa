// Package notifier delivers availability changes to a Discord webhook.
// Delivery is best effort: a failed send is reported but never aborts
// the polling loop that triggered it.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"pickwatch/pkg/apple"
	"pickwatch/pkg/dedup"
	"pickwatch/pkg/logger"
	"pickwatch/pkg/proxy"
)

const (
	colorRed   = 16711680
	colorGreen = 65280

	defaultSendTimeout = 5 * time.Second
)

// Result reports what happened to a single notification attempt.
type Result int

const (
	ResultSent Result = iota
	ResultSuppressed
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultSent:
		return "sent"
	case ResultSuppressed:
		return "suppressed"
	case ResultFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Notification is one availability change for a product at a store.
type Notification struct {
	Title   string
	Message string
	Product string
	Store   apple.Store
}

// Embed is a Discord rich embed.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Thumbnail   *EmbedImage  `json:"thumbnail,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedImage struct {
	URL string `json:"url,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text,omitempty"`
}

type webhookPayload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []Embed `json:"embeds"`
}

// Notifier posts embeds to a single webhook and consults a dedup store
// before each send.
type Notifier struct {
	webhookURL string
	country    string
	store      dedup.Store
	upstream   *apple.Client
	timeout    time.Duration
	now        func() time.Time
}

// NewNotifier builds a notifier for one webhook. The dedup store
// carries the monitor's cooldown window.
func NewNotifier(webhookURL, country string, store dedup.Store, upstream *apple.Client) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		country:    country,
		store:      store,
		upstream:   upstream,
		timeout:    defaultSendTimeout,
		now:        time.Now,
	}
}

// Notify sends one availability change unless the dedup store suppresses
// it. The record is written before the webhook call, so a crash between
// the two loses at most one notification instead of duplicating it.
func (n *Notifier) Notify(ctx context.Context, note Notification, pxy proxy.Descriptor) Result {
	key := dedup.Key(note.Title, note.Store.StoreName)
	now := n.now()

	if n.store.ShouldSuppress(key, note.Message, now) {
		logger.Debug("notification suppressed",
			zap.String("key", key),
			zap.String("message", note.Message))
		return ResultSuppressed
	}
	n.store.RecordSent(key, note.Message, now)

	embed := n.buildEmbed(ctx, note, pxy)
	payload := webhookPayload{Username: "pickwatch", Embeds: []Embed{embed}}
	if err := n.send(ctx, payload, pxy); err != nil {
		logger.Error("webhook delivery failed",
			zap.String("key", key),
			zap.Error(err))
		return ResultFailed
	}

	logger.Info("notification sent",
		zap.String("title", note.Title),
		zap.String("store", note.Store.StoreName),
		zap.String("message", note.Message))
	return ResultSent
}

// buildEmbed assembles the embed, falling back to the store image and
// an empty price when the product page lookup fails.
func (n *Notifier) buildEmbed(ctx context.Context, note Notification, pxy proxy.Descriptor) Embed {
	image := note.Store.StoreImageURL
	price := ""
	details, err := n.upstream.FetchProductDetails(ctx, n.country, note.Product, pxy)
	if err != nil {
		logger.Warn("product details lookup failed, using store image",
			zap.String("product", note.Product),
			zap.Error(err))
	} else {
		if details.Image != "" {
			image = details.Image
		}
		if details.Price != "" {
			price = strings.TrimSpace(details.Price + " " + details.Currency)
		}
	}

	// The evaluator filters unavailable products out before this point;
	// the literal check is a last line of defense so a quote that slips
	// through is at least colored correctly.
	color := colorGreen
	if note.Message == "Apple Store Pickup is currently unavailable" ||
		strings.Contains(note.Message, "Currently unavailable") {
		color = colorRed
	}

	fields := []EmbedField{
		{Name: "Store", Value: note.Store.Retail.Address.TwoLineAddress, Inline: true},
		{Name: "Distance", Value: note.Store.Retail.DistanceWithUnit, Inline: true},
		{Name: "SKU", Value: note.Product, Inline: true},
	}
	if price != "" {
		fields = append(fields, EmbedField{Name: "Price", Value: price, Inline: true})
	}

	return Embed{
		Title:       note.Title,
		Description: note.Message,
		URL:         n.upstream.ProductURL(n.country, note.Product),
		Color:       color,
		Fields:      fields,
		Thumbnail:   &EmbedImage{URL: image},
		Footer:      &EmbedFooter{Text: n.now().Format("Jan 2, 2006 3:04:05 PM MST")},
	}
}

func (n *Notifier) send(ctx context.Context, payload webhookPayload, pxy proxy.Descriptor) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: n.timeout, Transport: pxy.Transport()}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
