package apple

import "strings"

// PickupQuote is the per-product pickup message shown on the store page,
// e.g. "Available Today at Apple Union Square" or "Currently unavailable".
type PickupQuote struct {
	Title string `json:"storePickupProductTitle"`
	Quote string `json:"storePickupQuote"`
}

// PartAvailability is keyed by message type; only "regular" is requested.
type PartAvailability struct {
	MessageTypes map[string]PickupQuote `json:"messageTypes"`
}

// Regular returns the regular-channel pickup quote for this part.
func (p PartAvailability) Regular() PickupQuote {
	return p.MessageTypes["regular"]
}

// StoreAddress carries the display address of a retail store.
type StoreAddress struct {
	TwoLineAddress string `json:"twoLineAddress"`
}

// RetailStore holds the store metadata nested under each store record.
type RetailStore struct {
	DistanceWithUnit string       `json:"distanceWithUnit"`
	Address          StoreAddress `json:"address"`
}

// Store is a single retail store entry in an availability response.
type Store struct {
	StoreName         string                      `json:"storeName"`
	State             string                      `json:"state"`
	Country           string                      `json:"country"`
	StoreDistance     float64                     `json:"storedistance"`
	StoreImageURL     string                      `json:"storeImageUrl"`
	Retail            RetailStore                 `json:"retailStore"`
	PartsAvailability map[string]PartAvailability `json:"partsAvailability"`
}

// AvailabilityResult is the normalized payload shared by both availability
// endpoints. A non-empty ErrorMessage is a soft failure: the upstream
// answered in shape but declined the query (bad zip, throttling).
type AvailabilityResult struct {
	Stores       []Store `json:"stores"`
	ErrorMessage string  `json:"errorMessage"`
}

// ProductDetails is extracted from the product page microdata.
type ProductDetails struct {
	Image    string
	Price    string
	Currency string
}

// CatalogProduct is one orderable configuration from the product locator.
type CatalogProduct struct {
	PartNumber   string `json:"partNumber"`
	Capacity     string `json:"dimensionCapacity"`
	ScreenSize   string `json:"dimensionScreensize"`
	CarrierModel string `json:"carrierModel"`
}

// unavailablePhrases mark a pickup quote as not purchasable. Matching is
// case-sensitive substring, the same test the store page applies.
var unavailablePhrases = []string{
	"Currently unavailable",
	"Unavailable for pickup at",
	"Apple Store Pickup is currently unavailable",
	"In-store availability on",
}

// IsUnavailableQuote reports whether a pickup quote describes an
// unavailable product. Future-dated quotes ("In-store availability on
// 10/5") count as unavailable.
func IsUnavailableQuote(quote string) bool {
	for _, phrase := range unavailablePhrases {
		if strings.Contains(quote, phrase) {
			return true
		}
	}
	return false
}
