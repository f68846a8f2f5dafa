package apple

import "errors"

var (
	ErrRequestFailed     = errors.New("upstream request failed")
	ErrBadStatus         = errors.New("upstream returned non-200 status")
	ErrDecodeFailed      = errors.New("failed to decode upstream response")
	ErrUnknownEndpoint   = errors.New("no response mapping for endpoint")
	ErrEmptyProductList  = errors.New("product list is empty")
	ErrNoCatalogProducts = errors.New("no catalog products matched the family filter")
)
