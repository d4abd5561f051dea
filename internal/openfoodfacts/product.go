package openfoodfacts

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when the response carries no product.
	ErrNotFound = errors.New("product not found")

	// ErrNoAllergens is returned when a product exists but has no allergens_tags field.
	ErrNoAllergens = errors.New("product has no allergen tags")
)

type Product struct {
	Code      string
	Name      string
	Allergens []string // never nil on a successful lookup; may be empty
}

// response mirrors the subset of /api/v0/product/{code}.json the app reads.
// Product stays raw until it is known to be present.
type response struct {
	Product json.RawMessage `json:"product"`
}

type productPayload struct {
	ProductName   string   `json:"product_name"`
	AllergensTags []string `json:"allergens_tags"`
}

// absent reports whether raw counts as no product: missing, null, false,
// zero or an empty string.
func absent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", `""`:
		return true
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n == 0
	}
	return false
}
