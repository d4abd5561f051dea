package session

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/jackchuka/allerscan/internal/openfoodfacts"
)

const (
	NotFoundMessage = "No allergen information found."
	ErrorMessage    = "Error fetching product data."
)

// Outcome is the displayable result of one lookup.
type Outcome struct {
	Text    string
	Product string
	Err     error
}

func outcomeOf(p *openfoodfacts.Product, err error) Outcome {
	switch {
	case err == nil && p != nil:
		return Outcome{Text: FormatAllergens(p.Allergens), Product: p.Name}
	case errors.Is(err, openfoodfacts.ErrNotFound):
		return Outcome{Text: NotFoundMessage, Err: err}
	case err == nil:
		return Outcome{Text: NotFoundMessage}
	default:
		return Outcome{Text: ErrorMessage, Err: err}
	}
}

// FormatAllergens renders tags one per line. An empty list renders as "".
func FormatAllergens(tags []string) string {
	return strings.Join(tags, "\n")
}
