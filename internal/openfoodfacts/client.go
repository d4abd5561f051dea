package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://world.openfoodfacts.org"

// Lookup is the product lookup capability.
type Lookup interface {
	Lookup(ctx context.Context, code string) (*Product, error)
}

type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

// ProductURL returns the v0 product endpoint for code.
func (c *Client) ProductURL(code string) string {
	return fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(code))
}

// Lookup fetches a product. A 2xx body that is not an object, or whose
// product is missing or empty, yields ErrNotFound. A product without
// allergens_tags yields ErrNoAllergens. Transport and status problems are
// returned as wrapped errors.
func (c *Client) Lookup(ctx context.Context, code string) (*Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ProductURL(code), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %s", code)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.Errorf("get product %s: unexpected status %s", code, resp.Status)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrapf(ErrNotFound, "product %s: unreadable body (%v)", code, err)
	}
	if absent(body.Product) {
		return nil, ErrNotFound
	}

	var p productPayload
	if err := json.Unmarshal(body.Product, &p); err != nil {
		return nil, errors.Wrapf(ErrNoAllergens, "product %s: %v", code, err)
	}
	if p.AllergensTags == nil {
		return nil, errors.Wrapf(ErrNoAllergens, "product %s", code)
	}

	return &Product{
		Code:      code,
		Name:      p.ProductName,
		Allergens: p.AllergensTags,
	}, nil
}
