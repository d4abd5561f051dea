package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	var seen http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = *r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestClient_Lookup(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		want      []string
		wantName  string
		wantErrIs error
		wantErr   bool
	}{
		{
			name:     "allergens listed",
			status:   http.StatusOK,
			body:     `{"product":{"product_name":"Oat drink","allergens_tags":["en:milk","en:soy"]}}`,
			want:     []string{"en:milk", "en:soy"},
			wantName: "Oat drink",
		},
		{
			name:   "empty allergen list",
			status: http.StatusOK,
			body:   `{"product":{"allergens_tags":[]}}`,
			want:   []string{},
		},
		{
			name:      "no product key",
			status:    http.StatusOK,
			body:      `{}`,
			wantErrIs: ErrNotFound,
		},
		{
			name:      "null product",
			status:    http.StatusOK,
			body:      `{"status":0,"status_verbose":"product not found","product":null}`,
			wantErrIs: ErrNotFound,
		},
		{
			name:      "product without allergens_tags",
			status:    http.StatusOK,
			body:      `{"product":{"product_name":"Water"}}`,
			wantErrIs: ErrNoAllergens,
		},
		{
			name:      "null allergens_tags",
			status:    http.StatusOK,
			body:      `{"product":{"allergens_tags":null}}`,
			wantErrIs: ErrNoAllergens,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"product":{"allergens_tags":["en:milk"]}}`,
			wantErr: true,
		},
		{
			name:    "not found status",
			status:  http.StatusNotFound,
			body:    `{}`,
			wantErr: true,
		},
		{
			name:      "html body",
			status:    http.StatusOK,
			body:      `<html>maintenance</html>`,
			wantErrIs: ErrNotFound,
		},
		{
			name:      "array body",
			status:    http.StatusOK,
			body:      `[]`,
			wantErrIs: ErrNotFound,
		},
		{
			name:      "null body",
			status:    http.StatusOK,
			body:      `null`,
			wantErrIs: ErrNotFound,
		},
		{
			name:      "empty body",
			status:    http.StatusOK,
			body:      ``,
			wantErrIs: ErrNotFound,
		},
		{
			name:      "zero product",
			status:    http.StatusOK,
			body:      `{"product":0}`,
			wantErrIs: ErrNotFound,
		},
		{
			name:      "false product",
			status:    http.StatusOK,
			body:      `{"product":false}`,
			wantErrIs: ErrNotFound,
		},
		{
			name:      "empty string product",
			status:    http.StatusOK,
			body:      `{"product":""}`,
			wantErrIs: ErrNotFound,
		},
		{
			name:      "product is a string",
			status:    http.StatusOK,
			body:      `{"product":"water"}`,
			wantErrIs: ErrNoAllergens,
		},
		{
			name:      "product is an array",
			status:    http.StatusOK,
			body:      `{"product":[]}`,
			wantErrIs: ErrNoAllergens,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			c := NewClient(srv.URL, "allerscan-test", time.Second)

			p, err := c.Lookup(context.Background(), "3017620422003")

			switch {
			case tt.wantErrIs != nil:
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErrIs), "got %v", err)
				assert.Nil(t, p)
			case tt.wantErr:
				require.Error(t, err)
				assert.False(t, errors.Is(err, ErrNotFound))
				assert.Nil(t, p)
			default:
				require.NoError(t, err)
				require.NotNil(t, p)
				assert.Equal(t, "3017620422003", p.Code)
				assert.Equal(t, tt.wantName, p.Name)
				assert.Equal(t, tt.want, p.Allergens)
			}
		})
	}
}

func TestClient_RequestShape(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"product":{"allergens_tags":[]}}`)
	c := NewClient(srv.URL+"/", "allerscan-test/1.0", time.Second)

	_, err := c.Lookup(context.Background(), "737628064502")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, seen.Method)
	assert.Equal(t, "/api/v0/product/737628064502.json", seen.URL.Path)
	assert.Equal(t, "allerscan-test/1.0", seen.Header.Get("User-Agent"))
}

func TestClient_ProductURL(t *testing.T) {
	c := NewClient("", "", time.Second)
	assert.Equal(t, "https://world.openfoodfacts.org/api/v0/product/5449000000996.json", c.ProductURL("5449000000996"))
	assert.Equal(t, "https://world.openfoodfacts.org/api/v0/product/a%2Fb.json", c.ProductURL("a/b"))
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "", time.Second)
	p, err := c.Lookup(context.Background(), "123")
	assert.Error(t, err)
	assert.Nil(t, p)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, "", 50*time.Millisecond)
	_, err := c.Lookup(context.Background(), "123")
	assert.Error(t, err)
}
