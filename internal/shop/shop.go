// Package shop implements the storefront workflows: catalog, reviews, orders
// and accounts. Handlers in the REST gateway call into these services; the
// services talk to storage, the image host, the mailer and the event stream.
package shop

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/emporia/emporia/internal/core/identity/authz"
	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/internal/imagehost"
)

// ImageHost stores and removes images. Batch calls are all-or-nothing.
type ImageHost interface {
	Upload(ctx context.Context, folder, data string) (types.Image, error)
	UploadAll(ctx context.Context, folder string, data []string) ([]types.Image, error)
	Destroy(ctx context.Context, publicID string) error
	DestroyAll(ctx context.Context, publicIDs []string) error
}

var _ ImageHost = (*imagehost.Client)(nil)

type Config struct {
	ProductsPerPage int `yaml:"products_per_page"`
	OrdersPerPage   int `yaml:"orders_per_page"`
	// FrontendURL is the base of links sent by email.
	FrontendURL string `yaml:"frontend_url"`
}

func DefaultConfig() Config {
	return Config{
		ProductsPerPage: 8,
		OrdersPerPage:   10,
		FrontendURL:     "http://localhost:3000",
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.ProductsPerPage <= 0 {
		c.ProductsPerPage = defaults.ProductsPerPage
	}
	if c.OrdersPerPage <= 0 {
		c.OrdersPerPage = defaults.OrdersPerPage
	}
	if c.FrontendURL == "" {
		c.FrontendURL = defaults.FrontendURL
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("FRONTEND_URL"); val != "" {
		c.FrontendURL = val
	}
}

// ResolvePaths is a no-op; the shop has no local paths.
func (c *Config) ResolvePaths(_ string) {}

func (c *Config) Validate() error {
	u, err := url.Parse(c.FrontendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("shop.frontend_url must be an absolute URL, got %q", c.FrontendURL)
	}
	return nil
}

// AuthRequest describes u to the policy engine.
func AuthRequest(u *types.User) authz.Request {
	if u == nil {
		return authz.Request{}
	}
	return authz.RequestFor(u.ID.Hex(), u.Role)
}

func publicIDs(images []types.Image) []string {
	ids := make([]string, 0, len(images))
	for _, img := range images {
		if img.PublicID != "" {
			ids = append(ids, img.PublicID)
		}
	}
	return ids
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
