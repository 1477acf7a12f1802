package services

import (
	"context"
	"sync"

	"github.com/emporia/emporia/internal/config"
	"github.com/emporia/emporia/internal/core/identity/authn"
	"github.com/emporia/emporia/internal/core/identity/authz"
	"github.com/emporia/emporia/internal/core/pubsub"
	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/internal/imagehost"
	"github.com/emporia/emporia/internal/mailer"
	"github.com/emporia/emporia/internal/server"
	"github.com/emporia/emporia/internal/shop"
)

type Options struct {
	// RunServer mounts the API and starts the HTTP listener. Without it
	// only storage and the shop services are built, for one-off commands.
	RunServer bool
}

// storageProvider is a database connection that can prepare its collections.
type storageProvider interface {
	types.Provider
	EnsureIndexes(ctx context.Context) error
}

type Manager struct {
	cfg  *config.Config
	opts Options

	storage   storageProvider
	auth      authn.Service
	policy    authz.Engine
	images    *imagehost.Client
	mail      mailer.Sender
	publisher pubsub.Publisher

	catalog  *shop.Catalog
	reviews  *shop.Reviews
	orders   *shop.Orders
	accounts *shop.Accounts

	server server.Service
	wg     sync.WaitGroup
}

func NewManager(cfg *config.Config, opts Options) *Manager {
	return &Manager{
		cfg:  cfg,
		opts: opts,
	}
}

// Catalog returns the product service. Nil before Init.
func (m *Manager) Catalog() *shop.Catalog {
	return m.catalog
}

// Server returns the HTTP service, or nil when RunServer is off.
func (m *Manager) Server() server.Service {
	return m.server
}
