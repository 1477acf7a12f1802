package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/emporia/emporia/internal/core/identity/authn"
	"github.com/emporia/emporia/internal/core/identity/authz"
	"github.com/emporia/emporia/internal/core/pubsub"
	"github.com/emporia/emporia/internal/core/pubsub/memory"
	natspubsub "github.com/emporia/emporia/internal/core/pubsub/nats"
	storage "github.com/emporia/emporia/internal/core/storage/config"
	"github.com/emporia/emporia/internal/core/storage/mongo"
	"github.com/emporia/emporia/internal/gateway"
	"github.com/emporia/emporia/internal/gateway/rest"
	"github.com/emporia/emporia/internal/imagehost"
	"github.com/emporia/emporia/internal/mailer"
	"github.com/emporia/emporia/internal/metrics"
	"github.com/emporia/emporia/internal/server"
	"github.com/emporia/emporia/internal/shop"
)

var storageFactory = func(ctx context.Context, cfg storage.Config) (storageProvider, error) {
	p, err := mongo.NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

var publisherFactory = func(ctx context.Context, cfg pubsub.Config) (pubsub.Publisher, error) {
	opts := cfg.PublisherOptions()
	opts.OnPublish = metrics.ObservePublish

	if cfg.NATSURL == "" {
		return memory.NewPublisher(opts), nil
	}

	provider := natspubsub.NewProvider(cfg.NATSURL)
	if err := provider.Connect(ctx); err != nil {
		return nil, err
	}
	pub, err := provider.NewPublisher(ctx, opts)
	if err != nil {
		provider.Close()
		return nil, err
	}
	return &natsPublisher{Publisher: pub, provider: provider}, nil
}

// natsPublisher closes the connection together with the publisher.
type natsPublisher struct {
	pubsub.Publisher
	provider *natspubsub.Provider
}

func (p *natsPublisher) Close() error {
	return errors.Join(p.Publisher.Close(), p.provider.Close())
}

func (m *Manager) Init(ctx context.Context) error {
	if err := m.initStorage(ctx); err != nil {
		return err
	}
	if err := m.initIdentity(); err != nil {
		return err
	}
	if err := m.initDelivery(); err != nil {
		return err
	}

	// Order events only matter to a running API.
	if m.opts.RunServer {
		pub, err := publisherFactory(ctx, m.cfg.PubSub)
		if err != nil {
			return fmt.Errorf("failed to create event publisher: %w", err)
		}
		m.publisher = pub
	}

	m.initShop()

	if m.opts.RunServer {
		m.initServer()
	}
	return nil
}

func (m *Manager) initStorage(ctx context.Context) error {
	provider, err := storageFactory(ctx, m.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	m.storage = provider

	if err := provider.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (m *Manager) initIdentity() error {
	auth, err := authn.NewAuthService(m.cfg.Identity.AuthN, m.storage.Users())
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}
	m.auth = auth

	policy, err := authz.NewEngine(m.cfg.Identity.AuthZ)
	if err != nil {
		return fmt.Errorf("failed to load authorization rules: %w", err)
	}
	m.policy = policy
	return nil
}

// initDelivery builds the outbound integrations: image hosting and mail.
func (m *Manager) initDelivery() error {
	images, err := imagehost.NewClient(m.cfg.ImageHost)
	if err != nil {
		return fmt.Errorf("failed to create image host client: %w", err)
	}
	if !images.Enabled() {
		slog.Warn("Image host not configured, uploads are disabled")
	}
	m.images = images
	m.mail = mailer.New(m.cfg.Mailer)
	return nil
}

func (m *Manager) initShop() {
	m.catalog = shop.NewCatalog(m.storage.Products(), m.images, m.cfg.Shop)
	m.reviews = shop.NewReviews(m.storage.Products(), m.policy)
	m.orders = shop.NewOrders(m.storage.Orders(), m.storage.Products(), m.storage.Users(), m.policy, m.publisher, m.cfg.Shop)
	m.accounts = shop.NewAccounts(m.storage.Users(), m.auth, m.images, m.mail, m.cfg.Shop)
}

func (m *Manager) initServer() {
	m.server = server.New(m.cfg.Server, slog.Default())

	api := gateway.NewServer(m.auth, m.policy, rest.Services{
		Catalog:  m.catalog,
		Reviews:  m.reviews,
		Orders:   m.orders,
		Accounts: m.accounts,
	},
		gateway.WithAuthRateLimiter(m.server.AuthRateLimiter()),
		gateway.WithConfig(m.cfg.Gateway),
	)
	api.RegisterRoutes(m.server.HTTPMux())
	slog.Info("Initialized storefront API", "port", m.cfg.Server.Port)
}
