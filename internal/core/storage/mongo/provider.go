package mongo

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/emporia/emporia/internal/core/storage/config"
	"github.com/emporia/emporia/internal/core/storage/types"
)

// Provider owns the MongoDB connection and the stores built on it.
type Provider struct {
	client *mongo.Client
	db     *mongo.Database

	products *productStore
	users    *userStore
	orders   *orderStore
}

var _ types.Provider = (*Provider)(nil)

// NewProvider connects to MongoDB and verifies the connection with a ping.
func NewProvider(ctx context.Context, cfg config.Config) (*Provider, error) {
	clientOpts := options.Client().ApplyURI(cfg.Mongo.URI)

	// Set some reasonable defaults if not provided in URI
	if clientOpts.ConnectTimeout == nil && cfg.Mongo.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(cfg.Mongo.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	slog.Info("Connected to MongoDB", "database", cfg.Mongo.DatabaseName)
	return newProvider(client, client.Database(cfg.Mongo.DatabaseName), cfg.Collections), nil
}

func newProvider(client *mongo.Client, db *mongo.Database, colls config.CollectionsConfig) *Provider {
	return &Provider{
		client:   client,
		db:       db,
		products: newProductStore(db, colls.Products),
		users:    newUserStore(db, colls.Users),
		orders:   newOrderStore(db, colls.Orders),
	}
}

func (p *Provider) Products() types.ProductStore { return p.products }
func (p *Provider) Users() types.UserStore       { return p.users }
func (p *Provider) Orders() types.OrderStore     { return p.orders }

// Database returns the database the stores operate on.
func (p *Provider) Database() *mongo.Database {
	return p.db
}

// EnsureIndexes creates the indexes of every collection.
func (p *Provider) EnsureIndexes(ctx context.Context) error {
	if err := p.products.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := p.users.EnsureIndexes(ctx); err != nil {
		return err
	}
	return p.orders.EnsureIndexes(ctx)
}

// Close closes the MongoDB connection
func (p *Provider) Close(ctx context.Context) error {
	return p.client.Disconnect(ctx)
}
