package nats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/emporia/emporia/internal/core/pubsub"
)

// Provider manages the NATS connection lifecycle and creates publishers.
type Provider struct {
	url string
	nc  *nats.Conn
	js  JetStream
}

func NewProvider(url string) *Provider {
	return &Provider{url: url}
}

// Connect establishes the NATS connection and initializes JetStream.
func (p *Provider) Connect(ctx context.Context) error {
	nc, err := nats.Connect(p.url, nats.Name("emporia"))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", p.url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream: %w", err)
	}
	p.nc, p.js = nc, js

	slog.Info("Connected to NATS", "url", p.url)
	return nil
}

func (p *Provider) NewPublisher(ctx context.Context, opts pubsub.PublisherOptions) (pubsub.Publisher, error) {
	if p.js == nil {
		return nil, fmt.Errorf("NATS not connected, call Connect first")
	}
	return NewPublisher(ctx, p.js, opts)
}

// Close drains pending publishes and closes the connection.
func (p *Provider) Close() error {
	if p.nc == nil {
		return nil
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return err
	}
	return nil
}
