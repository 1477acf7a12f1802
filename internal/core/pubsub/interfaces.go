// Package pubsub publishes storefront events to a message broker.
package pubsub

import (
	"context"
	"time"
)

// Publisher publishes messages to a stream.
type Publisher interface {
	// Publish sends a message to the specified subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close releases resources.
	Close() error
}

// StorageType defines the storage backend for streams.
type StorageType int

const (
	// MemoryStorage stores data in memory (default).
	MemoryStorage StorageType = iota
	// FileStorage stores data on disk.
	FileStorage
)

// PublisherOptions configures publisher behavior.
type PublisherOptions struct {
	// StreamName is the name of the stream to publish to.
	StreamName string

	// SubjectPrefix is prepended to all subjects.
	SubjectPrefix string

	// RetryAttempts is the number of retry attempts for publishing.
	RetryAttempts int

	Storage StorageType

	// OnPublish is called after each publish attempt (for metrics).
	OnPublish func(subject string, err error, latency time.Duration)
}

// FullSubject applies the configured prefix to subject.
func (o PublisherOptions) FullSubject(subject string) string {
	if o.SubjectPrefix == "" {
		return subject
	}
	return o.SubjectPrefix + "." + subject
}
