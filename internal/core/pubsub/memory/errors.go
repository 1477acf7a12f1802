// Package memory provides an in-process pubsub implementation for standalone mode.
package memory

import "errors"

var (
	// ErrClosed is returned when operating on a closed publisher.
	ErrClosed = errors.New("publisher is closed")

	// ErrPatternSubscribed is returned when a pattern already has a subscriber.
	ErrPatternSubscribed = errors.New("pattern already has a subscriber")
)
