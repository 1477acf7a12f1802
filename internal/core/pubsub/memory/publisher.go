package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emporia/emporia/internal/core/pubsub"
)

// Message is a published event as seen by an in-process subscriber.
type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type subscription struct {
	ch     chan Message
	ctx    context.Context
	cancel context.CancelFunc
}

// Publisher delivers messages to in-process subscribers. Subjects with no
// subscriber are dropped.
type Publisher struct {
	opts   pubsub.PublisherOptions
	mu     sync.RWMutex
	subs   map[string]*subscription
	closed atomic.Bool
}

var _ pubsub.Publisher = (*Publisher)(nil)

func NewPublisher(opts pubsub.PublisherOptions) *Publisher {
	return &Publisher{
		opts: opts,
		subs: make(map[string]*subscription),
	}
}

func (p *Publisher) Publish(ctx context.Context, subject string, data []byte) error {
	if p.closed.Load() {
		return ErrClosed
	}
	start := time.Now()
	fullSubject := p.opts.FullSubject(subject)
	err := p.deliver(ctx, fullSubject, data)
	if p.opts.OnPublish != nil {
		p.opts.OnPublish(fullSubject, err, time.Since(start))
	}
	return err
}

func (p *Publisher) deliver(ctx context.Context, subject string, data []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for pattern, sub := range p.subs {
		if !matchSubject(pattern, subject) {
			continue
		}
		msg := Message{Subject: subject, Data: data, Timestamp: time.Now()}
		select {
		case sub.ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.ctx.Done():
		}
	}
	return nil
}

// Subscribe registers a subscriber for pattern. The channel is closed when ctx
// is done, the returned cancel func is called, or the publisher is closed.
func (p *Publisher) Subscribe(ctx context.Context, pattern string, bufSize int) (<-chan Message, func(), error) {
	if p.closed.Load() {
		return nil, nil, ErrClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.subs[pattern] != nil {
		return nil, nil, ErrPatternSubscribed
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{ch: make(chan Message, bufSize), ctx: subCtx, cancel: cancel}
	p.subs[pattern] = sub

	go func() {
		<-subCtx.Done()
		p.remove(pattern, sub)
	}()

	return sub.ch, cancel, nil
}

func (p *Publisher) remove(pattern string, sub *subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subs[pattern] == sub {
		delete(p.subs, pattern)
		close(sub.ch)
	}
}

// Close cancels all subscriptions.
func (p *Publisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.mu.RLock()
	subs := make([]*subscription, 0, len(p.subs))
	for _, sub := range p.subs {
		subs = append(subs, sub)
	}
	p.mu.RUnlock()

	for _, sub := range subs {
		sub.cancel()
	}
	return nil
}
