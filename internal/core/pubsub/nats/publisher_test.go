package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/emporia/emporia/internal/core/pubsub"
)

type MockJetStream struct {
	mock.Mock
}

func (m *MockJetStream) CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(jetstream.Stream), args.Error(1)
}

func (m *MockJetStream) Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	args := m.Called(ctx, subject, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jetstream.PubAck), args.Error(1)
}

func TestNewPublisher_CreatesStream(t *testing.T) {
	mockJS := new(MockJetStream)
	mockJS.On("CreateOrUpdateStream", mock.Anything, mock.MatchedBy(func(cfg jetstream.StreamConfig) bool {
		return cfg.Name == "EMPORIA" && cfg.Subjects[0] == "EMPORIA.>" && cfg.Storage == jetstream.FileStorage
	})).Return(nil, nil)

	pub, err := NewPublisher(context.Background(), mockJS, pubsub.PublisherOptions{
		StreamName:    "EMPORIA",
		SubjectPrefix: "EMPORIA",
		Storage:       pubsub.FileStorage,
	})

	require.NoError(t, err)
	assert.NotNil(t, pub)
	mockJS.AssertExpectations(t)
}

func TestNewPublisher_Errors(t *testing.T) {
	_, err := NewPublisher(context.Background(), nil, pubsub.PublisherOptions{})
	assert.Error(t, err)

	mockJS := new(MockJetStream)
	mockJS.On("CreateOrUpdateStream", mock.Anything, mock.Anything).Return(nil, errors.New("stream error"))

	_, err = NewPublisher(context.Background(), mockJS, pubsub.PublisherOptions{StreamName: "EMPORIA"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "stream error")
}

func TestPublisher_Publish(t *testing.T) {
	mockJS := new(MockJetStream)
	mockJS.On("CreateOrUpdateStream", mock.Anything, mock.Anything).Return(nil, nil)
	mockJS.On("Publish", mock.Anything, "EMPORIA.orders.Shipped", []byte("{}")).Return(&jetstream.PubAck{}, nil)

	var (
		gotSubject string
		gotErr     error
	)
	pub, err := NewPublisher(context.Background(), mockJS, pubsub.PublisherOptions{
		StreamName:    "EMPORIA",
		SubjectPrefix: "EMPORIA",
		RetryAttempts: 2,
		OnPublish: func(subject string, err error, _ time.Duration) {
			gotSubject, gotErr = subject, err
		},
	})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(context.Background(), "orders.Shipped", []byte("{}")))
	assert.Equal(t, "EMPORIA.orders.Shipped", gotSubject)
	assert.NoError(t, gotErr)
	assert.NoError(t, pub.Close())
}

func TestPublisher_PublishError(t *testing.T) {
	mockJS := new(MockJetStream)
	mockJS.On("Publish", mock.Anything, "orders.Shipped", mock.Anything).Return(nil, errors.New("no responders"))

	pub, err := NewPublisher(context.Background(), mockJS, pubsub.PublisherOptions{})
	require.NoError(t, err)

	err = pub.Publish(context.Background(), "orders.Shipped", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "orders.Shipped")
	mockJS.AssertNotCalled(t, "CreateOrUpdateStream", mock.Anything, mock.Anything)
}

func TestProvider_NotConnected(t *testing.T) {
	p := NewProvider("nats://127.0.0.1:1")
	_, err := p.NewPublisher(context.Background(), pubsub.PublisherOptions{})
	assert.Error(t, err)
	assert.NoError(t, p.Close())
}
