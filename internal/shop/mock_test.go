package shop

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/internal/mailer"
	"github.com/emporia/emporia/internal/query"
	"github.com/emporia/emporia/pkg/model"
)

type MockProductStore struct {
	mock.Mock
}

func (m *MockProductStore) Create(ctx context.Context, p *types.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductStore) Get(ctx context.Context, id string) (*types.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Product), args.Error(1)
}

func (m *MockProductStore) List(ctx context.Context, c query.Constraint) ([]*types.Product, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Product), args.Error(1)
}

func (m *MockProductStore) Count(ctx context.Context, filters model.Filters) (int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductStore) EstimatedCount(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductStore) All(ctx context.Context) ([]*types.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Product), args.Error(1)
}

func (m *MockProductStore) Update(ctx context.Context, id string, upd types.ProductUpdate) (*types.Product, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Product), args.Error(1)
}

func (m *MockProductStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductStore) AdjustStock(ctx context.Context, id types.ID, delta int) error {
	return m.Called(ctx, id, delta).Error(0)
}

func (m *MockProductStore) SetAllStock(ctx context.Context, stock int) (int64, error) {
	args := m.Called(ctx, stock)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductStore) UpsertReview(ctx context.Context, productID string, r types.Review) (*types.Product, error) {
	args := m.Called(ctx, productID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Product), args.Error(1)
}

func (m *MockProductStore) DeleteReview(ctx context.Context, productID string, reviewID types.ID) (*types.Product, error) {
	args := m.Called(ctx, productID, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Product), args.Error(1)
}

func (m *MockProductStore) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, u *types.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserStore) Get(ctx context.Context, id string) (*types.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserStore) GetByResetToken(ctx context.Context, digest string, now time.Time) (*types.User, error) {
	args := m.Called(ctx, digest, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserStore) List(ctx context.Context) ([]*types.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.User), args.Error(1)
}

func (m *MockUserStore) Update(ctx context.Context, id string, upd types.UserUpdate) (*types.User, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserStore) SetPassword(ctx context.Context, id types.ID, hash, algo string) error {
	return m.Called(ctx, id, hash, algo).Error(0)
}

func (m *MockUserStore) SetResetToken(ctx context.Context, id types.ID, digest string, expire time.Time) error {
	return m.Called(ctx, id, digest, expire).Error(0)
}

func (m *MockUserStore) ConsumeResetToken(ctx context.Context, digest string, now time.Time, hash, algo string) (*types.User, error) {
	args := m.Called(ctx, digest, now, hash, algo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserStore) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) Create(ctx context.Context, o *types.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderStore) Get(ctx context.Context, id string) (*types.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Order), args.Error(1)
}

func (m *MockOrderStore) ListByUser(ctx context.Context, user types.ID) ([]*types.Order, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Order), args.Error(1)
}

func (m *MockOrderStore) List(ctx context.Context, c query.Constraint) ([]*types.Order, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Order), args.Error(1)
}

func (m *MockOrderStore) EstimatedCount(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderStore) TotalAmount(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockOrderStore) TransitionStatus(ctx context.Context, id types.ID, from, to string, at time.Time) (*types.Order, error) {
	args := m.Called(ctx, id, from, to, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Order), args.Error(1)
}

func (m *MockOrderStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOrderStore) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockImageHost struct {
	mock.Mock
}

func (m *MockImageHost) Upload(ctx context.Context, folder, data string) (types.Image, error) {
	args := m.Called(ctx, folder, data)
	return args.Get(0).(types.Image), args.Error(1)
}

func (m *MockImageHost) UploadAll(ctx context.Context, folder string, data []string) ([]types.Image, error) {
	args := m.Called(ctx, folder, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Image), args.Error(1)
}

func (m *MockImageHost) Destroy(ctx context.Context, publicID string) error {
	return m.Called(ctx, publicID).Error(0)
}

func (m *MockImageHost) DestroyAll(ctx context.Context, publicIDs []string) error {
	return m.Called(ctx, publicIDs).Error(0)
}

// fakeSender records sent mail and fails when err is set.
type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// recordingPublisher records published subjects.
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
}

func (r *recordingPublisher) Publish(_ context.Context, subject string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, data)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }
