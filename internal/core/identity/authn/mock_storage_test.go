package authn

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/emporia/emporia/internal/core/storage/types"
)

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
