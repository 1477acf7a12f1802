package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/emporia/emporia/internal/core/identity/authn"
	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/internal/query"
	"github.com/emporia/emporia/internal/shop"
)

// MockAuthService resolves tokens through Authenticate and builds real cookies.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*authn.User, error) {
	args := m.Called(ctx, token)
	if u := args.Get(0); u != nil {
		return u.(*authn.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*authn.User, error) {
	args := m.Called(ctx, email, password)
	if u := args.Get(0); u != nil {
		return u.(*authn.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) CheckPassword(u *authn.User, password string) (bool, error) {
	args := m.Called(u, password)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthService) HashPassword(password string) (string, string, error) {
	args := m.Called(password)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockAuthService) ValidatePassword(password string) error {
	return m.Called(password).Error(0)
}

func (m *MockAuthService) IssueSession(u *authn.User) (*authn.Session, error) {
	args := m.Called(u)
	if s := args.Get(0); s != nil {
		return s.(*authn.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) NewResetToken() (*authn.ResetToken, error) {
	args := m.Called()
	if t := args.Get(0); t != nil {
		return t.(*authn.ResetToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) IsAdminEmail(email string) bool {
	return m.Called(email).Bool(0)
}

func (m *MockAuthService) TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(authn.CookieName); err == nil {
		return c.Value
	}
	return ""
}

func (m *MockAuthService) SessionCookie(s *authn.Session) *http.Cookie {
	return &http.Cookie{Name: authn.CookieName, Value: s.Token, Path: "/", Expires: s.ExpiresAt, HttpOnly: true}
}

func (m *MockAuthService) ExpiredCookie() *http.Cookie {
	return &http.Cookie{Name: authn.CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true}
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) List(ctx context.Context, req query.Request) (*shop.ProductListing, error) {
	args := m.Called(ctx, req)
	if l := args.Get(0); l != nil {
		return l.(*shop.ProductListing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalog) Get(ctx context.Context, id string) (*types.Product, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*types.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalog) All(ctx context.Context) ([]*types.Product, error) {
	args := m.Called(ctx)
	if p := args.Get(0); p != nil {
		return p.([]*types.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalog) Create(ctx context.Context, owner *types.User, in shop.ProductInput) (*types.Product, error) {
	args := m.Called(ctx, owner, in)
	if p := args.Get(0); p != nil {
		return p.(*types.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalog) Update(ctx context.Context, id string, patch shop.ProductPatch) (*types.Product, error) {
	args := m.Called(ctx, id, patch)
	if p := args.Get(0); p != nil {
		return p.(*types.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalog) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockReviews struct {
	mock.Mock
}

func (m *MockReviews) Upsert(ctx context.Context, author *types.User, in shop.ReviewInput) (*types.Product, error) {
	args := m.Called(ctx, author, in)
	if p := args.Get(0); p != nil {
		return p.(*types.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReviews) List(ctx context.Context, productID string) ([]types.Review, error) {
	args := m.Called(ctx, productID)
	if r := args.Get(0); r != nil {
		return r.([]types.Review), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReviews) Delete(ctx context.Context, caller *types.User, productID, reviewID string) (*types.Product, error) {
	args := m.Called(ctx, caller, productID, reviewID)
	if p := args.Get(0); p != nil {
		return p.(*types.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockOrders struct {
	mock.Mock
}

func (m *MockOrders) Create(ctx context.Context, buyer *types.User, in shop.OrderInput) (*types.Order, error) {
	args := m.Called(ctx, buyer, in)
	if o := args.Get(0); o != nil {
		return o.(*types.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrders) Get(ctx context.Context, caller *types.User, id string) (*shop.OrderDetail, error) {
	args := m.Called(ctx, caller, id)
	if o := args.Get(0); o != nil {
		return o.(*shop.OrderDetail), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrders) Mine(ctx context.Context, buyer *types.User) ([]*types.Order, error) {
	args := m.Called(ctx, buyer)
	if o := args.Get(0); o != nil {
		return o.([]*types.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrders) List(ctx context.Context, req query.Request) (*shop.OrderListing, error) {
	args := m.Called(ctx, req)
	if l := args.Get(0); l != nil {
		return l.(*shop.OrderListing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrders) UpdateStatus(ctx context.Context, id, status string) (*types.Order, error) {
	args := m.Called(ctx, id, status)
	if o := args.Get(0); o != nil {
		return o.(*types.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrders) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) userSession(args mock.Arguments) (*types.User, *authn.Session, error) {
	var u *types.User
	var s *authn.Session
	if v := args.Get(0); v != nil {
		u = v.(*types.User)
	}
	if v := args.Get(1); v != nil {
		s = v.(*authn.Session)
	}
	return u, s, args.Error(2)
}

func (m *MockAccounts) Register(ctx context.Context, in shop.RegisterInput) (*types.User, *authn.Session, error) {
	return m.userSession(m.Called(ctx, in))
}

func (m *MockAccounts) Login(ctx context.Context, in shop.LoginInput) (*types.User, *authn.Session, error) {
	return m.userSession(m.Called(ctx, in))
}

func (m *MockAccounts) ForgotPassword(ctx context.Context, email string) (*types.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*types.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) ResetPassword(ctx context.Context, token string, in shop.ResetInput) (*types.User, *authn.Session, error) {
	return m.userSession(m.Called(ctx, token, in))
}

func (m *MockAccounts) UpdatePassword(ctx context.Context, u *types.User, in shop.PasswordInput) (*authn.Session, error) {
	args := m.Called(ctx, u, in)
	if s := args.Get(0); s != nil {
		return s.(*authn.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) Me(ctx context.Context, u *types.User) (*types.User, error) {
	args := m.Called(ctx, u)
	if v := args.Get(0); v != nil {
		return v.(*types.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) UpdateProfile(ctx context.Context, u *types.User, in shop.ProfileInput) (*types.User, error) {
	args := m.Called(ctx, u, in)
	if v := args.Get(0); v != nil {
		return v.(*types.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) List(ctx context.Context) ([]*types.User, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*types.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) Get(ctx context.Context, id string) (*types.User, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*types.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) UpdateRole(ctx context.Context, id string, in shop.RoleInput) (*types.User, error) {
	args := m.Called(ctx, id, in)
	if v := args.Get(0); v != nil {
		return v.(*types.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func newUser(role string) *types.User {
	return &types.User{ID: primitive.NewObjectID(), Name: "Jane", Email: "jane@example.com", Role: role}
}

func newSession() *authn.Session {
	return &authn.Session{Token: "signed-token", ExpiresAt: time.Now().Add(time.Hour)}
}
