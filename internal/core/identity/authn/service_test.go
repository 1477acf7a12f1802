package authn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/emporia/emporia/internal/core/identity/config"
	"github.com/emporia/emporia/pkg/model"
)

func newTestService(t *testing.T) (*AuthService, *MockUserStore) {
	t.Helper()
	cfg := config.DefaultConfig().AuthN
	cfg.JWTSecret = "unit-test-secret-0123456789"
	cfg.AdminEmail = "boss@example.com"
	store := new(MockUserStore)
	svc, err := NewAuthService(cfg, store)
	require.NoError(t, err)
	return svc, store
}

func newUser(t *testing.T, password string) *User {
	t.Helper()
	hash, algo, err := HashPassword(password)
	require.NoError(t, err)
	return &User{ID: primitive.NewObjectID(), Name: "Alice", Email: "alice@example.com", PasswordHash: hash, PasswordAlgo: algo, Role: "user"}
}

func TestNewAuthService_RequiresSecret(t *testing.T) {
	_, err := NewAuthService(config.AuthNConfig{}, new(MockUserStore))
	assert.Error(t, err)
}

func TestAuthService_Login(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	user := newUser(t, "password123")

	store.On("GetByEmail", ctx, "alice@example.com").Return(user, nil)
	store.On("GetByEmail", ctx, "ghost@example.com").Return(nil, model.Errorf(model.ErrNotFound, "user not found"))

	got, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.Equal(t, "Invalid email or password", model.Message(err))

	_, err = svc.Login(ctx, "ghost@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	store.AssertExpectations(t)
}

func TestAuthService_Login_UpgradesBcrypt(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	raw, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &User{ID: primitive.NewObjectID(), Email: "old@example.com", PasswordHash: string(raw)}

	store.On("GetByEmail", ctx, "old@example.com").Return(user, nil)
	store.On("SetPassword", ctx, user.ID, mock.AnythingOfType("string"), AlgoArgon2id).Return(nil)

	got, err := svc.Login(ctx, "old@example.com", "legacy-pass")
	require.NoError(t, err)
	assert.Equal(t, AlgoArgon2id, got.PasswordAlgo)
	store.AssertExpectations(t)
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	user := newUser(t, "password123")

	sess, err := svc.IssueSession(user)
	require.NoError(t, err)

	store.On("Get", ctx, user.ID.Hex()).Return(user, nil).Once()
	got, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// deleted user
	store.On("Get", ctx, user.ID.Hex()).Return(nil, model.Errorf(model.ErrNotFound, "user not found")).Once()
	_, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrLoginRequired)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	store.AssertExpectations(t)
}

func TestAuthService_Cookies(t *testing.T) {
	svc, _ := newTestService(t)
	svc.cfg.CookieSecure = true
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	c := svc.SessionCookie(&Session{Token: "abc", ExpiresAt: fixed.Add(time.Hour)})
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "abc", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, fixed.Add(time.Hour), c.Expires)

	expired := svc.ExpiredCookie()
	assert.Equal(t, "", expired.Value)
	assert.Equal(t, fixed, expired.Expires)
	assert.True(t, expired.HttpOnly)
}

func TestAuthService_TokenFromRequest(t *testing.T) {
	svc, _ := newTestService(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", svc.TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", svc.TokenFromRequest(r))

	r.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-token"})
	assert.Equal(t, "cookie-token", svc.TokenFromRequest(r))
}

func TestAuthService_Helpers(t *testing.T) {
	svc, _ := newTestService(t)

	assert.True(t, svc.IsAdminEmail(" Boss@Example.com "))
	assert.False(t, svc.IsAdminEmail("alice@example.com"))

	assert.Error(t, svc.ValidatePassword("short"))
	assert.NoError(t, svc.ValidatePassword("long enough"))

	rt, err := svc.NewResetToken()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), rt.ExpiresAt, 5*time.Second)

	u := newUser(t, "pw-12345678")
	ok, err := svc.CheckPassword(u, "pw-12345678")
	require.NoError(t, err)
	assert.True(t, ok)

	hash, algo, err := svc.HashPassword("x")
	require.NoError(t, err)
	assert.Equal(t, AlgoArgon2id, algo)
	assert.NotEmpty(t, hash)
}

func TestContext(t *testing.T) {
	assert.Nil(t, UserFromContext(context.Background()))
	u := &User{Name: "x"}
	assert.Same(t, u, UserFromContext(WithUser(context.Background(), u)))
}
