package authn

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emporia/emporia/internal/core/identity/config"
	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/pkg/model"
)

// CookieName is the session cookie set on login.
const CookieName = "token"

var (
	ErrInvalidCredentials = model.Errorf(model.ErrUnauthenticated, "Invalid email or password")
	ErrLoginRequired      = model.Errorf(model.ErrUnauthenticated, "Please login to access this page")
	ErrInvalidToken       = model.Errorf(model.ErrUnauthenticated, "Json Web Token is invalid or expired, try again")
)

type User = types.User

// Session is an issued login token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type Service interface {
	// Authenticate resolves a session token to its user. A token whose user
	// no longer exists is rejected.
	Authenticate(ctx context.Context, token string) (*User, error)
	// Login checks email and password and never says which one was wrong.
	Login(ctx context.Context, email, password string) (*User, error)
	CheckPassword(u *User, password string) (bool, error)
	HashPassword(password string) (hash, algo string, err error)
	ValidatePassword(password string) error
	IssueSession(u *User) (*Session, error)
	NewResetToken() (*ResetToken, error)
	IsAdminEmail(email string) bool

	TokenFromRequest(r *http.Request) string
	SessionCookie(s *Session) *http.Cookie
	ExpiredCookie() *http.Cookie
}

type AuthService struct {
	cfg               config.AuthNConfig
	users             types.UserStore
	tokens            *TokenService
	passwordValidator *PasswordValidator
	now               func() time.Time
}

func NewAuthService(cfg config.AuthNConfig, users types.UserStore) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &AuthService{
		cfg:               cfg,
		users:             users,
		tokens:            NewTokenService(cfg.JWTSecret, cfg.JWTExpire),
		passwordValidator: NewPasswordValidator(cfg.Password),
		now:               time.Now,
	}, nil
}

var _ Service = (*AuthService)(nil)

func (s *AuthService) Authenticate(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrLoginRequired
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrInvalidID) {
			return nil, ErrLoginRequired
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.CheckPassword(user, password)
	if err != nil {
		slog.Warn("Password verification failed", "user_id", user.ID.Hex(), "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if user.PasswordAlgo != AlgoArgon2id {
		s.upgradeHash(ctx, user, password)
	}
	return user, nil
}

// upgradeHash moves a legacy bcrypt account to argon2id after a good login.
func (s *AuthService) upgradeHash(ctx context.Context, user *User, password string) {
	hash, algo, err := HashPassword(password)
	if err == nil {
		err = s.users.SetPassword(ctx, user.ID, hash, algo)
	}
	if err != nil {
		slog.Warn("Failed to upgrade password hash", "user_id", user.ID.Hex(), "error", err)
		return
	}
	user.PasswordHash, user.PasswordAlgo = hash, algo
}

func (s *AuthService) CheckPassword(u *User, password string) (bool, error) {
	return VerifyPassword(password, u.PasswordHash, u.PasswordAlgo)
}

func (s *AuthService) HashPassword(password string) (string, string, error) {
	return HashPassword(password)
}

func (s *AuthService) ValidatePassword(password string) error {
	return s.passwordValidator.Validate(password)
}

func (s *AuthService) IssueSession(u *User) (*Session, error) {
	token, _, err := s.tokens.Issue(u.ID.Hex())
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: s.now().Add(s.cfg.CookieExpire)}, nil
}

func (s *AuthService) NewResetToken() (*ResetToken, error) {
	return NewResetToken(s.now(), s.cfg.ResetTokenTTL)
}

// IsAdminEmail reports whether accounts registered with email start as admin.
func (s *AuthService) IsAdminEmail(email string) bool {
	return s.cfg.AdminEmail != "" && strings.EqualFold(strings.TrimSpace(email), s.cfg.AdminEmail)
}

// TokenFromRequest reads the session cookie, falling back to a bearer header.
func (s *AuthService) TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func (s *AuthService) SessionCookie(sess *Session) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *AuthService) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  s.now(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
