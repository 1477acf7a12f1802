package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/emporia/emporia/internal/core/identity/authn"
	"github.com/emporia/emporia/internal/core/identity/authz"
	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/internal/query"
	"github.com/emporia/emporia/internal/server"
	"github.com/emporia/emporia/internal/server/ratelimit"
	"github.com/emporia/emporia/internal/shop"
	"github.com/emporia/emporia/pkg/model"
)

// Service contracts the handlers depend on. The shop package provides the
// production implementations.
type (
	CatalogService interface {
		List(ctx context.Context, req query.Request) (*shop.ProductListing, error)
		Get(ctx context.Context, id string) (*types.Product, error)
		All(ctx context.Context) ([]*types.Product, error)
		Create(ctx context.Context, owner *types.User, in shop.ProductInput) (*types.Product, error)
		Update(ctx context.Context, id string, patch shop.ProductPatch) (*types.Product, error)
		Delete(ctx context.Context, id string) error
	}

	ReviewService interface {
		Upsert(ctx context.Context, author *types.User, in shop.ReviewInput) (*types.Product, error)
		List(ctx context.Context, productID string) ([]types.Review, error)
		Delete(ctx context.Context, caller *types.User, productID, reviewID string) (*types.Product, error)
	}

	OrderService interface {
		Create(ctx context.Context, buyer *types.User, in shop.OrderInput) (*types.Order, error)
		Get(ctx context.Context, caller *types.User, id string) (*shop.OrderDetail, error)
		Mine(ctx context.Context, buyer *types.User) ([]*types.Order, error)
		List(ctx context.Context, req query.Request) (*shop.OrderListing, error)
		UpdateStatus(ctx context.Context, id, status string) (*types.Order, error)
		Delete(ctx context.Context, id string) error
	}

	AccountService interface {
		Register(ctx context.Context, in shop.RegisterInput) (*types.User, *authn.Session, error)
		Login(ctx context.Context, in shop.LoginInput) (*types.User, *authn.Session, error)
		ForgotPassword(ctx context.Context, email string) (*types.User, error)
		ResetPassword(ctx context.Context, token string, in shop.ResetInput) (*types.User, *authn.Session, error)
		UpdatePassword(ctx context.Context, u *types.User, in shop.PasswordInput) (*authn.Session, error)
		Me(ctx context.Context, u *types.User) (*types.User, error)
		UpdateProfile(ctx context.Context, u *types.User, in shop.ProfileInput) (*types.User, error)
		List(ctx context.Context) ([]*types.User, error)
		Get(ctx context.Context, id string) (*types.User, error)
		UpdateRole(ctx context.Context, id string, in shop.RoleInput) (*types.User, error)
		Delete(ctx context.Context, id string) error
	}
)

var (
	_ CatalogService = (*shop.Catalog)(nil)
	_ ReviewService  = (*shop.Reviews)(nil)
	_ OrderService   = (*shop.Orders)(nil)
	_ AccountService = (*shop.Accounts)(nil)
)

// Services groups the storefront services served over HTTP.
type Services struct {
	Catalog  CatalogService
	Reviews  ReviewService
	Orders   OrderService
	Accounts AccountService
}

type Handler struct {
	auth        authn.Service
	policy      authz.Engine
	catalog     CatalogService
	reviews     ReviewService
	orders      OrderService
	accounts    AccountService
	authLimiter ratelimit.Limiter
}

// HandlerOption configures optional Handler behaviour.
type HandlerOption func(*Handler)

// WithAuthRateLimiter applies a stricter limiter to the credential endpoints.
func WithAuthRateLimiter(l ratelimit.Limiter) HandlerOption {
	return func(h *Handler) {
		h.authLimiter = l
	}
}

func NewHandler(auth authn.Service, policy authz.Engine, svc Services, opts ...HandlerOption) *Handler {
	if auth == nil {
		panic("AuthN service cannot be nil")
	}
	if policy == nil {
		panic("AuthZ engine cannot be nil")
	}
	if svc.Catalog == nil || svc.Reviews == nil || svc.Orders == nil || svc.Accounts == nil {
		panic("all shop services are required")
	}

	h := &Handler{
		auth:     auth,
		policy:   policy,
		catalog:  svc.Catalog,
		reviews:  svc.Reviews,
		orders:   svc.Orders,
		accounts: svc.Accounts,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Default body size limits
const (
	DefaultMaxBodySize = 1 << 20  // 1MB
	LargeMaxBodySize   = 25 << 20 // 25MB for image uploads
)

// Default request timeout
const (
	DefaultRequestTimeout = 30 * time.Second
	LongRequestTimeout    = 60 * time.Second // For image uploads and mail delivery
)

// StatusClientClosedRequest is written when the client went away mid-request.
const StatusClientClosedRequest = 499

// APIError is the body of every failed request.
type APIError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// envelope is the body of every successful request.
type envelope map[string]interface{}

func ok(fields envelope) envelope {
	out := envelope{"success": true}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// writeError writes a structured JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIError{Success: false, Message: message})
}

// writeErr is the single error responder: it maps the error kind to a status
// and writes {success:false, message}.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == StatusClientClosedRequest {
		w.WriteHeader(status)
		return
	}
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", server.GetRequestID(r.Context()),
		)
	}
	writeError(w, status, errorMessage(err, status))
}

func errorStatus(err error) int {
	switch {
	case model.IsCanceled(err):
		return StatusClientClosedRequest
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrInvalidID),
		errors.Is(err, model.ErrExists):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrPreconditionFailed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error, status int) string {
	var me *model.Error
	if errors.As(err, &me) {
		return me.Message
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve.Error()
	}
	if status == http.StatusInternalServerError {
		return "Internal Server Error"
	}
	return http.StatusText(status)
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

// maxBodySize wraps a handler with request body size limiting
func maxBodySize(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// withTimeout wraps a handler with a context timeout
// If the handler takes longer than the timeout, the context is cancelled
func withTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

// limited applies the credential rate limiter when one is configured.
func (h *Handler) limited(next http.HandlerFunc) http.HandlerFunc {
	if h.authLimiter == nil {
		return next
	}
	return ratelimit.Middleware(h.authLimiter)(next).ServeHTTP
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	const v1 = "/api/v1"

	// Catalog
	mux.HandleFunc("GET "+v1+"/products", withTimeout(h.handleListProducts, DefaultRequestTimeout))
	mux.HandleFunc("GET "+v1+"/product/{id}", withTimeout(h.handleGetProduct, DefaultRequestTimeout))
	mux.HandleFunc("GET "+v1+"/admin/products", withTimeout(h.adminOnly(h.handleAdminProducts), DefaultRequestTimeout))
	mux.HandleFunc("POST "+v1+"/admin/product/new", withTimeout(maxBodySize(h.adminOnly(h.handleCreateProduct), LargeMaxBodySize), LongRequestTimeout))
	mux.HandleFunc("PUT "+v1+"/admin/product/{id}", withTimeout(maxBodySize(h.adminOnly(h.handleUpdateProduct), LargeMaxBodySize), LongRequestTimeout))
	mux.HandleFunc("DELETE "+v1+"/admin/product/{id}", withTimeout(h.adminOnly(h.handleDeleteProduct), LongRequestTimeout))

	// Reviews
	mux.HandleFunc("PUT "+v1+"/review", withTimeout(maxBodySize(h.protected(h.handleUpsertReview), DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("GET "+v1+"/reviews", withTimeout(h.handleListReviews, DefaultRequestTimeout))
	mux.HandleFunc("DELETE "+v1+"/reviews", withTimeout(h.protected(h.handleDeleteReview), DefaultRequestTimeout))

	// Accounts
	mux.HandleFunc("POST "+v1+"/register", withTimeout(maxBodySize(h.limited(h.handleRegister), LargeMaxBodySize), LongRequestTimeout))
	mux.HandleFunc("POST "+v1+"/login", withTimeout(maxBodySize(h.limited(h.handleLogin), DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("GET "+v1+"/logout", withTimeout(h.handleLogout, DefaultRequestTimeout))
	mux.HandleFunc("POST "+v1+"/password/forgot", withTimeout(maxBodySize(h.limited(h.handleForgotPassword), DefaultMaxBodySize), LongRequestTimeout))
	mux.HandleFunc("PUT "+v1+"/password/reset/{token}", withTimeout(maxBodySize(h.limited(h.handleResetPassword), DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("PUT "+v1+"/password/update", withTimeout(maxBodySize(h.protected(h.handleUpdatePassword), DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("GET "+v1+"/me", withTimeout(h.protected(h.handleMe), DefaultRequestTimeout))
	mux.HandleFunc("PUT "+v1+"/me/update", withTimeout(maxBodySize(h.protected(h.handleUpdateProfile), LargeMaxBodySize), LongRequestTimeout))
	mux.HandleFunc("GET "+v1+"/admin/users", withTimeout(h.adminOnly(h.handleAdminListUsers), DefaultRequestTimeout))
	mux.HandleFunc("GET "+v1+"/admin/user/{id}", withTimeout(h.adminOnly(h.handleAdminGetUser), DefaultRequestTimeout))
	mux.HandleFunc("PUT "+v1+"/admin/user/{id}", withTimeout(maxBodySize(h.adminOnly(h.handleAdminUpdateUser), DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("DELETE "+v1+"/admin/user/{id}", withTimeout(h.adminOnly(h.handleAdminDeleteUser), LongRequestTimeout))

	// Orders
	mux.HandleFunc("POST "+v1+"/order/new", withTimeout(maxBodySize(h.protected(h.handleCreateOrder), DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("GET "+v1+"/order/{id}", withTimeout(h.protected(h.handleGetOrder), DefaultRequestTimeout))
	mux.HandleFunc("GET "+v1+"/orders/me", withTimeout(h.protected(h.handleMyOrders), DefaultRequestTimeout))
	mux.HandleFunc("GET "+v1+"/admin/orders", withTimeout(h.adminOnly(h.handleAdminListOrders), DefaultRequestTimeout))
	mux.HandleFunc("PUT "+v1+"/admin/order/{id}", withTimeout(maxBodySize(h.adminOnly(h.handleUpdateOrder), DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("DELETE "+v1+"/admin/order/{id}", withTimeout(h.adminOnly(h.handleDeleteOrder), DefaultRequestTimeout))

	// Health Check (no auth, minimal timeout)
	mux.HandleFunc("GET /health", withTimeout(h.handleHealth, 5*time.Second))
}

// protected resolves the session token to a user and stores it in the
// request context. Requests without a valid session get 401.
func (h *Handler) protected(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := h.auth.Authenticate(r.Context(), h.auth.TokenFromRequest(r))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		handler(w, r.WithContext(authn.WithUser(r.Context(), user)))
	}
}

func (h *Handler) adminOnly(handler http.HandlerFunc) http.HandlerFunc {
	return h.protected(func(w http.ResponseWriter, r *http.Request) {
		user := authn.UserFromContext(r.Context())
		msg := fmt.Sprintf("Role: %s is not allowed to access this resource", user.Role)
		if err := h.policy.Authorize(r.Context(), authz.ActionAdmin, shop.AuthRequest(user), nil, msg); err != nil {
			if !errors.Is(err, model.ErrPermissionDenied) {
				slog.Warn("Authorization rule evaluation error",
					"action", authz.ActionAdmin,
					"error", err,
					"request_id", server.GetRequestID(r.Context()),
				)
				writeError(w, http.StatusForbidden, "Authorization check failed")
				return
			}
			writeErr(w, r, err)
			return
		}
		handler(w, r)
	})
}

// currentUser returns the user stored by protected.
func currentUser(r *http.Request) *types.User {
	return authn.UserFromContext(r.Context())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
