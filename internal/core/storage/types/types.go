package types

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/emporia/emporia/internal/query"
	"github.com/emporia/emporia/pkg/model"
)

// ID is the document identifier used by every collection.
type ID = primitive.ObjectID

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Order statuses
const (
	StatusProcessing = "Processing"
	StatusShipped    = "Shipped"
	StatusDelivered  = "Delivered"
)

// Image is a file stored on the image host.
type Image struct {
	PublicID string `json:"public_id" bson:"public_id"`
	URL      string `json:"url" bson:"url"`
}

// Review is embedded in its product.
type Review struct {
	ID      ID      `json:"_id" bson:"_id"`
	User    ID      `json:"user" bson:"user"`
	Name    string  `json:"name" bson:"name"`
	Rating  float64 `json:"rating" bson:"rating"`
	Comment string  `json:"comment" bson:"comment"`
}

type Product struct {
	ID           ID        `json:"_id" bson:"_id,omitempty"`
	Name         string    `json:"name" bson:"name"`
	Description  string    `json:"description" bson:"description"`
	Price        float64   `json:"price" bson:"price"`
	Ratings      float64   `json:"ratings" bson:"ratings"`
	Images       []Image   `json:"images" bson:"images"`
	Category     string    `json:"category" bson:"category"`
	Stock        int       `json:"stock" bson:"stock"`
	NumOfReviews int       `json:"numOfReviews" bson:"numOfReviews"`
	Reviews      []Review  `json:"reviews" bson:"reviews"`
	User         ID        `json:"user" bson:"user"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// FindReview returns the review with the given id, or nil.
func (p *Product) FindReview(id ID) *Review {
	for i := range p.Reviews {
		if p.Reviews[i].ID == id {
			return &p.Reviews[i]
		}
	}
	return nil
}

// ProductUpdate holds the fields an admin may change. Nil means unchanged.
// Images replaces the image list only when SetImages is true.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Stock       *int
	Images      []Image
	SetImages   bool
}

type User struct {
	ID           ID        `json:"_id" bson:"_id,omitempty"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password"`
	PasswordAlgo string    `json:"-" bson:"password_algo"` // "argon2id" or "bcrypt"
	Avatar       Image     `json:"avatar" bson:"avatar"`
	Role         string    `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`

	ResetPasswordToken  string    `json:"-" bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpire time.Time `json:"-" bson:"resetPasswordExpire,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserUpdate holds profile or role changes. Nil means unchanged.
type UserUpdate struct {
	Name   *string
	Email  *string
	Role   *string
	Avatar *Image
}

type ShippingInfo struct {
	Address string `json:"address" bson:"address"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	Country string `json:"country" bson:"country"`
	PinCode string `json:"pinCode" bson:"pinCode"`
	PhoneNo string `json:"phoneNo" bson:"phoneNo"`
}

type OrderItem struct {
	Name     string  `json:"name" bson:"name"`
	Price    float64 `json:"price" bson:"price"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Image    string  `json:"image" bson:"image"`
	Product  ID      `json:"product" bson:"product"`
}

type PaymentInfo struct {
	ID     string `json:"id" bson:"id"`
	Status string `json:"status" bson:"status"`
}

type Order struct {
	ID            ID           `json:"_id" bson:"_id,omitempty"`
	ShippingInfo  ShippingInfo `json:"shippingInfo" bson:"shippingInfo"`
	OrderItems    []OrderItem  `json:"orderItems" bson:"orderItems"`
	PaymentInfo   PaymentInfo  `json:"paymentInfo" bson:"paymentInfo"`
	PaidAt        time.Time    `json:"paidAt" bson:"paidAt"`
	ItemsPrice    float64      `json:"itemsPrice" bson:"itemsPrice"`
	TaxPrice      float64      `json:"taxPrice" bson:"taxPrice"`
	ShippingPrice float64      `json:"shippingPrice" bson:"shippingPrice"`
	TotalPrice    float64      `json:"totalPrice" bson:"totalPrice"`
	OrderStatus   string       `json:"orderStatus" bson:"orderStatus"`
	DeliveredAt   *time.Time   `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	User          ID           `json:"user" bson:"user"`
	CreatedAt     time.Time    `json:"createdAt" bson:"createdAt"`
}

// ProductStore defines the catalog storage operations.
type ProductStore interface {
	Create(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	// List returns the products matching c in natural order.
	List(ctx context.Context, c query.Constraint) ([]*Product, error)
	Count(ctx context.Context, filters model.Filters) (int64, error)
	EstimatedCount(ctx context.Context) (int64, error)
	All(ctx context.Context) ([]*Product, error)
	Update(ctx context.Context, id string, upd ProductUpdate) (*Product, error)
	Delete(ctx context.Context, id string) error

	// AdjustStock atomically adds delta to the product's stock.
	AdjustStock(ctx context.Context, id ID, delta int) error
	// SetAllStock overwrites the stock of every product and returns the number changed.
	SetAllStock(ctx context.Context, stock int) (int64, error)

	// UpsertReview replaces the review written by r.User or appends r, then
	// recomputes ratings and numOfReviews from the full review set.
	UpsertReview(ctx context.Context, productID string, r Review) (*Product, error)
	// DeleteReview removes a review and recomputes ratings and numOfReviews.
	DeleteReview(ctx context.Context, productID string, reviewID ID) (*Product, error)

	EnsureIndexes(ctx context.Context) error
}

// UserStore defines the account storage operations.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByResetToken finds the user holding digest whose expiry is after now.
	GetByResetToken(ctx context.Context, digest string, now time.Time) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*User, error)
	// SetPassword replaces the password and clears any reset token.
	SetPassword(ctx context.Context, id ID, hash, algo string) error
	// SetResetToken stores digest and expire. An empty digest clears both.
	SetResetToken(ctx context.Context, id ID, digest string, expire time.Time) error
	// ConsumeResetToken sets the password of the user holding an unexpired
	// digest and clears the token in one write. ErrNotFound when no such
	// user remains, including when another call consumed it first.
	ConsumeResetToken(ctx context.Context, digest string, now time.Time, hash, algo string) (*User, error)
	Delete(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

// OrderStore defines the order storage operations.
type OrderStore interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, user ID) ([]*Order, error)
	List(ctx context.Context, c query.Constraint) ([]*Order, error)
	EstimatedCount(ctx context.Context) (int64, error)
	// TotalAmount sums totalPrice over every order.
	TotalAmount(ctx context.Context) (float64, error)
	// TransitionStatus sets the status only if it is still from. It returns
	// model.ErrPreconditionFailed when the order exists with another status.
	TransitionStatus(ctx context.Context, id ID, from, to string, at time.Time) (*Order, error)
	Delete(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

// Provider bundles the stores of one database connection.
type Provider interface {
	Products() ProductStore
	Users() UserStore
	Orders() OrderStore
	Close(ctx context.Context) error
}
