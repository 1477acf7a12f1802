package shop

import (
	"context"
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/emporia/emporia/internal/core/identity/authz"
	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/pkg/model"
)

var (
	ErrRatingRange    = model.Errorf(model.ErrValidation, "Rating must be between 0 and 5")
	ErrReviewNotFound = model.Errorf(model.ErrNotFound, "Review not found")
)

// ReviewInput is the body of a review upsert.
type ReviewInput struct {
	ProductID string  `json:"productId" schema:"productId" validate:"required"`
	Rating    float64 `json:"rating" schema:"rating"`
	Comment   string  `json:"comment" schema:"comment" validate:"max=2000"`
}

type Reviews struct {
	products types.ProductStore
	policy   authz.Engine
}

func NewReviews(products types.ProductStore, policy authz.Engine) *Reviews {
	return &Reviews{products: products, policy: policy}
}

// Upsert writes the caller's review of a product, replacing their earlier one.
// Ratings are recomputed from the full review set by the store.
func (s *Reviews) Upsert(ctx context.Context, author *types.User, in ReviewInput) (*types.Product, error) {
	if math.IsNaN(in.Rating) || in.Rating < 0 || in.Rating > 5 {
		return nil, ErrRatingRange
	}
	return s.products.UpsertReview(ctx, in.ProductID, types.Review{
		User:    author.ID,
		Name:    author.Name,
		Rating:  in.Rating,
		Comment: strings.TrimSpace(in.Comment),
	})
}

func (s *Reviews) List(ctx context.Context, productID string) ([]types.Review, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	return nonNil(p.Reviews), nil
}

// Delete removes a review if caller wrote it or holds a role the
// review.delete policy accepts.
func (s *Reviews) Delete(ctx context.Context, caller *types.User, productID, reviewID string) (*types.Product, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	rid, err := primitive.ObjectIDFromHex(reviewID)
	if err != nil {
		return nil, ErrReviewNotFound
	}
	review := p.FindReview(rid)
	if review == nil {
		return nil, ErrReviewNotFound
	}

	res := &authz.Resource{ID: reviewID, Owner: review.User.Hex()}
	if err := s.policy.Authorize(ctx, authz.ActionReviewDelete, AuthRequest(caller), res,
		"Not authorized to delete this review"); err != nil {
		return nil, err
	}
	return s.products.DeleteReview(ctx, productID, rid)
}
