package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/internal/query"
	"github.com/emporia/emporia/pkg/model"
)

const productNotFound = "product not found"

type productStore struct {
	coll *mongo.Collection
}

func newProductStore(db *mongo.Database, collectionName string) *productStore {
	if collectionName == "" {
		collectionName = "products"
	}
	return &productStore{coll: db.Collection(collectionName)}
}

// recomputeRatings derives ratings and numOfReviews from the stored reviews.
var recomputeRatings = bson.D{{Key: "$set", Value: bson.M{
	"numOfReviews": bson.M{"$size": bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}}},
	"ratings":      bson.M{"$ifNull": bson.A{bson.M{"$avg": "$reviews.rating"}, 0}},
}}}

func (s *productStore) Create(ctx context.Context, p *types.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Images == nil {
		p.Images = []types.Image{}
	}
	if p.Reviews == nil {
		p.Reviews = []types.Review{}
	}
	_, err := s.coll.InsertOne(ctx, p)
	return duplicateError(err, "product")
}

func (s *productStore) Get(ctx context.Context, id string) (*types.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var p types.Product
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		return nil, mapError(err, productNotFound)
	}
	return &p, nil
}

func (s *productStore) List(ctx context.Context, c query.Constraint) ([]*types.Product, error) {
	opts := options.Find().SetSkip(c.Skip)
	if c.Limit > 0 {
		opts.SetLimit(c.Limit)
	}
	return s.find(ctx, makeFilterBSON(c.Filters), opts)
}

func (s *productStore) All(ctx context.Context) ([]*types.Product, error) {
	return s.find(ctx, bson.M{})
}

func (s *productStore) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*types.Product, error) {
	cursor, err := s.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, mapError(err, productNotFound)
	}
	defer cursor.Close(ctx)

	products := []*types.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, mapError(err, productNotFound)
	}
	return products, nil
}

func (s *productStore) Count(ctx context.Context, filters model.Filters) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, makeFilterBSON(filters))
	return n, mapError(err, productNotFound)
}

func (s *productStore) EstimatedCount(ctx context.Context) (int64, error) {
	n, err := s.coll.EstimatedDocumentCount(ctx)
	return n, mapError(err, productNotFound)
}

func (s *productStore) Update(ctx context.Context, id string, upd types.ProductUpdate) (*types.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Price != nil {
		set["price"] = *upd.Price
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Stock != nil {
		set["stock"] = *upd.Stock
	}
	if upd.SetImages {
		images := upd.Images
		if images == nil {
			images = []types.Image{}
		}
		set["images"] = images
	}
	if len(set) == 0 {
		return s.Get(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p types.Product
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		return nil, mapError(err, productNotFound)
	}
	return &p, nil
}

func (s *productStore) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapError(err, productNotFound)
	}
	if res.DeletedCount == 0 {
		return model.Errorf(model.ErrNotFound, productNotFound)
	}
	return nil
}

func (s *productStore) AdjustStock(ctx context.Context, id types.ID, delta int) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"stock": delta}})
	if err != nil {
		return mapError(err, productNotFound)
	}
	if res.MatchedCount == 0 {
		return model.Errorf(model.ErrNotFound, productNotFound)
	}
	return nil
}

func (s *productStore) SetAllStock(ctx context.Context, stock int) (int64, error) {
	res, err := s.coll.UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{"stock": stock}})
	if err != nil {
		return 0, mapError(err, productNotFound)
	}
	return res.ModifiedCount, nil
}

func (s *productStore) UpsertReview(ctx context.Context, productID string, r types.Review) (*types.Product, error) {
	oid, err := parseID(productID)
	if err != nil {
		return nil, err
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}

	reviews := bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}}
	// Client text goes through $literal so a leading "$" is never read as a field path.
	replaced := bson.M{"$map": bson.M{
		"input": reviews,
		"as":    "rev",
		"in": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$$rev.user", r.User}},
			bson.M{"$mergeObjects": bson.A{"$$rev", bson.M{
				"rating":  bson.M{"$literal": r.Rating},
				"comment": bson.M{"$literal": r.Comment},
			}}},
			"$$rev",
		}},
	}}
	appended := bson.M{"$concatArrays": bson.A{reviews, bson.A{bson.M{"$literal": r}}}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"reviews": bson.M{"$cond": bson.A{
			bson.M{"$in": bson.A{r.User, bson.M{"$ifNull": bson.A{"$reviews.user", bson.A{}}}}},
			replaced,
			appended,
		}}}}},
		recomputeRatings,
	}
	return s.updateReviews(ctx, oid, pipeline)
}

func (s *productStore) DeleteReview(ctx context.Context, productID string, reviewID types.ID) (*types.Product, error) {
	oid, err := parseID(productID)
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"reviews": bson.M{"$filter": bson.M{
			"input": bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
			"as":    "rev",
			"cond":  bson.M{"$ne": bson.A{"$$rev._id", reviewID}},
		}}}}},
		recomputeRatings,
	}
	return s.updateReviews(ctx, oid, pipeline)
}

func (s *productStore) updateReviews(ctx context.Context, oid types.ID, pipeline mongo.Pipeline) (*types.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p types.Product
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, pipeline, opts).Decode(&p); err != nil {
		return nil, mapError(err, productNotFound)
	}
	return &p, nil
}

func (s *productStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "ratings", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	return err
}
