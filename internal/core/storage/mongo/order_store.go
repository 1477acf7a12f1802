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

const orderNotFound = "order not found with this id"

type orderStore struct {
	coll *mongo.Collection
}

func newOrderStore(db *mongo.Database, collectionName string) *orderStore {
	if collectionName == "" {
		collectionName = "orders"
	}
	return &orderStore{coll: db.Collection(collectionName)}
}

func (s *orderStore) Create(ctx context.Context, o *types.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if o.OrderStatus == "" {
		o.OrderStatus = types.StatusProcessing
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if o.OrderItems == nil {
		o.OrderItems = []types.OrderItem{}
	}
	_, err := s.coll.InsertOne(ctx, o)
	return duplicateError(err, "order")
}

func (s *orderStore) Get(ctx context.Context, id string) (*types.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var o types.Order
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&o); err != nil {
		return nil, mapError(err, orderNotFound)
	}
	return &o, nil
}

func (s *orderStore) ListByUser(ctx context.Context, user types.ID) ([]*types.Order, error) {
	return s.find(ctx, bson.M{"user": user})
}

func (s *orderStore) List(ctx context.Context, c query.Constraint) ([]*types.Order, error) {
	opts := options.Find().SetSkip(c.Skip)
	if c.Limit > 0 {
		opts.SetLimit(c.Limit)
	}
	return s.find(ctx, makeFilterBSON(c.Filters), opts)
}

func (s *orderStore) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*types.Order, error) {
	cursor, err := s.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, mapError(err, orderNotFound)
	}
	defer cursor.Close(ctx)

	orders := []*types.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, mapError(err, orderNotFound)
	}
	return orders, nil
}

func (s *orderStore) EstimatedCount(ctx context.Context) (int64, error) {
	n, err := s.coll.EstimatedDocumentCount(ctx)
	return n, mapError(err, orderNotFound)
}

func (s *orderStore) TotalAmount(ctx context.Context) (float64, error) {
	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"totalAmount": bson.M{"$sum": "$totalPrice"},
		}}},
	})
	if err != nil {
		return 0, mapError(err, orderNotFound)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		TotalAmount float64 `bson:"totalAmount"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, mapError(err, orderNotFound)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].TotalAmount, nil
}

func (s *orderStore) TransitionStatus(ctx context.Context, id types.ID, from, to string, at time.Time) (*types.Order, error) {
	set := bson.M{"orderStatus": to}
	if to == types.StatusDelivered {
		set["deliveredAt"] = at
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var o types.Order
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id, "orderStatus": from}, bson.M{"$set": set}, opts).Decode(&o)
	if err == nil {
		return &o, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, mapError(err, orderNotFound)
	}

	n, cerr := s.coll.CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return nil, mapError(cerr, orderNotFound)
	}
	if n == 0 {
		return nil, model.Errorf(model.ErrNotFound, orderNotFound)
	}
	return nil, model.Errorf(model.ErrPreconditionFailed, "order status changed concurrently")
}

func (s *orderStore) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapError(err, orderNotFound)
	}
	if res.DeletedCount == 0 {
		return model.Errorf(model.ErrNotFound, orderNotFound)
	}
	return nil
}

func (s *orderStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}},
	})
	return err
}
