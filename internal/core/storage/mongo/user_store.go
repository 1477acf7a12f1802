package mongo

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/pkg/model"
)

const userNotFound = "user not found"

type userStore struct {
	coll *mongo.Collection
}

func newUserStore(db *mongo.Database, collectionName string) *userStore {
	if collectionName == "" {
		collectionName = "users"
	}
	return &userStore{coll: db.Collection(collectionName)}
}

func (s *userStore) Create(ctx context.Context, u *types.User) error {
	// Ensure email is lowercase
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Role == "" {
		u.Role = types.RoleUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.coll.InsertOne(ctx, u)
	return duplicateError(err, "email")
}

func (s *userStore) Get(ctx context.Context, id string) (*types.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *userStore) GetByResetToken(ctx context.Context, digest string, now time.Time) (*types.User, error) {
	if digest == "" {
		return nil, model.Errorf(model.ErrNotFound, userNotFound)
	}
	return s.findOne(ctx, bson.M{
		"resetPasswordToken":  digest,
		"resetPasswordExpire": bson.M{"$gt": now},
	})
}

func (s *userStore) findOne(ctx context.Context, filter bson.M) (*types.User, error) {
	var u types.User
	if err := s.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, mapError(err, userNotFound)
	}
	return &u, nil
}

func (s *userStore) List(ctx context.Context) ([]*types.User, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, mapError(err, userNotFound)
	}
	defer cursor.Close(ctx)

	users := []*types.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, mapError(err, userNotFound)
	}
	return users, nil
}

func (s *userStore) Update(ctx context.Context, id string, upd types.UserUpdate) (*types.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Email != nil {
		set["email"] = strings.ToLower(strings.TrimSpace(*upd.Email))
	}
	if upd.Role != nil {
		set["role"] = *upd.Role
	}
	if upd.Avatar != nil {
		set["avatar"] = *upd.Avatar
	}
	if len(set) == 0 {
		return s.findOne(ctx, bson.M{"_id": oid})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u types.User
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&u)
	if mongo.IsDuplicateKeyError(err) {
		return nil, duplicateError(err, "email")
	}
	if err != nil {
		return nil, mapError(err, userNotFound)
	}
	return &u, nil
}

func (s *userStore) SetPassword(ctx context.Context, id types.ID, hash, algo string) error {
	update := bson.M{
		"$set":   bson.M{"password": hash, "password_algo": algo},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpire": ""},
	}
	return s.updateOne(ctx, id, update)
}

func (s *userStore) SetResetToken(ctx context.Context, id types.ID, digest string, expire time.Time) error {
	update := bson.M{"$set": bson.M{"resetPasswordToken": digest, "resetPasswordExpire": expire}}
	if digest == "" {
		update = bson.M{"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpire": ""}}
	}
	return s.updateOne(ctx, id, update)
}

func (s *userStore) ConsumeResetToken(ctx context.Context, digest string, now time.Time, hash, algo string) (*types.User, error) {
	if digest == "" {
		return nil, model.Errorf(model.ErrNotFound, userNotFound)
	}
	filter := bson.M{
		"resetPasswordToken":  digest,
		"resetPasswordExpire": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"password": hash, "password_algo": algo},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpire": ""},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u types.User
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u); err != nil {
		return nil, mapError(err, userNotFound)
	}
	return &u, nil
}

func (s *userStore) updateOne(ctx context.Context, id types.ID, update bson.M) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return mapError(err, userNotFound)
	}
	if res.MatchedCount == 0 {
		return model.Errorf(model.ErrNotFound, userNotFound)
	}
	return nil
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapError(err, userNotFound)
	}
	if res.DeletedCount == 0 {
		return model.Errorf(model.ErrNotFound, userNotFound)
	}
	return nil
}

func (s *userStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "resetPasswordToken", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	return err
}
