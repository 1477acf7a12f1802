package mongo

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/emporia/emporia/pkg/model"
)

// makeFilterBSON compiles filters into a mongo filter document.
// Several operators on one field are merged into a single operator document.
func makeFilterBSON(filters model.Filters) bson.M {
	out := bson.M{}
	for _, f := range filters {
		if f.Field == "" || strings.HasPrefix(f.Field, "$") {
			continue
		}
		key, value, ok := mapOp(f)
		if !ok {
			continue
		}
		ops, _ := out[f.Field].(bson.M)
		if ops == nil {
			ops = bson.M{}
			out[f.Field] = ops
		}
		ops[key] = value
	}
	return out
}

func mapOp(f model.Filter) (string, interface{}, bool) {
	switch f.Op {
	case model.OpEq, "":
		return "$eq", f.Value, true
	case model.OpNe:
		return "$ne", f.Value, true
	case model.OpGt:
		return "$gt", f.Value, true
	case model.OpGte:
		return "$gte", f.Value, true
	case model.OpLt:
		return "$lt", f.Value, true
	case model.OpLte:
		return "$lte", f.Value, true
	case model.OpIn:
		return "$in", f.Value, true
	case model.OpMatches:
		pattern, ok := f.Value.(string)
		if !ok {
			return "", nil, false
		}
		return "$regex", primitive.Regex{Pattern: pattern, Options: "i"}, true
	}
	return "", nil, false
}

// parseID converts a client supplied id into an ObjectID.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, model.Errorf(model.ErrInvalidID, "resource not found. invalid: _id")
	}
	return oid, nil
}

// mapError translates driver errors into model errors. notFound is the
// message used when no document matched.
func mapError(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Errorf(model.ErrNotFound, "%s", notFound)
	}
	if model.IsCanceled(err) {
		return model.ErrCanceled
	}
	return err
}

// duplicateError reports a unique index violation on field.
func duplicateError(err error, field string) error {
	if mongo.IsDuplicateKeyError(err) {
		return model.Wrap(model.ErrExists, err, "duplicate "+field+" entered")
	}
	return mapError(err, "")
}
