package query

import (
	"math"
	"regexp"
	"strings"

	"github.com/emporia/emporia/pkg/model"
)

// Constraint is the storage-neutral result of a Builder.
type Constraint struct {
	Filters model.Filters
	Skip    int64
	Limit   int64
}

// Page is one window of a listing.
type Page[T any] struct {
	Items    []T
	Total    int64
	PageSize int
}

// Builder accumulates a Constraint from a Request. Every step returns
// the builder so calls chain in any order.
type Builder struct {
	res Resource
	req Request
	c   Constraint
}

func NewBuilder(res Resource, req Request) *Builder {
	return &Builder{res: res, req: req}
}

// Build runs keyword search, field filters and pagination with the resource page size.
func Build(res Resource, req Request) Constraint {
	return NewBuilder(res, req).
		Search(req.Keyword()).
		Filter().
		Paginate(res.PageSize).
		Constraint()
}

// Search adds a case-insensitive literal substring match on the search field.
func (b *Builder) Search(keyword string) *Builder {
	if keyword == "" || b.res.SearchField == "" {
		return b
	}
	b.c.Filters = append(b.c.Filters, literalMatch(b.res.SearchField, keyword))
	return b
}

// Filter adds category, equality and range constraints for the fields the
// resource allows. Anything else in the request is ignored.
func (b *Builder) Filter() *Builder {
	for _, p := range b.req.Params {
		switch p.Kind {
		case KindCategory:
			if p.Value != "" && b.res.CategoryField != "" {
				b.c.Filters = append(b.c.Filters, literalMatch(b.res.CategoryField, p.Value))
			}
		case KindRange:
			if b.res.isNumeric(p.Field) {
				b.c.Filters = append(b.c.Filters, model.Filter{Field: p.Field, Op: p.Op, Value: number(p.Value)})
			}
		case KindEqual:
			switch {
			case b.res.isNumeric(p.Field):
				b.c.Filters = append(b.c.Filters, model.Filter{Field: p.Field, Op: model.OpEq, Value: number(p.Value)})
			case b.res.isExact(p.Field):
				b.c.Filters = append(b.c.Filters, model.Filter{Field: p.Field, Op: model.OpEq, Value: p.Value})
			}
		}
	}
	return b
}

// Paginate sets the result window for the requested page.
func (b *Builder) Paginate(pageSize int) *Builder {
	if pageSize < 1 {
		pageSize = 1
	}
	page := int64(b.req.Page())
	size := int64(pageSize)
	if maxSkipped := math.MaxInt64 / size; page-1 > maxSkipped {
		page = maxSkipped + 1
	}
	b.c.Skip = size * (page - 1)
	b.c.Limit = size
	return b
}

// Constraint returns a copy of the accumulated constraint.
func (b *Builder) Constraint() Constraint {
	c := b.c
	c.Filters = append(model.Filters(nil), b.c.Filters...)
	return c
}

func literalMatch(field, text string) model.Filter {
	return model.Filter{Field: field, Op: model.OpMatches, Value: regexp.QuoteMeta(strings.ToValidUTF8(text, ""))}
}
