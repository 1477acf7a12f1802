package query

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/emporia/emporia/pkg/model"
)

// Kind tags a recognized query-string parameter.
type Kind int

const (
	KindKeyword Kind = iota + 1
	KindCategory
	KindPage
	KindLimit
	KindEqual
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindKeyword:
		return "keyword"
	case KindCategory:
		return "category"
	case KindPage:
		return "page"
	case KindLimit:
		return "limit"
	case KindEqual:
		return "equal"
	case KindRange:
		return "range"
	}
	return "unknown"
}

// Param is one recognized parameter. Field and Op are only set for
// KindEqual and KindRange. Value is always the raw string sent by the client.
type Param struct {
	Kind  Kind
	Field string
	Op    model.FilterOp
	Value string
}

// Request is the parsed form of a listing query string.
type Request struct {
	Params []Param
}

var (
	keyPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\[([a-z]+)\])?$`)

	rangeOps = map[string]model.FilterOp{
		"gt":  model.OpGt,
		"gte": model.OpGte,
		"lt":  model.OpLt,
		"lte": model.OpLte,
	}
)

// ParseRequest turns raw query values into typed parameters.
// Keys that are not a plain identifier, optionally followed by one of
// [gt] [gte] [lt] [lte], are dropped. When a key repeats only the first value counts.
func ParseRequest(values url.Values) Request {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var req Request
	for _, key := range keys {
		vals := values[key]
		if len(vals) == 0 {
			continue
		}
		if p, ok := parseParam(key, strings.ToValidUTF8(vals[0], "")); ok {
			req.Params = append(req.Params, p)
		}
	}
	return req
}

func parseParam(key, value string) (Param, bool) {
	m := keyPattern.FindStringSubmatch(key)
	if m == nil {
		return Param{}, false
	}
	field, op := m[1], m[2]

	if op != "" {
		fop, ok := rangeOps[op]
		if !ok {
			return Param{}, false
		}
		return Param{Kind: KindRange, Field: field, Op: fop, Value: value}, true
	}

	switch field {
	case "keyword":
		return Param{Kind: KindKeyword, Value: value}, true
	case "category":
		return Param{Kind: KindCategory, Value: value}, true
	case "page":
		return Param{Kind: KindPage, Value: value}, true
	case "limit":
		return Param{Kind: KindLimit, Value: value}, true
	}
	return Param{Kind: KindEqual, Field: field, Op: model.OpEq, Value: value}, true
}

// Keyword returns the keyword parameter, or "".
func (r Request) Keyword() string {
	return r.first(KindKeyword)
}

// Page returns the requested page, coerced to at least 1.
func (r Request) Page() int {
	n, err := strconv.Atoi(strings.TrimSpace(r.first(KindPage)))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (r Request) first(kind Kind) string {
	for _, p := range r.Params {
		if p.Kind == kind {
			return p.Value
		}
	}
	return ""
}

// number converts s to a float64 when it parses to a finite value, otherwise
// it is returned as is.
func number(s string) interface{} {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	return f
}
