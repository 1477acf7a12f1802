package logging

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// componentKey is lifted out of the attributes and printed as a tag,
// so "orders" and "server" lines can be told apart at a glance.
const componentKey = "component"

// TextHandler writes one line per record:
//
//	2024-01-19T10:30:00Z: [INFO] [orders] order status changed order_id=65f0 status=Shipped
type TextHandler struct {
	w         io.Writer
	mu        *sync.Mutex
	level     slog.Leveler
	component string
	attrs     []slog.Attr
	groups    []string
}

// NewTextHandler creates a new custom text handler.
func NewTextHandler(w io.Writer, opts *slog.HandlerOptions) *TextHandler {
	h := &TextHandler{
		w:     w,
		mu:    &sync.Mutex{},
		level: slog.LevelInfo,
	}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *TextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *TextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 512)

	buf = r.Time.AppendFormat(buf, time.RFC3339)
	buf = append(buf, ": ["...)
	buf = append(buf, r.Level.String()...)
	buf = append(buf, "] "...)

	component := h.component
	if component == "" {
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == componentKey && len(h.groups) == 0 {
				component = a.Value.String()
				return false
			}
			return true
		})
	}
	if component != "" {
		buf = append(buf, '[')
		buf = append(buf, component...)
		buf = append(buf, "] "...)
	}

	buf = append(buf, r.Message...)

	for _, attr := range h.attrs {
		buf = appendAttr(buf, attr, nil)
	}
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == componentKey && len(h.groups) == 0 {
			return true
		}
		buf = appendAttr(buf, attr, h.groups)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

// WithAttrs returns a handler that prints attrs on every record. Handlers
// derived from one another share the writer lock.
func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	for _, a := range attrs {
		if a.Key == componentKey && len(h.groups) == 0 {
			clone.component = a.Value.String()
			continue
		}
		clone.attrs = append(clone.attrs, prefixed(a, h.groups))
	}
	return clone
}

func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *TextHandler) clone() *TextHandler {
	return &TextHandler{
		w:         h.w,
		mu:        h.mu,
		level:     h.level,
		component: h.component,
		attrs:     append([]slog.Attr(nil), h.attrs...),
		groups:    append([]string(nil), h.groups...),
	}
}

// prefixed bakes the open groups into the key of an attribute added by WithAttrs.
func prefixed(a slog.Attr, groups []string) slog.Attr {
	for i := len(groups) - 1; i >= 0; i-- {
		a.Key = groups[i] + "." + a.Key
	}
	return a
}

func appendAttr(buf []byte, attr slog.Attr, groups []string) []byte {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return buf
	}

	buf = append(buf, ' ')
	for _, group := range groups {
		buf = append(buf, group...)
		buf = append(buf, '.')
	}
	buf = append(buf, attr.Key...)
	buf = append(buf, '=')
	return appendValue(buf, attr.Value)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return appendString(buf, v.String())
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().AppendFormat(buf, time.RFC3339)
	case slog.KindGroup:
		attrs := v.Group()
		if len(attrs) == 0 {
			return buf
		}
		buf = append(buf, '{')
		for i, attr := range attrs {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = append(buf, attr.Key...)
			buf = append(buf, '=')
			buf = appendValue(buf, attr.Value.Resolve())
		}
		return append(buf, '}')
	default:
		if err, ok := v.Any().(error); ok {
			return appendString(buf, err.Error())
		}
		return appendString(buf, v.String())
	}
}

// appendString quotes s when it holds spaces, quotes or control characters.
func appendString(buf []byte, s string) []byte {
	needsQuote := s == ""
	for _, r := range s {
		if r == ' ' || r == '"' || r == '=' || r < 0x20 {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return append(buf, s...)
	}
	return strconv.AppendQuote(buf, s)
}
