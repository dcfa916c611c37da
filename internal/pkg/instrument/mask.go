package instrument

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

type maskMode int

const (
	maskFull maskMode = iota + 1
	maskPartial
)

const masked = "***"

// masker hides values whose key (case-insensitive) is configured, at any
// depth: plain attrs, groups, maps, slices and JSON text.
type masker map[string]maskMode

func newMasker(full, partial []string) masker {
	m := masker{}
	for _, k := range partial {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			m[k] = maskPartial
		}
	}
	// full wins when a key is listed twice
	for _, k := range full {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			m[k] = maskFull
		}
	}
	return m
}

func (m masker) mode(key string) (maskMode, bool) {
	mode, ok := m[strings.ToLower(key)]
	return mode, ok
}

func (m masker) attr(a slog.Attr) slog.Attr {
	if mode, ok := m.mode(a.Key); ok {
		return slog.String(a.Key, maskValue(mode, a.Value.Resolve().Any()))
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = m.attr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindString:
		if s, ok := m.jsonText([]byte(v.String())); ok {
			return slog.String(a.Key, s)
		}
	case slog.KindAny:
		switch raw := v.Any().(type) {
		case map[string]any, []any:
			return slog.Any(a.Key, m.walk(raw))
		case map[string]string:
			conv := make(map[string]any, len(raw))
			for k, s := range raw {
				conv[k] = s
			}
			return slog.Any(a.Key, m.walk(conv))
		case []byte:
			if s, ok := m.jsonText(raw); ok {
				return slog.String(a.Key, s)
			}
		}
	}
	return a
}

func (m masker) walk(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if mode, ok := m.mode(k); ok {
				out[k] = maskValue(mode, inner)
				continue
			}
			out[k] = m.walk(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = m.walk(inner)
		}
		return out
	default:
		return v
	}
}

// jsonText masks b when it holds a JSON object or array.
func (m masker) jsonText(b []byte) (string, bool) {
	if len(b) == 0 || (b[0] != '{' && b[0] != '[') {
		return "", false
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return "", false
	}
	out, err := json.Marshal(m.walk(doc))
	if err != nil {
		return "", false
	}
	return string(out), true
}

// maskValue hides v. Partial mode keeps the first rune and, for emails, the
// domain; anything that is not a non-empty string is fully masked.
func maskValue(mode maskMode, v any) string {
	s, ok := v.(string)
	if mode != maskPartial || !ok {
		return masked
	}
	local, domain, isEmail := strings.Cut(s, "@")
	head := []rune(local)
	if len(head) == 0 {
		return masked
	}
	if isEmail {
		return string(head[0]) + masked + "@" + domain
	}
	return string(head[0]) + masked
}

type maskHandler struct {
	next slog.Handler
	m    masker
}

func newMaskHandler(next slog.Handler, full, partial []string) *maskHandler {
	return &maskHandler{next: next, m: newMasker(full, partial)}
}

func (h *maskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *maskHandler) Handle(ctx context.Context, r slog.Record) error {
	if len(h.m) == 0 {
		return h.next.Handle(ctx, r)
	}
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.m.attr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = h.m.attr(a)
	}
	return &maskHandler{next: h.next.WithAttrs(out), m: h.m}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{next: h.next.WithGroup(name), m: h.m}
}
