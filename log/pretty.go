package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
)

const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// prettyTextHandler writes colorized key=value lines.
type prettyTextHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	prefix string
}

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *prettyTextHandler {
	return &prettyTextHandler{opts: *opts, mu: &sync.Mutex{}, w: w}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !r.Time.IsZero() {
		h.write(&buf, "", slog.Time(slog.TimeKey, r.Time))
	}

	h.write(&buf, "", slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil && src.File != "" {
			h.write(&buf, "", slog.String(slog.SourceKey,
				src.File+":"+strconv.Itoa(src.Line)))
		}
	}

	h.write(&buf, "", slog.String(slog.MessageKey, r.Message))

	for _, a := range h.attrs {
		h.write(&buf, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.write(&buf, h.prefix, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)

	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		c.attrs = append(c.attrs, a)
	}

	return &c
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyTextHandler) write(buf *bytes.Buffer, prefix string, a slog.Attr) {
	if rep := h.opts.ReplaceAttr; rep != nil && a.Value.Kind() != slog.KindGroup {
		a = rep(nil, a)
	}

	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, g := range a.Value.Group() {
			h.write(buf, prefix+a.Key+".", g)
		}

		return
	}

	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}

	buf.WriteString(colorGray)
	buf.WriteString(prefix + a.Key)
	buf.WriteString(colorReset)
	buf.WriteByte('=')
	buf.WriteString(valueColor(a))
	buf.WriteString(a.Value.String())
	buf.WriteString(colorReset)
}

func valueColor(a slog.Attr) string {
	if a.Key == slog.LevelKey {
		switch ParseLevel(a.Value.String()) {
		case LevelError:
			return colorRed
		case LevelWarn:
			return colorYellow
		case LevelInfo:
			return colorGreen
		default:
			return colorBlue
		}
	}

	switch a.Value.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return colorYellow
	case slog.KindBool:
		if a.Value.Bool() {
			return colorGreen
		}

		return colorRed
	case slog.KindDuration:
		return colorMagenta
	case slog.KindTime:
		return colorBlue
	default:
		return colorCyan
	}
}

// indentHandler renders each record with slog's JSON handler and re-indents
// it, so field encoding is identical to the compact format.
type indentHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	buf   *bytes.Buffer
	inner slog.Handler
}

func newIndentHandler(w io.Writer, opts *slog.HandlerOptions) *indentHandler {
	buf := new(bytes.Buffer)

	return &indentHandler{
		mu:    &sync.Mutex{},
		w:     w,
		buf:   buf,
		inner: slog.NewJSONHandler(buf, opts),
	}
}

func (h *indentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *indentHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()

	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimSpace(h.buf.Bytes()), "", "  "); err != nil {
		return fmt.Errorf("indent log record: %w", err)
	}

	out.WriteByte('\n')

	_, err := h.w.Write(out.Bytes())

	return err
}

func (h *indentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &indentHandler{mu: h.mu, w: h.w, buf: h.buf, inner: h.inner.WithAttrs(attrs)}
}

func (h *indentHandler) WithGroup(name string) slog.Handler {
	return &indentHandler{mu: h.mu, w: h.w, buf: h.buf, inner: h.inner.WithGroup(name)}
}
