package lang

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tinymark-lang/tinymark-lang.github.io/log"
)

// Document is the node sequence of one source text.
//
// A Document is shared by every consumer of a cached parse and must be
// treated as read-only.
type Document struct {
	Nodes []Node
	// Warnings holds the recovered errors, each annotated with the line it
	// occurred on.
	Warnings []error
}

// Option configures a parse.
type Option func(*options)

type options struct {
	logger log.Logger
	source string
}

// WithLogger sets the logger that receives parse warnings.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSource names the source in log messages.
func WithSource(name string) Option {
	return func(o *options) { o.source = name }
}

type parser struct {
	ctx   context.Context
	log   log.Logger
	lines []string
	doc   *Document
	anon  int
}

// Parse splits src into lines and converts them to nodes. It never fails:
// malformed input is dropped or captured best-effort, and the problem is
// recorded in [Document.Warnings].
func Parse(ctx context.Context, src string, opts ...Option) *Document {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if o.source != "" {
		logger = logger.With(slog.String("source", o.source))
	}

	p := parser{
		ctx:   ctx,
		log:   logger,
		lines: splitLines(src),
		doc:   &Document{},
	}

	for i := 0; i < len(p.lines); {
		i = p.line(i)
	}

	p.log.TraceContext(ctx, "parsed",
		slog.Int("lines", len(p.lines)),
		slog.Int("nodes", len(p.doc.Nodes)),
		slog.Int("warnings", len(p.doc.Warnings)))

	return p.doc
}

func splitLines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.TrimSuffix(src, "\n")

	if src == "" {
		return nil
	}

	return strings.Split(src, "\n")
}

// line consumes the node starting at line i and returns the index of the
// next unconsumed line.
func (p *parser) line(i int) int {
	line := strings.TrimSpace(p.lines[i])

	switch {
	case line == "", strings.HasPrefix(line, "#"), strings.HasPrefix(line, "//"):
		return i + 1
	case line[0] != '.':
		p.emit(Text{Position: at(i, i+1), Text: line})

		return i + 1
	}

	sel, text, rest, ok := splitDirective(line)
	if !ok {
		p.warn(ErrMalformedLine, i, slog.String("text", line))

		return i + 1
	}

	switch sel {
	case "hide":
		return p.hide(i, text, rest)

	case "endhide":
		p.warn(ErrMalformedLine, i, slog.String("text", line),
			slog.String("reason", "endhide without hide"))

		return i + 1

	case "placeholder":
		id := Tokenize(rest).Value("id")
		if id == "" {
			id = text
		}

		if id == "" {
			p.warn(ErrMalformedLine, i, slog.String("text", line),
				slog.String("reason", "placeholder without id"))

			return i + 1
		}

		p.emit(Placeholder{Position: at(i, i+1), ID: id})

		return i + 1

	case "extend", "component":
		name, attrs := splitName(text, rest)
		if name == "" {
			p.warn(ErrMalformedLine, i, slog.String("text", line),
				slog.String("reason", sel+" without name"))

			return i + 1
		}

		if sel == "extend" {
			p.emit(Extend{Position: at(i, i+1), Name: name, Attrs: attrs})
		} else {
			p.emit(ComponentStart{Position: at(i, i+1), Name: name, Attrs: attrs})
		}

		return i + 1

	case "endcomponent", "end":
		p.emit(ComponentEnd{Position: at(i, i+1)})

		return i + 1
	}

	rest, next := p.function(i, rest)

	p.emit(Element{
		Position: at(i, next),
		Selector: sel,
		Text:     text,
		Attrs:    Tokenize(rest),
	})

	return next
}

// function extends rest with the following lines when it opens a function
// attribute that is not closed on line i.
func (p *parser) function(i int, rest string) (string, int) {
	open := openFunction(rest)
	if open < 0 {
		return rest, i + 1
	}

	depth := parenDepth(rest[open:])
	if depth <= 0 {
		return rest, i + 1
	}

	body, tail, next, ok := scanFunctionBody(p.lines, i+1, depth)
	if !ok {
		p.warn(ErrMalformedFunctionBody, i,
			slog.Int("depth", depth), slog.Int("captured_lines", next-i-1))
	}

	return rest + "\n" + body + ")" + " " + tail, next
}

func (p *parser) hide(i int, text, rest string) int {
	id := Tokenize(rest).Value("id")
	if id == "" {
		id = text
	}

	if id == "" {
		p.anon++
		id = "hide-" + strconv.Itoa(p.anon)
	}

	body, next, ok := scanHideBlock(p.lines, i+1, id)
	if !ok {
		p.warn(ErrUnterminatedHideBlock, i, slog.String("id", id))
	}

	p.emit(HideBlock{Position: at(i, next), ID: id, Body: body})

	return next
}

func (p *parser) emit(n Node) { p.doc.Nodes = append(p.doc.Nodes, n) }

func (p *parser) warn(sentinel *Error, i int, attrs ...slog.Attr) {
	err := sentinel.With(append([]slog.Attr{slog.Int("line", i+1)}, attrs...)...)
	p.doc.Warnings = append(p.doc.Warnings, err)
	p.log.WarnContext(p.ctx, "recovered parse error", slog.Any("error", err))
}

// at returns the position of a node occupying lines [start, next).
func at(start, next int) Position {
	return Position{Line: start + 1, Lines: next - start}
}

// splitDirective splits a trimmed line of the form
//
//	.selector ["text"] rest
//
// ok is false when the selector is invalid or the inline text is not
// terminated.
func splitDirective(line string) (sel, text, rest string, ok bool) {
	n := len(line)
	if n < 2 || line[0] != '.' || !isLetter(line[1]) {
		return "", "", "", false
	}

	j := 2
	for j < n && isKeyByte(line[j]) {
		j++
	}

	if j < n && !isSpace(line[j]) && line[j] != '"' {
		return "", "", "", false
	}

	sel = strings.ToLower(line[1:j])

	for j < n && isSpace(line[j]) {
		j++
	}

	if j < n && line[j] == '"' {
		end := strings.IndexByte(line[j+1:], '"')
		if end < 0 {
			return "", "", "", false
		}

		text = line[j+1 : j+1+end]
		j += end + 2
	}

	return sel, text, strings.TrimSpace(line[j:]), true
}

// splitName takes the name of an extend or component line from its inline
// text, a leading bare word, or a name: attribute, in that order.
func splitName(text, rest string) (string, Attrs) {
	if text != "" {
		return text, Tokenize(rest)
	}

	word, tail, _ := strings.Cut(rest, " ")
	if isSelector(word) {
		return strings.ToLower(word), Tokenize(tail)
	}

	attrs := Tokenize(rest)
	name := attrs.Value("name")
	attrs.Delete("name")

	return name, attrs
}

// openFunction returns the offset of the '(' opening a function: attribute
// in s, or -1.
func openFunction(s string) int {
	const key = "function:"

	for off := 0; off < len(s); {
		idx := strings.Index(strings.ToLower(s[off:]), key)
		if idx < 0 {
			return -1
		}

		start := off + idx
		if start > 0 && !isSpace(s[start-1]) {
			off = start + len(key)

			continue
		}

		j := start + len(key)
		for j < len(s) && isKeyByte(s[j]) {
			j++
		}

		if j < len(s) && s[j] == '(' && j > start+len(key) {
			return j
		}

		off = j
	}

	return -1
}

// parenDepth returns the nesting depth left open at the end of s.
// Parentheses inside double quotes are ignored.
func parenDepth(s string) int {
	depth, quoted := 0, false

	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			depth--
		}
	}

	return depth
}

// scanFunctionBody collects lines from start until depth open parentheses
// are closed. It returns the text before the balancing ')', the text after
// it on the same line and the index of the first line not consumed. ok is
// false when the input ends first; body then holds everything collected.
//
// Quote state does not carry across lines.
func scanFunctionBody(lines []string, start, depth int) (body, tail string, next int, ok bool) {
	parts := make([]string, 0, 4)

	for j := start; j < len(lines); j++ {
		line, quoted := lines[j], false

		for k := 0; k < len(line); k++ {
			switch c := line[k]; {
			case c == '"':
				quoted = !quoted
			case quoted:
			case c == '(':
				depth++
			case c == ')':
				if depth--; depth == 0 {
					parts = append(parts, line[:k])

					return strings.Join(parts, "\n"), strings.TrimSpace(line[k+1:]), j + 1, true
				}
			}
		}

		parts = append(parts, line)
	}

	return strings.Join(parts, "\n"), "", len(lines), false
}

// scanHideBlock captures lines from start verbatim up to a line closing the
// hide region id. A closing line is ".endhide" or ".endhide id:<id>". ok is
// false when no closing line exists; the region then runs to the end.
func scanHideBlock(lines []string, start int, id string) (body string, next int, ok bool) {
	for j := start; j < len(lines); j++ {
		if closesHide(lines[j], id) {
			return strings.Join(lines[start:j], "\n"), j + 1, true
		}
	}

	if start >= len(lines) {
		return "", len(lines), false
	}

	return strings.Join(lines[start:], "\n"), len(lines), false
}

func closesHide(line, id string) bool {
	sel, text, rest, ok := splitDirective(strings.TrimSpace(line))
	if !ok || sel != "endhide" {
		return false
	}

	end := Tokenize(rest).Value("id")
	if end == "" {
		end = text
	}

	return end == "" || end == id
}
