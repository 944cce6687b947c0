package engine

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/mung"
	"golang.org/x/net/html"
)

// Verb is the operation of one action statement.
type Verb int

const (
	VerbUnknown Verb = iota
	VerbShow
	VerbHide
	VerbToggle
	VerbCall
	VerbScript
	VerbNavigate
	VerbCopy
	VerbToggleClass
	VerbSort
	VerbModal
)

var verbNames = [...]string{
	VerbUnknown:     "unknown",
	VerbShow:        "show",
	VerbHide:        "hide",
	VerbToggle:      "toggle",
	VerbCall:        "call",
	VerbScript:      "js",
	VerbNavigate:    "navigate",
	VerbCopy:        "copy",
	VerbToggleClass: "toggleclass",
	VerbSort:        "sort",
	VerbModal:       "modal",
}

func (v Verb) String() string {
	if v >= 0 && int(v) < len(verbNames) {
		return verbNames[v]
	}

	return "unknown"
}

// Verbs returns the statement prefixes understood by [ParseAction], in the
// form they are written.
func Verbs() []string {
	return []string{
		"call:show:", "call:unhide:", "call:hide:", "call:toggle:", "call:",
		"show:", "hide:", "toggle:", "js:",
		"navigate=", "copy=", "toggleclass=", "sort=", "modal=",
	}
}

// Statement is one parsed action.
type Statement struct {
	Verb Verb
	// Arg is the identifier, reference list or script following the verb.
	Arg string
	// Source is the statement as written.
	Source string
}

// ParseAction splits an action string into statements. Statements are
// separated by newlines, and by ';' except on js: lines. Blank lines and
// comments are skipped.
func ParseAction(action string) []Statement {
	var out []Statement

	for line := range strings.Lines(action) {
		line = strings.TrimSpace(line)

		switch {
		case line == "", strings.HasPrefix(line, "#"), strings.HasPrefix(line, "//"):
			continue

		case hasPrefixFold(line, "js:"):
			out = append(out, parseStatement(line))

			continue
		}

		for part := range strings.SplitSeq(line, ";") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, parseStatement(part))
			}
		}
	}

	return out
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

var blockVerbs = map[string]Verb{
	"show":   VerbShow,
	"unhide": VerbShow,
	"hide":   VerbHide,
	"toggle": VerbToggle,
}

var hostVerbs = map[string]Verb{
	"navigate":    VerbNavigate,
	"copy":        VerbCopy,
	"toggleclass": VerbToggleClass,
	"sort":        VerbSort,
	"modal":       VerbModal,
}

func parseStatement(s string) Statement {
	st := Statement{Source: s}

	switch {
	case hasPrefixFold(s, "js:"):
		st.Verb, st.Arg = VerbScript, strings.TrimSpace(s[len("js:"):])

	case hasPrefixFold(s, "call:"):
		rest := strings.TrimSpace(s[len("call:"):])
		if name, id, ok := strings.Cut(rest, ":"); ok {
			if v, ok := blockVerbs[strings.ToLower(strings.TrimSpace(name))]; ok {
				st.Verb, st.Arg = v, strings.TrimSpace(id)

				break
			}
		}

		st.Verb, st.Arg = VerbCall, rest

	default:
		if name, arg, ok := strings.Cut(s, "="); ok {
			if v, ok := hostVerbs[strings.ToLower(strings.TrimSpace(name))]; ok {
				st.Verb, st.Arg = v, strings.TrimSpace(arg)

				break
			}
		}

		if name, id, ok := strings.Cut(s, ":"); ok {
			if v, ok := blockVerbs[strings.ToLower(strings.TrimSpace(name))]; ok {
				st.Verb, st.Arg = v, strings.TrimSpace(id)
			}
		}
	}

	if st.Verb != VerbUnknown && st.Verb != VerbScript && st.Arg == "" {
		st.Verb = VerbUnknown
	}

	return st
}

// usesScript reports whether action contains a js: statement.
func usesScript(action string) bool {
	return slices.ContainsFunc(ParseAction(action), func(st Statement) bool {
		return st.Verb == VerbScript
	})
}

// isMarkup reports whether a function body is markup rather than an action
// script: its first meaningful line starts with '.'.
func isMarkup(body string) bool {
	for line := range strings.Lines(body) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		return strings.HasPrefix(line, ".")
	}

	return false
}

// run executes every statement of action. A failing statement does not
// stop the ones after it; the failures are joined.
func (in *Instance) run(ctx context.Context, action string, depth int) error {
	var errs []error

	for _, st := range ParseAction(action) {
		if err := in.exec(ctx, st, depth); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// exec runs one statement. Failures are logged here, once.
func (in *Instance) exec(ctx context.Context, st Statement, depth int) error {
	switch st.Verb {
	case VerbShow:
		return in.show(ctx, st.Arg, depth)
	case VerbHide:
		return in.hide(st.Arg)
	case VerbToggle:
		return in.toggle(ctx, st.Arg, depth)
	case VerbCall:
		return in.call(ctx, st.Arg, depth)
	case VerbScript:
		return in.script(ctx, st.Arg, depth)
	case VerbNavigate:
		return in.navigate(ctx, st.Arg)
	case VerbCopy:
		return in.copy(ctx, st.Arg)
	case VerbToggleClass:
		return in.toggleClass(ctx, st.Arg)
	case VerbSort:
		return in.sort(ctx, st.Arg)
	case VerbModal:
		return in.modal(ctx, st.Arg)
	default:
		return in.warn(ctx, "ignoring action",
			ErrUnknownAction.With(slog.String("action", st.Source)))
	}
}

func (in *Instance) warn(ctx context.Context, msg string, err error) error {
	in.log.WarnContext(ctx, msg, slog.Any("error", err))

	return err
}

// holder returns the live placeholder of id, creating one at the end of
// the instance root when there is none.
func (in *Instance) holder(id string) *html.Node {
	n := in.reg.Placeholder(id)
	if n != nil && in.live(n) {
		return n
	}

	n = newHolder(id)
	in.root.AppendChild(n)
	in.reg.BindPlaceholder(id, n)

	return n
}

func (in *Instance) show(ctx context.Context, id string, depth int) error {
	body, ok := in.reg.Hidden(id)
	if !ok {
		return in.warn(ctx, "cannot show block",
			ErrUnresolvedReference.With(slog.String("id", id)))
	}

	in.fill(ctx, in.holder(id), body, depth)

	return nil
}

// fill replaces the content of holder with body rendered as markup and
// makes it visible.
func (in *Instance) fill(ctx context.Context, holder *html.Node, body string, depth int) {
	clearChildren(holder)
	removeAttr(holder, "hidden")

	p := &pass{}

	rc := in.context(ctx, holder, p)
	rc.depth = depth + 1
	rc.render(in.parse(ctx, body).Nodes)

	in.queueOnload(ctx, p, depth+1)
}

func (in *Instance) hide(id string) error {
	n := in.reg.Placeholder(id)
	if n == nil {
		return nil
	}

	clearChildren(n)
	setAttr(n, "hidden", "")

	return nil
}

func (in *Instance) toggle(ctx context.Context, id string, depth int) error {
	if n := in.reg.Placeholder(id); n != nil && in.live(n) && visible(n) {
		return in.hide(id)
	}

	return in.show(ctx, id, depth)
}

func (in *Instance) call(ctx context.Context, id string, depth int) error {
	fn, ok := in.reg.Function(id)
	if !ok {
		return in.warn(ctx, "cannot call function",
			ErrUnresolvedReference.With(slog.String("id", id)))
	}

	body := strings.TrimSpace(fn.Body)
	if body == "" {
		in.log.DebugContext(ctx, "ignoring empty function", slog.String("id", id))

		return nil
	}

	if depth >= in.engine.maxDepth {
		return in.warn(ctx, "function not called",
			ErrMaxDepthExceeded.With(slog.String("id", id), slog.Int("depth", depth)))
	}

	if isMarkup(body) {
		in.fill(ctx, in.holder(id), body, depth)

		return nil
	}

	return in.run(ctx, body, depth+1)
}

func (in *Instance) navigate(ctx context.Context, url string) error {
	if err := in.engine.host.Navigate(ctx, url); err != nil {
		return in.warn(ctx, "navigate failed",
			ErrUnresolvedReference.Wrap(err).With(slog.String("url", url)))
	}

	return nil
}

func (in *Instance) copy(ctx context.Context, ref string) error {
	n, err := in.resolve(ctx, ref)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(textContent(n))
	if err := in.engine.host.WriteClipboard(ctx, text); err != nil {
		return in.warn(ctx, "copy failed",
			ErrUnresolvedReference.Wrap(err).With(slog.String("ref", ref)))
	}

	return nil
}

func (in *Instance) toggleClass(ctx context.Context, arg string) error {
	ref, class, _ := strings.Cut(arg, ",")
	if class = strings.TrimSpace(class); class == "" {
		return in.warn(ctx, "ignoring action",
			ErrUnknownAction.With(slog.String("action", "toggleclass="+arg)))
	}

	n, err := in.resolve(ctx, ref)
	if err != nil {
		return err
	}

	classes := strings.Fields(attrValue(n, "class"))
	if !slices.Contains(classes, class) {
		setAttr(n, "class", mung.Make(
			mung.WithSubjectItems(strings.Join(classes, " ")),
			mung.WithDelim(" "),
			mung.WithPrefixItems(class),
		).String())

		return nil
	}

	classes = slices.DeleteFunc(classes, func(c string) bool { return c == class })
	if len(classes) == 0 {
		removeAttr(n, "class")
	} else {
		setAttr(n, "class", strings.Join(classes, " "))
	}

	return nil
}

func (in *Instance) sort(ctx context.Context, arg string) error {
	ref, order, _ := strings.Cut(arg, ",")
	desc := strings.EqualFold(strings.TrimSpace(order), "desc")

	n, err := in.resolve(ctx, ref)
	if err != nil {
		return err
	}

	var children []*html.Node
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)

		if c.Type == html.ElementNode {
			children = append(children, c)
		}
	}

	slices.SortStableFunc(children, func(a, b *html.Node) int {
		c := strings.Compare(
			strings.TrimSpace(textContent(a)),
			strings.TrimSpace(textContent(b)))
		if desc {
			return -c
		}

		return c
	})

	for _, c := range children {
		n.AppendChild(c)
	}

	return nil
}

// modal wraps the referenced node in an overlay, or unwraps it when it is
// already wrapped.
func (in *Instance) modal(ctx context.Context, ref string) error {
	n, err := in.resolve(ctx, ref)
	if err != nil {
		return err
	}

	parent := n.Parent
	if parent == nil {
		return in.warn(ctx, "cannot open modal",
			ErrUnresolvedReference.With(slog.String("ref", ref)))
	}

	if hasClass(parent, "tm-modal") && parent.Parent != nil {
		parent.RemoveChild(n)
		parent.Parent.InsertBefore(n, parent)
		parent.Parent.RemoveChild(parent)

		return nil
	}

	overlay := newElement("div")
	setAttr(overlay, "class", "tm-modal")
	setAttr(overlay, "role", "dialog")
	setAttr(overlay, "aria-modal", "true")

	parent.InsertBefore(overlay, n)
	parent.RemoveChild(n)
	overlay.AppendChild(n)

	return nil
}

// resolve finds the element named by ref, an id optionally prefixed with
// '#'. The instance's own tree is searched first.
func (in *Instance) resolve(ctx context.Context, ref string) (*html.Node, error) {
	id := strings.TrimPrefix(strings.TrimSpace(ref), "#")

	if id != "" {
		if n := findByID(in.root, id); n != nil {
			return n, nil
		}

		for _, other := range in.engine.instances {
			if other == in {
				continue
			}

			if n := findByID(other.root, id); n != nil {
				return n, nil
			}
		}

		if n := in.reg.Placeholder(id); n != nil && in.live(n) {
			return n, nil
		}
	}

	return nil, in.warn(ctx, "cannot resolve reference",
		ErrUnresolvedReference.With(slog.String("ref", ref)))
}
