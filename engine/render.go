package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tinymark-lang/tinymark-lang.github.io/lang"
	"github.com/tinymark-lang/tinymark-lang.github.io/log"
)

// pass collects the side products of one render pass.
type pass struct {
	onload  []string
	records []Record
}

// renderContext is the state threaded through one render pass. Cursors
// are never closed implicitly; only a new list or row replaces them.
type renderContext struct {
	ctx         context.Context
	log         log.Logger
	reg         *Registry
	allowScript bool
	maxDepth    int
	depth       int
	pass        *pass

	// parent receives nodes placed outside any row or column.
	parent *html.Node
	list   *html.Node
	row    *html.Node
	// col is a one-shot slot: the next placed node goes into it.
	col *html.Node
}

// sub returns a context rendering into parent with fresh cursors.
func (rc *renderContext) sub(parent *html.Node) *renderContext {
	return &renderContext{
		ctx:         rc.ctx,
		log:         rc.log,
		reg:         rc.reg,
		allowScript: rc.allowScript,
		maxDepth:    rc.maxDepth,
		depth:       rc.depth + 1,
		pass:        rc.pass,
		parent:      parent,
	}
}

// render registers the definitions in nodes, then renders the rest in order.
func (rc *renderContext) render(nodes []lang.Node) {
	for _, n := range rc.collect(nodes) {
		rc.node(n)
	}
}

// collect registers every extend and component definition before any
// element is resolved, and returns the nodes left to render.
func (rc *renderContext) collect(nodes []lang.Node) []lang.Node {
	flow := make([]lang.Node, 0, len(nodes))

	for i := 0; i < len(nodes); i++ {
		switch n := nodes[i].(type) {
		case lang.Extend:
			rc.reg.SetExtend(n.Name, n.Attrs)

		case lang.ComponentStart:
			end := componentEnd(nodes, i)
			if end == len(nodes) {
				rc.log.WarnContext(rc.ctx, "unterminated component",
					slog.String("component", n.Name), slog.Int("line", n.Line))
			}

			rc.reg.SetComponent(Component{
				Name:  n.Name,
				Attrs: n.Attrs,
				Nodes: nodes[i+1 : end],
			})

			i = end

		case lang.ComponentEnd:
			rc.log.DebugContext(rc.ctx, "ignoring unmatched component end",
				slog.Int("line", n.Line))

		default:
			flow = append(flow, n)
		}
	}

	return flow
}

// componentEnd returns the index of the ComponentEnd closing the component
// started at nodes[start], or len(nodes).
func componentEnd(nodes []lang.Node, start int) int {
	depth := 0

	for i := start + 1; i < len(nodes); i++ {
		switch nodes[i].(type) {
		case lang.ComponentStart:
			depth++
		case lang.ComponentEnd:
			if depth == 0 {
				return i
			}

			depth--
		}
	}

	return len(nodes)
}

// node renders one node. A failure is logged and leaves the rest of the
// pass intact.
func (rc *renderContext) node(n lang.Node) {
	defer func() {
		if r := recover(); r != nil {
			rc.log.ErrorContext(rc.ctx, "render node failed",
				slog.String("kind", n.Kind().String()),
				slog.Int("line", n.Pos().Line),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()

	switch n := n.(type) {
	case lang.Element:
		rc.element(n)

	case lang.Text:
		p := newElement("p")
		p.AppendChild(newText(n.Text))
		rc.place(p)

	case lang.HideBlock:
		rc.reg.SetHidden(n.ID, n.Body)

	case lang.Placeholder:
		holder := newHolder(n.ID)
		rc.place(holder)
		rc.reg.BindPlaceholder(n.ID, holder)
	}
}

// place appends node at the current output position.
func (rc *renderContext) place(node *html.Node) {
	switch {
	case rc.col != nil:
		col := rc.col
		rc.col = nil
		col.AppendChild(node)

	case rc.row != nil:
		item := newElement("div")
		setAttr(item, "class", "tm-flex-item")
		setAttr(item, "style", "flex: 1")
		item.AppendChild(node)
		rc.row.AppendChild(item)

	default:
		rc.parent.AppendChild(node)
	}
}

func (rc *renderContext) element(el lang.Element) {
	attrs := el.Attrs

	if use := strings.TrimSpace(attrs.Value("use")); use != "" {
		attrs = rc.resolveUse(el, use)
	}

	kind := LookupKind(el.Selector)

	switch kind {
	case KindID:
		rc.idElement(el, attrs)

		return

	case KindUnknown:
		if c, ok := rc.reg.Component(el.Selector); ok {
			rc.component(el, c, attrs)

			return
		}
	}

	node := rc.build(kind, el, attrs)

	switch kind {
	case KindList, KindOrderedList:
		rc.place(node)
		rc.list = node

	case KindItem:
		if rc.list != nil {
			rc.list.AppendChild(node)
		} else {
			rc.place(node)
		}

	case KindRow:
		rc.parent.AppendChild(node)
		rc.row = node
		rc.col = nil

	case KindColumn:
		if rc.row != nil {
			rc.row.AppendChild(node)
		} else {
			rc.place(node)
		}

		if el.Text == "" {
			rc.col = node
		}

	default:
		rc.place(node)
	}
}

// resolveUse merges the named attribute bundles beneath attrs. Several
// names may be given separated by commas; earlier names win.
func (rc *renderContext) resolveUse(el lang.Element, use string) lang.Attrs {
	attrs := el.Attrs

	for name := range strings.SplitSeq(use, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		base, ok := rc.reg.Extend(name)
		if !ok {
			err := ErrUnresolvedReference.With(
				slog.String("extend", name), slog.Int("line", el.Line))
			rc.log.WarnContext(rc.ctx, "unknown extend", slog.Any("error", err))

			continue
		}

		attrs = attrs.Under(base)
	}

	return attrs
}

// idElement registers the function of a .id element and renders the
// hidden holder its block is shown in.
func (rc *renderContext) idElement(el lang.Element, attrs lang.Attrs) {
	id := attrs.Value("id")
	if id == "" {
		id = el.Text
	}

	if id == "" {
		rc.log.WarnContext(rc.ctx, "id element without identifier", slog.Any("error",
			lang.ErrMalformedLine.With(slog.Int("line", el.Line))))

		return
	}

	if name, body, ok := lang.ParseFunction(attrs.Value("function")); ok {
		if err := rc.reg.Register(id, name, body); err != nil {
			rc.log.WarnContext(rc.ctx, "id element function ignored",
				slog.Int("line", el.Line), slog.Any("error", err))
		}
	}

	holder := newHolder(id)
	setAttr(holder, attrLine, strconv.Itoa(el.Line))
	rc.place(holder)
	rc.reg.BindPlaceholder(id, holder)
	rc.record(el, KindID, attrs, holder)
}

func (rc *renderContext) component(el lang.Element, c Component, attrs lang.Attrs) {
	if rc.depth >= rc.maxDepth {
		err := ErrMaxDepthExceeded.With(
			slog.String("component", c.Name), slog.Int("line", el.Line))
		rc.log.WarnContext(rc.ctx, "component not expanded", slog.Any("error", err))

		return
	}

	attrs = attrs.Under(c.Attrs)

	container := newElement("div")
	addClass(container, "tm-component", "tm-"+strings.ToLower(c.Name))
	rc.applyAttrs(container, KindBox, el, attrs)

	rc.sub(container).render(c.Nodes)
	rc.place(container)
}

// build creates the node for an element.
func (rc *renderContext) build(kind ElementKind, el lang.Element, attrs lang.Attrs) *html.Node {
	node := newElement(kind.tag(el.Selector))

	switch kind {
	case KindUnknown:
		addClass(node, "tm-"+el.Selector)

		err := ErrUnknownSelector.With(slog.String("selector", el.Selector), slog.Int("line", el.Line))
		if s := suggest(el.Selector, Selectors()); s != "" {
			err = err.With(slog.String("suggest", s))
		}

		rc.log.DebugContext(rc.ctx, "rendering unknown selector as container", slog.Any("error", err))

		if el.Text != "" {
			node.AppendChild(newText(el.Text))
		}

	case KindLink:
		href := rc.url(el, first(attrs, "href", "url", "#"))
		if href == "" {
			href = "#"
		}

		setAttr(node, "href", href)
		node.AppendChild(newText(first(attrs, "text", "", el.Text)))

	case KindImage:
		setAttr(node, "src", rc.url(el, first(attrs, "src", "url", "")))
		setAttr(node, "alt", first(attrs, "alt", "", el.Text))

	case KindVideo, KindAudio:
		setAttr(node, "src", rc.url(el, first(attrs, "src", "url", "")))
		setAttr(node, "controls", "")

		if el.Text != "" {
			node.AppendChild(newText(el.Text))
		}

	case KindInput:
		setAttr(node, "type", first(attrs, "type", "", "text"))

		if el.Text != "" && !attrs.Has("placeholder") {
			setAttr(node, "placeholder", el.Text)
		}

	case KindCheckbox:
		setAttr(node, "type", "checkbox")

		if el.Text != "" {
			label := newElement("label")
			label.AppendChild(node)
			label.AppendChild(newText(" " + el.Text))
			rc.applyAttrs(node, kind, el, attrs)

			return label
		}

	case KindSelect:
		selected := attrs.Value("value")

		for opt := range strings.SplitSeq(attrs.Value("options"), ",") {
			if opt = strings.TrimSpace(opt); opt == "" {
				continue
			}

			o := newElement("option")
			setAttr(o, "value", opt)

			if opt == selected {
				setAttr(o, "selected", "")
			}

			o.AppendChild(newText(opt))
			node.AppendChild(o)
		}

	case KindCode:
		code := newElement("code")
		code.AppendChild(newText(el.Text))
		node.AppendChild(code)

	case KindRule, KindBreak:

	case KindRow:
		addClass(node, "tm-row")

	case KindColumn:
		addClass(node, "tm-col")

		if el.Text != "" {
			node.AppendChild(newText(el.Text))
		}

	case KindCard, KindCenter:
		addClass(node, "tm-"+kind.String())

		if el.Text != "" {
			node.AppendChild(newText(el.Text))
		}

	default:
		if el.Text != "" {
			node.AppendChild(newText(el.Text))
		}
	}

	rc.applyAttrs(node, kind, el, attrs)

	return node
}

// scriptSchemes are the URL schemes a browser runs as script.
var scriptSchemes = []string{"javascript:", "vbscript:"}

// url returns v, or "" when v runs script and the pass lacks the capability.
func (rc *renderContext) url(el lang.Element, v string) string {
	if rc.allowScript {
		return v
	}

	// Browsers ignore ASCII whitespace and control bytes inside a scheme.
	scheme := strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}

		return r
	}, strings.ToLower(v))

	for _, s := range scriptSchemes {
		if strings.HasPrefix(scheme, s) {
			err := ErrCapabilityDenied.With(
				slog.String("selector", el.Selector),
				slog.Int("line", el.Line),
				slog.String("url", v))
			rc.log.WarnContext(rc.ctx, "script url dropped", slog.Any("error", err))

			return ""
		}
	}

	return v
}

// first returns the value of key, else of alt, else def.
func first(attrs lang.Attrs, key, alt, def string) string {
	if v, ok := attrs.Get(key); ok {
		return v
	}

	if alt != "" {
		if v, ok := attrs.Get(alt); ok {
			return v
		}
	}

	return def
}

// htmlAttrs are copied to the output node unchanged.
var htmlAttrs = []string{
	"id", "title", "name", "value", "placeholder", "target", "for", "role",
	"rows", "cols", "min", "max", "step", "pattern", "lang", "dir", "tabindex",
}

var booleanAttrs = []string{
	"checked", "disabled", "required", "readonly", "autoplay", "loop", "muted", "multiple",
}

// handledAttrs are consumed by the renderer without being copied.
var handledAttrs = map[string]bool{
	"class": true, "href": true, "url": true, "src": true, "alt": true,
	"type": true, "text": true, "options": true, "use": true, "function": true,
	"onclick": true, "onload": true, "style": true, "animation": true, "css": true,
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "true", "yes", "1", "on":
		return true
	default:
		return false
	}
}

// applyAttrs writes the attribute-derived classes, HTML attributes, inline
// style and event bindings of an element onto node.
func (rc *renderContext) applyAttrs(node *html.Node, kind ElementKind, el lang.Element, attrs lang.Attrs) {
	var style declarations

	style.merge(kindPreset(kind))

	if kind == KindButton {
		variant := strings.ToLower(first(attrs, "style", "", DefaultVariant))
		if _, ok := variants[variant]; !ok {
			rc.warnPreset("button style", variant, Variants(), el)
			variant = DefaultVariant
		}

		addClass(node, "tm-btn", "tm-btn-"+variant)
		style.merge(variants[variant])
	}

	addClass(node, attrs.Value("class"))

	for _, key := range htmlAttrs {
		v, ok := attrs.Get(key)
		if !ok || key == "value" && kind == KindSelect {
			continue
		}

		setAttr(node, key, v)
	}

	for _, key := range booleanAttrs {
		if v, ok := attrs.Get(key); ok && isTrue(v) {
			setAttr(node, key, "")
		}
	}

	for k, v := range attrs.All() {
		switch {
		case strings.HasPrefix(k, "data-"), strings.HasPrefix(k, "aria-"):
			setAttr(node, k, v)
		case handledAttrs[k], styleKeys[k], slices.Contains(htmlAttrs, k), slices.Contains(booleanAttrs, k):
		default:
			rc.log.DebugContext(rc.ctx, "ignoring attribute",
				slog.String("selector", el.Selector),
				slog.String("key", k),
				slog.Int("line", el.Line))
		}
	}

	if name := strings.ToLower(attrs.Value("animation")); name != "" {
		if slices.Contains(animations, name) {
			addClass(node, "tm-anim-"+name)
		} else {
			rc.warnPreset("animation", name, animations, el)
		}
	}

	style.merge(styleFromAttrs(attrs))

	css := strings.TrimSpace(attrs.Value("css"))
	if kind != KindButton {
		if raw := strings.TrimSpace(attrs.Value("style")); raw != "" {
			css = strings.TrimSuffix(raw, ";") + "; " + css
		}
	}

	inline := style.String()
	if css = strings.Trim(strings.TrimSpace(css), ";"); css != "" {
		if inline != "" {
			inline += "; "
		}

		inline += css
	}

	if inline != "" {
		setAttr(node, "style", inline)
	}

	rc.bindEvents(node, el, attrs)
	rc.record(el, kind, attrs, node)
}

func (rc *renderContext) warnPreset(what, name string, known []string, el lang.Element) {
	err := ErrUnknownPreset.With(
		slog.String("preset", what),
		slog.String("name", name),
		slog.Int("line", el.Line))

	if s := suggest(name, known); s != "" {
		err = err.With(slog.String("suggest", s))
	}

	rc.log.WarnContext(rc.ctx, "unknown "+what, slog.Any("error", err))
}

// bindEvents stores the onclick and onload actions of an element on its
// node. Onload actions are queued for after the pass.
func (rc *renderContext) bindEvents(node *html.Node, el lang.Element, attrs lang.Attrs) {
	onclick, onload := attrs.Value("onclick"), attrs.Value("onload")

	if name, body, ok := lang.ParseFunction(attrs.Value("function")); ok {
		switch name {
		case "onclick":
			onclick = body
		case "onload":
			onload = body
		}
	}

	if onclick = strings.TrimSpace(onclick); onclick != "" {
		setAttr(node, attrOnClick, onclick)
		rc.gate(node, onclick)
	}

	if onload = strings.TrimSpace(onload); onload != "" {
		setAttr(node, attrOnLoad, onload)
		rc.gate(node, onload)
		rc.pass.onload = append(rc.pass.onload, onload)
	}

	if onclick != "" || onload != "" {
		setAttr(node, attrLine, strconv.Itoa(el.Line))
	}
}

// gate marks node disabled when its action needs a capability the pass
// does not have.
func (rc *renderContext) gate(node *html.Node, action string) {
	if rc.allowScript || !usesScript(action) {
		return
	}

	setAttr(node, attrDisabled, "js")
	setAttr(node, "aria-disabled", "true")
	addClass(node, "tm-disabled")
}

func (rc *renderContext) record(el lang.Element, kind ElementKind, attrs lang.Attrs, node *html.Node) {
	rc.pass.records = append(rc.pass.records, Record{
		Selector: el.Selector,
		Kind:     kind.String(),
		Line:     el.Line,
		Tag:      node.Data,
		ID:       attrValue(node, "id"),
		Class:    attrValue(node, "class"),
		Style:    attrValue(node, "style"),
		OnClick:  attrValue(node, attrOnClick),
		OnLoad:   attrValue(node, attrOnLoad),
		Attrs:    attrs,
	})
}
