package engine

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/tinymark-lang/tinymark-lang.github.io/lang"
)

// FunctionKind classifies a registered function body.
type FunctionKind int

const (
	// FunctionOnCall bodies run when invoked with call:<id>.
	FunctionOnCall FunctionKind = iota
	// FunctionAppear bodies are hidden blocks revealed by show or toggle.
	FunctionAppear
	// FunctionDisappear is accepted as a synonym of [FunctionAppear].
	FunctionDisappear
)

func (k FunctionKind) String() string {
	switch k {
	case FunctionOnCall:
		return "oncall"
	case FunctionAppear:
		return "appear"
	case FunctionDisappear:
		return "disappear"
	default:
		return "unknown"
	}
}

// ParseFunctionKind maps a function attribute name to its kind.
func ParseFunctionKind(s string) (FunctionKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oncall":
		return FunctionOnCall, true
	case "appear":
		return FunctionAppear, true
	case "disappear":
		return FunctionDisappear, true
	default:
		return 0, false
	}
}

// Function is a registered callable body.
type Function struct {
	Kind FunctionKind
	Body string
}

// Component is a named node list expanded wherever its name is used as a
// selector.
type Component struct {
	Name  string
	Attrs lang.Attrs
	Nodes []lang.Node
}

// Registry holds the named definitions shared by every instance of an
// [Engine]: hidden blocks, callable functions, attribute bundles,
// components and the placeholder nodes blocks are shown in.
//
// A Registry is not safe for concurrent use. It is owned by the goroutine
// driving the engine. Definitions persist until overwritten; the last
// declaration of a name wins.
type Registry struct {
	hidden       map[string]string
	funcs        map[string]Function
	extends      map[string]lang.Attrs
	components   map[string]Component
	placeholders map[string]*html.Node
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		hidden:       make(map[string]string),
		funcs:        make(map[string]Function),
		extends:      make(map[string]lang.Attrs),
		components:   make(map[string]Component),
		placeholders: make(map[string]*html.Node),
	}
}

// Clone returns a copy of the definitions. Placeholders are not copied:
// they refer to nodes of live render trees.
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	maps.Copy(c.hidden, r.hidden)
	maps.Copy(c.funcs, r.funcs)
	maps.Copy(c.extends, r.extends)
	maps.Copy(c.components, r.components)

	return c
}

// Register stores body under id according to kind, which is one of
// "appear", "disappear" or "oncall".
func (r *Registry) Register(id, kind, body string) error {
	k, ok := ParseFunctionKind(kind)
	if !ok {
		return ErrUnknownFunctionKind.With(slog.String("id", id), slog.String("kind", kind))
	}

	switch k {
	case FunctionAppear, FunctionDisappear:
		r.SetHidden(id, body)
	case FunctionOnCall:
		r.SetFunction(id, Function{Kind: k, Body: body})
	}

	return nil
}

func (r *Registry) SetHidden(id, body string) { r.hidden[id] = body }

// Hidden returns the body of the hidden block id.
func (r *Registry) Hidden(id string) (string, bool) {
	body, ok := r.hidden[id]

	return body, ok
}

func (r *Registry) SetFunction(id string, fn Function) { r.funcs[id] = fn }

// Function returns the callable registered as id.
func (r *Registry) Function(id string) (Function, bool) {
	fn, ok := r.funcs[id]

	return fn, ok
}

func (r *Registry) SetExtend(name string, attrs lang.Attrs) {
	r.extends[strings.ToLower(name)] = attrs
}

// Extend returns the attribute bundle declared as name.
func (r *Registry) Extend(name string) (lang.Attrs, bool) {
	attrs, ok := r.extends[strings.ToLower(name)]

	return attrs, ok
}

func (r *Registry) SetComponent(c Component) {
	r.components[strings.ToLower(c.Name)] = c
}

// Component returns the component declared as name.
func (r *Registry) Component(name string) (Component, bool) {
	c, ok := r.components[strings.ToLower(name)]

	return c, ok
}

// BindPlaceholder makes n the node block id is shown in. A previous binding
// is replaced.
func (r *Registry) BindPlaceholder(id string, n *html.Node) { r.placeholders[id] = n }

// Placeholder returns the node bound to id, or nil.
func (r *Registry) Placeholder(id string) *html.Node { return r.placeholders[id] }

// IDs returns the sorted identifiers of all hidden blocks and functions.
func (r *Registry) IDs() []string {
	ids := slices.Collect(maps.Keys(r.hidden))
	for id := range r.funcs {
		if _, dup := r.hidden[id]; !dup {
			ids = append(ids, id)
		}
	}

	slices.Sort(ids)

	return ids
}
