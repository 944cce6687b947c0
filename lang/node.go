package lang

import "strconv"

// Kind identifies the concrete type of a [Node].
type Kind int

const (
	KindElement Kind = iota
	KindText
	KindExtend
	KindComponentStart
	KindComponentEnd
	KindHideBlock
	KindPlaceholder
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindExtend:
		return "extend"
	case KindComponentStart:
		return "component"
	case KindComponentEnd:
		return "endcomponent"
	case KindHideBlock:
		return "hide"
	case KindPlaceholder:
		return "placeholder"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Position locates a node in its source.
type Position struct {
	// Line is the 1-based number of the node's first line.
	Line int
	// Lines is the number of physical lines the node spans.
	Lines int
}

func (p Position) Pos() Position { return p }

func (p Position) String() string {
	if p.Lines > 1 {
		return strconv.Itoa(p.Line) + "-" + strconv.Itoa(p.Line+p.Lines-1)
	}

	return strconv.Itoa(p.Line)
}

// Node is one parsed construct. The set of implementations is closed.
type Node interface {
	Kind() Kind
	Pos() Position
	node()
}

// Element is a selector line: .selector "text" key:value ...
type Element struct {
	Position
	Selector string
	Text     string
	Attrs    Attrs
}

// Text is a line that is not a directive.
type Text struct {
	Position
	Text string
}

// Extend declares a named attribute bundle for use:NAME.
type Extend struct {
	Position
	Name  string
	Attrs Attrs
}

// ComponentStart opens a component definition.
type ComponentStart struct {
	Position
	Name  string
	Attrs Attrs
}

// ComponentEnd closes the innermost open component definition.
type ComponentEnd struct {
	Position
}

// HideBlock is a region registered under ID without being shown.
// Body is the region's source, verbatim.
type HideBlock struct {
	Position
	ID   string
	Body string
}

// Placeholder marks where the block ID is shown.
type Placeholder struct {
	Position
	ID string
}

func (Element) Kind() Kind        { return KindElement }
func (Text) Kind() Kind           { return KindText }
func (Extend) Kind() Kind         { return KindExtend }
func (ComponentStart) Kind() Kind { return KindComponentStart }
func (ComponentEnd) Kind() Kind   { return KindComponentEnd }
func (HideBlock) Kind() Kind      { return KindHideBlock }
func (Placeholder) Kind() Kind    { return KindPlaceholder }

func (Element) node()        {}
func (Text) node()           {}
func (Extend) node()         {}
func (ComponentStart) node() {}
func (ComponentEnd) node()   {}
func (HideBlock) node()      {}
func (Placeholder) node()    {}

// Function returns the kind and body of the element's function attribute.
func (e Element) Function() (kind, body string, ok bool) {
	v, has := e.Attrs.Get("function")
	if !has {
		return "", "", false
	}

	return ParseFunction(v)
}

// view is the serialized form of a node.
type view struct {
	Kind     string `json:"kind"               yaml:"kind"`
	Line     int    `json:"line"               yaml:"line"`
	Lines    int    `json:"lines,omitempty"    yaml:"lines,omitempty"`
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`
	Name     string `json:"name,omitempty"     yaml:"name,omitempty"`
	ID       string `json:"id,omitempty"       yaml:"id,omitempty"`
	Text     string `json:"text,omitempty"     yaml:"text,omitempty"`
	Body     string `json:"body,omitempty"     yaml:"body,omitempty"`
	Attrs    *Attrs `json:"attrs,omitempty"    yaml:"attrs,omitempty"`
}

func makeView(n Node) view {
	v := view{Kind: n.Kind().String(), Line: n.Pos().Line}
	if n.Pos().Lines > 1 {
		v.Lines = n.Pos().Lines
	}

	attrs := func(a Attrs) *Attrs {
		if a.Len() == 0 {
			return nil
		}

		return &a
	}

	switch n := n.(type) {
	case Element:
		v.Selector, v.Text, v.Attrs = n.Selector, n.Text, attrs(n.Attrs)
	case Text:
		v.Text = n.Text
	case Extend:
		v.Name, v.Attrs = n.Name, attrs(n.Attrs)
	case ComponentStart:
		v.Name, v.Attrs = n.Name, attrs(n.Attrs)
	case HideBlock:
		v.ID, v.Body = n.ID, n.Body
	case Placeholder:
		v.ID = n.ID
	}

	return v
}
