package engine

import (
	"strconv"
	"strings"

	"github.com/tinymark-lang/tinymark-lang.github.io/lang"
)

// declarations is an ordered list of CSS declarations. Setting a property
// again replaces its value in place.
type declarations struct {
	props []string
	vals  map[string]string
}

func (d *declarations) set(prop, val string) {
	if d.vals == nil {
		d.vals = make(map[string]string)
	}

	if _, ok := d.vals[prop]; !ok {
		d.props = append(d.props, prop)
	}

	d.vals[prop] = val
}

func (d *declarations) merge(other []declaration) {
	for _, decl := range other {
		d.set(decl.prop, decl.val)
	}
}

func (d *declarations) String() string {
	parts := make([]string, 0, len(d.props))
	for _, p := range d.props {
		parts = append(parts, p+": "+d.vals[p])
	}

	return strings.Join(parts, "; ")
}

type declaration struct{ prop, val string }

// styleRule maps attribute keys to a CSS property.
type styleRule struct {
	keys   []string
	prop   string
	length bool
	value  func(string) string
}

const shadowPreset = "0 2px 8px rgba(0, 0, 0, 0.15)"

// styleTable is applied in order, so inline styles are deterministic.
var styleTable = []styleRule{
	{keys: []string{"color"}, prop: "color"},
	{keys: []string{"bg", "background"}, prop: "background"},
	{keys: []string{"font"}, prop: "font-family"},
	{keys: []string{"size", "font-size"}, prop: "font-size", length: true},
	{keys: []string{"weight"}, prop: "font-weight"},
	{keys: []string{"align"}, prop: "text-align"},
	{keys: []string{"padding"}, prop: "padding", length: true},
	{keys: []string{"margin"}, prop: "margin", length: true},
	{keys: []string{"radius"}, prop: "border-radius", length: true},
	{keys: []string{"shadow"}, prop: "box-shadow", value: shadow},
	{keys: []string{"border"}, prop: "border"},
	{keys: []string{"width"}, prop: "width", length: true},
	{keys: []string{"height"}, prop: "height", length: true},
	{keys: []string{"display"}, prop: "display"},
	{keys: []string{"direction"}, prop: "flex-direction"},
	{keys: []string{"justify"}, prop: "justify-content"},
	{keys: []string{"items"}, prop: "align-items"},
	{keys: []string{"flex"}, prop: "flex"},
	{keys: []string{"gap"}, prop: "gap", length: true},
	{keys: []string{"opacity"}, prop: "opacity"},
}

// styleKeys holds every attribute key consumed by styleTable.
var styleKeys = func() map[string]bool {
	m := make(map[string]bool)
	for _, r := range styleTable {
		for _, k := range r.keys {
			m[k] = true
		}
	}

	return m
}()

func shadow(v string) string {
	switch strings.ToLower(v) {
	case "true", "yes", "1", "on":
		return shadowPreset
	case "false", "no", "0", "off", "none":
		return "none"
	default:
		return v
	}
}

// withUnits appends "px" to every purely numeric field of v.
func withUnits(v string) string {
	fields := strings.Fields(v)
	for i, f := range fields {
		if _, err := strconv.ParseFloat(f, 64); err == nil {
			fields[i] = f + "px"
		}
	}

	return strings.Join(fields, " ")
}

// styleFromAttrs returns the declarations derived from attrs.
func styleFromAttrs(attrs lang.Attrs) []declaration {
	var out []declaration

	for _, r := range styleTable {
		for _, k := range r.keys {
			v, ok := attrs.Get(k)
			if !ok || strings.TrimSpace(v) == "" {
				continue
			}

			switch {
			case r.value != nil:
				v = r.value(v)
			case r.length:
				v = withUnits(v)
			}

			out = append(out, declaration{r.prop, v})

			break
		}
	}

	return out
}

// kindPreset returns the built-in declarations of a layout element.
func kindPreset(k ElementKind) []declaration {
	switch k {
	case KindRow:
		return []declaration{{"display", "flex"}, {"flex-wrap", "wrap"}, {"gap", "8px"}}
	case KindColumn:
		return []declaration{{"display", "flex"}, {"flex-direction", "column"}, {"flex", "1"}}
	case KindCard:
		return []declaration{
			{"padding", "16px"},
			{"border-radius", "8px"},
			{"box-shadow", shadowPreset},
			{"background", "#fff"},
		}
	case KindCenter:
		return []declaration{{"text-align", "center"}, {"margin", "0 auto"}}
	default:
		return nil
	}
}

// Button variants.
const (
	VariantModern    = "modern"
	VariantClassic   = "classic"
	VariantCartoonic = "cartoonic"
	DefaultVariant   = VariantModern
)

var variants = map[string][]declaration{
	VariantModern: {
		{"padding", "8px 16px"},
		{"border", "none"},
		{"border-radius", "6px"},
		{"background", "#2563eb"},
		{"color", "#fff"},
		{"cursor", "pointer"},
	},
	VariantClassic: {
		{"padding", "4px 12px"},
		{"border", "1px solid #888"},
		{"border-radius", "2px"},
		{"background", "#eee"},
		{"color", "#111"},
		{"cursor", "pointer"},
	},
	VariantCartoonic: {
		{"padding", "8px 18px"},
		{"border", "3px solid #111"},
		{"border-radius", "14px"},
		{"box-shadow", "3px 3px 0 #111"},
		{"background", "#ffd43b"},
		{"color", "#111"},
		{"font-weight", "bold"},
		{"cursor", "pointer"},
	},
}

// Variants returns the button variant names.
func Variants() []string {
	return []string{VariantModern, VariantClassic, VariantCartoonic}
}

var animations = []string{
	"hover", "fade", "pop",
	"slide-left", "slide-right", "slide-up", "slide-down",
	"shake",
}

// Animations returns the animation preset names.
func Animations() []string { return append([]string(nil), animations...) }
