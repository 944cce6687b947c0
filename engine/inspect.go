package engine

import "github.com/tinymark-lang/tinymark-lang.github.io/lang"

// Record describes one rendered element.
type Record struct {
	Selector string     `json:"selector"          yaml:"selector"`
	Kind     string     `json:"kind"              yaml:"kind"`
	Line     int        `json:"line"              yaml:"line"`
	Tag      string     `json:"tag"               yaml:"tag"`
	ID       string     `json:"id,omitempty"      yaml:"id,omitempty"`
	Class    string     `json:"class,omitempty"   yaml:"class,omitempty"`
	Style    string     `json:"style,omitempty"   yaml:"style,omitempty"`
	OnClick  string     `json:"onclick,omitempty" yaml:"onclick,omitempty"`
	OnLoad   string     `json:"onload,omitempty"  yaml:"onload,omitempty"`
	Attrs    lang.Attrs `json:"attrs"             yaml:"attrs"`
}
