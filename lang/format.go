package lang

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes the document back in canonical source form: one directive
// per line, inline text quoted, attributes in their parsed order.
// Comments and blank lines are not preserved.
func (d *Document) Format(w io.Writer) error {
	for _, n := range d.Nodes {
		if _, err := io.WriteString(w, formatNode(n)+"\n"); err != nil {
			return err
		}
	}

	return nil
}

func formatNode(n Node) string {
	directive := func(sel, text string, attrs Attrs) string {
		var sb strings.Builder

		sb.WriteByte('.')
		sb.WriteString(sel)

		if text != "" {
			sb.WriteString(` "` + text + `"`)
		}

		if attrs.Len() > 0 {
			sb.WriteByte(' ')
			sb.WriteString(attrs.String())
		}

		return sb.String()
	}

	switch n := n.(type) {
	case Element:
		return directive(n.Selector, n.Text, n.Attrs)
	case Text:
		return n.Text
	case Extend:
		return directive("extend "+n.Name, "", n.Attrs)
	case ComponentStart:
		return directive("component "+n.Name, "", n.Attrs)
	case ComponentEnd:
		return ".endcomponent"
	case HideBlock:
		return ".hide id:" + n.ID + "\n" + n.Body + "\n.endhide"
	case Placeholder:
		return ".placeholder id:" + n.ID
	default:
		return ""
	}
}

// FormatJSON writes the node sequence as a JSON array. A positive indent
// pretty-prints it.
func (d *Document) FormatJSON(w io.Writer, indent int) error {
	views := d.views()

	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(views, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(views)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the node sequence as a YAML sequence.
func (d *Document) FormatYAML(w io.Writer, indent int) error {
	opts := []yaml.EncodeOption{yaml.UseLiteralStyleIfMultiline(true)}
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent), yaml.IndentSequence(true))
	}

	data, err := yaml.MarshalWithOptions(d.views(), opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

// Print writes a one-line-per-node outline of the document.
func (d *Document) Print(w io.Writer) error {
	for _, n := range d.Nodes {
		v := makeView(n)

		line := fmt.Sprintf("%-6s %-12s", n.Pos(), v.Kind)

		switch {
		case v.Selector != "":
			line += " ." + v.Selector
		case v.Name != "":
			line += " " + v.Name
		case v.ID != "":
			line += " #" + v.ID
		}

		if v.Text != "" {
			line += fmt.Sprintf(" %q", v.Text)
		}

		if v.Attrs != nil {
			line += " {" + v.Attrs.String() + "}"
		}

		if v.Body != "" {
			line += fmt.Sprintf(" body=%q", v.Body)
		}

		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}

	return nil
}

func (d *Document) views() []view {
	views := make([]view, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		views = append(views, makeView(n))
	}

	return views
}
