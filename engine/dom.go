package engine

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attribute names the renderer writes on output nodes.
const (
	attrPlaceholder = "data-tm-placeholder"
	attrOnClick     = "data-tm-onclick"
	attrOnLoad      = "data-tm-onload"
	attrDisabled    = "data-tm-disabled"
	attrInstance    = "data-tm-instance"
	attrLine        = "data-tm-line"
)

func newElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

func newText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// newHolder returns the hidden, empty node a block is shown in.
func newHolder(id string) *html.Node {
	n := newElement("div")
	setAttr(n, attrPlaceholder, id)
	setAttr(n, "hidden", "")

	return n
}

func newErrorNode(msg string) *html.Node {
	n := newElement("div")
	setAttr(n, "class", "tm-error")
	setAttr(n, "role", "alert")
	n.AppendChild(newText(msg))

	return n
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}

	return "", false
}

func attrValue(n *html.Node, key string) string {
	v, _ := getAttr(n, key)

	return v
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := getAttr(n, key)

	return ok
}

// setAttr replaces the value of key or appends it.
func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val

			return
		}
	}

	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)

			return
		}
	}
}

func addClass(n *html.Node, class ...string) {
	fields := strings.Fields(attrValue(n, "class"))

	for _, c := range class {
		for _, f := range strings.Fields(c) {
			if !slices.Contains(fields, f) {
				fields = append(fields, f)
			}
		}
	}

	if len(fields) > 0 {
		setAttr(n, "class", strings.Join(fields, " "))
	}
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attrValue(n, "class")), class)
}

func clearChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}

// visible reports whether a placeholder currently shows content.
func visible(n *html.Node) bool {
	return n != nil && !hasAttr(n, "hidden") && n.FirstChild != nil
}

// attached reports whether n is still part of the tree rooted at root.
func attached(n, root *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}

	return false
}

// findByID returns the first element below root whose id is id.
func findByID(root *html.Node, id string) *html.Node {
	var found *html.Node

	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attrValue(n, "id") == id {
			found = n

			return false
		}

		return true
	})

	return found
}

// walk visits n and its descendants depth first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}

	return true
}

func textContent(n *html.Node) string {
	var sb strings.Builder

	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}

		return true
	})

	return sb.String()
}

// innerHTML serializes the children of n.
func innerHTML(n *html.Node) (string, error) {
	var sb strings.Builder

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return sb.String(), err
		}
	}

	return sb.String(), nil
}
