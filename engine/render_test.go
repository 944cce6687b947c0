package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/tinymark-lang/tinymark-lang.github.io/lang"
)

func TestRenderNodeFault(t *testing.T) {
	e, buf := newTestEngine(t)
	root := newElement("div")

	// A context without a registry faults on every definition.
	rc := &renderContext{
		ctx:      t.Context(),
		log:      e.log,
		maxDepth: DefaultMaxDepth,
		pass:     &pass{},
		parent:   root,
	}

	rc.render([]lang.Node{
		lang.Text{Text: "before"},
		lang.HideBlock{ID: "x", Body: `.t "hidden"`},
		lang.Text{Text: "after"},
	})

	got, err := innerHTML(root)
	if err != nil {
		t.Fatal(err)
	}

	if want := "<p>before</p><p>after</p>"; got != want {
		t.Errorf("rendered %q, want %q", got, want)
	}

	if !strings.Contains(buf.String(), "render node failed") {
		t.Errorf("fault not logged:\n%s", buf)
	}
}

func TestRenderFault(t *testing.T) {
	e, buf := newTestEngine(t)
	in := mount(t, e, `.t "ok"`)

	// Definitions are collected outside the per-node recovery.
	in.reg = nil

	err := in.SetSource(t.Context(), ".extend e color:red\n.t \"x\"")
	if !errors.Is(err, ErrRender) {
		t.Fatalf("SetSource() error = %v, want %v", err, ErrRender)
	}

	var children int
	for c := in.Root().FirstChild; c != nil; c = c.NextSibling {
		children++
	}

	if children != 1 {
		t.Fatalf("root children = %d, want 1", children)
	}

	n := in.Root().FirstChild
	if !hasClass(n, "tm-error") || attrValue(n, "role") != "alert" {
		t.Errorf("root child = %s, want an error node", instanceHTML(t, in))
	}

	if !strings.Contains(buf.String(), "render failed") {
		t.Errorf("fault not logged:\n%s", buf)
	}
}
