package lang

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tinymark-lang/tinymark-lang.github.io/log"
)

var cmpAttrs = cmp.Comparer(func(a, b Attrs) bool {
	return cmp.Equal(pairs(a), pairs(b))
})

func parse(t *testing.T, src string) *Document {
	t.Helper()

	return Parse(t.Context(), src)
}

func TestParseLines(t *testing.T) {
	src := strings.Join([]string{
		"# comment",
		"// another",
		"",
		`.h1 "Title" color:red`,
		"plain words",
		`.btn "Go" style:classic`,
		".row",
	}, "\n")

	want := []Node{
		Element{Position: Position{4, 1}, Selector: "h1", Text: "Title", Attrs: MakeAttrs("color", "red")},
		Text{Position: Position{5, 1}, Text: "plain words"},
		Element{Position: Position{6, 1}, Selector: "btn", Text: "Go", Attrs: MakeAttrs("style", "classic")},
		Element{Position: Position{7, 1}, Selector: "row"},
	}

	doc := parse(t, src)

	if diff := cmp.Diff(want, doc.Nodes, cmpAttrs); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}

	if len(doc.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", doc.Warnings)
	}
}

func TestParseMalformedLine(t *testing.T) {
	tests := []string{
		`.t "unterminated`,
		".9abc",
		".",
		".t:x",
		"...ellipsis",
		".placeholder",
		".endhide",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			doc := parse(t, src+"\n.t \"after\"")

			if len(doc.Nodes) != 1 {
				t.Fatalf("nodes = %d, want only the following line", len(doc.Nodes))
			}

			if len(doc.Warnings) != 1 || !errors.Is(doc.Warnings[0], ErrMalformedLine) {
				t.Errorf("warnings = %v, want one ErrMalformedLine", doc.Warnings)
			}
		})
	}
}

func TestParseBalancedFunctionBody(t *testing.T) {
	src := ".id \"x\" function:oncall(\n  call:show:a\n  call:hide:b\n)\n.t \"next\""

	doc := parse(t, src)

	if len(doc.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2: %#v", len(doc.Nodes), doc.Nodes)
	}

	el, ok := doc.Nodes[0].(Element)
	if !ok {
		t.Fatalf("first node is %T", doc.Nodes[0])
	}

	if el.Pos() != (Position{Line: 1, Lines: 4}) {
		t.Errorf("position = %+v, want line 1 spanning 4", el.Pos())
	}

	kind, body, ok := el.Function()
	if !ok || kind != "oncall" {
		t.Fatalf("Function() = %q, %q, %v", kind, body, ok)
	}

	if body != "\n  call:show:a\n  call:hide:b\n" {
		t.Errorf("body = %q", body)
	}

	if next := doc.Nodes[1].(Element); next.Text != "next" || next.Line != 5 {
		t.Errorf("following node = %+v", next)
	}
}

func TestParseFunctionBodyTail(t *testing.T) {
	src := ".btn \"b\" function:onclick(\n  call:toggle:menu (now)\n) color:red"

	doc := parse(t, src)
	el := doc.Nodes[0].(Element)

	if el.Attrs.Value("color") != "red" {
		t.Errorf("tail attribute lost: %v", el.Attrs)
	}

	_, body, _ := el.Function()
	if body != "\n  call:toggle:menu (now)\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParseFunctionBodyIgnoresQuotedParens(t *testing.T) {
	src := ".btn \"b\" function:onclick(\n  js:say(\")\")\n)\n.t \"after\""

	doc := parse(t, src)

	if len(doc.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(doc.Nodes))
	}

	_, body, _ := doc.Nodes[0].(Element).Function()
	if body != "\n  js:say(\")\")\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParseUnterminatedFunctionBody(t *testing.T) {
	var buf bytes.Buffer

	logger := log.Make(&buf, log.WithPretty(false))
	doc := Parse(t.Context(), ".id \"f\" function:oncall(\n  call:show:a\n  call:hide:b", WithLogger(logger))

	if len(doc.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(doc.Nodes))
	}

	_, body, _ := doc.Nodes[0].(Element).Function()
	if body != "\n  call:show:a\n  call:hide:b" {
		t.Errorf("body = %q", body)
	}

	if len(doc.Warnings) != 1 || !errors.Is(doc.Warnings[0], ErrMalformedFunctionBody) {
		t.Errorf("warnings = %v", doc.Warnings)
	}

	if !strings.Contains(buf.String(), `"level":"WARN"`) {
		t.Errorf("warning not logged: %s", buf.String())
	}
}

func TestParseHideBlock(t *testing.T) {
	src := ".hide id:p1\n.t \"secret\"\n  indented verbatim\n.endhide\n.placeholder id:p1"

	want := []Node{
		HideBlock{Position: Position{1, 4}, ID: "p1", Body: ".t \"secret\"\n  indented verbatim"},
		Placeholder{Position: Position{5, 1}, ID: "p1"},
	}

	doc := parse(t, src)

	if diff := cmp.Diff(want, doc.Nodes, cmpAttrs); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHideBlockClosers(t *testing.T) {
	tests := []struct {
		name string
		src  string
		id   string
		body string
	}{
		{"matching id", ".hide id:a\nx\n.endhide id:a", "a", "x"},
		{"other id is content", ".hide id:a\n.endhide id:b\n.endhide", "a", ".endhide id:b"},
		{"inline text id", ".hide \"menu\"\nx\n.endhide", "menu", "x"},
		{"anonymous", ".hide\nx\n.endhide", "hide-1", "x"},
		{"empty", ".hide id:e\n.endhide", "e", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.src)

			if len(doc.Nodes) != 1 {
				t.Fatalf("nodes = %d, want 1", len(doc.Nodes))
			}

			hb := doc.Nodes[0].(HideBlock)
			if hb.ID != tt.id || hb.Body != tt.body {
				t.Errorf("got (%q, %q), want (%q, %q)", hb.ID, hb.Body, tt.id, tt.body)
			}
		})
	}
}

func TestParseAnonymousHideIDs(t *testing.T) {
	doc := parse(t, ".hide\na\n.endhide\n.hide\nb\n.endhide")

	var ids []string
	for _, n := range doc.Nodes {
		ids = append(ids, n.(HideBlock).ID)
	}

	if diff := cmp.Diff([]string{"hide-1", "hide-2"}, ids); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
}

func TestParseUnterminatedHideBlock(t *testing.T) {
	doc := parse(t, ".t \"before\"\n.hide id:x\n.t \"a\"\n.t \"b\"")

	if len(doc.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(doc.Nodes))
	}

	hb := doc.Nodes[1].(HideBlock)
	if hb.Body != ".t \"a\"\n.t \"b\"" {
		t.Errorf("body = %q", hb.Body)
	}

	if len(doc.Warnings) != 1 || !errors.Is(doc.Warnings[0], ErrUnterminatedHideBlock) {
		t.Errorf("warnings = %v", doc.Warnings)
	}
}

func TestParseExtendAndComponent(t *testing.T) {
	src := strings.Join([]string{
		".extend danger color:white bg:red",
		".extend name:muted color:gray",
		".component badge padding:4",
		`.span "new" use:danger`,
		".endcomponent",
		".end",
	}, "\n")

	want := []Node{
		Extend{Position: Position{1, 1}, Name: "danger", Attrs: MakeAttrs("color", "white", "bg", "red")},
		Extend{Position: Position{2, 1}, Name: "muted", Attrs: MakeAttrs("color", "gray")},
		ComponentStart{Position: Position{3, 1}, Name: "badge", Attrs: MakeAttrs("padding", "4")},
		Element{Position: Position{4, 1}, Selector: "span", Text: "new", Attrs: MakeAttrs("use", "danger")},
		ComponentEnd{Position: Position{5, 1}},
		ComponentEnd{Position: Position{6, 1}},
	}

	if diff := cmp.Diff(want, parse(t, src).Nodes, cmpAttrs); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestWarningsCarryLine(t *testing.T) {
	doc := parse(t, ".t \"ok\"\n\n.t \"bad")

	if len(doc.Warnings) != 1 {
		t.Fatalf("warnings = %v", doc.Warnings)
	}

	var e *Error
	if !errors.As(doc.Warnings[0], &e) {
		t.Fatalf("warning is %T", doc.Warnings[0])
	}

	found := false
	for _, a := range e.Attrs() {
		if a.Key == "line" && a.Value.Int64() == 3 {
			found = true
		}
	}

	if !found {
		t.Errorf("line attribute missing: %v", e.Attrs())
	}
}

func TestParseCached(t *testing.T) {
	t.Cleanup(ClearCache)

	src := ".t \"cached\""

	a := ParseCached(t.Context(), src)
	b := ParseCached(t.Context(), src)

	if a != b {
		t.Error("identical sources parsed twice")
	}

	ClearCache()

	if c := ParseCached(t.Context(), src); c == a {
		t.Error("ClearCache kept the entry")
	}
}

func TestCacheEvicts(t *testing.T) {
	c := NewCache(2)

	a := c.Parse(t.Context(), `.t "a"`)
	c.Parse(t.Context(), `.t "b"`)

	// Touch a so b is the least recently used.
	if got := c.Parse(t.Context(), `.t "a"`); got != a {
		t.Error("cached parse of a not reused")
	}

	b := c.Parse(t.Context(), `.t "c"`)
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	if got := c.Parse(t.Context(), `.t "a"`); got != a {
		t.Error("recently used entry evicted")
	}

	if got := c.Parse(t.Context(), `.t "c"`); got != b {
		t.Error("newest entry evicted")
	}

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}

func TestCacheReplaysWarnings(t *testing.T) {
	const src = ".hide id:x\n.t \"a\""

	c := NewCache(4)

	for i := range 2 {
		var buf bytes.Buffer

		logger := log.Make(&buf, log.WithPretty(false))
		doc := c.Parse(t.Context(), src, WithLogger(logger))

		if len(doc.Warnings) != 1 {
			t.Fatalf("parse %d: warnings = %v", i, doc.Warnings)
		}

		if n := strings.Count(buf.String(), `"level":"WARN"`); n != 1 {
			t.Errorf("parse %d: logged warnings = %d, want 1", i, n)
		}
	}
}

func TestParseReader(t *testing.T) {
	t.Cleanup(ClearCache)

	doc, err := ParseReader(t.Context(), strings.NewReader(".h2 \"from reader\"\n"))
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Nodes) != 1 || doc.Nodes[0].(Element).Text != "from reader" {
		t.Errorf("nodes = %#v", doc.Nodes)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	src := strings.Join([]string{
		`.h1 "Hello" color:red title:"two words"`,
		"text line",
		".hide id:h\n.t \"inner\"\n.endhide",
		".placeholder id:h",
		".extend e size:3",
	}, "\n")

	first := parse(t, src)

	var buf bytes.Buffer
	if err := first.Format(&buf); err != nil {
		t.Fatal(err)
	}

	second := parse(t, buf.String())

	if diff := cmp.Diff(first.Nodes, second.Nodes, cmpAttrs,
		cmpopts.IgnoreTypes(Position{})); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestFormatJSONAndYAML(t *testing.T) {
	doc := parse(t, ".t \"x\" color:red\n.placeholder id:p")

	var j bytes.Buffer
	if err := doc.FormatJSON(&j, 0); err != nil {
		t.Fatal(err)
	}

	wantJSON := `[{"kind":"element","line":1,"selector":"t","text":"x","attrs":{"color":"red"}},{"kind":"placeholder","line":2,"id":"p"}]`
	if strings.TrimSpace(j.String()) != wantJSON {
		t.Errorf("json = %s", j.String())
	}

	var y bytes.Buffer
	if err := doc.FormatYAML(&y, 2); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"kind: element", "selector: t", "color: red", "id: p"} {
		if !strings.Contains(y.String(), want) {
			t.Errorf("yaml missing %q:\n%s", want, y.String())
		}
	}

	var p bytes.Buffer
	if err := doc.Print(&p); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(p.String(), ".t \"x\" {color:red}") {
		t.Errorf("print = %s", p.String())
	}
}
