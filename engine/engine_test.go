package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tinymark-lang/tinymark-lang.github.io/log"
)

// newTestEngine returns an engine logging warnings as JSON into the
// returned buffer.
func newTestEngine(t *testing.T, opts ...Option) (*Engine, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer

	logger := log.Make(&buf,
		log.WithFormat(log.FormatJSON),
		log.WithPretty(false),
		log.WithLevel(log.LevelWarn),
	)

	return New(append([]Option{WithLogger(logger)}, opts...)...), &buf
}

func warnings(buf *bytes.Buffer) int {
	return strings.Count(buf.String(), `"level":"WARN"`)
}

func mount(t *testing.T, e *Engine, src string, opts ...InstanceOption) *Instance {
	t.Helper()

	in, err := e.Mount(t.Context(), src, opts...)
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}

	return in
}

func toHTML(t *testing.T, e *Engine, src string) string {
	t.Helper()

	out, err := e.ToHTML(t.Context(), src)
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}

	return out
}

func instanceHTML(t *testing.T, in *Instance) string {
	t.Helper()

	out, err := in.HTML()
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}

	return out
}

func TestToHTML(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "heading with style",
			src:  `.h2 "Hi" color:red size:18`,
			want: `<h2 style="color: red; font-size: 18px">Hi</h2>`,
		},
		{
			name: "plain text",
			src:  "hello there",
			want: `<p>hello there</p>`,
		},
		{
			name: "link",
			src:  `.link "Docs" url:https://example.com target:_blank`,
			want: `<a href="https://example.com" target="_blank">Docs</a>`,
		},
		{
			name: "list",
			src:  ".ul\n.li \"one\"\n.li \"two\"",
			want: `<ul><li>one</li><li>two</li></ul>`,
		},
		{
			name: "item without list",
			src:  `.li "alone"`,
			want: `<li>alone</li>`,
		},
		{
			name: "unknown selector",
			src:  `.fancy "x"`,
			want: `<div class="tm-fancy">x</div>`,
		},
		{
			name: "data attributes",
			src:  `.span "s" data-kind:note`,
			want: `<span data-kind="note">s</span>`,
		},
		{
			name: "code",
			src:  `.code "x := 1"`,
			want: `<pre><code>x := 1</code></pre>`,
		},
		{
			name: "select options",
			src:  `.select options:"a,b" value:b`,
			want: `<select><option value="a">a</option><option value="b" selected="">b</option></select>`,
		},
		{
			name: "placeholder",
			src:  ".placeholder id:p",
			want: `<div data-tm-placeholder="p" hidden=""></div>`,
		},
		{
			name: "component",
			src:  ".component badge color:red\n.span \"new\"\n.endcomponent\n.badge",
			want: `<div class="tm-component tm-badge" style="color: red"><span>new</span></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)

			if diff := cmp.Diff(tt.want, toHTML(t, e, tt.src)); diff != "" {
				t.Errorf("ToHTML() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToHTMLIsPure(t *testing.T) {
	e, _ := newTestEngine(t)

	src := ".hide id:x\n.t \"s\"\n.endhide\n.extend big size:30\n.h1 \"T\" use:big"

	first := toHTML(t, e, src)
	second := toHTML(t, e, src)

	if first != second {
		t.Errorf("ToHTML() not deterministic:\n%s\n%s", first, second)
	}

	if _, ok := e.Registry().Hidden("x"); ok {
		t.Error("ToHTML() registered a hidden block in the shared registry")
	}

	if _, ok := e.Registry().Extend("big"); ok {
		t.Error("ToHTML() registered an extend in the shared registry")
	}

	if n := len(e.Instances()); n != 0 {
		t.Errorf("Instances() = %d, want 0", n)
	}
}

func TestRenderIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	in := mount(t, e, ".row\n.t \"a\"\n.btn \"b\" animation:pop")

	before := instanceHTML(t, in)

	if err := e.RenderAll(t.Context()); err != nil {
		t.Fatalf("RenderAll() error = %v", err)
	}

	if diff := cmp.Diff(before, instanceHTML(t, in)); diff != "" {
		t.Errorf("re-render mismatch (-first +second):\n%s", diff)
	}
}

func TestRowColumnGrouping(t *testing.T) {
	e, _ := newTestEngine(t)

	want := `<div class="tm-row" style="display: flex; flex-wrap: wrap; gap: 8px">` +
		`<div class="tm-flex-item" style="flex: 1"><p>a</p></div>` +
		`<div class="tm-col" style="display: flex; flex-direction: column; flex: 1"><p>b</p></div>` +
		`<div class="tm-flex-item" style="flex: 1"><p>c</p></div>` +
		`</div>`

	got := toHTML(t, e, ".row\n.t \"a\"\n.col\n.t \"b\"\n.t \"c\"")

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestColumnWithTextKeepsNoSlot(t *testing.T) {
	e, _ := newTestEngine(t)

	got := toHTML(t, e, ".row\n.col \"left\"\n.t \"x\"")

	if !strings.Contains(got, `flex: 1">left</div><div class="tm-flex-item" style="flex: 1"><p>x</p></div>`) {
		t.Errorf("column with text captured the next element:\n%s", got)
	}
}

func TestHideRegionShow(t *testing.T) {
	e, buf := newTestEngine(t)
	in := mount(t, e, ".hide id:p1\n.t \"secret\"\n.endhide\n.placeholder id:p1")

	if strings.Contains(instanceHTML(t, in), "secret") {
		t.Fatal("hidden block rendered before show")
	}

	if err := in.Show(t.Context(), "p1"); err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	if n := strings.Count(instanceHTML(t, in), "<p>secret</p>"); n != 1 {
		t.Errorf("shown block count = %d, want 1", n)
	}

	if n := warnings(buf); n != 0 {
		t.Errorf("warnings = %d, want 0:\n%s", n, buf)
	}
}

func TestToggleLaw(t *testing.T) {
	e, _ := newTestEngine(t)
	in := mount(t, e, ".hide id:p\n.t \"body\"\n.endhide\n.placeholder id:p")
	ctx := t.Context()

	if err := in.Show(ctx, "p"); err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	want := in.Visible("p")

	for i, wantVisible := range []bool{!want, want} {
		if err := in.Toggle(ctx, "p"); err != nil {
			t.Fatalf("Toggle() #%d error = %v", i+1, err)
		}

		if got := in.Visible("p"); got != wantVisible {
			t.Errorf("Visible() after toggle #%d = %v, want %v", i+1, got, wantVisible)
		}
	}

	if n := strings.Count(instanceHTML(t, in), "<p>body</p>"); n != 1 {
		t.Errorf("block rendered %d times, want 1", n)
	}
}

func TestToggleFollowsNodeState(t *testing.T) {
	e, _ := newTestEngine(t)
	in := mount(t, e, ".hide id:p\n.t \"body\"\n.endhide\n.placeholder id:p")
	ctx := t.Context()

	if err := in.Show(ctx, "p"); err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	// Hidden from outside the engine.
	clearChildren(e.Registry().Placeholder("p"))

	if err := in.Toggle(ctx, "p"); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}

	if !in.Visible("p") {
		t.Error("Toggle() of an emptied placeholder did not show it")
	}
}

func TestShowUnregistered(t *testing.T) {
	e, buf := newTestEngine(t)
	in := mount(t, e, `.t "static"`)
	before := instanceHTML(t, in)

	err := in.Show(t.Context(), "nope")
	if !errors.Is(err, ErrUnresolvedReference) {
		t.Fatalf("Show() error = %v, want %v", err, ErrUnresolvedReference)
	}

	if diff := cmp.Diff(before, instanceHTML(t, in)); diff != "" {
		t.Errorf("Show() changed the tree (-before +after):\n%s", diff)
	}

	if n := warnings(buf); n != 1 {
		t.Errorf("warnings = %d, want 1:\n%s", n, buf)
	}
}

func TestShowCreatesMissingPlaceholder(t *testing.T) {
	e, _ := newTestEngine(t)
	in := mount(t, e, ".hide id:late\n.t \"appended\"\n.endhide\n.t \"first\"")

	if err := in.Dispatch(t.Context(), "call:unhide:late"); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	got := instanceHTML(t, in)
	if !strings.HasSuffix(got, `<p>first</p><div data-tm-placeholder="late"><p>appended</p></div></div>`) {
		t.Errorf("placeholder not appended to the root:\n%s", got)
	}
}

func TestHideWithoutPlaceholder(t *testing.T) {
	e, buf := newTestEngine(t)
	in := mount(t, e, `.t "x"`)

	if err := in.Hide(t.Context(), "ghost"); err != nil {
		t.Errorf("Hide() error = %v", err)
	}

	if n := warnings(buf); n != 0 {
		t.Errorf("warnings = %d, want 0", n)
	}
}

func TestBalancedFunctionBody(t *testing.T) {
	e, _ := newTestEngine(t)
	in := mount(t, e, ".id \"x\" function:oncall(\n  call:show:a\n  call:hide:b\n)")

	fn, ok := e.Registry().Function("x")
	if !ok {
		t.Fatal("function x not registered")
	}

	for _, want := range []string{"call:show:a", "call:hide:b"} {
		if !strings.Contains(fn.Body, want) {
			t.Errorf("body %q does not contain %q", fn.Body, want)
		}
	}

	if n := len(in.Records()); n != 1 {
		t.Errorf("records = %d, want 1", n)
	}

	var children int
	for c := in.Root().FirstChild; c != nil; c = c.NextSibling {
		children++
	}

	if children != 1 {
		t.Errorf("root children = %d, want 1 holder", children)
	}
}

func TestCallFunction(t *testing.T) {
	src := strings.Join([]string{
		".hide id:a",
		`.t "A"`,
		".endhide",
		".placeholder id:a",
		`.id "open" function:oncall(call:show:a)`,
		`.id "menu" function:oncall(.t "item")`,
		`.id "soon" function:appear(.t "later")`,
	}, "\n")

	t.Run("script body", func(t *testing.T) {
		e, _ := newTestEngine(t)
		in := mount(t, e, src)

		if err := in.CallFunction(t.Context(), "open"); err != nil {
			t.Fatalf("CallFunction() error = %v", err)
		}

		if !in.Visible("a") {
			t.Error("block a not shown")
		}
	})

	t.Run("markup body", func(t *testing.T) {
		e, _ := newTestEngine(t)
		in := mount(t, e, src)

		if err := in.CallFunction(t.Context(), "menu"); err != nil {
			t.Fatalf("CallFunction() error = %v", err)
		}

		if !in.Visible("menu") || !strings.Contains(instanceHTML(t, in), "<p>item</p>") {
			t.Errorf("markup body not rendered:\n%s", instanceHTML(t, in))
		}
	})

	t.Run("appear registers hidden block", func(t *testing.T) {
		e, _ := newTestEngine(t)
		in := mount(t, e, src)

		if err := in.Toggle(t.Context(), "soon"); err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}

		if !strings.Contains(instanceHTML(t, in), "<p>later</p>") {
			t.Errorf("appear block not shown:\n%s", instanceHTML(t, in))
		}
	})

	t.Run("unregistered", func(t *testing.T) {
		e, buf := newTestEngine(t)
		in := mount(t, e, src)

		if err := in.CallFunction(t.Context(), "missing"); !errors.Is(err, ErrUnresolvedReference) {
			t.Errorf("CallFunction() error = %v, want %v", err, ErrUnresolvedReference)
		}

		if n := warnings(buf); n != 1 {
			t.Errorf("warnings = %d, want 1", n)
		}
	})
}

func TestCallDepthLimit(t *testing.T) {
	e, buf := newTestEngine(t, WithMaxDepth(4))
	in := mount(t, e, `.id "loop" function:oncall(call:loop)`)

	err := in.CallFunction(t.Context(), "loop")
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("CallFunction() error = %v, want %v", err, ErrMaxDepthExceeded)
	}

	if n := warnings(buf); n != 1 {
		t.Errorf("warnings = %d, want 1", n)
	}
}

func TestScriptCallDepth(t *testing.T) {
	var ticks int

	e, buf := newTestEngine(t, WithMaxDepth(4), WithScriptFunc("tick", func(...any) any {
		ticks++

		return nil
	}))
	in := mount(t, e, `.id "loop" function:oncall(js:tick() == nil && call('loop'))`, WithAllowScript(true))

	if err := in.CallFunction(t.Context(), "loop"); err != nil {
		t.Fatalf("CallFunction() error = %v", err)
	}

	if ticks != 4 {
		t.Errorf("ticks = %d, want 4", ticks)
	}

	if !strings.Contains(buf.String(), "maximum call depth exceeded") {
		t.Errorf("depth limit not logged:\n%s", buf)
	}
}

func TestCapabilityGate(t *testing.T) {
	const src = `.btn "Go" id:go function:onclick(js:doSomething())`

	var calls int

	e, buf := newTestEngine(t, WithScriptFunc("doSomething", func(...any) any {
		calls++

		return nil
	}))

	denied := mount(t, e, src)
	btn := denied.Find("go")

	if btn == nil {
		t.Fatal("button not rendered")
	}

	if got := attrValue(btn, attrDisabled); got != "js" {
		t.Errorf("%s = %q, want %q", attrDisabled, got, "js")
	}

	if err := denied.Click(t.Context(), btn); !errors.Is(err, ErrCapabilityDenied) {
		t.Errorf("Click() error = %v, want %v", err, ErrCapabilityDenied)
	}

	if calls != 0 {
		t.Fatalf("script ran %d times without capability", calls)
	}

	if n := warnings(buf); n != 1 {
		t.Errorf("warnings = %d, want 1", n)
	}

	allowed := mount(t, e, src, WithAllowScript(true))
	btn = allowed.Find("go")

	if hasAttr(btn, attrDisabled) {
		t.Error("button disabled on an instance with the capability")
	}

	for i := range 2 {
		if err := allowed.Click(t.Context(), btn); err != nil {
			t.Fatalf("Click() error = %v", err)
		}

		if calls != i+1 {
			t.Errorf("calls after click %d = %d, want %d", i+1, calls, i+1)
		}
	}

	urls := []struct {
		src   string
		attr  string
		want  string
		allow bool
		warn  int
	}{
		{`.link "x" id:u href:javascript:doSomething()`, "href", "#", false, 1},
		{`.link "x" id:u url:" JavaScript:alert(1)"`, "href", "#", false, 1},
		{`.img "x" id:u src:vbscript:msgbox`, "src", "", false, 1},
		{`.video id:u src:javascript:void(0)`, "src", "", false, 1},
		{`.link "x" id:u href:https://example.test/`, "href", "https://example.test/", false, 0},
		{`.link "x" id:u href:javascript:doSomething()`, "href", "javascript:doSomething()", true, 0},
	}

	for _, tt := range urls {
		e, buf := newTestEngine(t)
		in := mount(t, e, tt.src, WithAllowScript(tt.allow))

		if got := attrValue(in.Find("u"), tt.attr); got != tt.want {
			t.Errorf("%s: %s = %q, want %q", tt.src, tt.attr, got, tt.want)
		}

		if n := warnings(buf); n != tt.warn {
			t.Errorf("%s: warnings = %d, want %d", tt.src, n, tt.warn)
		}
	}

	e, _ = newTestEngine(t)
	if got := toHTML(t, e, `.link "x" href:javascript:doSomething()`); strings.Contains(got, "javascript:") {
		t.Errorf("ToHTML() kept a script url:\n%s", got)
	}
}

func TestScriptBlockOperations(t *testing.T) {
	e, _ := newTestEngine(t)
	in := mount(t, e, ".hide id:p\n.t \"x\"\n.endhide\n.placeholder id:p", WithAllowScript(true))

	if err := in.Dispatch(t.Context(), `js:show("p") && toggle("p")`); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if in.Visible("p") {
		t.Error("block visible after show then toggle")
	}

	err := in.Dispatch(t.Context(), "js:1 +")
	if !errors.Is(err, ErrScriptFailure) {
		t.Errorf("Dispatch() error = %v, want %v", err, ErrScriptFailure)
	}
}

type recordingHost struct {
	urls  []string
	clips []string
}

func (h *recordingHost) Navigate(_ context.Context, url string) error {
	h.urls = append(h.urls, url)

	return nil
}

func (h *recordingHost) WriteClipboard(_ context.Context, text string) error {
	h.clips = append(h.clips, text)

	return nil
}

func TestHostActions(t *testing.T) {
	host := &recordingHost{}
	e, _ := newTestEngine(t, WithHost(host))
	in := mount(t, e, strings.Join([]string{
		".ul id:list",
		`.li "b"`,
		`.li "c"`,
		`.li "a"`,
		`.t "copy me" id:msg`,
	}, "\n"))
	ctx := t.Context()

	dispatch := func(action string) {
		t.Helper()

		if err := in.Dispatch(ctx, action); err != nil {
			t.Fatalf("Dispatch(%q) error = %v", action, err)
		}
	}

	dispatch("sort=#list")

	if got := textContent(in.Find("list")); got != "abc" {
		t.Errorf("sorted = %q, want %q", got, "abc")
	}

	dispatch("sort=list,desc")

	if got := textContent(in.Find("list")); got != "cba" {
		t.Errorf("sorted desc = %q, want %q", got, "cba")
	}

	dispatch("copy=msg; navigate=https://example.com")

	if diff := cmp.Diff([]string{"copy me"}, host.clips); diff != "" {
		t.Errorf("clipboard mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"https://example.com"}, host.urls); diff != "" {
		t.Errorf("navigate mismatch (-want +got):\n%s", diff)
	}

	msg := in.Find("msg")

	dispatch("toggleclass=msg,active")

	if !hasClass(msg, "active") {
		t.Errorf("class not added: %q", attrValue(msg, "class"))
	}

	dispatch("toggleclass=#msg,active")

	if hasClass(msg, "active") {
		t.Errorf("class not removed: %q", attrValue(msg, "class"))
	}

	dispatch("modal=msg")

	if !hasClass(msg.Parent, "tm-modal") || attrValue(msg.Parent, "role") != "dialog" {
		t.Error("modal overlay not created")
	}

	dispatch("modal=msg")

	if msg.Parent != in.Root() {
		t.Error("modal overlay not removed")
	}
}

func TestActionErrors(t *testing.T) {
	tests := []struct {
		action string
		want   error
	}{
		{"copy=missing", ErrUnresolvedReference},
		{"sort=#nothing", ErrUnresolvedReference},
		{"bogus", ErrUnknownAction},
		{"toggleclass=msg", ErrUnknownAction},
		{"call:toggle:", ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			e, buf := newTestEngine(t)
			in := mount(t, e, `.t "m" id:msg`)

			if err := in.Dispatch(t.Context(), tt.action); !errors.Is(err, tt.want) {
				t.Errorf("Dispatch() error = %v, want %v", err, tt.want)
			}

			if n := warnings(buf); n != 1 {
				t.Errorf("warnings = %d, want 1", n)
			}
		})
	}
}

func TestOnload(t *testing.T) {
	e, _ := newTestEngine(t)
	in := mount(t, e, ".hide id:p\n.t \"loaded\"\n.endhide\n.placeholder id:p\n.t \"hi\" onload:call:show:p")

	if in.Visible("p") {
		t.Fatal("onload ran during render")
	}

	if n := e.Loop().Drain(t.Context()); n != 1 {
		t.Errorf("Drain() = %d, want 1", n)
	}

	if !in.Visible("p") {
		t.Error("onload action did not run")
	}

	if _, err := e.ToHTML(t.Context(), `.t "x" onload:call:show:p`); err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}

	if n := e.Loop().Len(); n != 0 {
		t.Errorf("ToHTML() queued %d onload actions", n)
	}
}

func TestOnloadInShownBlock(t *testing.T) {
	e, _ := newTestEngine(t)
	in := mount(t, e, strings.Join([]string{
		".hide id:p",
		`.t "inner" onload:call:show:q`,
		".endhide",
		".hide id:q",
		`.t "loaded"`,
		".endhide",
		".placeholder id:p",
		".placeholder id:q",
	}, "\n"))

	if err := in.Show(t.Context(), "p"); err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	if in.Visible("q") {
		t.Fatal("onload ran during show")
	}

	if n := e.Loop().Drain(t.Context()); n != 1 {
		t.Errorf("Drain() = %d, want 1", n)
	}

	if !in.Visible("q") {
		t.Error("onload of shown block did not run")
	}
}

func TestOnloadShowingItselfStops(t *testing.T) {
	e, buf := newTestEngine(t, WithMaxDepth(3))
	in := mount(t, e, ".hide id:p\n.t \"again\" onload:call:show:p\n.endhide\n.placeholder id:p")

	if err := in.Show(t.Context(), "p"); err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	if n := e.Loop().Drain(t.Context()); n != 2 {
		t.Errorf("Drain() = %d, want 2", n)
	}

	if !strings.Contains(buf.String(), "maximum call depth exceeded") {
		t.Errorf("depth limit not logged:\n%s", buf)
	}
}

func TestUseResolvesLaterExtend(t *testing.T) {
	e, buf := newTestEngine(t)

	got := toHTML(t, e, ".btn \"Go\" use:primary\n.extend primary color:white bg:black")

	for _, want := range []string{`class="tm-btn tm-btn-modern"`, "background: black", "color: white"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %s does not contain %q", got, want)
		}
	}

	if n := warnings(buf); n != 0 {
		t.Errorf("warnings = %d, want 0", n)
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains string
		warnings int
	}{
		{"variant", `.btn "x" style:cartoonic`, "tm-btn-cartoonic", 0},
		{"unknown variant", `.btn "x" style:retro`, "tm-btn-modern", 1},
		{"animation", `.t "x" animation:slide-up`, `class="tm-anim-slide-up"`, 0},
		{"unknown animation", `.t "x" animation:wobble`, "<p>x</p>", 1},
		{"unknown extend", `.t "x" use:nothing`, "<p>x</p>", 1},
		{"card", `.card "c" shadow:false`, "box-shadow: none", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, buf := newTestEngine(t)

			if got := toHTML(t, e, tt.src); !strings.Contains(got, tt.contains) {
				t.Errorf("output %s does not contain %q", got, tt.contains)
			}

			if n := warnings(buf); n != tt.warnings {
				t.Errorf("warnings = %d, want %d", n, tt.warnings)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	e, _ := newTestEngine(t)

	records, err := e.Inspect(t.Context(), ".h1 \"T\" color:red\n.btn \"B\" onclick:call:x")
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	if got := records[0]; got.Tag != "h1" || got.Style != "color: red" || got.Line != 1 {
		t.Errorf("records[0] = %+v", got)
	}

	if got := records[1]; got.Kind != "button" || got.OnClick != "call:x" || got.Line != 2 {
		t.Errorf("records[1] = %+v", got)
	}
}

func TestElementIDs(t *testing.T) {
	e, _ := newTestEngine(t)
	in := mount(t, e, ".h1 \"T\" id:title\n.row\n.btn \"B\" id:go\n.t \"plain\"")

	if diff := cmp.Diff([]string{"title", "go"}, in.ElementIDs()); diff != "" {
		t.Errorf("ElementIDs() mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoteSource(t *testing.T) {
	const url = "https://example.test/page.tm"

	wait := func(t *testing.T, e *Engine) {
		t.Helper()

		ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
		defer cancel()

		if err := e.Loop().Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}

		e.Loop().Drain(ctx)
	}

	t.Run("applied", func(t *testing.T) {
		e, _ := newTestEngine(t, WithFetcher(FetcherFunc(
			func(context.Context, string) (string, error) { return `.t "remote"`, nil })))
		in := mount(t, e, `.t "inline"`, WithRemote(url))

		wait(t, e)

		got := instanceHTML(t, in)
		if !strings.Contains(got, "<p>remote</p>") || strings.Contains(got, "inline") {
			t.Errorf("remote source not rendered:\n%s", got)
		}
	})

	t.Run("stale", func(t *testing.T) {
		release := make(chan struct{})
		e, _ := newTestEngine(t, WithFetcher(FetcherFunc(
			func(context.Context, string) (string, error) {
				<-release

				return `.t "remote"`, nil
			})))
		in := mount(t, e, "", WithRemote(url))

		if err := in.SetSource(t.Context(), `.t "local"`); err != nil {
			t.Fatalf("SetSource() error = %v", err)
		}

		close(release)
		wait(t, e)

		got := instanceHTML(t, in)
		if !strings.Contains(got, "<p>local</p>") || strings.Contains(got, "remote") {
			t.Errorf("stale fetch applied:\n%s", got)
		}
	})

	t.Run("failure", func(t *testing.T) {
		e, buf := newTestEngine(t, WithFetcher(FetcherFunc(
			func(context.Context, string) (string, error) { return "", errors.New("boom") })))
		in := mount(t, e, "", WithRemote(url))

		wait(t, e)

		if !strings.Contains(instanceHTML(t, in), `class="tm-error" role="alert"`) {
			t.Errorf("no error node:\n%s", instanceHTML(t, in))
		}

		if !strings.Contains(buf.String(), "fetch failed") {
			t.Errorf("fetch failure not logged:\n%s", buf)
		}

		if err := e.RenderAll(t.Context()); err != nil {
			t.Fatalf("RenderAll() error = %v", err)
		}

		if !strings.Contains(instanceHTML(t, in), `class="tm-error" role="alert"`) {
			t.Errorf("error node lost on re-render:\n%s", instanceHTML(t, in))
		}

		if err := in.SetSource(t.Context(), `.t "local"`); err != nil {
			t.Fatalf("SetSource() error = %v", err)
		}

		if got := instanceHTML(t, in); strings.Contains(got, "tm-error") {
			t.Errorf("error node kept after SetSource:\n%s", got)
		}
	})
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		action string
		want   []Statement
	}{
		{
			action: "call:show:a; call:hide:b",
			want: []Statement{
				{Verb: VerbShow, Arg: "a", Source: "call:show:a"},
				{Verb: VerbHide, Arg: "b", Source: "call:hide:b"},
			},
		},
		{
			action: "# note\ntoggle:menu\n\njs:f(); g()",
			want: []Statement{
				{Verb: VerbToggle, Arg: "menu", Source: "toggle:menu"},
				{Verb: VerbScript, Arg: "f(); g()", Source: "js:f(); g()"},
			},
		},
		{
			action: "call:open",
			want:   []Statement{{Verb: VerbCall, Arg: "open", Source: "call:open"}},
		},
		{
			action: "sort=list,desc",
			want:   []Statement{{Verb: VerbSort, Arg: "list,desc", Source: "sort=list,desc"}},
		},
		{
			action: "explode=now",
			want:   []Statement{{Verb: VerbUnknown, Source: "explode=now"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseAction(tt.action)); diff != "" {
				t.Errorf("ParseAction() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsMarkup(t *testing.T) {
	tests := map[string]bool{
		".t \"x\"":              true,
		"\n  # c\n  .h1 \"x\"": true,
		"call:show:a":          false,
		"":                     false,
	}

	for body, want := range tests {
		if got := isMarkup(body); got != want {
			t.Errorf("isMarkup(%q) = %v, want %v", body, got, want)
		}
	}
}
