package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tinymark-lang/tinymark-lang.github.io/lang"
	"github.com/tinymark-lang/tinymark-lang.github.io/log"
)

// Instance owns one rendered subtree and the source it is rendered from.
//
// Methods must be called on the goroutine that owns the [Engine].
type Instance struct {
	engine *Engine
	reg    *Registry
	log    log.Logger
	id     int
	root   *html.Node

	source      string
	remote      string
	allowScript bool

	// gen increases with every source change; a fetch result carrying an
	// older value is discarded.
	gen uint64
	// failed holds the url of a fetch that failed; the instance keeps
	// rendering the error node until its source changes.
	failed string

	records []Record
	// detached instances are not listed by the engine and run no onload
	// actions.
	detached bool
}

// InstanceOption configures an [Instance].
type InstanceOption func(*Instance)

// WithAllowScript grants the instance the capability to run js: actions.
func WithAllowScript(allow bool) InstanceOption {
	return func(in *Instance) { in.allowScript = allow }
}

// WithRemote makes the instance render the text fetched from url instead of
// its inline source.
func WithRemote(url string) InstanceOption {
	return func(in *Instance) { in.remote = strings.TrimSpace(url) }
}

func newInstance(e *Engine, reg *Registry, id int, source string, opts ...InstanceOption) *Instance {
	in := &Instance{
		engine: e,
		reg:    reg,
		log:    e.log.With(slog.Int("instance", id)),
		id:     id,
		root:   newElement("div"),
		source: source,
	}

	setAttr(in.root, "class", "tinymark")
	setAttr(in.root, attrInstance, strconv.Itoa(id))

	for _, opt := range opts {
		opt(in)
	}

	return in
}

// Root returns the node the instance renders into.
func (in *Instance) Root() *html.Node { return in.root }

// Source returns the current source text.
func (in *Instance) Source() string { return in.source }

// AllowScript reports whether js: actions may run.
func (in *Instance) AllowScript() bool { return in.allowScript }

// Records returns the inspection records of the last render pass.
func (in *Instance) Records() []Record { return in.records }

// Render replaces the instance's tree with a fresh rendering of its source.
// An unexpected fault leaves a single error node in place of the tree and
// is returned as [ErrRender].
func (in *Instance) Render(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			clearChildren(in.root)
			in.root.AppendChild(newErrorNode("TinyMark: render failed"))

			err = ErrRender.With(slog.String("panic", fmt.Sprint(r)))
			in.log.ErrorContext(ctx, "render failed", slog.Any("error", err))
		}
	}()

	clearChildren(in.root)

	if in.failed != "" {
		in.root.AppendChild(newErrorNode("TinyMark: failed to load " + in.failed))
		in.records = nil

		return nil
	}

	p := &pass{}

	in.context(ctx, in.root, p).render(in.parse(ctx, in.source).Nodes)
	in.records = p.records
	in.queueOnload(ctx, p, 0)

	in.log.TraceContext(ctx, "rendered",
		slog.Int("records", len(p.records)),
		slog.Int("onload", len(p.onload)))

	return nil
}

// queueOnload posts the onload actions collected by p to the engine's
// [Loop]. Detached instances run none. depth counts the onload actions
// that led to this pass, so a block that keeps showing itself stops.
func (in *Instance) queueOnload(ctx context.Context, p *pass, depth int) {
	if in.detached || len(p.onload) == 0 {
		return
	}

	if depth >= in.engine.maxDepth {
		_ = in.warn(ctx, "onload not run",
			ErrMaxDepthExceeded.With(slog.Int("depth", depth), slog.Int("actions", len(p.onload))))

		return
	}

	for _, action := range p.onload {
		in.engine.loop.Post(func(ctx context.Context) {
			_ = in.run(ctx, action, depth)
		})
	}
}

func (in *Instance) parse(ctx context.Context, src string) *lang.Document {
	return in.engine.cache.Parse(ctx, src, lang.WithLogger(in.log))
}

func (in *Instance) context(ctx context.Context, parent *html.Node, p *pass) *renderContext {
	return &renderContext{
		ctx:         ctx,
		log:         in.log,
		reg:         in.reg,
		allowScript: in.allowScript,
		maxDepth:    in.engine.maxDepth,
		pass:        p,
		parent:      parent,
	}
}

// live reports whether n belongs to this instance or another live one.
func (in *Instance) live(n *html.Node) bool {
	if attached(n, in.root) {
		return true
	}

	for _, other := range in.engine.instances {
		if other != in && attached(n, other.root) {
			return true
		}
	}

	return false
}

// SetSource replaces the source text and re-renders. Any fetch still in
// flight is superseded.
func (in *Instance) SetSource(ctx context.Context, src string) error {
	in.gen++
	in.source = src
	in.remote = ""
	in.failed = ""

	return in.Render(ctx)
}

// SetAllowScript changes the script capability and re-renders.
func (in *Instance) SetAllowScript(ctx context.Context, allow bool) error {
	in.allowScript = allow

	return in.Render(ctx)
}

// SetRemote starts fetching the source from url. The result is applied on
// the engine's [Loop] only if no newer source change happened meanwhile.
func (in *Instance) SetRemote(ctx context.Context, url string) {
	in.gen++
	in.remote = url
	in.failed = ""

	gen, fetcher, loop := in.gen, in.engine.fetcher, in.engine.loop

	in.log.DebugContext(ctx, "fetching source", slog.String("url", url))

	go func() {
		src, err := fetcher.Fetch(ctx, url)
		loop.Post(func(ctx context.Context) {
			in.applyFetch(ctx, gen, url, src, err)
		})
	}()
}

func (in *Instance) applyFetch(ctx context.Context, gen uint64, url, src string, err error) {
	if gen != in.gen {
		in.log.DebugContext(ctx, "discarding stale fetch",
			slog.String("url", url),
			slog.Uint64("gen", gen),
			slog.Uint64("current", in.gen))

		return
	}

	if err != nil {
		err = ErrFetchFailure.Wrap(err).With(slog.String("url", url))
		in.log.WarnContext(ctx, "cannot load source", slog.Any("error", err))

		in.failed = url
		_ = in.Render(ctx)

		return
	}

	in.source = src
	_ = in.Render(ctx)
}

// Dispatch runs an action string on behalf of the instance.
func (in *Instance) Dispatch(ctx context.Context, action string) error {
	return in.run(ctx, action, 0)
}

// Click runs the onclick action bound to n, if any.
func (in *Instance) Click(ctx context.Context, n *html.Node) error {
	action, ok := getAttr(n, attrOnClick)
	if !ok {
		return nil
	}

	return in.Dispatch(ctx, action)
}

// Find returns the element with the given id in the instance tree, or nil.
func (in *Instance) Find(id string) *html.Node {
	return findByID(in.root, strings.TrimPrefix(id, "#"))
}

// ElementIDs returns the ids of the elements in the instance tree in
// document order.
func (in *Instance) ElementIDs() []string {
	var ids []string

	walk(in.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if id := attrValue(n, "id"); id != "" {
				ids = append(ids, id)
			}
		}

		return true
	})

	return ids
}

// RegisterID stores body under id in the shared registry.
func (in *Instance) RegisterID(id, kind, body string) error {
	return in.reg.Register(id, kind, body)
}

// Show renders the hidden block id into its placeholder.
func (in *Instance) Show(ctx context.Context, id string) error { return in.show(ctx, id, 0) }

// Hide empties and hides the placeholder of id.
func (in *Instance) Hide(_ context.Context, id string) error { return in.hide(id) }

// Toggle shows id when its placeholder is hidden or empty, else hides it.
func (in *Instance) Toggle(ctx context.Context, id string) error { return in.toggle(ctx, id, 0) }

// CallFunction invokes the function registered as id.
func (in *Instance) CallFunction(ctx context.Context, id string) error {
	return in.call(ctx, id, 0)
}

// Visible reports whether the placeholder of id currently shows content.
func (in *Instance) Visible(id string) bool {
	n := in.reg.Placeholder(id)

	return n != nil && in.live(n) && visible(n)
}

// HTML serializes the instance tree, root included.
func (in *Instance) HTML() (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, in.root); err != nil {
		return "", err
	}

	return sb.String(), nil
}
