package engine

import (
	"context"
	_ "embed"
	"errors"
	"slices"

	"github.com/tinymark-lang/tinymark-lang.github.io/lang"
	"github.com/tinymark-lang/tinymark-lang.github.io/log"
)

// DefaultMaxDepth bounds nested function calls and component expansion.
const DefaultMaxDepth = 16

// Stylesheet styles the classes the renderer emits. Hosts include it once
// per document.
//
//go:embed style.css
var Stylesheet string

// Engine renders TinyMark source into instances that share one [Registry].
//
// An Engine and everything it returns are owned by a single goroutine;
// only the [Loop] accepts work from others.
type Engine struct {
	reg      *Registry
	log      log.Logger
	host     Host
	fetcher  Fetcher
	loop     *Loop
	cache    *lang.Cache
	funcs    map[string]ScriptFunc
	maxDepth int

	instances []*Instance
	nextID    int
}

// Option configures an [Engine].
type Option func(*Engine)

// WithRegistry shares reg instead of creating a new registry.
func WithRegistry(reg *Registry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.reg = reg
		}
	}
}

func WithLogger(logger log.Logger) Option {
	return func(e *Engine) { e.log = logger }
}

// WithHost sets the receiver of navigate and copy actions.
func WithHost(host Host) Option {
	return func(e *Engine) {
		if host != nil {
			e.host = host
		}
	}
}

// WithFetcher sets how remote sources are retrieved.
func WithFetcher(f Fetcher) Option {
	return func(e *Engine) {
		if f != nil {
			e.fetcher = f
		}
	}
}

// WithScriptFunc makes fn callable as name from js: actions.
func WithScriptFunc(name string, fn ScriptFunc) Option {
	return func(e *Engine) { e.funcs[name] = fn }
}

// WithCacheSize bounds the number of parsed sources the engine keeps.
func WithCacheSize(n int) Option {
	return func(e *Engine) { e.cache = lang.NewCache(n) }
}

func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// New returns an engine with an empty registry, a silent logger, a host
// that ignores requests and an HTTP fetcher without timeout, overridden by
// opts.
func New(opts ...Option) *Engine {
	e := &Engine{
		reg:      NewRegistry(),
		host:     nopHost{},
		fetcher:  NewHTTPFetcher(0),
		loop:     NewLoop(),
		cache:    lang.NewCache(lang.DefaultCacheSize),
		funcs:    make(map[string]ScriptFunc),
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Engine) Registry() *Registry { return e.reg }

// Loop returns the queue of deferred work: onload actions and fetch
// completions. The owner drains it.
func (e *Engine) Loop() *Loop { return e.loop }

func (e *Engine) Logger() log.Logger { return e.log }

// Instances returns the live instances in mount order.
func (e *Engine) Instances() []*Instance { return slices.Clone(e.instances) }

// Mount creates an instance for src and renders it. With [WithRemote] the
// inline source is ignored and the fetch is started instead.
func (e *Engine) Mount(ctx context.Context, src string, opts ...InstanceOption) (*Instance, error) {
	e.nextID++

	in := newInstance(e, e.reg, e.nextID, src, opts...)
	e.instances = append(e.instances, in)

	if in.remote != "" {
		in.source = ""
		in.SetRemote(ctx, in.remote)

		return in, nil
	}

	return in, in.Render(ctx)
}

// Unmount removes in from the engine. Its tree is left as is.
func (e *Engine) Unmount(in *Instance) {
	e.instances = slices.DeleteFunc(e.instances, func(x *Instance) bool { return x == in })
}

// RenderAll re-renders every live instance.
func (e *Engine) RenderAll(ctx context.Context) error {
	var errs []error

	for _, in := range e.instances {
		if err := in.Render(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// detached renders src on a copy of the registry without the script
// capability. Nothing it does is visible to the engine.
func (e *Engine) detached(ctx context.Context, src string) (*Instance, error) {
	in := newInstance(e, e.reg.Clone(), 0, src)
	in.detached = true

	return in, in.Render(ctx)
}

// ToHTML renders src to serialized markup. The engine's registry and
// instances are not modified.
func (e *Engine) ToHTML(ctx context.Context, src string) (string, error) {
	in, err := e.detached(ctx, src)
	if err != nil {
		return "", err
	}

	return innerHTML(in.root)
}

// Inspect renders src like [Engine.ToHTML] and returns one record per
// rendered element.
func (e *Engine) Inspect(ctx context.Context, src string) ([]Record, error) {
	in, err := e.detached(ctx, src)
	if err != nil {
		return nil, err
	}

	return in.records, nil
}
