package lang

import (
	"container/list"
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// DefaultCacheSize is the number of parses kept by [NewCache] when given a
// non-positive size, and by the package-level cache behind [ParseCached].
const DefaultCacheSize = 256

// Cache memoises parses keyed by the xxh3 hash of the source text, evicting
// the least recently used entry once full. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	size    int
	entries map[uint64]*list.Element
	lru     *list.List
}

type cached struct {
	key uint64
	src string
	doc *Document
}

// NewCache returns an empty cache holding at most size parses.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}

	return &Cache{
		size:    size,
		entries: make(map[uint64]*list.Element),
		lru:     list.New(),
	}
}

var defaultCache = NewCache(DefaultCacheSize)

// Parse returns the parse of src, reusing an earlier result for an
// identical text. A reused parse logs its warnings again through the
// logger in opts, so every caller sees the problems of the text it gave.
func (c *Cache) Parse(ctx context.Context, src string, opts ...Option) *Document {
	key := xxh3.HashString(src)

	if doc, ok := c.get(key, src); ok {
		replay(ctx, doc, opts)

		return doc
	}

	doc := Parse(ctx, src, opts...)
	c.put(key, src, doc)

	return doc
}

func (c *Cache) get(key uint64, src string) (*Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	// Collision: treat as a miss.
	if e.Value.(*cached).src != src {
		return nil, false
	}

	c.lru.MoveToFront(e)

	return e.Value.(*cached).doc, true
}

func (c *Cache) put(key uint64, src string, doc *Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.Value = &cached{key: key, src: src, doc: doc}
		c.lru.MoveToFront(e)

		return
	}

	for c.lru.Len() >= c.size {
		oldest := c.lru.Back()
		delete(c.entries, oldest.Value.(*cached).key)
		c.lru.Remove(oldest)
	}

	c.entries[key] = c.lru.PushFront(&cached{key: key, src: src, doc: doc})
}

// Len returns the number of cached parses.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Len()
}

// Clear drops every cached parse.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.lru.Init()
}

func replay(ctx context.Context, doc *Document, opts []Option) {
	if len(doc.Warnings) == 0 {
		return
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if o.source != "" {
		logger = logger.With(slog.String("source", o.source))
	}

	for _, err := range doc.Warnings {
		logger.WarnContext(ctx, "recovered parse error", slog.Any("error", err))
	}
}

// ParseCached parses src through the package-level cache.
func ParseCached(ctx context.Context, src string, opts ...Option) *Document {
	return defaultCache.Parse(ctx, src, opts...)
}

// ClearCache drops every parse held by the package-level cache.
func ClearCache() { defaultCache.Clear() }

// ParseReader reads all of r through a read-ahead buffer and parses it with
// [ParseCached].
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Document, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
	}

	return ParseCached(ctx, string(data), opts...), nil
}
