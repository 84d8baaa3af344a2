package filecache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Cache maps paths to decoded file content. Entries live until Flush.
// Returned slices are shared with the cache and must not be modified.
type Cache struct {
	fetcher Fetcher
	metrics *Metrics

	mu      sync.Mutex
	entries map[string][]byte
}

// Option configures a Cache.
type Option func(*Cache)

// WithMetrics attaches prometheus counters to the cache.
func WithMetrics(m *Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates an empty cache reading through f. A nil f reads the local filesystem.
func New(f Fetcher, opts ...Option) *Cache {
	if f == nil {
		f = LocalFetcher{}
	}
	c := &Cache{fetcher: f, entries: make(map[string][]byte)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetcher returns the fetcher the cache reads through.
func (c *Cache) Fetcher() Fetcher { return c.fetcher }

// Read returns the content stored at path. The first read of a path goes to
// the fetcher; later reads are served from memory until Flush. Failed reads
// are not cached.
func (c *Cache) Read(ctx context.Context, path string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data, ok := c.entries[path]; ok {
		c.metrics.hit()
		return data, nil
	}
	raw, err := c.fetcher.Fetch(ctx, path)
	if err != nil {
		c.metrics.failed()
		return nil, err
	}
	data, err := Decode(path, raw)
	if err != nil {
		c.metrics.failed()
		return nil, err
	}
	if r, ok := c.fetcher.(relayer); ok && r.relayed() {
		c.metrics.received()
	} else {
		c.metrics.miss(len(raw))
	}
	c.entries[path] = data
	logrus.Debugf("filecache: loaded %s (%d bytes, codec %s)", path, len(raw), CodecFor(path))
	return data, nil
}

// Contains reports whether path is currently cached.
func (c *Cache) Contains(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[path]
	return ok
}

// Len returns the number of cached paths.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Flush drops every cached entry. In a broadcast group all members must
// flush together.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string][]byte)
	c.metrics.flushed()
	logrus.Debugf("filecache: flushed %d entries", n)
}

// Create starts a buffered write to path. Nothing reaches storage until Close.
func (c *Cache) Create(path string) *Writer {
	return &Writer{cache: c, path: path}
}

// relayer is implemented by fetchers that hand over content read elsewhere,
// such as broadcast group followers. Their reads are not storage traffic.
type relayer interface {
	relayed() bool
}

// Writer buffers content in memory and persists it on Close.
type Writer struct {
	cache  *Cache
	path   string
	buf    bytes.Buffer
	closed bool
}

var errWriterClosed = errors.New("filecache: write to closed writer")

func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errWriterClosed
	}
	return w.buf.Write(p)
}

// Close persists the buffered content with a background context.
func (w *Writer) Close() error {
	return w.CloseContext(context.Background())
}

// CloseContext encodes the buffer for the path's extension, stores it and
// refreshes the cache entry with the plain content. After a failed store the
// writer stays open with its buffer intact, so Close may be retried.
func (w *Writer) CloseContext(ctx context.Context) error {
	if w.closed {
		return nil
	}
	s, ok := w.cache.fetcher.(Storer)
	if !ok {
		return fmt.Errorf("store %s: fetcher %T cannot write", w.path, w.cache.fetcher)
	}
	plain := w.buf.Bytes()
	raw, err := Encode(w.path, plain)
	if err != nil {
		return err
	}
	if err := s.Store(ctx, w.path, raw); err != nil {
		return err
	}
	w.closed = true
	w.cache.mu.Lock()
	w.cache.entries[w.path] = plain
	w.cache.mu.Unlock()
	logrus.Debugf("filecache: wrote %s (%d bytes)", w.path, len(raw))
	return nil
}
