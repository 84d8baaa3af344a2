package filecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned (wrapped) when a path does not exist in storage.
var ErrNotFound = fs.ErrNotExist

// Fetcher loads the full raw content stored at a path.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// Storer is implemented by fetchers that can also persist content.
type Storer interface {
	Store(ctx context.Context, path string, data []byte) error
}

// LocalFetcher reads and writes the local filesystem.
type LocalFetcher struct{}

func (LocalFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("fetch %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	return data, nil
}

func (LocalFetcher) Store(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store %s: %w", path, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store %s: %w", path, err)
	}
	return nil
}

// Router sends s3:// paths to Objects and everything else to Local.
type Router struct {
	Local   Fetcher
	Objects Fetcher
}

// NewRouter returns a Router over the local filesystem; objects may be nil
// when no object store is configured.
func NewRouter(objects Fetcher) *Router {
	return &Router{Local: LocalFetcher{}, Objects: objects}
}

func (r *Router) pick(path string) (Fetcher, error) {
	if strings.HasPrefix(path, ObjectScheme) {
		if r.Objects == nil {
			return nil, fmt.Errorf("no object store configured for %s", path)
		}
		return r.Objects, nil
	}
	return r.Local, nil
}

func (r *Router) Fetch(ctx context.Context, path string) ([]byte, error) {
	f, err := r.pick(path)
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx, path)
}

func (r *Router) Store(ctx context.Context, path string, data []byte) error {
	f, err := r.pick(path)
	if err != nil {
		return err
	}
	s, ok := f.(Storer)
	if !ok {
		return fmt.Errorf("store %s: fetcher %T cannot write", path, f)
	}
	return s.Store(ctx, path, data)
}
