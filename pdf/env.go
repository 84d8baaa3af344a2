package pdf

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pdfgrid/pdfgrid/pdf/filecache"
)

// Env is the explicit context for loading PDFs: where to look, the file
// cache to read through, default metadata and the lazily built Index.
type Env struct {
	Paths    SearchPaths
	Files    *filecache.Cache
	Defaults Info

	mu    sync.Mutex
	index *Index
}

// NewEnv returns an Env over paths. A nil cache reads the local filesystem
// through a fresh, private cache.
func NewEnv(paths SearchPaths, files *filecache.Cache) *Env {
	if files == nil {
		files = filecache.New(nil)
	}
	return &Env{Paths: paths, Files: files}
}

// FindFile returns the content of the first search path entry holding rel
// and the full path it was read from. Absolute, explicitly relative and
// s3:// paths are read directly.
func (e *Env) FindFile(ctx context.Context, rel string) ([]byte, string, error) {
	if isDirectPath(rel) {
		data, err := e.Files.Read(ctx, rel)
		if err != nil {
			return nil, "", &ReadError{Path: rel, Err: err}
		}
		return data, rel, nil
	}
	for _, dir := range e.Paths {
		full := joinPath(dir, rel)
		data, err := e.Files.Read(ctx, full)
		if err == nil {
			return data, full, nil
		}
		if !errors.Is(err, filecache.ErrNotFound) {
			return nil, "", &ReadError{Path: full, Err: err}
		}
	}
	return nil, "", &ReadError{Path: rel, Msg: "not found in any search path", Err: filecache.ErrNotFound}
}

// FindFiles returns the content of rel from every search path that holds it,
// in search order.
func (e *Env) FindFiles(ctx context.Context, rel string) ([][]byte, []string, error) {
	var (
		contents [][]byte
		found    []string
	)
	for _, dir := range e.Paths {
		full := joinPath(dir, rel)
		data, err := e.Files.Read(ctx, full)
		if err != nil {
			if errors.Is(err, filecache.ErrNotFound) {
				continue
			}
			return nil, nil, &ReadError{Path: full, Err: err}
		}
		contents = append(contents, data)
		found = append(found, full)
	}
	return contents, found, nil
}

// FindMemberFile locates a member data file, trying the plain name before
// each compressed variant.
func (e *Env) FindMemberFile(ctx context.Context, set string, member int) ([]byte, string, error) {
	rel := MemberPath(set, member)
	candidates := append([]string{rel}, withSuffixes(rel)...)
	var firstErr error
	for _, c := range candidates {
		data, full, err := e.FindFile(ctx, c)
		if err == nil {
			return data, full, nil
		}
		if !errors.Is(err, filecache.ErrNotFound) {
			return nil, "", err
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, "", firstErr
}

func withSuffixes(p string) []string {
	out := make([]string, len(filecache.CompressedSuffixes))
	for i, s := range filecache.CompressedSuffixes {
		out[i] = p + s
	}
	return out
}

// Index returns the set/member identity index, building it on first use.
func (e *Env) Index(ctx context.Context) (*Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index != nil {
		return e.index, nil
	}
	idx, err := BuildIndex(ctx, e)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("pdf: index built with %d sets", idx.Len())
	e.index = idx
	return idx, nil
}

// ResetIndex discards the built index; the next Index call rebuilds it.
func (e *Env) ResetIndex() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index = nil
}
