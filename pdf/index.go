package pdf

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// IndexEntry maps the first global id of a set to its name.
type IndexEntry struct {
	ID   int
	Name string
}

// Index maps global integer ids to (set name, member). Each set occupies the
// ids from its base id up to, but excluding, the next set's base id.
type Index struct {
	ids   []int // sorted base ids
	names map[int]string
}

func NewIndex() *Index {
	return &Index{names: make(map[int]string)}
}

// Merge reads "<id> <setname> ..." lines from r. Blank lines and lines
// starting with # are skipped; extra columns are ignored. An id already
// present keeps its first mapping. source names r in errors and logs.
func (idx *Index) Merge(r io.Reader, source string) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	added := false
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			logrus.Warnf("pdf: %s line %d: ignoring entry without a set name: %q", source, lineNo, line)
			continue
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return readErrorf(source, "line %d: invalid set id %q", lineNo, fields[0])
		}
		if _, dup := idx.names[id]; dup {
			logrus.Debugf("pdf: %s line %d: id %d already mapped to %s, keeping it", source, lineNo, id, idx.names[id])
			continue
		}
		idx.names[id] = fields[1]
		idx.ids = append(idx.ids, id)
		added = true
	}
	if err := sc.Err(); err != nil {
		return &ReadError{Path: source, Err: err}
	}
	if added {
		slices.Sort(idx.ids)
	}
	return nil
}

// BuildIndex merges the index file of every search path, earlier paths
// taking precedence. It fails when no search path has an index file.
func BuildIndex(ctx context.Context, env *Env) (*Index, error) {
	contents, found, err := env.FindFiles(ctx, IndexFileName)
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, readErrorf(IndexFileName, "no index file in search paths %v", []string(env.Paths))
	}
	idx := NewIndex()
	for i, data := range contents {
		if err := idx.Merge(bytes.NewReader(data), found[i]); err != nil {
			return nil, err
		}
		logrus.Debugf("pdf: merged index %s", found[i])
	}
	return idx, nil
}

func (idx *Index) Len() int { return len(idx.ids) }

// Entries lists the index in id order.
func (idx *Index) Entries() []IndexEntry {
	out := make([]IndexEntry, len(idx.ids))
	for i, id := range idx.ids {
		out[i] = IndexEntry{ID: id, Name: idx.names[id]}
	}
	return out
}

// LookupPDF returns the set and member for a global id: the entry with the
// largest base id not above id. With no such entry it returns ("", -1).
func (idx *Index) LookupPDF(id int) (string, int) {
	i := sort.Search(len(idx.ids), func(i int) bool { return idx.ids[i] > id }) - 1
	if i < 0 {
		return "", -1
	}
	base := idx.ids[i]
	return idx.names[base], id - base
}

// LookupLHAPDFID returns the global id of a set member, or -1 if the set is
// not indexed. When a name appears more than once the lowest id is used.
func (idx *Index) LookupLHAPDFID(name string, member int) int {
	for _, id := range idx.ids {
		if idx.names[id] == name {
			return id + member
		}
	}
	return -1
}

// ParsePDFString splits "set" or "set/member". A missing member means 0.
func ParsePDFString(s string) (string, int, error) {
	name, mem, ok := strings.Cut(s, "/")
	if name == "" {
		return "", 0, &UserError{Input: s, Msg: "empty set name in"}
	}
	if !ok {
		return name, 0, nil
	}
	member, err := strconv.Atoi(mem)
	if err != nil {
		return "", 0, &UserError{Input: s, Msg: "member is not an integer in", Err: err}
	}
	if member < 0 {
		return "", 0, &UserError{Input: s, Msg: "negative member in"}
	}
	return name, member, nil
}
