package pdf

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const blockSeparator = "---"

// gridScanner walks the lines of a grid file, skipping blank lines inside blocks.
type gridScanner struct {
	sc     *bufio.Scanner
	path   string
	lineNo int
}

func (s *gridScanner) next() (string, bool) {
	for s.sc.Scan() {
		s.lineNo++
		line := strings.TrimSpace(s.sc.Text())
		if line != "" {
			return line, true
		}
	}
	return "", false
}

func (s *gridScanner) errorf(format string, args ...any) *ReadError {
	return readErrorf(s.path, "line %d: %s", s.lineNo, fmt.Sprintf(format, args...))
}

func (s *gridScanner) floats(line, what string) ([]float64, error) {
	fields := strings.Fields(line)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, s.errorf("invalid %s %q", what, f)
		}
		out[i] = v
	}
	return out, nil
}

func (s *gridScanner) ints(line, what string) ([]int, error) {
	fields := strings.Fields(line)
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, s.errorf("invalid %s %q", what, f)
		}
		out[i] = v
	}
	return out, nil
}

// ParseGrid reads a grid data file: a YAML header terminated by "---", then
// one or more blocks. Each block is an x-knot line, a Q² knot line (Q knots
// for Format: lhagrid1), a flavor-id line and nx*nq rows ordered x-major,
// with one column per flavor, terminated by "---". It returns the raw header
// and the assembled knot array; path is only used in error messages.
func ParseGrid(path string, data []byte) ([]byte, *KnotArray, error) {
	s := &gridScanner{sc: bufio.NewScanner(bytes.NewReader(data)), path: path}
	s.sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var header bytes.Buffer
	found := false
	for s.sc.Scan() {
		s.lineNo++
		line := s.sc.Text()
		if strings.TrimSpace(line) == blockSeparator {
			found = true
			break
		}
		header.WriteString(line)
		header.WriteByte('\n')
	}
	if err := s.sc.Err(); err != nil {
		return nil, nil, &ReadError{Path: path, Err: err}
	}
	if !found {
		return nil, nil, readErrorf(path, "missing %q after metadata header", blockSeparator)
	}

	var meta struct {
		Format string `yaml:"Format"`
	}
	if err := yaml.Unmarshal(header.Bytes(), &meta); err != nil {
		return nil, nil, &ReadError{Path: path, Msg: "invalid metadata header", Err: err}
	}
	qKnots := false
	switch meta.Format {
	case "", FormatQ2:
	case FormatLHAGrid1:
		qKnots = true
	default:
		return nil, nil, readErrorf(path, "unsupported grid format %q", meta.Format)
	}

	var subgrids []*Subgrid
	for {
		line, ok := s.next()
		if !ok {
			break
		}
		sg, err := s.block(line, qKnots)
		if err != nil {
			return nil, nil, err
		}
		subgrids = append(subgrids, sg)
	}
	if err := s.sc.Err(); err != nil {
		return nil, nil, &ReadError{Path: path, Err: err}
	}
	if len(subgrids) == 0 {
		return nil, nil, readErrorf(path, "no grid blocks")
	}
	ka, err := NewKnotArray(subgrids)
	if err != nil {
		return nil, nil, &ReadError{Path: path, Err: err}
	}
	return header.Bytes(), ka, nil
}

func (s *gridScanner) block(xLine string, qKnots bool) (*Subgrid, error) {
	start := s.lineNo
	xs, err := s.floats(xLine, "x knot")
	if err != nil {
		return nil, err
	}
	line, ok := s.next()
	if !ok {
		return nil, s.errorf("block starting at line %d ends before its Q2 knots", start)
	}
	q2s, err := s.floats(line, "Q2 knot")
	if err != nil {
		return nil, err
	}
	if qKnots {
		for i, q := range q2s {
			q2s[i] = q * q
		}
	}
	line, ok = s.next()
	if !ok {
		return nil, s.errorf("block starting at line %d ends before its flavor ids", start)
	}
	flavors, err := s.ints(line, "flavor id")
	if err != nil {
		return nil, err
	}

	nx, nq, nf := len(xs), len(q2s), len(flavors)
	values := make([]float64, nf*nx*nq)
	row := 0
	for {
		line, ok = s.next()
		if !ok {
			return nil, s.errorf("block starting at line %d is not terminated by %q", start, blockSeparator)
		}
		if line == blockSeparator {
			break
		}
		if row >= nx*nq {
			return nil, s.errorf("block starting at line %d has more than %d value rows", start, nx*nq)
		}
		vals, err := s.floats(line, "value")
		if err != nil {
			return nil, err
		}
		if len(vals) != nf {
			return nil, s.errorf("expected %d values, got %d", nf, len(vals))
		}
		ix, iq := row/nq, row%nq
		for fi, v := range vals {
			values[(fi*nx+ix)*nq+iq] = v
		}
		row++
	}
	if row != nx*nq {
		return nil, s.errorf("block starting at line %d has %d value rows, want %d", start, row, nx*nq)
	}
	sg, err := NewSubgrid(xs, q2s, flavors, values)
	if err != nil {
		return nil, s.errorf("block starting at line %d: %v", start, err)
	}
	return sg, nil
}

// EncodeGrid writes ka in the Q² grid format with meta as the header. The
// Format key is always set to FormatQ2. Values are written with the shortest
// representation that parses back to the same float64.
func EncodeGrid(w io.Writer, meta map[string]any, ka *KnotArray) error {
	header := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		header[k] = v
	}
	header["Format"] = FormatQ2
	hdr, err := yaml.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode grid header: %w", err)
	}
	bw := bufio.NewWriter(w)
	bw.Write(hdr)
	bw.WriteString(blockSeparator + "\n")

	var buf []byte
	writeFloats := func(vs []float64) {
		buf = buf[:0]
		for i, v := range vs {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, v, 'e', -1, 64)
		}
		buf = append(buf, '\n')
		bw.Write(buf)
	}
	for _, sg := range ka.subgrids {
		writeFloats(sg.xs)
		writeFloats(sg.q2s)
		buf = buf[:0]
		for i, id := range sg.flavors {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendInt(buf, int64(id), 10)
		}
		buf = append(buf, '\n')
		bw.Write(buf)
		row := make([]float64, len(sg.flavors))
		for ix := range sg.xs {
			for iq := range sg.q2s {
				for fi := range sg.flavors {
					row[fi] = sg.At(fi, ix, iq)
				}
				writeFloats(row)
			}
		}
		bw.WriteString(blockSeparator + "\n")
	}
	return bw.Flush()
}
