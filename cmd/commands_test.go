package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfgrid/pdfgrid/pdf"
	"github.com/pdfgrid/pdfgrid/pdf/filecache"
)

func TestNewSession_FlagsOverrideConfig(t *testing.T) {
	prev := logrus.GetLevel()
	t.Cleanup(func() { logrus.SetLevel(prev) })
	for _, name := range pdf.SearchPathEnvVars {
		t.Setenv(name, "")
	}
	t.Setenv("LHAPDF_DATA_PATH", "/from/env")
	path := writeConfig(t, "data_path: [/from/config]\nlog_level: error\ninterpolator: linear\n")

	s, err := newSession(path, "debug", []string{"/from/flag"})
	require.NoError(t, err)
	assert.Equal(t, pdf.SearchPaths{"/from/flag", "/from/config", "/from/env"}, s.paths)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.Equal(t, "linear", s.env.Defaults.Interpolator)

	_, err = newSession("", "loud", nil)
	assert.Error(t, err)
}

func TestIsMemberFile(t *testing.T) {
	for ref, want := range map[string]bool{
		"CT18/CT18_0000.dat":            true,
		"/sets/CT18/CT18_0003.dat.gz":   true,
		"s3://b/CT18/CT18_0000.dat.zst": true,
		`C:\sets\CT18\CT18_0000.dat`:    true,
		"CT18":                          false,
		"CT18/3":                        false,
		"13000":                         false,
	} {
		assert.Equal(t, want, isMemberFile(ref), ref)
	}
}

func TestLoadPDF_ResolvesEveryReferenceForm(t *testing.T) {
	s, dir := toySession(t)
	ctx := context.Background()
	for _, ref := range []string{"Toy", "Toy/0", "100", filepath.Join(dir, "Toy", "Toy_0000.dat")} {
		p, err := loadPDF(ctx, s.env, ref)
		require.NoError(t, err, ref)
		assert.Equal(t, "Toy", p.Name(), ref)
		assert.Equal(t, 0, p.Member(), ref)
	}
	_, err := loadPDF(ctx, s.env, "99")
	assert.ErrorIs(t, err, pdf.ErrUser)
	_, err = loadPDF(ctx, s.env, "Nope")
	assert.ErrorIs(t, err, pdf.ErrRead)
}

func TestWriteValues_ExactAtKnots(t *testing.T) {
	s, _ := toySession(t)
	p, err := loadPDF(context.Background(), s.env, "Toy")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeValues(&out, p, nil, 0.1, 100))
	want := fmt.Sprintf("1\t%.10e\n21\t%.10e\n", toyValue(1, 0.1, 100), toyValue(21, 0.1, 100))
	assert.Equal(t, want, out.String())

	out.Reset()
	require.NoError(t, writeValues(&out, p, []int{0, 4}, 0.1, 100))
	assert.Equal(t, fmt.Sprintf("0\t%.10e\n4\t%.10e\n", toyValue(21, 0.1, 100), 0.0), out.String())

	assert.ErrorIs(t, writeValues(&out, p, []int{21}, 2, 100), pdf.ErrRange)
}

func TestApplyStrategies(t *testing.T) {
	s, _ := toySession(t)
	p, err := loadPDF(context.Background(), s.env, "Toy")
	require.NoError(t, err)
	require.NoError(t, applyStrategies(p, "linear", "nearest"))

	// Nearest clamps below the grid onto the first x knot.
	v, err := p.Evaluate(21, 1e-6, 10)
	require.NoError(t, err)
	assert.Equal(t, toyValue(21, 1e-3, 10), v)

	assert.ErrorIs(t, applyStrategies(p, "spline", ""), pdf.ErrUser)
	assert.ErrorIs(t, applyStrategies(p, "", "mirror"), pdf.ErrUser)
}

func TestLookup_BothDirections(t *testing.T) {
	idx := pdf.NewIndex()
	require.NoError(t, idx.Merge(strings.NewReader("100 A\n250 B\n"), "test"))

	tests := []struct {
		ref  string
		want string
	}{
		{"100", "A/0\n"},
		{"249", "A/149\n"},
		{"250", "B/0\n"},
		{"B", "250\n"},
		{"B/7", "257\n"},
	}
	for _, tc := range tests {
		var out bytes.Buffer
		require.NoError(t, lookup(&out, idx, tc.ref), tc.ref)
		assert.Equal(t, tc.want, out.String(), tc.ref)
	}

	for _, bad := range []string{"99", "C", "A/x"} {
		assert.ErrorIs(t, lookup(&bytes.Buffer{}, idx, bad), pdf.ErrUser, bad)
	}

	var out bytes.Buffer
	require.NoError(t, listIndex(&out, idx))
	assert.Equal(t, "100\tA\n250\tB\n", out.String())
}

func TestRunScan_WorkersAgree(t *testing.T) {
	s, _ := toySession(t)
	ctx := context.Background()
	req := scanRequest{ref: "Toy", flavor: 21, q2: 100, xs: []float64{1e-3, 3e-3, 0.02, 0.5, 1}}

	serial, err := runScan(ctx, s, req, 1)
	require.NoError(t, err)
	parallel, err := runScan(ctx, s, req, 3)
	require.NoError(t, err)
	assert.Equal(t, serial, parallel)
	assert.Equal(t, toyValue(21, 1e-3, 100), serial[0])

	// Followers' reads are relayed by the leader, not counted as storage misses.
	var stats bytes.Buffer
	printStats(&stats, s.registry)
	assert.Contains(t, stats.String(), `pdfgrid_filecache_reads_total{result="broadcast"} 4`)

	var out bytes.Buffer
	require.NoError(t, writeScan(&out, req.xs[:1], serial[:1]))
	assert.Equal(t, fmt.Sprintf("1.000000e-03\t%.10e\n", serial[0]), out.String())

	_, err = runScan(ctx, s, scanRequest{ref: "Nope", xs: req.xs}, 2)
	assert.ErrorIs(t, err, pdf.ErrRead)
}

func TestWriteMember_CompressedRoundTrip(t *testing.T) {
	s, _ := toySession(t)
	ctx := context.Background()
	p, err := loadPDF(ctx, s.env, "Toy")
	require.NoError(t, err)

	for _, suffix := range append([]string{""}, filecache.CompressedSuffixes...) {
		out := filepath.Join(t.TempDir(), "Conv", "Conv_0000.dat"+suffix)
		require.NoError(t, writeMember(ctx, s.env.Files, p, out))

		// A fresh Env reads the file from disk, not from the writer's cache.
		again, err := loadPDF(ctx, pdf.NewEnv(nil, nil), out)
		require.NoError(t, err, suffix)
		assert.Equal(t, "Conv", again.Name())
		assert.Equal(t, "toy", again.Info().SetDesc, "merged metadata travels in the header")
		for _, x := range toyXs {
			got, err := again.Evaluate(1, x, 1000)
			require.NoError(t, err)
			assert.Equal(t, toyValue(1, x, 1000), got, "%s at x=%g", suffix, x)
		}
	}
}

func TestConvertSet(t *testing.T) {
	s, _ := toySession(t)
	ctx := context.Background()
	outDir := t.TempDir()

	n, err := convertSet(ctx, s.env, "Toy", outDir, ".zst")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = os.Stat(filepath.Join(outDir, "Toy", "Toy_0000.dat.zst"))
	require.NoError(t, err)

	p, err := pdf.NewGridPDF(ctx, pdf.NewEnv(pdf.SearchPaths{outDir}, nil), "Toy", 0)
	require.NoError(t, err)
	got, err := p.Evaluate(21, 0.01, 10)
	require.NoError(t, err)
	assert.Equal(t, toyValue(21, 0.01, 10), got)

	_, err = convertSet(ctx, s.env, "Nope", outDir, "")
	assert.ErrorIs(t, err, pdf.ErrRead)
}

func TestSummarize(t *testing.T) {
	s, _ := toySession(t)
	ctx := context.Background()
	p, err := loadPDF(ctx, s.env, "Toy")
	require.NoError(t, err)

	sum := summarize(ctx, p)
	assert.Equal(t, 100, sum.LHAPDFID)
	assert.Equal(t, 1e-3, sum.XMin)
	assert.Equal(t, 1000.0, sum.Q2Max)
	assert.Equal(t, 1, sum.Subgrids)
	assert.Equal(t, []int{1, 21}, sum.Flavors)

	var out bytes.Buffer
	require.NoError(t, writeSummary(&out, sum))
	assert.Contains(t, out.String(), "lhapdf_id: 100")
	assert.Contains(t, out.String(), "SetDesc: toy")
}

func TestPrintStats_ReportsCacheTraffic(t *testing.T) {
	s, _ := toySession(t)
	ctx := context.Background()
	_, err := loadPDF(ctx, s.env, "Toy")
	require.NoError(t, err)
	_, err = loadPDF(ctx, s.env, "Toy")
	require.NoError(t, err)

	var out bytes.Buffer
	printStats(&out, s.registry)
	assert.Contains(t, out.String(), `pdfgrid_filecache_reads_total{result="miss"}`)
	assert.Contains(t, out.String(), `pdfgrid_filecache_reads_total{result="hit"}`)
	assert.Contains(t, out.String(), "pdfgrid_filecache_fetched_bytes_total")
}
