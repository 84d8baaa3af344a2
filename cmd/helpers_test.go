package cmd

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdfgrid/pdfgrid/pdf"
)

var (
	toyXs      = []float64{1e-3, 1e-2, 0.1, 1}
	toyQ2s     = []float64{1, 10, 100, 1000}
	toyFlavors = []int{1, 21}
)

func toyValue(id int, x, q2 float64) float64 {
	return float64(id%5+1) + 10*x + math.Log10(q2)
}

func toyKnots(t *testing.T) *pdf.KnotArray {
	t.Helper()
	var vals []float64
	for _, id := range toyFlavors {
		for _, x := range toyXs {
			for _, q2 := range toyQ2s {
				vals = append(vals, toyValue(id, x, q2))
			}
		}
	}
	sg, err := pdf.NewSubgrid(toyXs, toyQ2s, toyFlavors, vals)
	require.NoError(t, err)
	ka, err := pdf.NewKnotArray([]*pdf.Subgrid{sg})
	require.NoError(t, err)
	return ka
}

// writeToySet lays out set "Toy" with one member and an index mapping it to
// id 100, and clears the search path environment so only dir is searched.
func writeToySet(t *testing.T) string {
	t.Helper()
	for _, name := range pdf.SearchPathEnvVars {
		t.Setenv(name, "")
	}
	dir := t.TempDir()
	setDir := filepath.Join(dir, "Toy")
	require.NoError(t, os.MkdirAll(setDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(setDir, "Toy.info"), []byte("SetDesc: toy\nNumMembers: 1\nFlavors: [1, 21]\n"), 0o644))

	var buf bytes.Buffer
	require.NoError(t, pdf.EncodeGrid(&buf, map[string]any{"PdfType": "central"}, toyKnots(t)))
	require.NoError(t, os.WriteFile(filepath.Join(setDir, "Toy_0000.dat"), buf.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, pdf.IndexFileName), []byte("100 Toy\n"), 0o644))
	return dir
}

func toySession(t *testing.T) (*session, string) {
	t.Helper()
	dir := writeToySet(t)
	s, err := newSession("", "", []string{dir})
	require.NoError(t, err)
	return s, dir
}
