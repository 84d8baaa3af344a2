// Package testutil provides synthetic grids, on-disk set fixtures and float
// assertions shared by the pdf test packages.
package testutil

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/pdfgrid/pdfgrid/pdf"
)

// Flavors is the flavor list of every fixture grid.
var Flavors = []int{-2, -1, 1, 2, 21}

// LogKnots returns n knots evenly spaced in log between lo and hi, with the
// endpoints exactly lo and hi.
func LogKnots(lo, hi float64, n int) []float64 {
	ks := floats.LogSpan(make([]float64, n), lo, hi)
	ks[0], ks[n-1] = lo, hi
	return ks
}

// Smooth is a positive, PDF-shaped test function: falling in x, slowly rising
// in Q², with a distinct normalization per flavor.
func Smooth(id int, x, q2 float64) float64 {
	norm := float64(id%7+8) / 10
	return norm * math.Pow(x, -0.3) * (math.Pow(1-x, 3) + 0.05) * (1 + 0.05*math.Log(q2))
}

// Fill tabulates f on the knots in the flavor-major layout NewSubgrid expects.
func Fill(xs, q2s []float64, flavors []int, f func(id int, x, q2 float64) float64) []float64 {
	vals := make([]float64, 0, len(flavors)*len(xs)*len(q2s))
	for _, id := range flavors {
		for _, x := range xs {
			for _, q2 := range q2s {
				vals = append(vals, f(id, x, q2))
			}
		}
	}
	return vals
}

// Subgrid builds a validated subgrid of f over the given knots.
func Subgrid(t testing.TB, xs, q2s []float64, f func(id int, x, q2 float64) float64) *pdf.Subgrid {
	t.Helper()
	sg, err := pdf.NewSubgrid(xs, q2s, Flavors, Fill(xs, q2s, Flavors, f))
	if err != nil {
		t.Fatalf("building subgrid: %v", err)
	}
	return sg
}

// TwoSubgrids is the standard fixture: 12 x-knots over [1e-4, 1] and two
// Q² subgrids, [1, 10] with 5 knots and [10, 1e4] with 7, tabulating Smooth.
func TwoSubgrids(t testing.TB) *pdf.KnotArray {
	t.Helper()
	return KnotArray(t, Smooth)
}

// KnotArray is TwoSubgrids for an arbitrary function.
func KnotArray(t testing.TB, f func(id int, x, q2 float64) float64) *pdf.KnotArray {
	t.Helper()
	xs := LogKnots(1e-4, 1, 12)
	lo := Subgrid(t, xs, LogKnots(1, 10, 5), f)
	hi := Subgrid(t, xs, LogKnots(10, 1e4, 7), f)
	ka, err := pdf.NewKnotArray([]*pdf.Subgrid{lo, hi})
	if err != nil {
		t.Fatalf("building knot array: %v", err)
	}
	return ka
}

// EncodeGrid renders ka in the grid text format with the given header keys.
func EncodeGrid(t testing.TB, meta map[string]any, ka *pdf.KnotArray) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := pdf.EncodeGrid(&buf, meta, ka); err != nil {
		t.Fatalf("encoding grid: %v", err)
	}
	return buf.Bytes()
}

// WriteSet lays out a set under dir: <set>/<set>.info with info as content
// and one <set>_NNNN.dat file per member.
func WriteSet(t testing.TB, dir, set, info string, members ...*pdf.KnotArray) {
	t.Helper()
	setDir := filepath.Join(dir, set)
	if err := os.MkdirAll(setDir, 0o755); err != nil {
		t.Fatal(err)
	}
	WriteFile(t, filepath.Join(setDir, set+".info"), []byte(info))
	for m, ka := range members {
		name := fmt.Sprintf("%s_%04d.dat", set, m)
		WriteFile(t, filepath.Join(setDir, name), EncodeGrid(t, map[string]any{"PdfType": "central"}, ka))
	}
}

// WriteFile writes data to path, failing the test on error.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
