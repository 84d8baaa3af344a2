package pdf_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfgrid/pdfgrid/pdf"
	"github.com/pdfgrid/pdfgrid/pdf/filecache"
	"github.com/pdfgrid/pdfgrid/pdf/internal/testutil"
)

const toyInfo = `SetDesc: toy set for tests
NumMembers: 2
PdfType: replica
Flavors: [-2, -1, 1, 2, 21]
Interpolator: logcubic
Extrapolator: continuation
`

func double(id int, x, q2 float64) float64 { return 2 * testutil.Smooth(id, x, q2) }

// toySet writes set "Toy" (two members) and an index mapping it to id 10.
func toySet(t *testing.T) (string, *pdf.KnotArray, *pdf.KnotArray) {
	t.Helper()
	dir := t.TempDir()
	m0, m1 := testutil.TwoSubgrids(t), testutil.KnotArray(t, double)
	testutil.WriteSet(t, dir, "Toy", toyInfo, m0, m1)
	testutil.WriteFile(t, filepath.Join(dir, pdf.IndexFileName), []byte("10 Toy\n"))
	return dir, m0, m1
}

func TestNewGridPDF_ExactAtKnots(t *testing.T) {
	dir, _, m1 := toySet(t)
	env := pdf.NewEnv(pdf.SearchPaths{dir}, nil)
	p, err := pdf.NewGridPDF(context.Background(), env, "Toy", 1)
	require.NoError(t, err)

	for _, sg := range m1.Subgrids() {
		for fi, id := range sg.Flavors() {
			for ix, x := range sg.XKnots() {
				for iq, q2 := range sg.Q2Knots() {
					got, err := p.Evaluate(id, x, q2)
					require.NoError(t, err)
					if want := sg.At(fi, ix, iq); got != want {
						t.Fatalf("flavor %d at (%g, %g): got %v, want %v", id, x, q2, got, want)
					}
				}
			}
		}
	}
}

func TestNewGridPDF_MetadataLayers(t *testing.T) {
	dir, _, _ := toySet(t)
	env := pdf.NewEnv(pdf.SearchPaths{dir}, nil)
	env.Defaults = pdf.Info{Extrapolator: "nearest", ForcePositive: 1, Authors: "defaults"}
	p, err := pdf.NewGridPDF(context.Background(), env, "Toy", 0)
	require.NoError(t, err)

	info := p.Info()
	assert.Equal(t, "continuation", info.Extrapolator, "set info overrides defaults")
	assert.Equal(t, 1, info.ForcePositive, "defaults survive when not overridden")
	assert.Equal(t, "defaults", info.Authors)
	assert.Equal(t, "central", info.PdfType, "member header overrides set info")
	assert.Equal(t, pdf.FormatQ2, info.Format)
	assert.Equal(t, 2, info.NumMembers)
	assert.Equal(t, "Toy", p.Name())
	assert.Equal(t, 1e-4, p.XMin())
	assert.Equal(t, 1e4, p.Q2Max())
}

func TestNewGridPDF_ConstructorsAgree(t *testing.T) {
	dir, _, _ := toySet(t)
	env := pdf.NewEnv(pdf.SearchPaths{dir}, nil)
	ctx := context.Background()

	byName, err := pdf.NewGridPDF(ctx, env, "Toy", 1)
	require.NoError(t, err)
	byString, err := pdf.NewGridPDFFromString(ctx, env, "Toy/1")
	require.NoError(t, err)
	byID, err := pdf.NewGridPDFFromID(ctx, env, 11)
	require.NoError(t, err)
	byPath, err := pdf.NewGridPDFFromPath(ctx, env, filepath.Join(dir, "Toy", "Toy_0001.dat"))
	require.NoError(t, err)

	want, err := byName.Evaluate(2, 0.013, 77)
	require.NoError(t, err)
	for name, p := range map[string]*pdf.GridPDF{"string": byString, "id": byID, "path": byPath} {
		assert.Equal(t, "Toy", p.Name(), name)
		assert.Equal(t, 1, p.Member(), name)
		got, err := p.Evaluate(2, 0.013, 77)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}

	id, err := byPath.LHAPDFID(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, id)
}

func TestNewGridPDF_Errors(t *testing.T) {
	dir, _, _ := toySet(t)
	env := pdf.NewEnv(pdf.SearchPaths{dir}, nil)
	ctx := context.Background()

	_, err := pdf.NewGridPDF(ctx, env, "Missing", 0)
	assert.ErrorIs(t, err, pdf.ErrRead)
	_, err = pdf.NewGridPDF(ctx, env, "Toy", 2)
	assert.ErrorIs(t, err, pdf.ErrUser, "member beyond NumMembers")
	_, err = pdf.NewGridPDFFromString(ctx, env, "Toy/one")
	assert.ErrorIs(t, err, pdf.ErrUser)
	_, err = pdf.NewGridPDFFromID(ctx, env, 3)
	assert.ErrorIs(t, err, pdf.ErrUser, "id below every indexed set")

	// A corrupt member file fails construction instead of yielding a partial PDF.
	testutil.WriteFile(t, filepath.Join(dir, "Toy", "Toy_0000.dat"), []byte("---\n0.1 1\n1 2\n21\n1\n---\n"))
	p, err := pdf.NewGridPDF(ctx, env, "Toy", 0)
	assert.ErrorIs(t, err, pdf.ErrRead)
	assert.Nil(t, p)
}

func TestNewGridPDF_CompressedMember(t *testing.T) {
	for _, suffix := range filecache.CompressedSuffixes {
		t.Run(suffix, func(t *testing.T) {
			dir := t.TempDir()
			ka := testutil.TwoSubgrids(t)
			testutil.WriteSet(t, dir, "Zip", "NumMembers: 1\n")
			name := filepath.Join(dir, "Zip", "Zip_0000.dat"+suffix)
			raw, err := filecache.Encode(name, testutil.EncodeGrid(t, nil, ka))
			require.NoError(t, err)
			testutil.WriteFile(t, name, raw)

			p, err := pdf.NewGridPDF(context.Background(), pdf.NewEnv(pdf.SearchPaths{dir}, nil), "Zip", 0)
			require.NoError(t, err)
			got, err := p.Evaluate(21, 1e-4, 1)
			require.NoError(t, err)
			assert.Equal(t, testutil.Smooth(21, 1e-4, 1), got)
		})
	}
}

func TestGridPDF_ExtrapolatesOutsideGrid(t *testing.T) {
	dir, _, _ := toySet(t)
	p, err := pdf.NewGridPDF(context.Background(), pdf.NewEnv(pdf.SearchPaths{dir}, nil), "Toy", 0)
	require.NoError(t, err)
	for _, name := range []string{"nearest", "continuation", "errorscaled"} {
		require.NoError(t, p.SetExtrapolator(name))
		for _, pt := range [][2]float64{{1e-7, 5}, {0.3, 0.2}, {0.3, 1e8}, {0, 0}} {
			assert.False(t, p.InRangeXQ2(pt[0], pt[1]))
			v, err := p.Evaluate(1, pt[0], pt[1])
			require.NoError(t, err)
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s at %v gave %v", name, pt, v)
		}
	}
	assert.ErrorIs(t, p.SetExtrapolator("bogus"), pdf.ErrUser)
	assert.ErrorIs(t, p.SetInterpolator("bogus"), pdf.ErrUser)
}

func TestGridPDF_EvaluateAll(t *testing.T) {
	dir, _, _ := toySet(t)
	p, err := pdf.NewGridPDF(context.Background(), pdf.NewEnv(pdf.SearchPaths{dir}, nil), "Toy", 0)
	require.NoError(t, err)
	all, err := p.EvaluateAll(0.2, 30)
	require.NoError(t, err)
	assert.Len(t, all, len(testutil.Flavors))
	for id, v := range all {
		single, err := p.Evaluate(id, 0.2, 30)
		require.NoError(t, err)
		assert.Equal(t, single, v)
	}
}

func TestGridPDF_MutableKnots(t *testing.T) {
	dir, _, _ := toySet(t)
	p, err := pdf.NewGridPDF(context.Background(), pdf.NewEnv(pdf.SearchPaths{dir}, nil), "Toy", 0)
	require.NoError(t, err)

	sg := p.MutableKnots().Subgrids()[1]
	fi, ok := sg.FlavorIndex(2)
	require.True(t, ok)
	sg.SetAt(fi, 3, 2, 42)
	require.NoError(t, p.SetInterpolator("logcubic"))

	got, err := p.Evaluate(2, sg.XKnots()[3], sg.Q2Knots()[2])
	require.NoError(t, err)
	assert.Equal(t, 42.0, got)
}

func TestEnv_SharedCacheReadsOnce(t *testing.T) {
	dir, _, _ := toySet(t)
	files := filecache.New(nil)
	env := pdf.NewEnv(pdf.SearchPaths{dir}, files)
	ctx := context.Background()
	_, err := pdf.NewGridPDF(ctx, env, "Toy", 0)
	require.NoError(t, err)
	n := files.Len()

	// Removing the files does not matter once they are cached.
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "Toy")))
	_, err = pdf.NewGridPDF(ctx, env, "Toy", 0)
	require.NoError(t, err)
	assert.Equal(t, n, files.Len())

	files.Flush()
	_, err = pdf.NewGridPDF(ctx, env, "Toy", 0)
	assert.ErrorIs(t, err, pdf.ErrRead)
}
