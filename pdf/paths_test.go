package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchPathsFromEnv_OrderAndDedup(t *testing.T) {
	t.Setenv("PDFGRID_DATA_PATH", "/a:/b")
	t.Setenv("LHAPDF_DATA_PATH", "/b::/c")
	t.Setenv("LHAPATH", "/d")
	assert.Equal(t, SearchPaths{"/a", "/b", "/c", "/d"}, SearchPathsFromEnv())
}

func TestSearchPaths_Prepend(t *testing.T) {
	sp := SearchPaths{"/a", "/b"}.Prepend("/b", "/z")
	assert.Equal(t, SearchPaths{"/b", "/z", "/a"}, sp)
}

func TestMemberPath(t *testing.T) {
	assert.Equal(t, "CT18/CT18_0007.dat", MemberPath("CT18", 7))
	assert.Equal(t, "CT18/CT18.info", SetInfoPath("CT18"))
}

func TestJoinPath_ObjectStore(t *testing.T) {
	assert.Equal(t, "s3://bucket/sets/CT18/CT18.info", joinPath("s3://bucket/sets/", "CT18/CT18.info"))
	assert.True(t, isDirectPath("s3://bucket/x.dat"))
	assert.True(t, isDirectPath("/abs/x.dat"))
	assert.False(t, isDirectPath("CT18/CT18.info"))
}
