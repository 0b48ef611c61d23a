package asset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshpipe/lodviewer/vfs"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir, err := vfs.NewDirectoryDriver(t.TempDir())
	require.NoError(t, err)
	return NewStore(dir)
}

func TestCreateAssetRejectsBeforeStorage(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateAsset("model.obj", 10, strings.NewReader("0123456789"))
	require.Error(t, err)

	files, err := s.Dir().List()
	require.NoError(t, err)
	assert.Empty(t, files, "rejected upload must not leave any file behind")
}

func TestCreateAssetStoresSource(t *testing.T) {
	s := newTestStore(t)

	a, err := s.CreateAsset("teapot.glb", 4, strings.NewReader("GLB!"))
	require.NoError(t, err)
	assert.NotEmpty(t, a.DisplayName)
	assert.Equal(t, "teapot.glb", a.OriginalName)

	f, err := s.Dir().GetFile(a.SourceFileName())
	require.NoError(t, err)
	assert.Equal(t, int64(4), f.Size())
}

func TestSaveGetListRemove(t *testing.T) {
	s := newTestStore(t)

	a, err := s.CreateAsset("teapot.glb", 4, strings.NewReader("GLB!"))
	require.NoError(t, err)

	set := &VariantSet{
		Asset: *a,
		Variants: []Variant{
			{Index: 0, Fidelity: 0.25, Outcome: OutcomePacked},
			{Index: 1, Fidelity: 1.0, Outcome: OutcomeFallback},
		},
	}
	require.NoError(t, s.SaveSet(set))

	got, err := s.Get(a.Id)
	require.NoError(t, err)
	assert.Equal(t, a.Id, got.Asset.Id)
	require.Len(t, got.Variants, 2)
	assert.Equal(t, OutcomePacked, got.Variants[0].Outcome)
	assert.Equal(t, OutcomeFallback, got.Variants[1].Outcome)

	sets, err := s.List()
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, a.Id, sets[0].Asset.Id)

	require.NoError(t, s.Remove(a.Id))
	_, err = s.Get(a.Id)
	assert.Error(t, err)

	sets, err = s.List()
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestGetUnknownAsset(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("nope")
	assert.Error(t, err)
}
