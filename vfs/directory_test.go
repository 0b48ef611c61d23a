package vfs

import (
	"io/ioutil"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryDriverRoundtrip(t *testing.T) {
	dir, err := NewDirectoryDriver(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, CreateFileAndCopy(dir, "a.glb", strings.NewReader("AAA")))
	require.NoError(t, CreateFileAndCopy(dir, "b.glb", strings.NewReader("BB")))

	names, err := dir.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.glb", "b.glb"}, names)

	f, err := dir.GetFile("a.glb")
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.Size())

	r, err := OpenFileAndGetReader(f, true)
	require.NoError(t, err)
	data, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "AAA", string(data))
	require.NoError(t, f.Close())

	require.NoError(t, dir.Remove("a.glb"))
	_, err = dir.GetFile("a.glb")
	assert.Error(t, err)
}

func TestCreateFileTruncatesExisting(t *testing.T) {
	dir, err := NewDirectoryDriver(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, CreateFileAndCopy(dir, "x.glb", strings.NewReader("long content")))
	require.NoError(t, CreateFileAndCopy(dir, "x.glb", strings.NewReader("short")))

	f, err := dir.GetFile("x.glb")
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.Size())
}

func TestGetFileEscapesAreStripped(t *testing.T) {
	dir, err := NewDirectoryDriver(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, CreateFileAndCopy(dir, "safe.glb", strings.NewReader("S")))

	// path components are flattened to the base name
	f, err := dir.GetFile("../safe.glb")
	require.NoError(t, err)
	assert.Equal(t, "safe.glb", f.Name())
}
