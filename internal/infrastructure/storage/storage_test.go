package storage

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileStorage_SaveAndOpen(t *testing.T) {
	store, err := NewFileStorage(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	id := ulid.Make()
	payload := "fake dicom bytes"

	size, err := store.Save(id, strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), size)

	r, err := store.Open(id)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, string(got))
}

func TestFileStorage_OpenMissing(t *testing.T) {
	store, err := NewFileStorage(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, err = store.Open(ulid.Make())
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorage_Remove(t *testing.T) {
	store, err := NewFileStorage(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	id := ulid.Make()
	_, err = store.Save(id, strings.NewReader("payload"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(id))

	_, err = store.Open(id)
	assert.True(t, os.IsNotExist(err))
}

func TestNewFileStorage_CreatesBaseDir(t *testing.T) {
	base := t.TempDir() + "/nested/uploads"

	_, err := NewFileStorage(base, zap.NewNop())
	require.NoError(t, err)

	info, err := os.Stat(base)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
