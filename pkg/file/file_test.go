package file_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/RubixDev/immich-gpx/pkg/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileRaw_CreatesParentDirectories(t *testing.T) {
	fs := file.NewFileService()
	target := filepath.Join(t.TempDir(), "out", "maps", "run.geojson")

	require.NoError(t, fs.WriteFileRaw(target, []byte(`{"type":"FeatureCollection"}`)))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"FeatureCollection"}`, string(data))
	assert.NoFileExists(t, target+".tmp")
}

func TestWriteJsonFile_ReplacesExistingFile(t *testing.T) {
	fs := file.NewFileService()
	target := filepath.Join(t.TempDir(), "reports", "summary.json")

	require.NoError(t, fs.WriteJsonFile(target, map[string]int{"updated": 1}))
	require.NoError(t, fs.WriteJsonFile(target, map[string]int{"updated": 2}))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	var got map[string]int
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]int{"updated": 2}, got)
	assert.NoFileExists(t, target+".tmp")
}

func TestWriteJsonFile_EncodeErrorLeavesNoTempFile(t *testing.T) {
	fs := file.NewFileService()
	target := filepath.Join(t.TempDir(), "bad.json")

	err := fs.WriteJsonFile(target, map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.NoFileExists(t, target)
	assert.NoFileExists(t, target+".tmp")
}

func TestGetFileHash(t *testing.T) {
	fs := file.NewFileService()
	target := filepath.Join(t.TempDir(), "track.gpx")
	require.NoError(t, os.WriteFile(target, []byte("abc"), 0644))

	hash, err := fs.GetFileHash(target)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hash)

	_, err = fs.GetFileHash(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
