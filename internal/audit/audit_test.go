package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchive_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "nested")
	archive := NewArchive(dir)

	filename, err := archive.Save("reconcile", []string{"orphaned_book book=1"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "reconcile-"))
	assert.True(t, strings.HasSuffix(filename, ".json"))

	raw, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	var saved struct {
		ID   string   `json:"id"`
		Kind string   `json:"kind"`
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &saved))
	assert.Equal(t, "reconcile", saved.Kind)
	assert.Len(t, saved.ID, 36)
	assert.Equal(t, []string{"orphaned_book book=1"}, saved.Data)
}

func TestArchive_UniqueNames(t *testing.T) {
	archive := NewArchive(t.TempDir())

	first, err := archive.Save("overdue", map[string]int{"count": 1})
	require.NoError(t, err)
	second, err := archive.Save("overdue", map[string]int{"count": 1})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestArchive_UnmarshalableData(t *testing.T) {
	archive := NewArchive(t.TempDir())

	_, err := archive.Save("bad", make(chan int))
	assert.Error(t, err)
}
