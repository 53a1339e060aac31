package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveLoad(t *testing.T) {
	s := NewFileStore(t.TempDir())

	require.NoError(t, s.Save("recent-projects", "abc", []byte{0x01, 0x02}))

	data, err := s.Load("recent-projects", "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, data)

	_, err = os.Stat(filepath.Join(s.Root(), "recent-projects", "abc.cbor"))
	assert.NoError(t, err)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	s := NewFileStore(t.TempDir())

	require.NoError(t, s.Save("b", "k", []byte("first")))
	require.NoError(t, s.Save("b", "k", []byte("second")))

	data, err := s.Load("b", "k")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	keys, err := s.List("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)
}

func TestFileStore_Validation(t *testing.T) {
	s := NewFileStore(t.TempDir())

	tests := []struct {
		name        string
		bucket      string
		key         string
		errContains string
	}{
		{name: "empty bucket", bucket: "", key: "k", errContains: "bucket cannot be empty"},
		{name: "empty key", bucket: "b", key: "", errContains: "key cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Save(tt.bucket, tt.key, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestFileStore_NotFound(t *testing.T) {
	s := NewFileStore(t.TempDir())

	_, err := s.Load("b", "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.Delete("b", "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileStore_ListAndDelete(t *testing.T) {
	s := NewFileStore(t.TempDir())

	keys, err := s.List("empty")
	require.NoError(t, err)
	assert.Empty(t, keys)

	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, s.Save("b", k, []byte(k)))
	}
	// Stray files with other extensions are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "b", "notes.txt"), []byte("x"), 0o644))

	keys, err = s.List("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	require.NoError(t, s.Delete("b", "b"))
	keys, err = s.List("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, keys)
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0b7e2c1a-1111-4e2b-9a7e-3f0d1c2b3a4d", "0b7e2c1a-1111-4e2b-9a7e-3f0d1c2b3a4d"},
		{"a/b:c", "a_b_c"},
		{"..", "unnamed"},
		{"name.with.dots", "name_with_dots"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, sanitizeKey(tt.input), "sanitizeKey(%q)", tt.input)
	}
}
