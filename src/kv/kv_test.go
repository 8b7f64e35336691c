package kv

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	tests := []struct {
		name  string
		store func(t *testing.T) Store
	}{
		{
			name: "memory",
			store: func(t *testing.T) Store {
				return NewMemory()
			},
		},
		{
			name: "file",
			store: func(t *testing.T) Store {
				s, err := NewFile(afero.NewMemMapFs(), "/state")
				require.NoError(t, err)
				return s
			},
		},
		{
			name: "bolt",
			store: func(t *testing.T) Store {
				s, err := OpenBolt(filepath.Join(t.TempDir(), "kv.bolt"))
				require.NoError(t, err)
				t.Cleanup(func() { s.Close() })
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.store(t)

			_, found, err := s.Get("missing")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, s.Set("chatbot_conversations", `[{"id":"a"}]`))
			v, found, err := s.Get("chatbot_conversations")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, `[{"id":"a"}]`, v)

			require.NoError(t, s.Set("chatbot_conversations", "[]"))
			v, _, err = s.Get("chatbot_conversations")
			require.NoError(t, err)
			assert.Equal(t, "[]", v)

			_, _, err = s.Get("")
			assert.ErrorIs(t, err, ErrEmptyKey)
			assert.ErrorIs(t, s.Set("", "x"), ErrEmptyKey)
		})
	}
}

func TestFileRejectsPathKeys(t *testing.T) {
	s, err := NewFile(afero.NewMemMapFs(), "/state")
	require.NoError(t, err)

	for _, key := range []string{"../escape", "a/b", `a\b`} {
		err := s.Set(key, "x")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestFileLeavesNoTempFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := NewFile(fs, "/state")
	require.NoError(t, err)

	require.NoError(t, s.Set("k", "v"))

	exists, err := afero.Exists(fs, "/state/k.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)

	content, err := afero.ReadFile(fs, "/state/k.json")
	require.NoError(t, err)
	assert.Equal(t, "v", string(content))
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kv.bolt")

	s, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v1"))
	require.NoError(t, s.Close())

	s, err = OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()

	v, found, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v1", v)
}
