package session

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveID(t *testing.T) {
	assert.Equal(t, DefaultID, ResolveID(""))
	assert.Equal(t, "team-a", ResolveID("team-a"))

	generated := ResolveID(NewKeyword)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err, "new resolves to a uuid")
}

func TestResolveID_NewNeverCollides(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := ResolveID(NewKeyword)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"default", true},
		{"3f0c8a52-6a36-4a4e-9f7d-6b8d1f3f2a10", true},
		{"team.workspace", true},
		{"", false},
		{".", false},
		{"..", false},
		{"a/b", false},
		{`a\b`, false},
		{"a\x00b", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidID)
			}
		})
	}
}

func TestList(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "sessions"), nil)

	infos, err := store.List("")
	require.NoError(t, err)
	assert.Empty(t, infos, "missing root lists nothing")

	require.NoError(t, store.WriteStorageState("team-a", []byte("{}")))
	require.NoError(t, store.SaveRefs("team-b", RefTable{"@e1": "a"}))
	_, err = store.Ensure("other")
	require.NoError(t, err)

	infos, err = store.List("")
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "other", infos[0].ID)
	assert.Equal(t, "team-a", infos[1].ID)
	assert.True(t, infos[1].HasStorageState)
	assert.False(t, infos[1].HasRefs)
	assert.Equal(t, "team-b", infos[2].ID)
	assert.True(t, infos[2].HasRefs)

	infos, err = store.List("team-*")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "team-a", infos[0].ID)
	assert.Equal(t, "team-b", infos[1].ID)
}

func TestList_InvalidPattern(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	_, err := store.List("[unclosed")
	require.ErrorIs(t, err, ErrInvalidPattern)
	assert.Contains(t, err.Error(), "invalid session pattern")
}
