package chatlog

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-253/qqchat/internal/models"
	"github.com/adi-253/qqchat/internal/storage"
)

func TestRevocationTable(t *testing.T) {
	t.Run("unknown ids are not revoked", func(t *testing.T) {
		tbl := NewRevocationTable(storage.NewRoot(t.TempDir()))
		assert.False(t, tbl.IsRevoked("nope"))
		assert.Empty(t, tbl.Snapshot())
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		root := storage.NewRoot(t.TempDir())
		tbl := NewRevocationTable(root)

		require.NoError(t, tbl.Revoke("a"))
		once, err := os.ReadFile(root.Path(RevokedFile))
		require.NoError(t, err)

		require.NoError(t, tbl.Revoke("a"))
		twice, err := os.ReadFile(root.Path(RevokedFile))
		require.NoError(t, err)

		assert.Equal(t, once, twice)
		assert.Equal(t, []string{"a"}, storage.ReadJSON[[]string](root.Path(RevokedFile), nil))
		assert.True(t, tbl.IsRevoked("a"))
		assert.True(t, tbl.Snapshot().Has("a"))
	})

	t.Run("corrupt file reads as empty and is replaced on revoke", func(t *testing.T) {
		root := storage.NewRoot(t.TempDir())
		require.NoError(t, os.WriteFile(root.Path(RevokedFile), []byte("{"), 0o644))
		tbl := NewRevocationTable(root)

		assert.False(t, tbl.IsRevoked("a"))
		require.NoError(t, tbl.Revoke("b"))
		assert.Equal(t, []string{"b"}, storage.ReadJSON[[]string](root.Path(RevokedFile), nil))
	})

	t.Run("creates the storage directory", func(t *testing.T) {
		root := storage.NewRoot(t.TempDir() + "/nested/chat")
		require.NoError(t, NewRevocationTable(root).Revoke("a"))
		assert.FileExists(t, root.Path(RevokedFile))
	})
}

func TestReactionTable(t *testing.T) {
	t.Run("toggle twice restores the previous state", func(t *testing.T) {
		root := storage.NewRoot(t.TempDir())
		tbl := NewReactionTable(root)
		require.NoError(t, tbl.Toggle("m1", "❤️", "bob|222222"))
		before := tbl.Snapshot()

		require.NoError(t, tbl.Toggle("m1", "👍", "alice|123456"))
		assert.Equal(t, []models.ReactionCount{{Emoji: "❤️", Count: 1}, {Emoji: "👍", Count: 1}}, tbl.Summarize("m1"))

		require.NoError(t, tbl.Toggle("m1", "👍", "alice|123456"))
		assert.Equal(t, before, tbl.Snapshot())
	})

	t.Run("empty buckets and messages are pruned", func(t *testing.T) {
		root := storage.NewRoot(t.TempDir())
		tbl := NewReactionTable(root)

		require.NoError(t, tbl.Toggle("m1", "👍", "u1"))
		require.NoError(t, tbl.Toggle("m1", "👍", "u1"))

		assert.Empty(t, tbl.Snapshot())
		assert.Equal(t, ReactionMap{}, storage.ReadJSON[ReactionMap](root.Path(ReactionsFile), nil))
	})

	t.Run("summarize sorts by count descending", func(t *testing.T) {
		tbl := NewReactionTable(storage.NewRoot(t.TempDir()))
		require.NoError(t, tbl.Toggle("m1", "😂", "u1"))
		require.NoError(t, tbl.Toggle("m1", "👍", "u1"))
		require.NoError(t, tbl.Toggle("m1", "👍", "u2"))
		require.NoError(t, tbl.Toggle("m1", "👍", "u3"))
		require.NoError(t, tbl.Toggle("m1", "🎉", "u2"))
		require.NoError(t, tbl.Toggle("m1", "🎉", "u3"))

		got := tbl.Summarize("m1")
		require.Len(t, got, 3)
		assert.Equal(t, models.ReactionCount{Emoji: "👍", Count: 3}, got[0])
		assert.Equal(t, models.ReactionCount{Emoji: "🎉", Count: 2}, got[1])
		assert.Equal(t, models.ReactionCount{Emoji: "😂", Count: 1}, got[2])
	})

	t.Run("counts equal the user set sizes", func(t *testing.T) {
		tbl := NewReactionTable(storage.NewRoot(t.TempDir()))
		require.NoError(t, tbl.Toggle("m1", "👍", "u1"))
		require.NoError(t, tbl.Toggle("m1", "👍", "u2"))
		require.NoError(t, tbl.Toggle("m1", "👍", "u1"))
		require.NoError(t, tbl.Toggle("m2", "👍", "u1"))

		snap := tbl.Snapshot()
		for id, byEmoji := range snap {
			total := 0
			for _, c := range snap.Summarize(id) {
				assert.Equal(t, len(byEmoji[c.Emoji]), c.Count)
				total += c.Count
			}
			assert.LessOrEqual(t, total, 2)
		}
		assert.Equal(t, []models.ReactionCount{{Emoji: "👍", Count: 1}}, tbl.Summarize("m1"))
	})

	t.Run("unknown message summarizes to empty", func(t *testing.T) {
		tbl := NewReactionTable(storage.NewRoot(t.TempDir()))
		got := tbl.Summarize("ghost")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("null entries in the file are tolerated", func(t *testing.T) {
		root := storage.NewRoot(t.TempDir())
		require.NoError(t, os.WriteFile(root.Path(ReactionsFile), []byte(`{"m1":null}`), 0o644))
		tbl := NewReactionTable(root)

		require.NoError(t, tbl.Toggle("m1", "👍", "u1"))
		assert.Equal(t, []models.ReactionCount{{Emoji: "👍", Count: 1}}, tbl.Summarize("m1"))
	})
}
