package chatlog

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-253/qqchat/internal/storage"
)

func TestParseShardFileName(t *testing.T) {
	tests := []struct {
		name  string
		index int
		ok    bool
	}{
		{"chat_01.json", 1, true},
		{"chat_1.json", 1, true},
		{"chat_10.json", 10, true},
		{"chat_123.json", 123, true},
		{"chat_00.json", 0, false},
		{"chat_.json", 0, false},
		{"chat_ab.json", 0, false},
		{"chat_-1.json", 0, false},
		{"chat_01.json.123.tmp", 0, false},
		{"chat_01.txt", 0, false},
		{"revoked.json", 0, false},
		{"msg_01.json", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := ParseShardFileName(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.index, idx)
		})
	}
}

func TestShardFileName(t *testing.T) {
	assert.Equal(t, "chat_01.json", ShardFileName(1))
	assert.Equal(t, "chat_09.json", ShardFileName(9))
	assert.Equal(t, "chat_100.json", ShardFileName(100))
}

func TestShardManager(t *testing.T) {
	t.Run("missing directory has no shards", func(t *testing.T) {
		m := NewShardManager(storage.NewRoot(t.TempDir() + "/missing"))
		assert.Empty(t, m.List())
		_, ok := m.Active()
		assert.False(t, ok)
	})

	t.Run("lists well-formed shards sorted by numeric index", func(t *testing.T) {
		root := storage.NewRoot(t.TempDir())
		for _, name := range []string{"chat_10.json", "chat_02.json", "chat_9.json", "chat_x.json", "revoked.json", "chat_03.json.1.tmp"} {
			require.NoError(t, os.WriteFile(root.Path(name), []byte("[]"), 0o644))
		}
		require.NoError(t, os.Mkdir(root.Path("chat_05.json"), 0o755))

		m := NewShardManager(root)
		shards := m.List()
		require.Len(t, shards, 3)
		assert.Equal(t, []int{2, 9, 10}, []int{shards[0].Index, shards[1].Index, shards[2].Index})

		active, ok := m.Active()
		require.True(t, ok)
		assert.Equal(t, 10, active.Index)
		assert.Equal(t, root.Path("chat_10.json"), active.Path)
	})

	t.Run("recent returns the newest n oldest first", func(t *testing.T) {
		root := storage.NewRoot(t.TempDir())
		m := NewShardManager(root)
		for i := 1; i <= 5; i++ {
			require.NoError(t, m.Save(m.Rotate(i), nil))
		}

		recent := m.Recent(2)
		require.Len(t, recent, 2)
		assert.Equal(t, 4, recent[0].Index)
		assert.Equal(t, 5, recent[1].Index)
		assert.Len(t, m.Recent(50), 5)
	})

	t.Run("rotate does not touch disk", func(t *testing.T) {
		root := storage.NewRoot(t.TempDir())
		m := NewShardManager(root)

		s := m.Rotate(3)
		assert.Equal(t, "chat_03.json", s.Name())
		_, err := os.Stat(s.Path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("name is the file on disk", func(t *testing.T) {
		root := storage.NewRoot(t.TempDir())
		require.NoError(t, os.WriteFile(root.Path("chat_007.json"), []byte("[]"), 0o644))

		active, ok := NewShardManager(root).Active()
		require.True(t, ok)
		assert.Equal(t, 7, active.Index)
		assert.Equal(t, "chat_007.json", active.Name())
	})

	t.Run("corrupt shard loads as empty", func(t *testing.T) {
		root := storage.NewRoot(t.TempDir())
		require.NoError(t, os.WriteFile(root.Path("chat_01.json"), []byte("not json"), 0o644))

		m := NewShardManager(root)
		active, ok := m.Active()
		require.True(t, ok)
		assert.Empty(t, m.Load(active))
	})
}
