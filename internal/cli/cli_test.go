package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-253/qqchat/internal/chatlog"
	"github.com/adi-253/qqchat/internal/models"
	"github.com/adi-253/qqchat/internal/services"
	"github.com/adi-253/qqchat/internal/storage"
)

func runCLI(t *testing.T, args ...string) ([]byte, []byte, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.Bytes(), stderr.Bytes(), err
}

func mustRun(t *testing.T, args ...string) json.RawMessage {
	t.Helper()
	stdout, stderr, err := runCLI(t, args...)
	require.NoError(t, err, "chatctl %v\nstderr:\n%s", args, stderr)
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(stdout, &env), "stdout:\n%s", stdout)
	return env.Data
}

func seed(t *testing.T, dir string, texts ...string) []models.Message {
	t.Helper()
	st := chatlog.Open(storage.NewRoot(dir))
	out := make([]models.Message, 0, len(texts))
	for i, text := range texts {
		msg, err := st.Log.Append(models.Message{
			ID:   "m" + string(rune('a'+i)),
			User: models.Author{Nickname: "alice", QQ: "123456"},
			Text: text,
		})
		require.NoError(t, err)
		out = append(out, msg)
	}
	return out
}

func TestListCommand(t *testing.T) {
	dir := t.TempDir()

	var views []models.MessageView
	require.NoError(t, json.Unmarshal(mustRun(t, "--dir", dir, "list"), &views))
	assert.Empty(t, views)

	seed(t, dir, "one", "two", "three")

	require.NoError(t, json.Unmarshal(mustRun(t, "--dir", dir, "list", "--limit", "2"), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "two", views[0].Text)
	assert.Equal(t, "three", views[1].Text)
}

func TestRevokeCommand(t *testing.T) {
	dir := t.TempDir()
	msgs := seed(t, dir, "secret")

	mustRun(t, "--dir", dir, "revoke", msgs[0].ID)

	var views []models.MessageView
	require.NoError(t, json.Unmarshal(mustRun(t, "--dir", dir, "list"), &views))
	require.Len(t, views, 1)
	assert.True(t, views[0].Revoked)
	assert.Empty(t, views[0].Text)

	_, stderr, err := runCLI(t, "--dir", dir, "revoke", "ghost")
	require.ErrorIs(t, err, services.ErrMessageNotFound)
	assert.Contains(t, string(stderr), "ghost")
}

func TestReactCommand(t *testing.T) {
	dir := t.TempDir()
	msgs := seed(t, dir, "hello")
	id := msgs[0].ID

	var out struct {
		Reactions []models.ReactionCount `json:"reactions"`
	}
	require.NoError(t, json.Unmarshal(mustRun(t, "--dir", dir, "react", id, "🎉", "--nickname", "bob", "--qq", "54321"), &out))
	assert.Equal(t, []models.ReactionCount{{Emoji: "🎉", Count: 1}}, out.Reactions)

	require.NoError(t, json.Unmarshal(mustRun(t, "--dir", dir, "react", id, "🎉", "--nickname", "bob", "--qq", "54321"), &out))
	assert.Empty(t, out.Reactions)

	_, _, err := runCLI(t, "--dir", dir, "react", id, "🎉", "--nickname", "bob", "--qq", "abc")
	assert.ErrorIs(t, err, services.ErrInvalidIdentity)

	_, _, err = runCLI(t, "--dir", dir, "react", id, "🎉")
	assert.Error(t, err)
}

func TestShardsAndSweepCommands(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, "old")

	var shards []shardInfo
	require.NoError(t, json.Unmarshal(mustRun(t, "--dir", dir, "shards"), &shards))
	require.Len(t, shards, 1)
	assert.Equal(t, 1, shards[0].Index)
	assert.Equal(t, "chat_01.json", shards[0].Name)
	assert.Equal(t, 1, shards[0].Messages)

	var res map[string]int
	require.NoError(t, json.Unmarshal(mustRun(t, "--dir", dir, "sweep"), &res))
	assert.Equal(t, 0, res["total"])

	old := time.Now().Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "chat_01.json"), old, old))

	require.NoError(t, json.Unmarshal(mustRun(t, "--dir", dir, "sweep", "--retention", "48h"), &res))
	assert.Equal(t, 1, res["shards"])
	assert.Equal(t, 1, res["total"])

	require.NoError(t, json.Unmarshal(mustRun(t, "--dir", dir, "shards"), &shards))
	assert.Empty(t, shards)
}
