package chatlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/adi-253/qqchat/internal/models"
	"github.com/adi-253/qqchat/internal/storage"
)

const (
	// ShardCapacity is the number of messages a shard holds before a new one is started
	ShardCapacity = 100

	// ShardWindow is how many of the newest shards are read by list and by
	// the sequence allocator
	ShardWindow = 10

	shardPrefix = "chat_"
	shardSuffix = ".json"
)

// Shard identifies one numbered shard file.
type Shard struct {
	Index int
	Path  string
}

// Name returns the shard's file name as found on disk, e.g. chat_07.json.
func (s Shard) Name() string {
	return filepath.Base(s.Path)
}

// ShardFileName formats the file name for a shard index, zero-padded to two digits.
func ShardFileName(index int) string {
	return fmt.Sprintf("%s%02d%s", shardPrefix, index, shardSuffix)
}

// ParseShardFileName extracts the index from a shard file name.
// Names without the chat_ prefix and .json suffix, or without a positive
// decimal index in between, are rejected.
func ParseShardFileName(name string) (int, bool) {
	if !strings.HasPrefix(name, shardPrefix) || !strings.HasSuffix(name, shardSuffix) {
		return 0, false
	}
	digits := name[len(shardPrefix) : len(name)-len(shardSuffix)]
	if digits == "" {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(digits)
	if err != nil || idx <= 0 {
		return 0, false
	}
	return idx, true
}

// ShardManager enumerates the shard files under a storage root.
type ShardManager struct {
	root *storage.Root
}

// NewShardManager creates a ShardManager for root.
func NewShardManager(root *storage.Root) *ShardManager {
	return &ShardManager{root: root}
}

// List returns every well-formed shard sorted by ascending index.
// An unreadable directory is reported as having no shards.
func (m *ShardManager) List() []Shard {
	entries, err := os.ReadDir(m.root.Dir())
	if err != nil {
		return nil
	}

	shards := make([]Shard, 0, len(entries))
	seen := make(map[int]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		idx, ok := ParseShardFileName(e.Name())
		if !ok || seen[idx] {
			// chat_1.json and chat_01.json name the same shard; keep the first
			continue
		}
		seen[idx] = true
		shards = append(shards, Shard{Index: idx, Path: m.root.Path(e.Name())})
	}

	sort.Slice(shards, func(i, j int) bool { return shards[i].Index < shards[j].Index })
	return shards
}

// Recent returns up to n of the newest shards, oldest first.
func (m *ShardManager) Recent(n int) []Shard {
	shards := m.List()
	if len(shards) > n {
		shards = shards[len(shards)-n:]
	}
	return shards
}

// Active returns the highest-index shard. ok is false when there are no shards.
func (m *ShardManager) Active() (shard Shard, ok bool) {
	shards := m.List()
	if len(shards) == 0 {
		return Shard{}, false
	}
	return shards[len(shards)-1], true
}

// Rotate returns the handle for a new, empty shard at nextIndex.
// The file comes into existence on the first Save.
func (m *ShardManager) Rotate(nextIndex int) Shard {
	name := ShardFileName(nextIndex)
	return Shard{Index: nextIndex, Path: m.root.Path(name)}
}

// Load reads the messages of a shard. A missing or corrupt shard reads as empty.
func (m *ShardManager) Load(s Shard) []models.Message {
	return storage.ReadJSON[[]models.Message](s.Path, nil)
}

// Save atomically replaces the content of a shard.
func (m *ShardManager) Save(s Shard, msgs []models.Message) error {
	if err := storage.WriteJSON(s.Path, msgs); err != nil {
		return fmt.Errorf("failed to save shard %d: %w", s.Index, err)
	}
	return nil
}
