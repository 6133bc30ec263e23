package chatlog

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/adi-253/qqchat/internal/metrics"
	"github.com/adi-253/qqchat/internal/models"
	"github.com/adi-253/qqchat/internal/storage"
)

// ReactionsFile holds message id -> emoji -> user keys.
const ReactionsFile = "reactions.json"

// ReactionMap is the decoded content of the reactions file.
type ReactionMap map[string]map[string][]string

// Summarize returns the emoji counts for one message, highest count first.
// Equal counts are ordered by emoji so the output is stable.
func (m ReactionMap) Summarize(messageID string) []models.ReactionCount {
	byEmoji := m[messageID]
	out := make([]models.ReactionCount, 0, len(byEmoji))
	for emoji, users := range byEmoji {
		if len(users) == 0 {
			continue
		}
		out = append(out, models.ReactionCount{Emoji: emoji, Count: len(users)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Emoji < out[j].Emoji
	})
	return out
}

// toggle flips userKey in m[messageID][emoji] and prunes empty containers.
// It reports whether the key is now present.
func (m ReactionMap) toggle(messageID, emoji, userKey string) bool {
	byEmoji := m[messageID]
	if byEmoji == nil {
		byEmoji = make(map[string][]string)
		m[messageID] = byEmoji
	}

	users := byEmoji[emoji]
	added := false
	if i := slices.Index(users, userKey); i >= 0 {
		users = slices.Delete(users, i, i+1)
	} else {
		users = append(users, userKey)
		added = true
	}

	if len(users) == 0 {
		delete(byEmoji, emoji)
	} else {
		byEmoji[emoji] = users
	}
	if len(byEmoji) == 0 {
		delete(m, messageID)
	}
	return added
}

// ReactionTable is the persisted per-message emoji reaction map.
type ReactionTable struct {
	root *storage.Root
	mu   *sync.Mutex
}

// NewReactionTable creates a ReactionTable under root.
func NewReactionTable(root *storage.Root) *ReactionTable {
	return &ReactionTable{root: root, mu: root.WriteLock()}
}

func (t *ReactionTable) path() string {
	return t.root.Path(ReactionsFile)
}

// Snapshot loads the whole map.
func (t *ReactionTable) Snapshot() ReactionMap {
	m := storage.ReadJSON[ReactionMap](t.path(), nil)
	if m == nil {
		m = make(ReactionMap)
	}
	return m
}

// Toggle adds userKey to the emoji bucket of messageID if absent, removes it
// if present, and persists the whole map. Calling it twice with the same
// arguments restores the previous state.
func (t *ReactionTable) Toggle(messageID, emoji, userKey string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.root.Ensure(); err != nil {
		return err
	}
	m := t.Snapshot()
	added := m.toggle(messageID, emoji, userKey)
	if err := storage.WriteJSON(t.path(), m); err != nil {
		return fmt.Errorf("failed to save reactions: %w", err)
	}

	if added {
		metrics.ReactionToggles.WithLabelValues("add").Inc()
	} else {
		metrics.ReactionToggles.WithLabelValues("remove").Inc()
	}
	return nil
}

// Summarize returns the emoji counts for messageID, highest count first.
func (t *ReactionTable) Summarize(messageID string) []models.ReactionCount {
	return t.Snapshot().Summarize(messageID)
}
