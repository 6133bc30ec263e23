package chatlog

import (
	"fmt"
	"slices"
	"sync"

	"github.com/adi-253/qqchat/internal/metrics"
	"github.com/adi-253/qqchat/internal/storage"
)

// RevokedFile holds the JSON array of revoked message ids.
const RevokedFile = "revoked.json"

// RevokedSet is a snapshot of revoked message ids.
type RevokedSet map[string]struct{}

// Has reports whether id is revoked.
func (s RevokedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// RevocationTable is the persisted set of hidden message ids.
// Ids are only ever added.
type RevocationTable struct {
	root *storage.Root
	mu   *sync.Mutex
}

// NewRevocationTable creates a RevocationTable under root.
func NewRevocationTable(root *storage.Root) *RevocationTable {
	return &RevocationTable{root: root, mu: root.WriteLock()}
}

func (t *RevocationTable) path() string {
	return t.root.Path(RevokedFile)
}

func (t *RevocationTable) load() []string {
	return storage.ReadJSON[[]string](t.path(), nil)
}

// Snapshot loads the whole set once, for merging into a page of messages.
func (t *RevocationTable) Snapshot() RevokedSet {
	ids := t.load()
	set := make(RevokedSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// IsRevoked reports whether id has been revoked.
func (t *RevocationTable) IsRevoked(id string) bool {
	return slices.Contains(t.load(), id)
}

// Revoke adds id to the set. Revoking an id twice leaves the file untouched.
func (t *RevocationTable) Revoke(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := t.load()
	if slices.Contains(ids, id) {
		return nil
	}
	if err := t.root.Ensure(); err != nil {
		return err
	}
	ids = append(ids, id)
	if err := storage.WriteJSON(t.path(), ids); err != nil {
		return fmt.Errorf("failed to revoke %s: %w", id, err)
	}
	metrics.MessagesRevoked.Inc()
	return nil
}
