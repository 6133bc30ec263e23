// Package chatlog is the file-backed chat message log.
//
// Messages are appended to numbered shard files (chat_01.json, chat_02.json,
// ...) of at most ShardCapacity entries each. Revocations and reactions are
// kept in separate side tables keyed by message id and merged onto the
// message stream at read time, so shard content is never rewritten for them.
// Every file is replaced with a write-temp-then-rename.
package chatlog

import (
	"github.com/adi-253/qqchat/internal/models"
	"github.com/adi-253/qqchat/internal/storage"
)

// Store bundles the log and its side tables for one storage root.
type Store struct {
	Root        *storage.Root
	Log         *Log
	Revocations *RevocationTable
	Reactions   *ReactionTable
}

// Open wires a Store over root. Nothing is read or created on disk.
func Open(root *storage.Root, opts ...LogOption) *Store {
	return &Store{
		Root:        root,
		Log:         NewLog(root, opts...),
		Revocations: NewRevocationTable(root),
		Reactions:   NewReactionTable(root),
	}
}

// Views lists the most recent limit messages with side tables merged in.
func (s *Store) Views(limit int) []models.MessageView {
	msgs := s.Log.List(limit)
	return Merge(msgs, s.Revocations.Snapshot(), s.Reactions.Snapshot())
}
