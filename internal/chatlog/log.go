package chatlog

import (
	"log"
	"sync"
	"time"

	"github.com/adi-253/qqchat/internal/metrics"
	"github.com/adi-253/qqchat/internal/models"
	"github.com/adi-253/qqchat/internal/storage"
)

// Log is the append/list facade over the shard files of one storage root.
//
// Appends from the same process are serialized through the root's write lock.
// Separate processes sharing a directory are not coordinated: two of them can
// both append to a shard holding 99 messages and leave it over capacity.
type Log struct {
	root   *storage.Root
	shards *ShardManager
	seq    *SequenceAllocator
	mu     *sync.Mutex
	now    func() time.Time
}

// LogOption configures a Log.
type LogOption func(*Log)

// WithClock overrides the clock used to stamp CreatedAt.
func WithClock(now func() time.Time) LogOption {
	return func(l *Log) { l.now = now }
}

// NewLog creates a Log over root.
func NewLog(root *storage.Root, opts ...LogOption) *Log {
	shards := NewShardManager(root)
	l := &Log{
		root:   root,
		shards: shards,
		seq:    NewSequenceAllocator(shards),
		mu:     root.WriteLock(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Shards exposes the underlying shard manager.
func (l *Log) Shards() *ShardManager {
	return l.shards
}

// Append assigns msg the next sequence number and writes it to the active
// shard, or to a new shard when the active one is full. CreatedAt is stamped
// with the current time unless already set. The stored message is returned.
func (l *Log) Append(msg models.Message) (models.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.root.Ensure(); err != nil {
		return models.Message{}, err
	}

	msg.Seq = l.seq.Next()
	if msg.CreatedAt == 0 {
		msg.CreatedAt = l.now().UnixMilli()
	}

	active, ok := l.shards.Active()
	if !ok {
		first := l.shards.Rotate(1)
		if err := l.shards.Save(first, []models.Message{msg}); err != nil {
			return models.Message{}, err
		}
		log.Printf("[ChatLog] Started shard %s", first.Name())
		metrics.ActiveShard.Set(float64(first.Index))
		metrics.MessagesAppended.Inc()
		return msg, nil
	}

	msgs := l.shards.Load(active)
	if len(msgs) >= ShardCapacity {
		next := l.shards.Rotate(active.Index + 1)
		if err := l.shards.Save(next, []models.Message{msg}); err != nil {
			return models.Message{}, err
		}
		log.Printf("[ChatLog] Shard %s is full, rotated to %s", active.Name(), next.Name())
		metrics.ShardRotations.Inc()
		metrics.ActiveShard.Set(float64(next.Index))
		metrics.MessagesAppended.Inc()
		return msg, nil
	}

	msgs = append(msgs, msg)
	if err := l.shards.Save(active, msgs); err != nil {
		return models.Message{}, err
	}
	metrics.ActiveShard.Set(float64(active.Index))
	metrics.MessagesAppended.Inc()
	return msg, nil
}

// List returns the most recent limit messages from the newest ShardWindow
// shards, oldest first, in file order. A limit <= 0 returns the whole window.
func (l *Log) List(limit int) []models.Message {
	var all []models.Message
	for _, s := range l.shards.Recent(ShardWindow) {
		all = append(all, l.shards.Load(s)...)
	}
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	if all == nil {
		return []models.Message{}
	}
	return all
}

// Find returns the message with id among the most recent limit messages.
func (l *Log) Find(id string, limit int) (models.Message, bool) {
	for _, m := range l.List(limit) {
		if m.ID == id {
			return m, true
		}
	}
	return models.Message{}, false
}
