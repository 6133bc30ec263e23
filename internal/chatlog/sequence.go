package chatlog

// SequenceAllocator hands out sequence numbers for new messages.
//
// It scans only the newest ShardWindow shards, so the cost of an append stays
// bounded as the log grows. Sequence numbers are an ordering hint; message ids
// carry identity.
type SequenceAllocator struct {
	shards *ShardManager
}

// NewSequenceAllocator creates an allocator reading from shards.
func NewSequenceAllocator(shards *ShardManager) *SequenceAllocator {
	return &SequenceAllocator{shards: shards}
}

// Next returns one more than the highest sequence in the window, or 1 for an empty log.
func (a *SequenceAllocator) Next() uint64 {
	var latest uint64
	for _, s := range a.shards.Recent(ShardWindow) {
		for _, m := range a.shards.Load(s) {
			if m.Seq > latest {
				latest = m.Seq
			}
		}
	}
	return latest + 1
}
