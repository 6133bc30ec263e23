package chatlog

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adi-253/qqchat/internal/metrics"
	"github.com/adi-253/qqchat/internal/storage"
)

const (
	// DefaultRetention is how long shards, side tables and attachments are kept
	DefaultRetention = 48 * time.Hour

	// PicDir is the attachment directory under the storage root
	PicDir = "pic"
)

// SweepResult counts what one sweep removed.
type SweepResult struct {
	Shards      int
	SideFiles   int
	Attachments int
	TempFiles   int
}

// Total returns the number of files removed.
func (r SweepResult) Total() int {
	return r.Shards + r.SideFiles + r.Attachments + r.TempFiles
}

// Sweeper deletes storage files whose modification time is older than a threshold.
type Sweeper struct {
	root   *storage.Root
	maxAge time.Duration
	now    func() time.Time
}

// NewSweeper creates a Sweeper for root. A non-positive maxAge selects DefaultRetention.
func NewSweeper(root *storage.Root, maxAge time.Duration) *Sweeper {
	if maxAge <= 0 {
		maxAge = DefaultRetention
	}
	return &Sweeper{
		root:   root,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// MaxAge returns the retention threshold.
func (s *Sweeper) MaxAge() time.Duration {
	return s.maxAge
}

// Sweep removes every shard, side-table file, attachment and leftover temp
// file last modified strictly before now minus the threshold. Individual
// failures, including files that vanished mid-sweep, are skipped.
func (s *Sweeper) Sweep() SweepResult {
	cutoff := s.now().Add(-s.maxAge)
	var res SweepResult

	// Walk the raw entries so duplicate-index shards such as chat_1.json
	// next to chat_01.json are aged out too.
	if entries, err := os.ReadDir(s.root.Dir()); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			var counter *int
			switch {
			case name == RevokedFile || name == ReactionsFile:
				// Side tables age out as whole files. A revoked message still
				// held by a fresher shard reads unrevoked once revoked.json goes.
				counter = &res.SideFiles
			case strings.HasSuffix(name, storage.TempSuffix):
				counter = &res.TempFiles
			default:
				if _, ok := ParseShardFileName(name); !ok {
					continue
				}
				counter = &res.Shards
			}
			if removeIfStale(s.root.Path(name), cutoff) {
				*counter++
			}
		}
	}

	if entries, err := os.ReadDir(s.root.Path(PicDir)); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if removeIfStale(filepath.Join(s.root.Path(PicDir), e.Name()), cutoff) {
				res.Attachments++
			}
		}
	}

	metrics.SweptFiles.WithLabelValues("shard").Add(float64(res.Shards))
	metrics.SweptFiles.WithLabelValues("side").Add(float64(res.SideFiles))
	metrics.SweptFiles.WithLabelValues("attachment").Add(float64(res.Attachments))
	metrics.SweptFiles.WithLabelValues("temp").Add(float64(res.TempFiles))
	return res
}

func removeIfStale(path string, cutoff time.Time) bool {
	info, err := os.Stat(path)
	if err != nil || !info.ModTime().Before(cutoff) {
		return false
	}
	return os.Remove(path) == nil
}
