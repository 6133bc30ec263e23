package services

import (
	"log"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/adi-253/qqchat/internal/chatlog"
)

// CleanupService runs the retention sweeper in the background.
// It sweeps once on start, then on every interval tick, or on every tick of
// a cron expression when one is configured.
type CleanupService struct {
	sweeper  *chatlog.Sweeper
	interval time.Duration
	cron     string
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewCleanupService creates a new cleanup service.
// - interval: how often to sweep (e.g., 10 minutes); zero disables periodic sweeps
// - cron: optional cron expression that takes precedence over interval
func NewCleanupService(sweeper *chatlog.Sweeper, interval time.Duration, cron string) *CleanupService {
	return &CleanupService{
		sweeper:  sweeper,
		interval: interval,
		cron:     cron,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background cleanup worker.
// This method blocks until Stop is called and should be called with 'go'.
func (s *CleanupService) Start() {
	log.Printf("Cleanup service started (interval: %v, cron: %q, retention: %v)", s.interval, s.cron, s.sweeper.MaxAge())
	s.SweepNow()

	switch {
	case s.cron != "":
		s.runCron()
	case s.interval > 0:
		s.runTicker()
	default:
		<-s.stopChan
	}
	log.Println("Cleanup service stopped")
}

// Stop gracefully shuts down the cleanup service. Safe to call more than once.
func (s *CleanupService) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// SweepNow runs one sweep synchronously.
func (s *CleanupService) SweepNow() chatlog.SweepResult {
	res := s.sweeper.Sweep()
	if res.Total() > 0 {
		log.Printf("[Cleanup] Removed %d shard(s), %d side file(s), %d attachment(s), %d temp file(s)",
			res.Shards, res.SideFiles, res.Attachments, res.TempFiles)
	}
	return res
}

func (s *CleanupService) runTicker() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepNow()
		case <-s.stopChan:
			return
		}
	}
}

func (s *CleanupService) runCron() {
	for {
		next, err := gronx.NextTickAfter(s.cron, time.Now(), false)
		wait := time.Until(next)
		if err != nil {
			log.Printf("[Cleanup] Failed to compute next tick for %q: %v", s.cron, err)
			wait = time.Minute
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			s.SweepNow()
		case <-s.stopChan:
			timer.Stop()
			return
		}
	}
}
