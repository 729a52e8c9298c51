package cleanup

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Scheduler sweeps scratch files that outlived their task, e.g. after a crash
type Scheduler struct {
	tempDir  string
	interval time.Duration
	maxAge   time.Duration
	log      logrus.FieldLogger
	now      func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler creates a new cleanup scheduler
func NewScheduler(tempDir string, intervalMinutes, maxAgeHours int, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		tempDir:  tempDir,
		interval: time.Duration(intervalMinutes) * time.Minute,
		maxAge:   time.Duration(maxAgeHours) * time.Hour,
		log:      log.WithField("component", "cleanup"),
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one sweep immediately, then one per interval until Stop
func (s *Scheduler) Start() {
	s.log.Info("Running initial scratch file cleanup")
	s.Sweep()

	ticker := time.NewTicker(s.interval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stopChan:
				return
			}
		}
	}()

	s.log.WithFields(logrus.Fields{
		"interval": s.interval,
		"max_age":  s.maxAge,
	}).Info("Cleanup scheduler started")
}

// Stop stops the cleanup scheduler and waits for a running sweep
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		<-s.done
		s.log.Info("Cleanup scheduler stopped")
	})
}

// Sweep removes files older than the max age from the temp directory and
// returns how many were deleted
func (s *Scheduler) Sweep() int {
	now := s.now()

	var deletedCount int
	var deletedSize int64

	err := filepath.Walk(s.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}
		if info.IsDir() {
			return nil
		}

		age := now.Sub(info.ModTime())
		if age <= s.maxAge {
			return nil
		}

		size := info.Size()
		if err := os.Remove(path); err != nil {
			s.log.WithError(err).Warnf("Failed to delete old file %s", path)
			return nil
		}
		deletedCount++
		deletedSize += size
		s.log.WithFields(logrus.Fields{
			"file": filepath.Base(path),
			"age":  age.Round(time.Hour),
			"kb":   size / 1024,
		}).Debug("Deleted old scratch file")
		return nil
	})
	if err != nil {
		s.log.WithError(err).Error("Error during cleanup")
	}

	if deletedCount > 0 {
		s.log.Infof("Cleanup complete: %d files deleted, %.2fMB freed",
			deletedCount, float64(deletedSize)/(1024*1024))
	}
	return deletedCount
}

// EnsureTempDirExists creates the temp directory if it doesn't exist
func EnsureTempDirExists(tempDir string, log logrus.FieldLogger) error {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return err
	}
	log.Infof("Temp directory ready: %s", tempDir)
	return nil
}
