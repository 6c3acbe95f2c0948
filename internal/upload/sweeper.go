package upload

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultSweepInterval = time.Hour
	DefaultMaxAge        = 24 * time.Hour
)

// StartSweeper launches a background loop that removes files in the upload
// directory older than maxAge. The steward already deletes assets on every
// request exit path; the sweeper is the safety net for files orphaned by a
// crash between acquire and release.
func (s *Steward) StartSweeper(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	go s.sweepLoop(ctx, interval, maxAge)
}

func (s *Steward) sweepLoop(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepOnce(maxAge); err != nil {
				s.log.Warn().Err(err).Msg("sweep upload dir failed")
			}
		}
	}
}

// SweepOnce removes every regular file under the upload dir whose mtime is
// older than maxAge.
func (s *Steward) SweepOnce(maxAge time.Duration) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", path).Msg("remove orphaned upload failed")
		}
	}
	return nil
}
