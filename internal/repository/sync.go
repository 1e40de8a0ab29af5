package repository

import (
	"fmt"
	"os"
	"time"

	"rulesmith/internal/logging"
)

// SyncStatus is the outcome of refreshing one configured source.
type SyncStatus int

const (
	// SyncStatusSuccess means the source was cloned or refreshed.
	SyncStatusSuccess SyncStatus = iota
	// SyncStatusFailed means the refresh errored; the cached checkout, if
	// any, stays usable.
	SyncStatusFailed
	// SyncStatusSkipped means the refresh was intentionally not attempted.
	SyncStatusSkipped
)

func (s SyncStatus) String() string {
	switch s {
	case SyncStatusSuccess:
		return "Success"
	case SyncStatusFailed:
		return "Failed"
	case SyncStatusSkipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

// SyncResult reports the outcome of syncing a single source.
type SyncResult struct {
	RepositoryID   string
	RepositoryName string
	Status         SyncStatus
	Err            error
	SkipReason     string
	Duration       time.Duration
}

// Message renders the result for display.
func (r SyncResult) Message() string {
	switch r.Status {
	case SyncStatusSuccess:
		return fmt.Sprintf("synced in %s", r.Duration.Round(100*time.Millisecond))
	case SyncStatusFailed:
		if r.Err != nil {
			return fmt.Sprintf("sync failed: %v", r.Err)
		}
		return "sync failed"
	case SyncStatusSkipped:
		if r.SkipReason != "" {
			return fmt.Sprintf("skipped: %s", r.SkipReason)
		}
		return "skipped"
	default:
		return "unknown status"
	}
}

// SyncAll refreshes every configured source and returns one result per entry,
// in input order. A failing source is reported, never fatal: the remaining
// sources still sync and generation keeps reading whatever is on disk.
func SyncAll(entries []RepositoryEntry, logger *logging.AppLogger) []SyncResult {
	if logger != nil {
		logger.Info("syncing template repositories", "count", len(entries))
	}

	results := make([]SyncResult, 0, len(entries))
	for _, entry := range entries {
		result := syncOne(entry, logger)
		results = append(results, result)

		if logger != nil {
			logger.Info("repository sync finished",
				"repository", entry.Name,
				"status", result.Status.String(),
				"duration", result.Duration,
			)
		}
	}
	return results
}

// syncOne clones a missing checkout, fetches an existing clean one, and skips
// local directories and dirty worktrees.
func syncOne(entry RepositoryEntry, logger *logging.AppLogger) SyncResult {
	start := time.Now()
	result := SyncResult{
		RepositoryID:   entry.ID,
		RepositoryName: entry.Name,
	}
	done := func() SyncResult {
		result.Duration = time.Since(start)
		return result
	}

	if !entry.IsRemote() {
		result.Status = SyncStatusSkipped
		result.SkipReason = "local directory, nothing to sync"
		return done()
	}

	if _, err := os.Stat(entry.Path); os.IsNotExist(err) {
		// First sync: clone through Prepare.
		source := NewGitSource(entry.GetRemoteURL(), entry.Branch, entry.Path)
		if _, err := source.Prepare(logger); err != nil {
			result.Status = SyncStatusFailed
			result.Err = fmt.Errorf("initial clone failed: %w", err)
			return done()
		}
		result.Status = SyncStatusSuccess
		return done()
	}

	dirty, err := WorktreeIsDirty(entry.Path)
	if err != nil {
		result.Status = SyncStatusFailed
		result.Err = fmt.Errorf("failed to check repository status: %w", err)
		return done()
	}
	if dirty {
		result.Status = SyncStatusSkipped
		result.SkipReason = "uncommitted changes"
		return done()
	}

	source := NewGitSource(entry.GetRemoteURL(), entry.Branch, entry.Path)
	if err := source.FetchUpdates(logger); err != nil {
		result.Status = SyncStatusFailed
		result.Err = fmt.Errorf("fetch failed: %w", err)
		return done()
	}

	result.Status = SyncStatusSuccess
	return done()
}
