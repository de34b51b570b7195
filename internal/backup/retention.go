// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raillab/railops/internal/metrics"
	"github.com/raillab/railops/internal/opserr"
)

// Prune deletes database artifacts in dir older than maxAgeDays,
// judged by the timestamp embedded in the artifact name. Files that do
// not match the artifact naming pattern are never touched, so the
// media mirror or any foreign file sharing the directory is safe.
//
// maxAgeDays <= 0 disables pruning. Deletion failures are collected
// into a single RetentionPruneError; artifacts that could be deleted
// still count toward removed.
func Prune(dir string, maxAgeDays int, now time.Time) (removed int, err error) {
	if maxAgeDays <= 0 {
		return 0, nil
	}

	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		metrics.RecordPrune(0, 1)
		return 0, &opserr.RetentionPruneError{
			Failures: []error{fmt.Errorf("read backup directory: %w", readErr)},
		}
	}

	cutoff := now.AddDate(0, 0, -maxAgeDays)

	var failures []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		createdAt, ok := parseArtifactTime(entry.Name())
		if !ok {
			continue
		}
		if !createdAt.Before(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if rmErr := os.Remove(path); rmErr != nil {
			failures = append(failures, fmt.Errorf("delete %s: %w", entry.Name(), rmErr))
			continue
		}
		removed++
	}

	metrics.RecordPrune(removed, len(failures))

	if len(failures) > 0 {
		return removed, &opserr.RetentionPruneError{Failures: failures}
	}
	return removed, nil
}
