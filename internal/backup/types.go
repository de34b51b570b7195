// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

// Package backup creates database and media backups for the managed
// Django stack.
//
// Two backup kinds exist:
//
//	Database: a gzip-compressed pg_dump of the configured PostgreSQL
//	          database, written atomically as db-<YYYYMMDD-HHMMSS>.sql.gz
//	Media:    a delete-synchronizing rsync mirror of MEDIA_ROOT onto a
//	          local directory or a remote user@host:path target
//
// Database artifacts are named with a sortable timestamp so lexical and
// chronological order coincide; retention pruning and the catalog both
// rely on that pattern. Artifacts are written to a temporary file and
// renamed into place, so a concurrent restore never observes a partial
// dump. Media backups keep no history: each run mirrors the current
// source state over the previous one.
//
// Usage:
//
//	exec := backup.NewExecutor(cfg, execx.NewRunner())
//	artifact, err := exec.BackupDatabase(ctx)
package backup

import (
	"regexp"
	"time"
)

// Kind identifies what a backup covers.
type Kind string

const (
	// KindDatabase is a compressed PostgreSQL dump.
	KindDatabase Kind = "db"

	// KindMedia is a mirrored copy of the media tree.
	KindMedia Kind = "media"
)

// Artifact describes one completed backup.
type Artifact struct {
	// Kind of backup this artifact holds.
	Kind Kind `json:"kind"`

	// Name is the artifact file name (db) or the target path (media).
	Name string `json:"name"`

	// Path is the absolute or config-relative location of the artifact.
	Path string `json:"path"`

	// CreatedAt is when the backup started, also encoded in the db
	// artifact name.
	CreatedAt time.Time `json:"created_at"`

	// SizeBytes is the artifact file size; zero for media mirrors and
	// remote targets, whose size is not tracked.
	SizeBytes int64 `json:"size_bytes"`
}

// artifactTimeFormat is the timestamp layout embedded in database
// artifact names. Fixed-width and zero-padded so names sort
// chronologically.
const artifactTimeFormat = "20060102-150405"

const (
	artifactPrefix = "db-"
	artifactSuffix = ".sql.gz"
)

// artifactPattern matches database artifact names. Retention pruning
// and the catalog only ever touch files matching this pattern, so
// foreign files in the backup directory are never removed or listed.
var artifactPattern = regexp.MustCompile(`^db-\d{8}-\d{6}\.sql\.gz$`)

// ArtifactName returns the database artifact name for a backup started
// at t, e.g. db-20260314-031500.sql.gz.
func ArtifactName(t time.Time) string {
	return artifactPrefix + t.Format(artifactTimeFormat) + artifactSuffix
}

// IsArtifactName reports whether name matches the database artifact
// naming pattern.
func IsArtifactName(name string) bool {
	return artifactPattern.MatchString(name)
}

// parseArtifactTime extracts the embedded timestamp from a database
// artifact name. Names are written with the local wall clock, so the
// stamp is parsed back in the local location. Returns false for names
// that do not match the pattern or carry an impossible date.
func parseArtifactTime(name string) (time.Time, bool) {
	if !artifactPattern.MatchString(name) {
		return time.Time{}, false
	}
	stamp := name[len(artifactPrefix) : len(name)-len(artifactSuffix)]
	t, err := time.ParseInLocation(artifactTimeFormat, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
