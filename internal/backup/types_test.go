// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package backup

import (
	"testing"
	"time"
)

func TestArtifactName(t *testing.T) {
	at := time.Date(2026, 3, 14, 3, 15, 0, 0, time.UTC)

	got := ArtifactName(at)
	want := "db-20260314-031500.sql.gz"
	if got != want {
		t.Errorf("ArtifactName() = %q, want %q", got, want)
	}
}

func TestArtifactNamesSortChronologically(t *testing.T) {
	earlier := ArtifactName(time.Date(2026, 3, 14, 9, 59, 59, 0, time.UTC))
	later := ArtifactName(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))

	if !(earlier < later) {
		t.Errorf("expected %q to sort before %q", earlier, later)
	}
}

func TestIsArtifactName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"db-20260314-031500.sql.gz", true},
		{"db-19991231-235959.sql.gz", true},
		{"db-20260314-031500.sql.gz.tmp", false},
		{"xdb-20260314-031500.sql.gz", false},
		{"db-2026-031500.sql.gz", false},
		{"db-20260314-0315.sql.gz", false},
		{"media-20260314-031500.sql.gz", false},
		{"db-20260314-031500.sql", false},
		{"notes.txt", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsArtifactName(tt.name); got != tt.want {
				t.Errorf("IsArtifactName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestParseArtifactTimeRoundTrip(t *testing.T) {
	at := time.Date(2026, 6, 15, 12, 30, 45, 0, time.Local)

	got, ok := parseArtifactTime(ArtifactName(at))
	if !ok {
		t.Fatal("expected artifact name to parse")
	}
	if !got.Equal(at) {
		t.Errorf("parsed %v, want %v", got, at)
	}
}

func TestParseArtifactTimeRejectsImpossibleDate(t *testing.T) {
	// Matches the pattern but names a thirteenth month.
	if _, ok := parseArtifactTime("db-20261301-000000.sql.gz"); ok {
		t.Error("expected impossible date to be rejected")
	}
}

func TestParseArtifactTimeRejectsForeignNames(t *testing.T) {
	if _, ok := parseArtifactTime("media-snapshot.tar.gz"); ok {
		t.Error("expected foreign name to be rejected")
	}
}
