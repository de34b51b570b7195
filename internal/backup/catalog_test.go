// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package backup

import (
	"path/filepath"
	"testing"
)

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	seedArtifacts(t, dir,
		"db-20260310-120000.sql.gz",
		"db-20260314-031500.sql.gz",
		"db-20260301-000000.sql.gz",
		"media-mirror.tar.gz",
		"db-20260314-031500.sql.gz.tmp",
	)

	artifacts, err := List(dir)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}

	wantOrder := []string{
		"db-20260314-031500.sql.gz",
		"db-20260310-120000.sql.gz",
		"db-20260301-000000.sql.gz",
	}
	if len(artifacts) != len(wantOrder) {
		t.Fatalf("got %d artifacts, want %d", len(artifacts), len(wantOrder))
	}
	for i, want := range wantOrder {
		if artifacts[i].Name != want {
			t.Errorf("artifacts[%d].Name = %q, want %q", i, artifacts[i].Name, want)
		}
	}
}

func TestListPopulatesArtifactFields(t *testing.T) {
	dir := t.TempDir()
	seedArtifacts(t, dir, "db-20260314-031500.sql.gz")

	artifacts, err := List(dir)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("got %d artifacts, want 1", len(artifacts))
	}

	a := artifacts[0]
	if a.Kind != KindDatabase {
		t.Errorf("kind = %q, want %q", a.Kind, KindDatabase)
	}
	if a.Path != filepath.Join(dir, a.Name) {
		t.Errorf("path = %q, want %q", a.Path, filepath.Join(dir, a.Name))
	}
	if a.SizeBytes == 0 {
		t.Error("expected artifact size to be populated")
	}
	if a.CreatedAt.IsZero() {
		t.Error("expected created_at to be parsed from the name")
	}
}

func TestListMissingDirectory(t *testing.T) {
	artifacts, err := List(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if artifacts != nil {
		t.Errorf("expected empty catalog, got %d artifacts", len(artifacts))
	}
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	seedArtifacts(t, dir,
		"db-20260310-120000.sql.gz",
		"db-20260314-031500.sql.gz",
	)

	latest, err := Latest(dir)
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	if latest == nil {
		t.Fatal("expected an artifact")
	}
	if latest.Name != "db-20260314-031500.sql.gz" {
		t.Errorf("latest = %q, want db-20260314-031500.sql.gz", latest.Name)
	}
}

func TestLatestEmptyCatalog(t *testing.T) {
	latest, err := Latest(t.TempDir())
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	if latest != nil {
		t.Errorf("expected nil for empty catalog, got %v", latest)
	}
}
