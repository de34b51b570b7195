// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// List returns the database artifacts in dir, newest first. Files not
// matching the artifact naming pattern are ignored. A missing
// directory yields an empty catalog, not an error: no backups have
// been taken yet.
func List(dir string) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	var artifacts []Artifact
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		createdAt, ok := parseArtifactTime(entry.Name())
		if !ok {
			continue
		}

		artifact := Artifact{
			Kind:      KindDatabase,
			Name:      entry.Name(),
			Path:      filepath.Join(dir, entry.Name()),
			CreatedAt: createdAt,
		}
		if info, err := entry.Info(); err == nil {
			artifact.SizeBytes = info.Size()
		}
		artifacts = append(artifacts, artifact)
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.After(artifacts[j].CreatedAt)
	})

	return artifacts, nil
}

// Latest returns the newest database artifact in dir, or nil when the
// catalog is empty.
func Latest(dir string) (*Artifact, error) {
	artifacts, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, nil
	}
	return &artifacts[0], nil
}
