// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

// Package testinfra provides container infrastructure for integration
// tests, built on testcontainers-go.
//
// The backup and restore executors shell out to the PostgreSQL client
// tools, so their integration tests need a real server to dump from and
// replay into. NewPostgresContainer starts one and hands back a
// ready-to-use DSN:
//
//	func TestRoundTrip(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    testinfra.SkipIfMissingTool(t, "pg_dump")
//
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg.Container)
//
//	    cfg.Database.URL = pg.DSN
//	    // ...
//	}
//
// Everything here is behind the integration build tag; run with
//
//	go test -tags integration ./...
//
// Tests skip gracefully when Docker or a required client tool is not
// installed, so the ordinary unit test run stays green on minimal
// machines. The first run downloads the postgres image; later runs use
// the cache.
package testinfra
