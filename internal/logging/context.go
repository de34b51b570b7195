// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// contextKey is a private type for context keys in this package.
type contextKey string

// operationIDKey is the context key for operation IDs.
const operationIDKey contextKey = "operation_id"

// NewOperationID creates a unique ID for one backup/restore/deploy run.
// The short form (8 hex chars of a UUID) keeps log lines readable while
// still distinguishing overlapping runs.
func NewOperationID() string {
	return uuid.New().String()[:8]
}

// WithOperationID returns a context carrying the given operation ID.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operationIDKey, id)
}

// EnsureOperationID returns ctx carrying an operation ID, minting one
// when the caller has not attached one yet. Executors call this at the
// start of every run so CLI invocations are tagged as well as scheduled
// ones.
func EnsureOperationID(ctx context.Context) context.Context {
	if OperationID(ctx) != "" {
		return ctx
	}
	return WithOperationID(ctx, NewOperationID())
}

// OperationID extracts the operation ID from the context, or "" if unset.
func OperationID(ctx context.Context) string {
	if id, ok := ctx.Value(operationIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger enriched with the context's operation ID.
// Components use this so every line from one run shares an op field:
//
//	logging.Ctx(ctx).Info().Str("kind", "db").Msg("Backup starting")
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := Logger()
	if id := OperationID(ctx); id != "" {
		logger = logger.With().Str("op", id).Logger()
	}
	return &logger
}
