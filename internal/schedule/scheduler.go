// Railops - Backup, Restore, and Deployment Operations for Django Stacks
// Copyright 2026 Rail Labs (raillab)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raillab/railops

// Package schedule runs backups on cron schedules while the ops daemon is
// up. Each backup kind has at most one schedule entry; registering a kind
// twice replaces the earlier entry. A per-kind guard skips a firing whose
// previous run is still active instead of stacking a second one on top.
//
// Kinds can also be registered without a schedule and fired on demand
// with Trigger, which the ops API uses for manual backup runs. Manual
// and scheduled runs share the per-kind guard, so they never overlap
// each other.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raillab/railops/internal/backup"
	"github.com/raillab/railops/internal/logging"
	"github.com/raillab/railops/internal/metrics"
)

// pollInterval is how often the scheduler checks for due entries.
// Five-field cron has minute resolution; polling twice a minute keeps
// firings close to the minute boundary.
const pollInterval = 30 * time.Second

// ErrRunInProgress is returned by Trigger when a run of the same kind
// is still active.
var ErrRunInProgress = errors.New("backup run already in progress")

// RunFunc executes one backup run.
type RunFunc func(ctx context.Context) error

// entry is one registered backup kind: its run function and overlap
// guard, plus the cron schedule and precomputed next fire time when the
// kind is scheduled. schedule is nil for trigger-only entries.
type entry struct {
	kind     backup.Kind
	expr     string
	schedule cron.Schedule
	run      RunFunc
	nextRun  time.Time
	running  *atomic.Bool
}

// Scheduler fires registered backup runs when their cron schedules come
// due. It implements suture.Service; Serve polls for due entries until
// the context is canceled.
type Scheduler struct {
	mu       sync.Mutex
	entries  map[backup.Kind]*entry
	poll     time.Duration
	now      func() time.Time
	serveCtx context.Context
	wg       sync.WaitGroup
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		entries: make(map[backup.Kind]*entry),
		poll:    pollInterval,
		now:     time.Now,
	}
}

// parseSchedule parses a standard five-field cron expression.
func parseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(strings.TrimSpace(expr))
}

// SetEntry registers a cron schedule for a backup kind, replacing any
// existing entry for that kind. The run function is invoked in its own
// goroutine each time the schedule fires.
func (s *Scheduler) SetEntry(kind backup.Kind, expr string, run RunFunc) error {
	sched, err := parseSchedule(expr)
	if err != nil {
		return fmt.Errorf("parse cron expression %q: %w", expr, err)
	}

	next := sched.Next(s.now())
	s.replaceEntry(&entry{
		kind:     kind,
		expr:     expr,
		schedule: sched,
		run:      run,
		nextRun:  next,
	})
	metrics.SetNextRun(string(kind), next)

	logging.Info().
		Str("kind", string(kind)).
		Str("cron", expr).
		Time("next_run", next).
		Msg("Backup schedule registered")
	return nil
}

// Register adds a backup kind without a schedule, replacing any existing
// entry for that kind. The kind never fires on its own and can only be
// run with Trigger.
func (s *Scheduler) Register(kind backup.Kind, run RunFunc) {
	s.replaceEntry(&entry{kind: kind, run: run})

	logging.Info().
		Str("kind", string(kind)).
		Msg("Backup registered for manual runs only")
}

// replaceEntry installs e as the entry for its kind.
func (s *Scheduler) replaceEntry(e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The overlap guard belongs to the kind, not the entry: replacing an
	// entry mid-run must not let its successor overlap the old run.
	e.running = new(atomic.Bool)
	if prev, ok := s.entries[e.kind]; ok {
		e.running = prev.running
	}
	s.entries[e.kind] = e
}

// NextRuns reports the next fire time for every scheduled kind.
// Trigger-only kinds are omitted.
func (s *Scheduler) NextRuns() map[backup.Kind]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make(map[backup.Kind]time.Time, len(s.entries))
	for kind, e := range s.entries {
		if e.schedule == nil {
			continue
		}
		runs[kind] = e.nextRun
	}
	return runs
}

// Trigger starts a run of kind immediately, outside any schedule. The
// run executes in the background under the scheduler's serve context,
// so a response can be sent while the backup proceeds. Trigger fails
// with ErrRunInProgress when a run of the same kind is still active.
func (s *Scheduler) Trigger(kind backup.Kind) error {
	s.mu.Lock()
	e, ok := s.entries[kind]
	ctx := s.serveCtx
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("no backup registered for kind %q", kind)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if !e.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer e.running.Store(false)

		runCtx := logging.WithOperationID(ctx, logging.NewOperationID())
		started := time.Now()
		if err := e.run(runCtx); err != nil {
			logging.Ctx(runCtx).Error().
				Err(err).
				Str("kind", string(e.kind)).
				Msg("Manual backup failed")
			return
		}
		logging.Ctx(runCtx).Info().
			Str("kind", string(e.kind)).
			Dur("elapsed", time.Since(started)).
			Msg("Manual backup completed")
	}()
	return nil
}

// Serve implements suture.Service. It polls for due entries until the
// context is canceled, then waits for in-flight runs to finish. Manual
// runs started with Trigger share the serve context, so daemon shutdown
// cancels them too.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.mu.Lock()
	s.serveCtx = ctx
	registered := len(s.entries)
	s.mu.Unlock()

	logging.Info().
		Dur("poll_interval", s.poll).
		Int("entries", registered).
		Msg("Backup scheduler started")

	s.runDue(ctx)
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logging.Info().Msg("Backup scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// runDue fires every entry whose next run time has arrived and advances
// its schedule.
func (s *Scheduler) runDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*entry
	for _, e := range s.entries {
		if e.schedule == nil || e.nextRun.After(now) {
			continue
		}
		due = append(due, e)
		e.nextRun = e.schedule.Next(now)
		metrics.SetNextRun(string(e.kind), e.nextRun)
	}
	s.mu.Unlock()

	for _, e := range due {
		s.dispatch(ctx, e)
	}
}

// dispatch starts one scheduled run unless the previous run for the same
// kind is still active, in which case the firing is skipped and counted.
func (s *Scheduler) dispatch(ctx context.Context, e *entry) {
	if !e.running.CompareAndSwap(false, true) {
		metrics.SchedulerSkippedOverlaps.WithLabelValues(string(e.kind)).Inc()
		logging.Warn().
			Str("kind", string(e.kind)).
			Msg("Skipping scheduled run, previous run still active")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer e.running.Store(false)

		runCtx := logging.WithOperationID(ctx, logging.NewOperationID())
		started := time.Now()
		err := e.run(runCtx)
		metrics.RecordScheduledRun(string(e.kind), err)
		if err != nil {
			logging.Ctx(runCtx).Error().
				Err(err).
				Str("kind", string(e.kind)).
				Msg("Scheduled backup failed")
			return
		}
		logging.Ctx(runCtx).Info().
			Str("kind", string(e.kind)).
			Dur("elapsed", time.Since(started)).
			Msg("Scheduled backup completed")
	}()
}
