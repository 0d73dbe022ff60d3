// Package worker keeps a secondary backend in step with the primary one.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"petspese/internal/amqp"
	"petspese/internal/core"
	"petspese/internal/ports"
)

// ErrDiverged is returned when the mirror holds more rows than the primary.
var ErrDiverged = errors.New("mirror log is longer than the primary log")

// Target is the backend the mirror writes to.
type Target interface {
	ports.StateLoader
	ports.StateCommitter
}

// Mirror copies committed state from a primary backend to a target backend.
// The log is only ever extended on the target, so copying is idempotent.
type Mirror struct {
	source ports.StateLoader
	target Target
	logger *slog.Logger
}

func NewMirror(source ports.StateLoader, target Target, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{source: source, target: target, logger: logger}
}

// SyncResult reports what one Sync copied.
type SyncResult struct {
	Appended int
	Profiles int
	// UpToDate is set when the target already matched and nothing was written.
	UpToDate bool
}

// Sync copies whatever the target is missing.
func (m *Mirror) Sync(ctx context.Context) (SyncResult, error) {
	src, err := m.source.Load(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("load primary: %w", err)
	}
	dst, err := m.target.Load(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("load mirror: %w", err)
	}
	if len(dst.Log) > len(src.Log) {
		return SyncResult{}, fmt.Errorf("%w (%d > %d)", ErrDiverged, len(dst.Log), len(src.Log))
	}

	// Profiles only present on the mirror are kept.
	reg := core.ProfileRegistry{}
	for name, p := range dst.Registry {
		reg[name] = p
	}
	for name, p := range src.Registry {
		reg[name] = p
	}

	res := SyncResult{Appended: len(src.Log) - len(dst.Log), Profiles: len(reg)}
	if res.Appended == 0 && sameRegistry(reg, dst.Registry) {
		res.UpToDate = true
		return res, nil
	}

	if err := m.target.Commit(ctx, ports.State{Log: src.Log, Registry: reg}); err != nil {
		return SyncResult{}, fmt.Errorf("commit mirror: %w", err)
	}
	return res, nil
}

// HandleSubmission syncs after a submission event. It matches the handler
// signature of amqp.Client.ConsumeSubmissions.
func (m *Mirror) HandleSubmission(ctx context.Context, ev *amqp.SubmissionEvent) error {
	m.logger.InfoContext(ctx, "Processing submission event",
		"submission_id", ev.ID,
		"pet", ev.Pet,
		"rows", ev.Rows)

	res, err := m.Sync(ctx)
	if errors.Is(err, ErrDiverged) {
		// Requeueing cannot fix a diverged mirror.
		m.logger.ErrorContext(ctx, "Mirror diverged, dropping event", "submission_id", ev.ID, "error", err)
		return nil
	}
	if err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "Mirror synced",
		"submission_id", ev.ID,
		"appended", res.Appended,
		"profiles", res.Profiles,
		"up_to_date", res.UpToDate)
	return nil
}

// StartupSync recovers events missed while the worker was down.
func (m *Mirror) StartupSync(ctx context.Context) error {
	res, err := m.Sync(ctx)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	if res.UpToDate {
		m.logger.InfoContext(ctx, "Mirror is up to date on startup")
		return nil
	}
	m.logger.InfoContext(ctx, "Startup sync completed", "appended", res.Appended, "profiles", res.Profiles)
	return nil
}

// RunPeriodic syncs every interval until ctx is done. Failures are logged.
func (m *Mirror) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := m.Sync(ctx)
			if err != nil {
				m.logger.ErrorContext(ctx, "Periodic sync failed", "error", err)
				continue
			}
			if !res.UpToDate {
				m.logger.InfoContext(ctx, "Periodic sync caught up", "appended", res.Appended)
			}
		}
	}
}

func sameRegistry(a, b core.ProfileRegistry) bool {
	if len(a) != len(b) {
		return false
	}
	for name, pa := range a {
		pb, ok := b[name]
		if !ok || pa.Name != pb.Name || pa.Gender != pb.Gender || !pa.Birthday.Equal(pb.Birthday.Time) {
			return false
		}
	}
	return true
}
