package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"petspese/internal/amqp"
	"petspese/internal/core"
	"petspese/internal/ports"
)

// EventPublisher announces committed submissions. It is optional.
type EventPublisher interface {
	PublishSubmission(ctx context.Context, ev *amqp.SubmissionEvent) error
}

// PetService orchestrates load, merge and commit across the configured backend.
type PetService struct {
	loader    ports.StateLoader
	committer ports.StateCommitter
	photos    ports.PhotoStore
	publisher EventPublisher

	// Serialises load-merge-commit so concurrent uploads cannot lose rows.
	mu sync.Mutex
}

func NewPetService(loader ports.StateLoader, committer ports.StateCommitter, photos ports.PhotoStore, publisher EventPublisher) *PetService {
	return &PetService{
		loader:    loader,
		committer: committer,
		photos:    photos,
		publisher: publisher,
	}
}

// SubmitResult reports what a successful submission changed.
type SubmitResult struct {
	MergeResult
	SubmissionID string
	PhotoSaved   bool
	// PhotoErr is set when the state was committed but the photo was not stored.
	PhotoErr error
}

// Submit validates and merges a submission, then persists it.
//
// A *core.ValidationFailure is returned for user-correctable input; nothing is
// written in that case. The photo is stored after the state commit and a photo
// failure does not undo the commit.
func (s *PetService) Submit(ctx context.Context, sub Submission, photo []byte) (SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.loader.Load(ctx)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("load state: %w", err)
	}

	sub.HasPhoto = sub.HasPhoto && len(photo) > 0
	merged, err := MergeSubmission(state.Log, state.Registry, sub)
	if err != nil {
		return SubmitResult{}, err
	}

	if err := s.committer.Commit(ctx, ports.State{Log: merged.Log, Registry: merged.Registry}); err != nil {
		return SubmitResult{}, fmt.Errorf("commit state: %w", err)
	}

	res := SubmitResult{MergeResult: merged, SubmissionID: uuid.NewString()}
	name := strings.TrimSpace(sub.Name)

	if sub.HasPhoto && s.photos != nil {
		if err := s.photos.SavePhoto(ctx, name, photo); err != nil {
			slog.ErrorContext(ctx, "Failed to save pet photo", "pet", name, "error", err)
			res.PhotoErr = err
		} else {
			res.PhotoSaved = true
		}
	}

	slog.InfoContext(ctx, "Submission committed",
		"submission_id", res.SubmissionID,
		"pet", name,
		"rows", merged.Appended,
		"log_size", len(merged.Log),
		"profile_created", merged.Created,
		"photo_saved", res.PhotoSaved)

	s.publish(ctx, res, name)
	return res, nil
}

func (s *PetService) publish(ctx context.Context, res SubmitResult, name string) {
	if s.publisher == nil {
		return
	}
	ev := &amqp.SubmissionEvent{
		ID:        res.SubmissionID,
		Pet:       name,
		Rows:      res.Appended,
		Created:   res.Created,
		Photo:     res.PhotoSaved,
		Timestamp: time.Now().UTC(),
	}
	// The submission is already committed; a lost event only affects subscribers.
	if err := s.publisher.PublishSubmission(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish submission event", "submission_id", ev.ID, "error", err)
	}
}

// Dashboard is everything the home page renders.
type Dashboard struct {
	Trend  MonthlyTrend
	Pets   []string
	Months []int
	// Month is the selected month, 0 when the log is empty.
	Month   int
	Cards   []core.PetMonthOverview
	Rows    int
	Skipped []core.RowError
}

// Dashboard loads the current state and aggregates it. When month is not one
// of the months present in the log, the first present month is selected.
func (s *PetService) Dashboard(ctx context.Context, month int) (Dashboard, error) {
	state, err := s.loader.Load(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load state: %w", err)
	}
	if len(state.Skipped) > 0 {
		slog.WarnContext(ctx, "Skipped malformed log rows", "count", len(state.Skipped), "first", state.Skipped[0].String())
	}
	return BuildDashboard(state, month), nil
}

// BuildDashboard is the pure part of Dashboard.
func BuildDashboard(state ports.State, month int) Dashboard {
	d := Dashboard{
		Trend:   ComputeMonthlyTrend(state.Log),
		Pets:    Entities(state.Log),
		Months:  Months(state.Log),
		Rows:    len(state.Log),
		Skipped: state.Skipped,
	}
	d.Month = selectMonth(d.Months, month)
	if d.Month == 0 {
		return d
	}
	for _, pet := range d.Pets {
		b := ComputeCategoryBreakdown(state.Log, pet, d.Month)
		card := core.PetMonthOverview{
			Pet:        pet,
			Month:      d.Month,
			Total:      b.Total(),
			ByCategory: b.Sorted(),
		}
		card.Profile, card.HasProfile = state.Registry[pet]
		d.Cards = append(d.Cards, card)
	}
	return d
}

func selectMonth(present []int, want int) int {
	for _, m := range present {
		if m == want {
			return m
		}
	}
	if len(present) == 0 {
		return 0
	}
	return present[0]
}

// Log returns the stored transaction log.
func (s *PetService) Log(ctx context.Context) (core.TransactionLog, error) {
	state, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return state.Log, nil
}

// Photo opens the stored photo of a pet.
func (s *PetService) Photo(ctx context.Context, pet string) (io.ReadCloser, error) {
	if s.photos == nil {
		return nil, ports.ErrPhotoNotFound
	}
	return s.photos.OpenPhoto(ctx, pet)
}

// Profiles returns the stored profile registry.
func (s *PetService) Profiles(ctx context.Context) (core.ProfileRegistry, error) {
	state, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return state.Registry, nil
}
