package ports

import (
	"context"
	"errors"
	"io"

	"petspese/internal/core"
)

// ErrPhotoNotFound is returned by PhotoStore.OpenPhoto when a pet has no photo.
var ErrPhotoNotFound = errors.New("photo not found")

// State is everything the dashboard persists besides photos.
type State struct {
	Log      core.TransactionLog
	Registry core.ProfileRegistry
	// Skipped lists stored rows that could not be decoded. Never written back.
	Skipped []core.RowError
}

// Ports for outbound adapters.
type (
	StateLoader interface {
		Load(ctx context.Context) (State, error)
	}

	// StateCommitter persists the log and the registry together: either both
	// are replaced or neither is.
	StateCommitter interface {
		Commit(ctx context.Context, s State) error
	}

	PhotoStore interface {
		// SavePhoto stores a JPEG keyed by pet name, replacing any previous one.
		SavePhoto(ctx context.Context, pet string, jpeg []byte) error
		// OpenPhoto returns ErrPhotoNotFound when the pet has no photo.
		OpenPhoto(ctx context.Context, pet string) (io.ReadCloser, error)
	}
)
