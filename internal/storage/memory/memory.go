package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"petspese/internal/core"
	"petspese/internal/ports"
)

// Store keeps the log, the registry and photos in process memory. It backs
// tests and dry runs of petctl.
type Store struct {
	mu       sync.Mutex
	log      core.TransactionLog
	registry core.ProfileRegistry
	photos   map[string][]byte
	commits  int
}

func New(log core.TransactionLog, registry core.ProfileRegistry) *Store {
	if registry == nil {
		registry = core.ProfileRegistry{}
	}
	return &Store{log: log.Clone(), registry: registry.Clone(), photos: map[string][]byte{}}
}

// Load returns copies, so callers cannot change the stored state in place.
func (s *Store) Load(_ context.Context) (ports.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ports.State{Log: s.log.Clone(), Registry: s.registry.Clone()}, nil
}

// Commit replaces the stored state.
func (s *Store) Commit(_ context.Context, st ports.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = st.Log.Clone()
	s.registry = st.Registry.Clone()
	s.commits++
	return nil
}

// Commits reports how many times Commit succeeded.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *Store) SavePhoto(_ context.Context, pet string, jpeg []byte) error {
	if !core.IsJPEG(jpeg) {
		return core.ErrNotJPEG
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos[pet] = append([]byte(nil), jpeg...)
	return nil
}

func (s *Store) OpenPhoto(_ context.Context, pet string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.photos[pet]
	if !ok {
		return nil, ports.ErrPhotoNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}
