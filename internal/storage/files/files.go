// Package files stores the dashboard state as plain files in one directory:
// a CSV transaction log, a JSON profile registry and one JPEG per pet.
package files

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"petspese/internal/core"
	"petspese/internal/ports"
)

const (
	LogFile      = "pet_expenses.csv"
	RegistryFile = "pet_info.json"
	photoExt     = ".jpg"
)

var ErrLogShrunk = errors.New("log has fewer rows than stored")

// Store keeps every file under Dir.
type Store struct {
	Dir string

	mu     sync.Mutex
	rename func(oldpath, newpath string) error
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{Dir: dir, rename: os.Rename}, nil
}

func (s *Store) logPath() string      { return filepath.Join(s.Dir, LogFile) }
func (s *Store) registryPath() string { return filepath.Join(s.Dir, RegistryFile) }

// profileJSON is the on-disk shape of one registry entry.
type profileJSON struct {
	Gender   core.Gender `json:"gender"`
	Birthday string      `json:"birthday"`
}

// Load reads the log and the registry concurrently. Missing files read as empty.
func (s *Store) Load(ctx context.Context) (ports.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (ports.State, error) {
	var st ports.State
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		log, skipped, err := s.readLog()
		st.Log, st.Skipped = log, skipped
		return err
	})
	g.Go(func() error {
		reg, err := s.readRegistry()
		st.Registry = reg
		return err
	})
	if err := g.Wait(); err != nil {
		return ports.State{}, err
	}
	return st, nil
}

func (s *Store) readLog() (core.TransactionLog, []core.RowError, error) {
	f, err := os.Open(s.logPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	log, skipped, err := core.ReadLog(bufio.NewReader(f))
	if err != nil {
		return nil, nil, fmt.Errorf("read log %s: %w", s.logPath(), err)
	}
	return log, skipped, nil
}

func (s *Store) readRegistry() (core.ProfileRegistry, error) {
	b, err := os.ReadFile(s.registryPath())
	if errors.Is(err, fs.ErrNotExist) {
		return core.ProfileRegistry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return DecodeRegistry(b)
}

// DecodeRegistry parses the {"name": {"gender", "birthday"}} registry format.
func DecodeRegistry(b []byte) (core.ProfileRegistry, error) {
	reg := core.ProfileRegistry{}
	if len(bytes.TrimSpace(b)) == 0 {
		return reg, nil
	}
	var raw map[string]profileJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	for name, p := range raw {
		prof := core.Profile{Name: name, Gender: p.Gender}
		if g, err := core.ParseGender(string(p.Gender)); err == nil {
			prof.Gender = g
		}
		if p.Birthday != "" {
			d, err := core.ParseDate(p.Birthday)
			if err != nil {
				return nil, fmt.Errorf("decode registry: birthday of %q: %w", name, err)
			}
			prof.Birthday = d
		}
		reg[name] = prof
	}
	return reg, nil
}

// EncodeRegistry writes the registry with sorted keys and indentation.
func EncodeRegistry(reg core.ProfileRegistry) ([]byte, error) {
	raw := make(map[string]profileJSON, len(reg))
	for name, p := range reg {
		raw[name] = profileJSON{Gender: p.Gender, Birthday: p.Birthday.String()}
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode registry: %w", err)
	}
	return append(b, '\n'), nil
}

// Commit writes the log and the registry so that either both files change or
// neither does.
//
// The stored log is extended in place rather than re-encoded: rows beyond the
// stored count are appended to a copy of the current file, so rows that could
// not be decoded on load are kept byte for byte.
func (s *Store) Commit(ctx context.Context, st ports.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return err
	}
	if len(st.Log) < len(current.Log) {
		return fmt.Errorf("commit: %w (%d < %d)", ErrLogShrunk, len(st.Log), len(current.Log))
	}

	logTmp, err := s.stageLog(st.Log[len(current.Log):])
	if err != nil {
		return err
	}
	defer os.Remove(logTmp)

	regBytes, err := EncodeRegistry(st.Registry)
	if err != nil {
		return err
	}
	regTmp, err := s.writeTemp(RegistryFile, regBytes)
	if err != nil {
		return err
	}
	defer os.Remove(regTmp)

	backup, err := s.backupLog()
	if err != nil {
		return err
	}
	if backup != "" {
		defer os.Remove(backup)
	}

	if err := s.rename(logTmp, s.logPath()); err != nil {
		return fmt.Errorf("replace log: %w", err)
	}
	if err := s.rename(regTmp, s.registryPath()); err != nil {
		s.restoreLog(backup)
		return fmt.Errorf("replace registry: %w", err)
	}

	slog.DebugContext(ctx, "Committed state files",
		"dir", s.Dir,
		"rows", len(st.Log),
		"appended", len(st.Log)-len(current.Log),
		"profiles", len(st.Registry))
	return nil
}

// stageLog copies the current log to a temp file and appends rows to it in
// the column order of its header.
func (s *Store) stageLog(rows core.TransactionLog) (string, error) {
	existing, err := os.ReadFile(s.logPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read log: %w", err)
	}

	var buf bytes.Buffer
	if len(bytes.TrimSpace(existing)) == 0 {
		if err := core.WriteLog(&buf, rows); err != nil {
			return "", err
		}
		return s.writeTemp(LogFile, buf.Bytes())
	}

	cols, err := core.ReadColumns(bytes.NewReader(existing))
	if err != nil {
		return "", fmt.Errorf("read log header: %w", err)
	}
	buf.Write(existing)
	if !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	if err := core.AppendRecords(&buf, cols, rows); err != nil {
		return "", err
	}
	return s.writeTemp(LogFile, buf.Bytes())
}

func (s *Store) writeTemp(name string, b []byte) (string, error) {
	f, err := os.CreateTemp(s.Dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", name, err)
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp for %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("sync temp for %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp for %s: %w", name, err)
	}
	return f.Name(), nil
}

// backupLog copies the current log aside. It returns "" when
// there is no log yet.
func (s *Store) backupLog() (string, error) {
	existing, err := os.ReadFile(s.logPath())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("backup log: %w", err)
	}
	return s.writeTemp(LogFile+".bak", existing)
}

func (s *Store) restoreLog(backup string) {
	var err error
	if backup == "" {
		err = os.Remove(s.logPath())
	} else {
		err = os.Rename(backup, s.logPath())
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("Failed to restore log after registry write failure", "dir", s.Dir, "error", err)
	}
}

// PhotoPath maps a pet name to its photo file. Path separators and dot
// segments are stripped so a name cannot escape Dir.
func (s *Store) PhotoPath(pet string) (string, error) {
	name := strings.TrimSpace(pet)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
	name = strings.Trim(name, ".")
	if name == "" {
		return "", core.ErrEmptyPet
	}
	return filepath.Join(s.Dir, name+photoExt), nil
}

func (s *Store) SavePhoto(_ context.Context, pet string, jpeg []byte) error {
	if !core.IsJPEG(jpeg) {
		return core.ErrNotJPEG
	}
	path, err := s.PhotoPath(pet)
	if err != nil {
		return err
	}
	tmp, err := s.writeTemp(filepath.Base(path), jpeg)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store photo: %w", err)
	}
	return nil
}

func (s *Store) OpenPhoto(_ context.Context, pet string) (io.ReadCloser, error) {
	path, err := s.PhotoPath(pet)
	if err != nil {
		return nil, ports.ErrPhotoNotFound
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ports.ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}
	return f, nil
}

// Photos lists the pets that have a stored photo.
func (s *Store) Photos() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, photoExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(name, photoExt))
	}
	sort.Strings(out)
	return out, nil
}
