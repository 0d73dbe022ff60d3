package files

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"petspese/internal/core"
	"petspese/internal/ports"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func row(date, pet, cat string, amount int64) core.Transaction {
	d, _ := core.ParseDate(date)
	return core.Transaction{Date: d, Pet: pet, Category: cat, Amount: decimal.NewFromInt(amount)}
}

func TestLoadEmptyDir(t *testing.T) {
	s := newStore(t)
	st, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.Log) != 0 || len(st.Registry) != 0 || st.Registry == nil {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestCommitAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	want := ports.State{
		Log: core.TransactionLog{row("2022-01-05", "Rex", "Food", 20), row("2022-02-01", "Mia", "Vet", 70)},
		Registry: core.ProfileRegistry{
			"Rex": {Name: "Rex", Gender: core.Male, Birthday: core.NewDate(2020, 5, 1)},
			"Mia": {Name: "Mia", Gender: core.Female},
		},
	}
	if err := s.Commit(ctx, want); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Log) != 2 || got.Log[1].Pet != "Mia" || !got.Log[0].Amount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected log: %+v", got.Log)
	}
	if got.Registry["Rex"] != want.Registry["Rex"] || got.Registry["Mia"] != want.Registry["Mia"] {
		t.Fatalf("registry = %+v, want %+v", got.Registry, want.Registry)
	}

	csv, _ := os.ReadFile(filepath.Join(s.Dir, LogFile))
	if !strings.HasPrefix(string(csv), "Date,Pet,Category,Amount\n2022-01-05,Rex,Food,20\n") {
		t.Fatalf("unexpected log file:\n%s", csv)
	}
	leftovers, _ := filepath.Glob(filepath.Join(s.Dir, ".*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestCommitKeepsUndecodableRows(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	raw := "Date,Pet,Category,Amount\n2022-01-05,Rex,Food,20\nbroken,Rex,Food,x\n2022-01-06,Rex,Vet,5"
	if err := os.WriteFile(filepath.Join(s.Dir, LogFile), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	st, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.Log) != 2 || len(st.Skipped) != 1 || st.Skipped[0].Line != 3 {
		t.Fatalf("unexpected load: log=%d skipped=%+v", len(st.Log), st.Skipped)
	}

	st.Log = append(st.Log, row("2022-03-01", "Mia", "Toys", 3))
	if err := s.Commit(ctx, st); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	b, _ := os.ReadFile(filepath.Join(s.Dir, LogFile))
	want := raw + "\n2022-03-01,Mia,Toys,3\n"
	if string(b) != want {
		t.Fatalf("log file =\n%q\nwant\n%q", b, want)
	}
}

func TestCommitAppendsInStoredColumnOrder(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	raw := "Date,Category,Pet,Amount,Notes\n2022-01-05,Food,Rex,20,kibble\n"
	if err := os.WriteFile(filepath.Join(s.Dir, LogFile), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	st, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	st.Log = append(st.Log, row("2022-02-01", "Milo", "Vet", 7))
	if err := s.Commit(ctx, st); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	b, _ := os.ReadFile(filepath.Join(s.Dir, LogFile))
	if want := raw + "2022-02-01,Vet,Milo,7,\n"; string(b) != want {
		t.Fatalf("log file =\n%q\nwant\n%q", b, want)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Log) != 2 || len(got.Skipped) != 0 {
		t.Fatalf("reload: log=%+v skipped=%+v", got.Log, got.Skipped)
	}
	if milo := got.Log[1]; milo.Pet != "Milo" || milo.Category != "Vet" {
		t.Fatalf("appended row = %+v", milo)
	}
}

func TestCommitRejectsShrinkingLog(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	st := ports.State{Log: core.TransactionLog{row("2022-01-05", "Rex", "Food", 20)}, Registry: core.ProfileRegistry{}}
	if err := s.Commit(ctx, st); err != nil {
		t.Fatal(err)
	}
	err := s.Commit(ctx, ports.State{Registry: core.ProfileRegistry{}})
	if !errors.Is(err, ErrLogShrunk) {
		t.Fatalf("Commit(shorter) = %v, want ErrLogShrunk", err)
	}
}

func TestCommitRollsBackLogWhenRegistryFails(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	first := ports.State{
		Log:      core.TransactionLog{row("2022-01-05", "Rex", "Food", 20)},
		Registry: core.ProfileRegistry{"Rex": {Name: "Rex", Gender: core.Male}},
	}
	if err := s.Commit(ctx, first); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(filepath.Join(s.Dir, LogFile))

	s.rename = func(oldpath, newpath string) error {
		if filepath.Base(newpath) == RegistryFile {
			return errors.New("disk full")
		}
		return os.Rename(oldpath, newpath)
	}
	next := ports.State{
		Log:      append(first.Log.Clone(), row("2022-01-06", "Mia", "Vet", 9)),
		Registry: core.ProfileRegistry{"Rex": first.Registry["Rex"], "Mia": {Name: "Mia", Gender: core.Female}},
	}
	if err := s.Commit(ctx, next); err == nil {
		t.Fatal("Commit should fail when the registry cannot be replaced")
	}

	after, _ := os.ReadFile(filepath.Join(s.Dir, LogFile))
	if string(after) != string(before) {
		t.Fatalf("log changed despite failed commit:\n%s", after)
	}
	st, _ := s.Load(ctx)
	if len(st.Log) != 1 || len(st.Registry) != 1 {
		t.Fatalf("state changed despite failed commit: %+v", st)
	}
}

func TestDecodeRegistry(t *testing.T) {
	reg, err := DecodeRegistry([]byte(`{"Rex": {"gender": "male", "birthday": "2020-05-01"}, "Mia": {"gender": "Female", "birthday": ""}}`))
	if err != nil {
		t.Fatalf("DecodeRegistry: %v", err)
	}
	if reg["Rex"].Gender != core.Male || reg["Rex"].Birthday != core.NewDate(2020, 5, 1) {
		t.Fatalf("unexpected Rex: %+v", reg["Rex"])
	}
	if !reg["Mia"].Birthday.IsZero() || reg["Mia"].Name != "Mia" {
		t.Fatalf("unexpected Mia: %+v", reg["Mia"])
	}

	if _, err := DecodeRegistry([]byte(`[1,2]`)); err == nil {
		t.Fatal("DecodeRegistry should reject a non-object")
	}
	if reg, err := DecodeRegistry([]byte("  \n")); err != nil || len(reg) != 0 {
		t.Fatalf("blank registry: %v %v", reg, err)
	}
}

func TestPhotos(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE1, 9, 9}

	if _, err := s.OpenPhoto(ctx, "Rex"); !errors.Is(err, ports.ErrPhotoNotFound) {
		t.Fatalf("OpenPhoto missing = %v", err)
	}
	if err := s.SavePhoto(ctx, "Rex", []byte("\x89PNG")); !errors.Is(err, core.ErrNotJPEG) {
		t.Fatalf("SavePhoto(png) = %v", err)
	}
	if err := s.SavePhoto(ctx, "Rex", jpeg); err != nil {
		t.Fatalf("SavePhoto: %v", err)
	}

	rc, err := s.OpenPhoto(ctx, "Rex")
	if err != nil {
		t.Fatalf("OpenPhoto: %v", err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != string(jpeg) {
		t.Fatalf("photo bytes = %v", b)
	}

	names, err := s.Photos()
	if err != nil || len(names) != 1 || names[0] != "Rex" {
		t.Fatalf("Photos() = %v, %v", names, err)
	}
}

func TestPhotoPathStaysInDir(t *testing.T) {
	s := newStore(t)
	tests := []struct {
		pet  string
		want string
	}{
		{"Rex", "Rex.jpg"},
		{"../../etc/passwd", "_.._etc_passwd.jpg"},
		{"a/b", "a_b.jpg"},
		{" Mia ", "Mia.jpg"},
	}
	for _, tt := range tests {
		got, err := s.PhotoPath(tt.pet)
		if err != nil {
			t.Fatalf("PhotoPath(%q): %v", tt.pet, err)
		}
		if filepath.Dir(got) != s.Dir || filepath.Base(got) != tt.want {
			t.Errorf("PhotoPath(%q) = %q, want %s/%s", tt.pet, got, s.Dir, tt.want)
		}
	}
	for _, pet := range []string{"", "  ", "..", "..."} {
		if _, err := s.PhotoPath(pet); err == nil {
			t.Errorf("PhotoPath(%q) should fail", pet)
		}
	}
}
