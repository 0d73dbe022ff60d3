package memory

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"

	"petspese/internal/core"
	"petspese/internal/ports"
)

func TestStoreCommitAndLoad(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)

	st, err := s.Load(ctx)
	if err != nil || len(st.Log) != 0 || len(st.Registry) != 0 {
		t.Fatalf("unexpected empty load: %+v err=%v", st, err)
	}

	log := core.TransactionLog{{Date: core.NewDate(2022, 1, 5), Pet: "Rex", Category: "Food", Amount: decimal.NewFromInt(20)}}
	reg := core.ProfileRegistry{"Rex": {Name: "Rex", Gender: core.Male}}
	if err := s.Commit(ctx, ports.State{Log: log, Registry: reg}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// Mutating what was committed must not leak into the store.
	log[0].Pet = "changed"
	delete(reg, "Rex")

	st, _ = s.Load(ctx)
	if len(st.Log) != 1 || st.Log[0].Pet != "Rex" {
		t.Fatalf("unexpected log: %+v", st.Log)
	}
	if _, ok := st.Registry["Rex"]; !ok {
		t.Fatalf("registry lost Rex: %+v", st.Registry)
	}
	if s.Commits() != 1 {
		t.Fatalf("Commits() = %d, want 1", s.Commits())
	}
}

func TestStorePhotos(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)

	if _, err := s.OpenPhoto(ctx, "Rex"); !errors.Is(err, ports.ErrPhotoNotFound) {
		t.Fatalf("OpenPhoto on empty store = %v", err)
	}
	if err := s.SavePhoto(ctx, "Rex", []byte("GIF89a")); !errors.Is(err, core.ErrNotJPEG) {
		t.Fatalf("SavePhoto(gif) = %v, want ErrNotJPEG", err)
	}

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}
	if err := s.SavePhoto(ctx, "Rex", jpeg); err != nil {
		t.Fatalf("SavePhoto: %v", err)
	}
	rc, err := s.OpenPhoto(ctx, "Rex")
	if err != nil {
		t.Fatalf("OpenPhoto: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != string(jpeg) {
		t.Fatalf("photo = %v, want %v", got, jpeg)
	}
}
