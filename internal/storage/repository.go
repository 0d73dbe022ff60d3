package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"petspese/internal/core"
	"petspese/internal/ports"

	_ "modernc.org/sqlite"
)

var ErrLogShrunk = errors.New("log has fewer rows than stored")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; sqlite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements ports.StateLoader. Rows that no longer decode are reported
// in Skipped rather than failing the load.
func (r *SQLiteRepository) Load(ctx context.Context) (ports.State, error) {
	return load(ctx, r.queries)
}

func load(ctx context.Context, q *Queries) (ports.State, error) {
	rows, err := q.ListTransactions(ctx)
	if err != nil {
		return ports.State{}, fmt.Errorf("list transactions: %w", err)
	}
	st := ports.State{Registry: core.ProfileRegistry{}}
	cols := core.CanonicalColumns
	for _, row := range rows {
		t, err := cols.Transaction([]string{row.Date, row.Pet, row.Category, row.Amount})
		if err != nil {
			st.Skipped = append(st.Skipped, core.RowError{Line: int(row.ID), Reason: err.Error()})
			continue
		}
		st.Log = append(st.Log, t)
	}

	profiles, err := q.ListProfiles(ctx)
	if err != nil {
		return ports.State{}, fmt.Errorf("list profiles: %w", err)
	}
	for _, p := range profiles {
		prof := core.Profile{Name: p.Name, Gender: core.Gender(p.Gender)}
		if p.Birthday != "" {
			d, err := core.ParseDate(p.Birthday)
			if err != nil {
				return ports.State{}, fmt.Errorf("birthday of %q: %w", p.Name, err)
			}
			prof.Birthday = d
		}
		st.Registry[p.Name] = prof
	}
	return st, nil
}

// Commit implements ports.StateCommitter in a single transaction. Rows beyond
// the stored count are inserted and every profile is upserted.
func (r *SQLiteRepository) Commit(ctx context.Context, st ports.State) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	current, err := load(ctx, q)
	if err != nil {
		return err
	}
	if len(st.Log) < len(current.Log) {
		return fmt.Errorf("commit: %w (%d < %d)", ErrLogShrunk, len(st.Log), len(current.Log))
	}

	appended := st.Log[len(current.Log):]
	for _, t := range appended {
		err := q.InsertTransaction(ctx, InsertTransactionParams{
			Date:     t.Date.String(),
			Pet:      t.Pet,
			Category: t.Category,
			Amount:   t.Amount.String(),
		})
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}
	for _, name := range st.Registry.Names() {
		p := st.Registry[name]
		err := q.UpsertProfile(ctx, ProfileRow{Name: name, Gender: string(p.Gender), Birthday: p.Birthday.String()})
		if err != nil {
			return fmt.Errorf("upsert profile %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "State saved to SQLite",
		"appended", len(appended),
		"rows", len(st.Log),
		"profiles", len(st.Registry))
	return nil
}
