package storage

import "context"

type TransactionRow struct {
	ID       int64
	Date     string
	Pet      string
	Category string
	Amount   string
}

type ProfileRow struct {
	Name     string
	Gender   string
	Birthday string
}

const listTransactions = `SELECT id, date, pet, category, amount FROM transactions ORDER BY id`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(&i.ID, &i.Date, &i.Pet, &i.Category, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const insertTransaction = `INSERT INTO transactions (date, pet, category, amount) VALUES (?, ?, ?, ?)`

type InsertTransactionParams struct {
	Date     string
	Pet      string
	Category string
	Amount   string
}

func (q *Queries) InsertTransaction(ctx context.Context, arg InsertTransactionParams) error {
	_, err := q.db.ExecContext(ctx, insertTransaction, arg.Date, arg.Pet, arg.Category, arg.Amount)
	return err
}

const listProfiles = `SELECT name, gender, birthday FROM profiles ORDER BY name`

func (q *Queries) ListProfiles(ctx context.Context) ([]ProfileRow, error) {
	rows, err := q.db.QueryContext(ctx, listProfiles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProfileRow
	for rows.Next() {
		var i ProfileRow
		if err := rows.Scan(&i.Name, &i.Gender, &i.Birthday); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const upsertProfile = `INSERT INTO profiles (name, gender, birthday, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET
    gender = excluded.gender,
    birthday = excluded.birthday,
    updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertProfile(ctx context.Context, arg ProfileRow) error {
	_, err := q.db.ExecContext(ctx, upsertProfile, arg.Name, arg.Gender, arg.Birthday)
	return err
}
