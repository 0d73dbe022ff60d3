package services

import (
	"errors"
	"io"

	"petspese/internal/core"
)

// ParseBatch reads an uploaded expenses CSV into typed transactions.
//
// The header must name the Date, Pet, Category and Amount columns. Every bad row
// is collected so the user sees all problems at once; the batch is rejected as a
// whole with a MalformedBatch failure. A header-only file is MissingExpenses.
func ParseBatch(r io.Reader) (core.TransactionLog, error) {
	if r == nil {
		return nil, core.NewMissingExpenses()
	}
	rr, err := core.NewRecordReader(r)
	if errors.Is(err, io.EOF) {
		return nil, core.NewMissingExpenses()
	}
	if err != nil {
		return nil, core.NewMalformedBatch([]core.RowError{{Line: 1, Reason: err.Error()}})
	}

	var (
		out core.TransactionLog
		bad []core.RowError
	)
	for {
		t, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr *core.RowError
		if errors.As(err, &rowErr) {
			bad = append(bad, *rowErr)
			continue
		}
		if err != nil {
			return nil, core.NewMalformedBatch([]core.RowError{{Reason: err.Error()}})
		}
		out = append(out, t)
	}
	if len(bad) > 0 {
		return nil, core.NewMalformedBatch(bad)
	}
	if len(out) == 0 {
		return nil, core.NewMissingExpenses()
	}
	return out, nil
}
