package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// RecordReader walks the data rows of a log-shaped CSV, reporting the
// 1-based line each row started on.
type RecordReader struct {
	cr   *csv.Reader
	cols Columns
}

// NewRecordReader reads and resolves the header row. It returns io.EOF for an
// empty input.
func NewRecordReader(r io.Reader) (*RecordReader, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	cols, err := ResolveColumns(header)
	if err != nil {
		return nil, err
	}
	return &RecordReader{cr: cr, cols: cols}, nil
}

// Columns returns the layout resolved from the header.
func (rr *RecordReader) Columns() Columns { return rr.cols }

// ReadColumns resolves the header of a stored log. It returns io.EOF for an
// empty input.
func ReadColumns(r io.Reader) (Columns, error) {
	rr, err := NewRecordReader(r)
	if err != nil {
		return Columns{}, err
	}
	return rr.Columns(), nil
}

// Next returns the next non-blank row. A row-level problem is returned as a
// *RowError and reading may continue; io.EOF ends the input.
func (rr *RecordReader) Next() (Transaction, error) {
	for {
		rec, err := rr.cr.Read()
		if errors.Is(err, io.EOF) {
			return Transaction{}, io.EOF
		}
		if err != nil {
			line := 0
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.StartLine
			}
			return Transaction{}, &RowError{Line: line, Reason: err.Error()}
		}
		if IsBlank(rec) {
			continue
		}
		line, _ := rr.cr.FieldPos(0)
		t, err := rr.cols.Transaction(rec)
		if err != nil {
			return Transaction{}, &RowError{Line: line, Reason: err.Error()}
		}
		return t, nil
	}
}

// Error lets a RowError travel as an error.
func (e *RowError) Error() string { return e.String() }

// ReadLog decodes a stored log. It keeps the good rows and reports the bad ones,
// so a hand-edited file never blocks the dashboard.
func ReadLog(r io.Reader) (TransactionLog, []RowError, error) {
	rr, err := NewRecordReader(r)
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var (
		log     TransactionLog
		skipped []RowError
	)
	for {
		t, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			skipped = append(skipped, *rowErr)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		log = append(log, t)
	}
	return log, skipped, nil
}

// WriteLog encodes the log with the canonical header.
func WriteLog(w io.Writer, log TransactionLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return writeRecords(cw, CanonicalColumns, log)
}

// AppendRecords encodes rows without a header in the layout of the log they
// extend.
func AppendRecords(w io.Writer, cols Columns, rows TransactionLog) error {
	return writeRecords(csv.NewWriter(w), cols, rows)
}

func writeRecords(cw *csv.Writer, cols Columns, log TransactionLog) error {
	for _, t := range log {
		if err := cw.Write(cols.Record(t)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
