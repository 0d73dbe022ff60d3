package services

import (
	"strings"

	"petspese/internal/core"
)

// Submission is one filled-in upload form.
type Submission struct {
	Name         string
	Gender       core.Gender
	Birthday     core.Date
	HasPhoto     bool
	Transactions core.TransactionLog
}

// MergeResult is the state to persist after a successful submission. Log and
// Registry are fresh values; the inputs to MergeSubmission are left untouched.
type MergeResult struct {
	Log      core.TransactionLog
	Registry core.ProfileRegistry
	Appended int
	// Created is false when an existing profile was overwritten.
	Created bool
}

// MergeSubmission appends the batch to the log and upserts the pet profile.
//
// Checks run in order and the first failure wins: a missing name, then a missing
// batch, then invalid rows. On failure no state is produced. The batch is
// appended after every existing row, in submission order, with no de-duplication.
// A profile with the same name is overwritten. The photo is not inspected here.
func MergeSubmission(log core.TransactionLog, registry core.ProfileRegistry, sub Submission) (MergeResult, error) {
	name := strings.TrimSpace(sub.Name)
	if name == "" {
		return MergeResult{}, core.NewMissingName()
	}
	if len(sub.Transactions) == 0 {
		return MergeResult{}, core.NewMissingExpenses()
	}
	var bad []core.RowError
	for i, t := range sub.Transactions {
		if err := t.Validate(); err != nil {
			// +2: the header is line 1.
			bad = append(bad, core.RowError{Line: i + 2, Reason: err.Error()})
		}
	}
	if len(bad) > 0 {
		return MergeResult{}, core.NewMalformedBatch(bad)
	}

	merged := make(core.TransactionLog, 0, len(log)+len(sub.Transactions))
	merged = append(merged, log...)
	merged = append(merged, sub.Transactions...)

	reg := registry.Clone()
	_, existed := reg[name]
	reg[name] = core.Profile{Name: name, Gender: sub.Gender, Birthday: sub.Birthday}

	return MergeResult{
		Log:      merged,
		Registry: reg,
		Appended: len(sub.Transactions),
		Created:  !existed,
	}, nil
}
