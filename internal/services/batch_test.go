package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petspese/internal/core"
)

func TestParseBatch(t *testing.T) {
	in := "Date,Pet,Category,Amount\n" +
		"2022-01-05,Rex,Food,20\n" +
		"\n" +
		"01/06/2022,Rex,Vet,\"35,50\"\n"

	got, err := ParseBatch(strings.NewReader(in))

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.NewDate(2022, 1, 5), got[0].Date)
	assert.Equal(t, "Vet", got[1].Category)
	assert.True(t, got[1].Amount.Equal(dec("35.50")))
}

func TestParseBatch_ReorderedColumns(t *testing.T) {
	in := "amount,category,pet,date,notes\n12,Food,Mia,2022-02-01,extra\n"

	got, err := ParseBatch(strings.NewReader(in))

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mia", got[0].Pet)
	assert.True(t, got[0].Amount.Equal(dec("12")))
}

func TestParseBatch_MissingExpenses(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"header only", "Date,Pet,Category,Amount\n"},
		{"header and blank lines", "Date,Pet,Category,Amount\n\n,,,\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBatch(strings.NewReader(tt.in))
			vf, ok := core.AsValidationFailure(err)
			require.True(t, ok, "err = %v", err)
			assert.Equal(t, core.MissingExpenses, vf.Kind)
		})
	}

	_, err := ParseBatch(nil)
	vf, ok := core.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, core.MissingExpenses, vf.Kind)
}

func TestParseBatch_BadHeader(t *testing.T) {
	_, err := ParseBatch(strings.NewReader("Date,Pet,Amount\n2022-01-05,Rex,3\n"))

	vf, ok := core.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, core.MalformedBatch, vf.Kind)
	require.Len(t, vf.Rows, 1)
	assert.Equal(t, 1, vf.Rows[0].Line)
	assert.Contains(t, vf.Rows[0].Reason, "Category")
}

func TestParseBatch_CollectsEveryBadRow(t *testing.T) {
	in := "Date,Pet,Category,Amount\n" +
		"2022-01-05,Rex,Food,20\n" +
		"not-a-date,Rex,Food,20\n" +
		"2022-01-07,Rex,Food,-4\n" +
		"2022-01-08,,Food,4\n"

	_, err := ParseBatch(strings.NewReader(in))

	vf, ok := core.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, core.MalformedBatch, vf.Kind)
	require.Len(t, vf.Rows, 3)
	assert.Equal(t, []int{3, 4, 5}, []int{vf.Rows[0].Line, vf.Rows[1].Line, vf.Rows[2].Line})
}

func TestParseBatch_RejectsThousandsSeparator(t *testing.T) {
	in := "Date,Pet,Category,Amount\n2022-01-05,Rex,Vet,\"$1,234\"\n"

	got, err := ParseBatch(strings.NewReader(in))

	assert.Empty(t, got)
	vf, ok := core.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, core.MalformedBatch, vf.Kind)
	require.Len(t, vf.Rows, 1)
	assert.Equal(t, 2, vf.Rows[0].Line)
	assert.Contains(t, vf.Rows[0].Reason, "ambiguous amount")
}
