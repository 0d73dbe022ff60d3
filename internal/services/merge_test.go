package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petspese/internal/core"
)

func TestMergeSubmission_MissingName(t *testing.T) {
	for _, name := range []string{"", "   "} {
		sub := Submission{Name: name, Transactions: core.TransactionLog{tx(t, "2022-01-05", "Rex", "Food", "20")}}

		_, err := MergeSubmission(nil, nil, sub)

		vf, ok := core.AsValidationFailure(err)
		require.True(t, ok, "err = %v", err)
		assert.Equal(t, core.MissingName, vf.Kind)
	}
}

func TestMergeSubmission_MissingNameWinsOverMissingExpenses(t *testing.T) {
	_, err := MergeSubmission(nil, nil, Submission{})

	vf, ok := core.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, core.MissingName, vf.Kind)
}

func TestMergeSubmission_MissingExpenses(t *testing.T) {
	_, err := MergeSubmission(nil, nil, Submission{Name: "Rex", Gender: core.Male})

	vf, ok := core.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, core.MissingExpenses, vf.Kind)
	assert.Equal(t, "You must submit your pet's expenses", vf.Message)
}

func TestMergeSubmission_MalformedRows(t *testing.T) {
	bad := tx(t, "2022-01-05", "Rex", "Food", "1")
	bad.Category = ""
	sub := Submission{
		Name: "Rex",
		Transactions: core.TransactionLog{
			tx(t, "2022-01-05", "Rex", "Food", "20"),
			bad,
			{Pet: "Rex", Category: "Vet", Amount: dec("3")},
		},
	}
	log := core.TransactionLog{tx(t, "2022-01-01", "Mia", "Food", "1")}

	res, err := MergeSubmission(log, core.ProfileRegistry{}, sub)

	vf, ok := core.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, core.MalformedBatch, vf.Kind)
	require.Len(t, vf.Rows, 2)
	assert.Equal(t, 3, vf.Rows[0].Line)
	assert.Equal(t, 4, vf.Rows[1].Line)
	assert.Nil(t, res.Log)
	assert.Len(t, log, 1)
}

func TestMergeSubmission_AppendsAtEnd(t *testing.T) {
	log := core.TransactionLog{
		tx(t, "2022-03-01", "Mia", "Food", "4"),
		tx(t, "2022-01-01", "Mia", "Vet", "40"),
	}
	batch := core.TransactionLog{
		tx(t, "2022-01-05", "Rex", "Food", "20"),
		tx(t, "2021-12-01", "Rex", "Toys", "2"),
	}
	sub := Submission{Name: " Rex ", Gender: core.Male, Birthday: core.NewDate(2020, 5, 1), Transactions: batch}

	res, err := MergeSubmission(log, core.ProfileRegistry{}, sub)

	require.NoError(t, err)
	require.Len(t, res.Log, 4)
	assert.Equal(t, log, res.Log[:2])
	assert.Equal(t, batch, res.Log[2:])
	assert.Equal(t, 2, res.Appended)
	assert.True(t, res.Created)
	assert.Equal(t, core.Profile{Name: "Rex", Gender: core.Male, Birthday: core.NewDate(2020, 5, 1)}, res.Registry["Rex"])
}

func TestMergeSubmission_DoesNotMutateInputs(t *testing.T) {
	log := make(core.TransactionLog, 1, 8)
	log[0] = tx(t, "2022-03-01", "Mia", "Food", "4")
	registry := core.ProfileRegistry{"Mia": {Name: "Mia", Gender: core.Female}}
	sub := Submission{Name: "Rex", Gender: core.Male, Transactions: core.TransactionLog{tx(t, "2022-01-05", "Rex", "Food", "20")}}

	res, err := MergeSubmission(log, registry, sub)
	require.NoError(t, err)

	res.Log[0].Pet = "changed"
	assert.Len(t, log, 1)
	assert.Equal(t, "Mia", log[0].Pet)
	assert.Len(t, registry, 1)
	assert.NotContains(t, registry, "Rex")
}

func TestMergeSubmission_Twice(t *testing.T) {
	batch := core.TransactionLog{
		tx(t, "2022-01-05", "Rex", "Food", "20"),
		tx(t, "2022-01-06", "Rex", "Vet", "35"),
	}
	sub := Submission{Name: "Rex", Gender: core.Male, Transactions: batch}

	first, err := MergeSubmission(nil, nil, sub)
	require.NoError(t, err)
	second, err := MergeSubmission(first.Log, first.Registry, sub)
	require.NoError(t, err)

	assert.Len(t, second.Log, 2*len(batch))
	assert.Equal(t, second.Log[:2], second.Log[2:])
	assert.False(t, second.Created)
	assert.Len(t, second.Registry, 1)
}

func TestMergeSubmission_OverwritesProfile(t *testing.T) {
	registry := core.ProfileRegistry{
		"Mia": {Name: "Mia", Gender: core.Female, Birthday: core.NewDate(2019, 1, 1)},
		"Rex": {Name: "Rex", Gender: core.Male, Birthday: core.NewDate(2018, 2, 2)},
	}
	sub := Submission{
		Name:         "Rex",
		Gender:       core.Female,
		Birthday:     core.NewDate(2021, 3, 3),
		Transactions: core.TransactionLog{tx(t, "2022-01-05", "Rex", "Food", "20")},
	}

	res, err := MergeSubmission(nil, registry, sub)

	require.NoError(t, err)
	assert.Len(t, res.Registry, 2)
	assert.False(t, res.Created)
	assert.Equal(t, core.Female, res.Registry["Rex"].Gender)
	assert.Equal(t, core.NewDate(2021, 3, 3), res.Registry["Rex"].Birthday)
	assert.Equal(t, core.Male, registry["Rex"].Gender)
}
