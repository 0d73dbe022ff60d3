package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petspese/internal/core"
	"petspese/internal/services"
	"petspese/internal/storage/files"
)

func newTestApp(t *testing.T) (*app, *files.Store, *bytes.Buffer) {
	t.Helper()
	store, err := files.New(t.TempDir())
	require.NoError(t, err)
	out := &bytes.Buffer{}
	a := &app{
		out: out,
		open: func(context.Context) (*session, error) {
			return &session{svc: services.NewPetService(store, store, store, nil), photos: store}, nil
		},
	}
	return a, store, out
}

func run(t *testing.T, a *app, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet("petctl", flag.ContinueOnError)
	cdr := subcommands.NewCommander(fs, "petctl")
	for _, c := range a.commands() {
		cdr.Register(c, "")
	}
	require.NoError(t, fs.Parse(args))
	return cdr.Execute(context.Background())
}

func writeFile(t *testing.T, name string, b []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestImportThenReport(t *testing.T) {
	a, store, out := newTestApp(t)
	csv := writeFile(t, "rex.csv", []byte("Date,Pet,Category,Amount\n2022-01-05,Rex,Food,20\n2022-01-09,Rex,Vet,45.5\n"))
	photo := writeFile(t, "rex.jpg", []byte{0xFF, 0xD8, 0xFF, 0xE0})

	status := run(t, a, "import", "-name", "Rex", "-gender", "male", "-birthday", "2019-04-01", "-photo", photo, csv)
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out.String(), "Your pet Rex has been added. 2 row(s) appended, 2 in total.")

	st, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, st.Log, 2)
	assert.Equal(t, core.Male, st.Registry["Rex"].Gender)

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, a, "breakdown", "-pet", "Rex", "-month", "1"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Vet"), lines[0])
	assert.Contains(t, lines[2], "65.50")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, a, "trend", "-json"))
	var series map[string][]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &series))
	assert.Equal(t, "65.5", series["Rex"][0])
	assert.Equal(t, "65.5", series[services.AllPets][0])
	assert.Len(t, series[services.AllPets], 12)

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, a, "trend"))
	assert.Contains(t, out.String(), "January")
	assert.Contains(t, out.String(), "December")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, a, "pets"))
	assert.Regexp(t, `Rex\s+Male\s+2019-04-01\s+yes`, out.String())
}

func TestImportRejects(t *testing.T) {
	bad := []byte("Date,Pet,Category,Amount\nnot-a-date,Rex,Food,1\n")

	tests := []struct {
		name string
		args func(t *testing.T) []string
		want subcommands.ExitStatus
	}{
		{
			name: "no file argument",
			args: func(*testing.T) []string { return []string{"import", "-name", "Rex"} },
			want: subcommands.ExitUsageError,
		},
		{
			name: "missing name",
			args: func(t *testing.T) []string { return []string{"import", writeFile(t, "x.csv", bad)} },
			want: subcommands.ExitFailure,
		},
		{
			name: "malformed batch",
			args: func(t *testing.T) []string { return []string{"import", "-name", "Rex", writeFile(t, "x.csv", bad)} },
			want: subcommands.ExitFailure,
		},
		{
			name: "bad gender",
			args: func(t *testing.T) []string {
				return []string{"import", "-name", "Rex", "-gender", "cat", writeFile(t, "x.csv", bad)}
			},
			want: subcommands.ExitFailure,
		},
		{
			name: "photo not jpeg",
			args: func(t *testing.T) []string {
				return []string{"import", "-name", "Rex", "-photo", writeFile(t, "x.png", []byte("\x89PNG")), writeFile(t, "x.csv", bad)}
			},
			want: subcommands.ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, store, _ := newTestApp(t)
			assert.Equal(t, tt.want, run(t, a, tt.args(t)...))

			st, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Empty(t, st.Log)
		})
	}
}

func TestImportReportsMissingNameFirst(t *testing.T) {
	c := &importCmd{gender: "Male", birthday: "someday", photo: filepath.Join(t.TempDir(), "none.jpg")}

	_, _, err := c.submission(filepath.Join(t.TempDir(), "none.csv"))

	vf, ok := core.AsValidationFailure(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, core.MissingName, vf.Kind)
}

func TestImportUsageMentionsServerCache(t *testing.T) {
	assert.Contains(t, (&importCmd{}).Usage(), "CACHE_TTL")
}

func TestBreakdownUsage(t *testing.T) {
	a, _, out := newTestApp(t)
	assert.Equal(t, subcommands.ExitUsageError, run(t, a, "breakdown", "-pet", "Rex", "-month", "13"))

	assert.Equal(t, subcommands.ExitSuccess, run(t, a, "breakdown", "-pet", "Rex", "-month", "2"))
	assert.Contains(t, out.String(), "No expenses for Rex in February.")
}
