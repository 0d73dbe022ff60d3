package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"petspese/internal/core"
	"petspese/internal/services"
)

type importCmd struct {
	*app
	name     string
	gender   string
	birthday string
	photo    string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "add a pet and its expenses from a CSV file" }
func (*importCmd) Usage() string {
	return `petctl import -name <pet> [-gender Male|Female] [-birthday YYYY-MM-DD] [-photo pet.jpg] <expenses.csv>

  Appends the rows of expenses.csv to the log and stores the pet's profile,
  exactly like the upload page. The file needs Date, Pet, Category and Amount
  columns; use "-" to read it from stdin.

  A running petspese server caches its dashboards, so imported rows show on
  its pages once CACHE_TTL has elapsed or after the next upload.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Pet name.")
	f.StringVar(&c.gender, "gender", string(core.Male), "Pet gender, Male or Female.")
	f.StringVar(&c.birthday, "birthday", "", "Pet birthday.")
	f.StringVar(&c.photo, "photo", "", "JPEG picture of the pet.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	sub, photo, err := c.submission(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	return c.withSession(ctx, func(s *session) error {
		res, err := s.svc.Submit(ctx, sub, photo)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Your pet %s has been added. %d row(s) appended, %d in total.\n",
			strings.TrimSpace(sub.Name), res.Appended, len(res.Log))
		if res.PhotoErr != nil {
			fmt.Fprintf(c.out, "The photo was not stored: %v\n", res.PhotoErr)
		}
		return nil
	})
}

// submission reads the flags and files into a Submission. The name is checked
// first so a missing name is reported before any other problem.
func (c *importCmd) submission(path string) (services.Submission, []byte, error) {
	sub := services.Submission{Name: strings.TrimSpace(c.name)}
	if sub.Name == "" {
		return services.Submission{}, nil, core.NewMissingName()
	}
	gender, err := core.ParseGender(c.gender)
	if err != nil {
		return services.Submission{}, nil, err
	}
	sub.Gender = gender
	if c.birthday != "" {
		if sub.Birthday, err = core.ParseDate(c.birthday); err != nil {
			return services.Submission{}, nil, fmt.Errorf("birthday %q: %w", c.birthday, err)
		}
	}

	var photo []byte
	if c.photo != "" {
		if photo, err = os.ReadFile(c.photo); err != nil {
			return services.Submission{}, nil, fmt.Errorf("read photo: %w", err)
		}
		if !core.IsJPEG(photo) {
			return services.Submission{}, nil, core.ErrNotJPEG
		}
		sub.HasPhoto = true
	}

	var r io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return services.Submission{}, nil, fmt.Errorf("open expenses: %w", err)
		}
		defer file.Close()
		r = file
	}
	txs, err := services.ParseBatch(r)
	if err != nil {
		return services.Submission{}, nil, err
	}
	sub.Transactions = txs
	return sub, photo, nil
}
