package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"petspese/internal/core"
	"petspese/internal/ports"
	"petspese/internal/services"
)

// session is an opened store. close releases the backend.
type session struct {
	svc    *services.PetService
	photos ports.PhotoStore
	close  func()
}

type app struct {
	out  io.Writer
	open func(ctx context.Context) (*session, error)
}

func (a *app) commands() []subcommands.Command {
	return []subcommands.Command{
		&trendCmd{app: a},
		&breakdownCmd{app: a},
		&petsCmd{app: a},
		&importCmd{app: a},
	}
}

// withSession opens the store, runs fn and maps its error to an exit status.
func (a *app) withSession(ctx context.Context, fn func(*session) error) subcommands.ExitStatus {
	s, err := a.open(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if s.close != nil {
		defer s.close()
	}
	if err := fn(s); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type trendCmd struct {
	*app
	asJSON bool
}

func (*trendCmd) Name() string     { return "trend" }
func (*trendCmd) Synopsis() string { return "print monthly spend per pet" }
func (*trendCmd) Usage() string {
	return `petctl trend [-json]

  Prints the spend of every pet for each calendar month, plus the "All" total.
  Months of different years share a row.
`
}

func (c *trendCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "Print JSON instead of a table.")
}

func (c *trendCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.withSession(ctx, func(s *session) error {
		log, err := s.svc.Log(ctx)
		if err != nil {
			return err
		}
		trend := services.ComputeMonthlyTrend(log)
		pets := append(services.Entities(log), services.AllPets)

		if c.asJSON {
			series := make(map[string][]decimal.Decimal, len(pets))
			for _, p := range pets {
				series[p] = trend.Series(p)
			}
			enc := json.NewEncoder(c.out)
			enc.SetIndent("", "  ")
			return enc.Encode(series)
		}

		tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "Month\t%s\t\n", strings.Join(pets, "\t"))
		for m := 1; m <= 12; m++ {
			cells := make([]string, len(pets))
			for i, p := range pets {
				cells[i] = core.FormatAmount(trend[m][p])
			}
			fmt.Fprintf(tw, "%s\t%s\t\n", time.Month(m), strings.Join(cells, "\t"))
		}
		return tw.Flush()
	})
}

type breakdownCmd struct {
	*app
	pet   string
	month int
}

func (*breakdownCmd) Name() string     { return "breakdown" }
func (*breakdownCmd) Synopsis() string { return "print one pet's spend per category in a month" }
func (*breakdownCmd) Usage() string {
	return `petctl breakdown -pet <name> -month <1-12>
`
}

func (c *breakdownCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.pet, "pet", "", "Pet name.")
	f.IntVar(&c.month, "month", 0, "Calendar month, 1-12.")
}

func (c *breakdownCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if strings.TrimSpace(c.pet) == "" || c.month < 1 || c.month > 12 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return c.withSession(ctx, func(s *session) error {
		log, err := s.svc.Log(ctx)
		if err != nil {
			return err
		}
		b := services.ComputeCategoryBreakdown(log, strings.TrimSpace(c.pet), c.month)
		if len(b) == 0 {
			fmt.Fprintf(c.out, "No expenses for %s in %s.\n", c.pet, time.Month(c.month))
			return nil
		}
		tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
		for _, cat := range b.Sorted() {
			fmt.Fprintf(tw, "%s\t%s\n", cat.Name, core.FormatAmount(cat.Amount))
		}
		fmt.Fprintf(tw, "Total\t%s\n", core.FormatAmount(b.Total()))
		return tw.Flush()
	})
}

type petsCmd struct {
	*app
}

func (*petsCmd) Name() string     { return "pets" }
func (*petsCmd) Synopsis() string { return "list registered pets" }
func (*petsCmd) Usage() string {
	return `petctl pets
`
}

func (*petsCmd) SetFlags(*flag.FlagSet) {}

// photoLister is implemented by photo stores that can enumerate their photos.
type photoLister interface {
	Photos() ([]string, error)
}

func (c *petsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.withSession(ctx, func(s *session) error {
		reg, err := s.svc.Profiles(ctx)
		if err != nil {
			return err
		}
		withPhoto := map[string]bool{}
		if l, ok := s.photos.(photoLister); ok {
			names, err := l.Photos()
			if err != nil {
				return err
			}
			for _, n := range names {
				withPhoto[n] = true
			}
		}

		tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Name\tGender\tBirthday\tPhoto")
		for _, name := range reg.Names() {
			p := reg[name]
			birthday := p.Birthday.String()
			if birthday == "" {
				birthday = "-"
			}
			photo := "no"
			if withPhoto[name] {
				photo = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, p.Gender, birthday, photo)
		}
		return tw.Flush()
	})
}
