// Command petctl reads and feeds the pet expense store from the terminal,
// using the same configuration as the petspese server.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"petspese/internal/cli"
	applog "petspese/internal/log"
	"petspese/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentCLI)

	a := &app{out: os.Stdout, open: openConfigured(logger)}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range a.commands() {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// openConfigured opens the backend selected by the environment.
func openConfigured(logger *applog.Logger) func(ctx context.Context) (*session, error) {
	return func(ctx context.Context) (*session, error) {
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return nil, err
		}
		res, err := cli.OpenBackend(ctx, logger, cfg)
		if err != nil {
			return nil, err
		}
		return &session{
			svc:    services.NewPetService(res.Backend, res.Backend, res.Photos, res.Publisher),
			photos: res.Photos,
			close:  func() { cli.Close(logger, res) },
		}, nil
	}
}
