package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/go_away_boilerplate/pkg/shutdown"

	"github.com/hupe1980/fittelligence"
	"github.com/hupe1980/fittelligence/coach"
	"github.com/hupe1980/fittelligence/config"
	"github.com/hupe1980/fittelligence/logging"
	"github.com/hupe1980/fittelligence/model"
)

const usage = `fittelligence - multi-agent fitness coaching

Usage: fittelligence [flags] [command]

Flags:
  -config string    Path to a YAML config file.
  -profile string   Path to a YAML client profile (default: built-in demo client).
  -env string       Path to a .env file loaded with override semantics. (default ".env")

Commands:
  demo              Run the five-step coaching pipeline once. (default)
  serve             Serve the HTTP API.
  help              Display this help message.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("fittelligence", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configPath := fs.String("config", "", "")
	profilePath := fs.String("profile", "", "")
	envPath := fs.String("env", ".env", "")

	if err := fs.Parse(args); err != nil {
		ancli.PrintErr(fmt.Sprintf("failed to parse flags: %v\n", err))
		fmt.Print(usage)
		return 1
	}

	cmd := strings.ToLower(fs.Arg(0))
	if cmd == "" {
		cmd = "demo"
	}

	switch cmd {
	case "demo", "serve":
	case "h", "help":
		fmt.Print(usage)
		return 0
	default:
		ancli.PrintErr(fmt.Sprintf("unknown command: %q\n", cmd))
		fmt.Print(usage)
		return 1
	}

	if err := config.LoadDotEnv(*envPath); err != nil {
		ancli.PrintWarn(fmt.Sprintf("%v\n", err))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		ancli.PrintErr(fmt.Sprintf("failed to load config: %v\n", err))
		return 1
	}

	if misc.Truthy(os.Getenv("DEBUG")) {
		cfg.Logging.Level = "debug"
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		ancli.PrintErr(fmt.Sprintf("%v\n", err))
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cmd == "serve" {
		return serve(ctx, cancel, cfg, logger)
	}

	return demo(ctx, cfg, *profilePath, logger)
}

func newLogger(cfg config.LoggingConfig) (logging.Logger, error) {
	level, err := logging.ParseLogLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewSlogLogger(level, cfg.Format, false), nil
}

func demo(ctx context.Context, cfg *config.Config, profilePath string, logger logging.Logger) int {
	coach.Intro(os.Stdout)
	hasCredentials := coach.CheckCredentials(os.Stdout, cfg.Model)

	profile := coach.DemoProfile()
	if profilePath != "" {
		p, err := coach.LoadProfile(profilePath)
		if err != nil {
			ancli.PrintErr(fmt.Sprintf("%v\n", err))
			return 1
		}
		profile = p
		fmt.Printf("\nUsing profile from %s...\n\n", profilePath)
	} else {
		fmt.Print("\nUsing demo data...\n\n")
	}

	app, err := fittelligence.New(ctx, cfg, func(o *fittelligence.Options) {
		o.Logger = logger
		o.Out = os.Stdout
	})
	if err != nil && !hasCredentials {
		// Without credentials the demo still walks through every step; each
		// step reports the provider error.
		app, err = fittelligence.New(ctx, cfg, func(o *fittelligence.Options) {
			o.Logger = logger
			o.Out = os.Stdout
			o.Model = unavailable(cfg.Model, err)
		})
	}
	if err != nil {
		ancli.PrintErr(fmt.Sprintf("failed to set up: %v\n", err))
		return 1
	}
	defer app.Close()

	if _, err := app.RunProgram(ctx, profile); err != nil {
		ancli.PrintErr(fmt.Sprintf("failed to run program: %v\n", err))
		return 1
	}

	coach.Summary(os.Stdout)

	if misc.Truthy(os.Getenv("DEBUG")) {
		ancli.PrintOK("program complete\n")
	}

	return 0
}

func serve(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger logging.Logger) int {
	app, err := fittelligence.New(ctx, cfg, func(o *fittelligence.Options) {
		o.Logger = logger
		o.Out = io.Discard
	})
	if err != nil {
		ancli.PrintErr(fmt.Sprintf("failed to set up: %v\n", err))
		return 1
	}
	defer app.Close()

	go shutdown.Monitor(cancel)

	ancli.PrintOK(fmt.Sprintf("serving on %s\n", cfg.Server.Addr))

	if err := app.Server().Serve(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, context.Canceled) {
		ancli.PrintErr(fmt.Sprintf("server failed: %v\n", err))
		return 1
	}

	return 0
}

// unavailable stands in for a provider that could not be created, failing
// every call with the construction error.
func unavailable(cfg config.ModelConfig, cause error) model.Model {
	info := model.Info{Name: cfg.Name, Provider: cfg.Provider}
	return model.WrapFunc(info, func(_ context.Context, _ model.Request) (<-chan model.Response, <-chan error) {
		return model.Finish(nil, fmt.Errorf("model unavailable: %w", cause))
	})
}
