package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kingpin"

	"budgie/internal/cli"
	"budgie/internal/config"
	"budgie/internal/presenter"
)

// defaultLogLevel keeps command output free of routine diagnostics.
const defaultLogLevel = "warn"

func main() {
	cli.LoadEnvFile()
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "budgie:", err)
		os.Exit(1)
	}
}

// run parses args, opens the configured event store and executes one
// command, writing its output to stdout.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	app := kingpin.New("budgie", "Personal budgeting from an append-only event log.")
	app.Writer(stdout)

	var overrides config.Config
	app.Flag("backend", "Event store backend (memory, file, sqlite, postgres).").StringVar(&overrides.Backend)
	app.Flag("events", "Event file for the file backend.").StringVar(&overrides.EventFile)
	app.Flag("db", "SQLite database path.").StringVar(&overrides.SQLiteDBPath)
	app.Flag("today", "Pin today's date (YYYY-MM-DD).").StringVar(&overrides.Today)
	app.Flag("log-level", "Log level for diagnostics on stderr (default warn, or LOG_LEVEL).").StringVar(&overrides.LogLevel)

	cmds := registerCommands(app)

	selected, err := app.Parse(args)
	if err != nil {
		return err
	}

	if _, set := os.LookupEnv("LOG_LEVEL"); !set && overrides.LogLevel == "" {
		overrides.LogLevel = defaultLogLevel
	}
	cfg, err := cli.LoadAndValidateConfig(overrides)
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(stderr, cfg.SlogLevel(), cfg.LogFormat)

	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Failed to close backend", "error", err)
		}
	}()

	today, err := cfg.TodayDate()
	if err != nil {
		return err
	}

	cmd, ok := cmds[selected]
	if !ok {
		return fmt.Errorf("unknown command %q", selected)
	}
	env := &commandEnv{
		service: res.Service,
		out:     presenter.New(stdout),
		today:   today,
	}
	logger.Debug("Running command", slog.String("command", selected))
	return cmd(ctx, env)
}
