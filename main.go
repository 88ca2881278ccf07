// pattern: Imperative Shell
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	flag "github.com/spf13/pflag"

	"venvscout/internal/cli"
	"venvscout/internal/config"
	"venvscout/internal/logging"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Stop parsing flags after the first non-flag arg (the subcommand),
	// so that --help after a subcommand is handled by the subcommand.
	flag.CommandLine.SetInterspersed(false)

	configDir := flag.StringP("config-dir", "c", "", "config directory (default: ~/.config/venvscout)")
	verbose := flag.BoolP("verbose", "v", false, "stream internal log entries to stderr")

	// Override flag.Usage before Parse so --help uses the CLI app's help
	flag.Usage = func() {
		app := cli.BuildApp(context.Background(), version, cli.Deps{Config: config.DefaultConfig()})
		app.SetOptions(flag.CommandLine.FlagUsages())
		app.PrintHelp(os.Stderr)
	}

	flag.Parse()

	cfg, err := loadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}

	logManager, err := newLogManager(config.DataDir(*configDir), cfg.LogLevel, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		return 1
	}
	defer func() { _ = logManager.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	terminal, width := cli.StderrTerminal()
	deps := cli.Deps{
		Config:    cfg,
		ConfigDir: *configDir,
		Logs:      logManager,
		Terminal:  func() bool { return terminal },
		Width:     width,
	}

	if *verbose {
		streamCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go cli.StreamEntries(streamCtx, logManager.Entries(), os.Stderr, "debug", cli.NewStyles(cfg.Theme))
	}

	appLogger := logManager.For("cli")
	appLogger.Info("command starting", "args", flag.Args())

	app := cli.BuildApp(ctx, version, deps)
	app.SetOptions(flag.CommandLine.FlagUsages())
	code := app.Execute(flag.Args())

	appLogger.Info("command finished", "exit_code", code)
	_ = logManager.Sync()
	return code
}

// loadConfig loads the configuration from the specified directory or default location.
// On error the defaults are returned alongside it.
func loadConfig(configDir string) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if configDir != "" {
		cfg, err = config.LoadFromDir(configDir)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.DefaultConfig(), err
	}
	return cfg, nil
}

// newLogManager writes logs to <dataDir>/venvscout.log. With verbose the
// level drops to debug so --verbose shows everything.
func newLogManager(dataDir, level string, verbose bool) (*logging.Manager, error) {
	if verbose {
		level = "debug"
	}
	return logging.NewManager(logging.Config{
		FilePath:       filepath.Join(dataDir, "venvscout.log"),
		MaxSizeMB:      10,
		MaxBackups:     3,
		MaxAgeDays:     7,
		ChannelBufSize: 1000,
		Level:          level,
	})
}
