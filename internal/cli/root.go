package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/teamcutter/linebrew/internal/brew"
	"github.com/teamcutter/linebrew/internal/cache"
	"github.com/teamcutter/linebrew/internal/config"
	"github.com/teamcutter/linebrew/internal/history"
	"github.com/teamcutter/linebrew/internal/job"
	"github.com/teamcutter/linebrew/internal/logging"
	"github.com/teamcutter/linebrew/internal/manager"
	"github.com/teamcutter/linebrew/internal/runner"
)

type rootOptions struct {
	configPath string
	verbose    int
	noColor    bool
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:          "linebrew",
		Short:        "Browse and manage Homebrew formulae",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().CountVarP(&opts.verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		newListCmd(opts),
		newSearchCmd(opts),
		newInfoCmd(opts),
		newInstallCmd(opts),
		newUninstallCmd(opts),
		newPinCmd(opts),
		newUnpinCmd(opts),
		newTapCmd(opts),
		newUntapCmd(opts),
		newUpgradeCmd(opts),
		newUpdateCmd(opts),
		newCleanupCmd(opts),
		newDoctorCmd(opts),
		newHistoryCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// app is everything a command needs once the config is read.
type app struct {
	cfg      *config.Config
	mgr      *manager.Manager
	store    *history.Store
	recorder *history.Recorder
	out      io.Writer
	closers  []func() error
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFrom(o.configPath)
	}
	return config.Load()
}

// newApp wires the stack for one command. Logging comes first so that
// everything after it is logged at the requested level.
func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}

	logCloser, err := logging.SetupLogger(logging.VerbosityLevel(cfg.LogLevel, opts.verbose), cfg.LogFile)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		out:     cmd.OutOrStdout(),
		closers: []func() error{logCloser.Close},
	}

	brewPath, err := brew.Locate(cfg.BrewPath)
	if err != nil {
		a.close()
		return nil, err
	}

	engine := job.NewEngine(brewPath, brew.Env(os.Environ(), brewPath), runner.New(cfg.CancelGrace.Duration))
	loader := cache.NewJobLoader(engine)
	a.mgr = manager.New(engine, cache.New(loader), loader, cfg.PollInterval.Duration)

	if err := a.openHistory(); err != nil {
		// History is a convenience; commands still work without it.
		cliLog().Warn().Err(err).Msg("Job history disabled")
	}

	return a, nil
}

func (a *app) openHistory() error {
	if a.cfg.HistoryDB == "" {
		return nil
	}

	codec, err := history.ParseCodec(a.cfg.HistoryCodec)
	if err != nil {
		return err
	}

	store, err := history.Open(a.cfg.HistoryDB, codec)
	if err != nil {
		return err
	}

	a.store = store
	a.recorder = history.NewRecorder(store, a.cfg.HistoryKeep)
	a.mgr.Subscribe(a.recorder.Notify)
	a.closers = append(a.closers, func() error {
		a.recorder.Close()
		return store.Close()
	})
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			cliLog().Debug().Err(err).Msg("Close failed")
		}
	}
	a.closers = nil
}

// withApp runs fn with a wired app and always releases it.
func withApp(opts *rootOptions, fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, opts)
		if err != nil {
			if errors.Is(err, brew.ErrNotFound) {
				return fmt.Errorf("%w (set brew_path in %s)", err, config.Path())
			}
			return err
		}
		defer a.close()
		return fn(cmd, args, a)
	}
}
