package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/kavach-slot-planner/internal/config"
	plannererrors "github.com/signalsfoundry/kavach-slot-planner/internal/errors"
	"github.com/signalsfoundry/kavach-slot-planner/internal/logging"
	"github.com/signalsfoundry/kavach-slot-planner/internal/store"
)

// app holds the state shared by every subcommand. It is rebuilt per
// invocation so tests can run commands side by side.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath     string
	maxFrequencies int
	dbPath         string
	outDir         string
	logLevel       string

	cfg *config.Config
	log logging.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "slotplanner",
		Short: "Kavach frequency and timeslot planner",
		Long: `slotplanner allocates radio frequencies and TDMA slots to Kavach
stationary units.

Stations are processed in the order given. Each one takes the lowest
frequency whose board can hold its stationary block and onboard slots and
which keeps it clear of every co-frequency neighbour's safe radius.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultPath, "path to the YAML configuration file")
	flags.IntVar(&a.maxFrequencies, "max-frequencies", 0, "override engine.max_frequencies")
	flags.StringVar(&a.dbPath, "db", "", "override store.path")
	flags.StringVar(&a.outDir, "out", "", "override report.output_dir")
	flags.StringVar(&a.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newAllocateCmd(a),
		newApprovedCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads the configuration and applies flag overrides before any
// subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return plannererrors.ConfigError("failed to load configuration", err)
	}
	flags := cmd.Flags()
	if flags.Changed("max-frequencies") {
		cfg.Engine.MaxFrequencies = a.maxFrequencies
	}
	if flags.Changed("db") {
		cfg.Store.Path = a.dbPath
	}
	if flags.Changed("out") {
		cfg.Report.OutputDir = a.outDir
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return plannererrors.ConfigError("invalid configuration", err)
	}
	a.cfg = cfg

	logCfg := cfg.LoggingConfig()
	if logCfg.File == "" {
		logCfg.Output = a.stderr
	}
	a.log = logging.New(logCfg)
	return nil
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, a.cfg.Store.Path)
	if err != nil {
		return nil, plannererrors.StoreError("open", err)
	}
	return st, nil
}
