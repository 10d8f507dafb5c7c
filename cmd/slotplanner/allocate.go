package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	plannererrors "github.com/signalsfoundry/kavach-slot-planner/internal/errors"
	"github.com/signalsfoundry/kavach-slot-planner/internal/logging"
	"github.com/signalsfoundry/kavach-slot-planner/internal/observability"
	"github.com/signalsfoundry/kavach-slot-planner/internal/report"
	"github.com/signalsfoundry/kavach-slot-planner/internal/runner"
	"github.com/signalsfoundry/kavach-slot-planner/model"
)

type allocateOptions struct {
	stations          string
	commit            bool
	failOnUnallocated bool
	noMatrix          bool
}

func newAllocateCmd(a *app) *cobra.Command {
	opts := &allocateOptions{}
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate frequencies and slots to a list of stations",
		Long: `Reads an ordered JSON array of station requests, checks them against the
approved stations in the store and prints the slot matrix. CSV and JSON
results are written to the report directory.

With --commit every allocated station is recorded as approved, so later
runs keep clear of it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runAllocate(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.stations, "stations", "s", "", "JSON file of station requests")
	f.BoolVar(&opts.commit, "commit", false, "record allocated stations as approved")
	f.BoolVar(&opts.failOnUnallocated, "fail-on-unallocated", false, "exit with status 5 when any station is left unallocated")
	f.BoolVar(&opts.noMatrix, "no-matrix", false, "do not print the slot matrix")
	_ = cmd.MarkFlagRequired("stations")
	return cmd
}

func readStations(path string) ([]model.StationRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, plannererrors.InputError("failed to read stations file", err)
	}
	var reqs []model.StationRequest
	if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, plannererrors.InputError("failed to parse stations file", err)
	}
	return reqs, nil
}

func (a *app) runAllocate(cmd *cobra.Command, opts *allocateOptions) error {
	ctx := cmd.Context()
	reqs, err := readStations(opts.stations)
	if err != nil {
		return err
	}

	tcfg := observability.ApplyTracingEnv(observability.TracingConfig{
		Enabled:     a.cfg.Tracing.Enabled,
		ServiceName: a.cfg.Tracing.ServiceName,
		Exporter:    a.cfg.Tracing.Exporter,
		Endpoint:    a.cfg.Tracing.Endpoint,
		SampleRatio: a.cfg.Tracing.SampleRatio,
		Writer:      a.stderr,
	})
	shutdown, err := observability.InitTracing(ctx, tcfg, a.log)
	if err != nil {
		return plannererrors.ConfigError("failed to initialise tracing", err)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, a.log)

	collector, err := observability.NewAllocationCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("failed to initialise metrics: %w", err)
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	r, err := runner.New(a.cfg.EngineConfig(), st,
		runner.WithLogger(a.log),
		runner.WithMetrics(collector),
		runner.WithRecorder(st),
	)
	if err != nil {
		return plannererrors.ConfigError("invalid engine configuration", err)
	}
	rep, err := r.Run(ctx, reqs)
	if err != nil {
		return plannererrors.StoreError("read", err)
	}

	if a.cfg.Report.Matrix && !opts.noMatrix {
		if err := report.Matrix(a.stdout, rep.Results, report.MatrixOptions{Slots: a.cfg.Engine.MaxSlots}); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout)
	}
	for _, res := range rep.UnallocatedResults() {
		fmt.Fprintf(a.stdout, "UNALLOCATED %s: %s\n", res.Station, res.Reason)
	}
	fmt.Fprintf(a.stdout, "Allocated %d of %d stations (fingerprint %s)\n", rep.Allocated, len(rep.Results), rep.Fingerprint)

	written, err := report.WriteFiles(a.cfg.Report.OutputDir, rep, report.Formats{
		Matrix: a.cfg.Report.Matrix,
		CSV:    a.cfg.Report.CSV,
		JSON:   a.cfg.Report.JSON,
	}, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}
	for _, path := range written {
		a.log.Info(ctx, "report written", logging.String("path", path))
	}

	if opts.commit {
		n, err := r.Commit(ctx, rep)
		if err != nil {
			return plannererrors.StoreError("commit", err)
		}
		fmt.Fprintf(a.stdout, "Recorded %d approved station(s)\n", n)
	}

	if err := collector.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.log.Warn(ctx, "failed to write metrics textfile", logging.String("path", a.cfg.Metrics.Textfile), logging.Err(err))
	}

	if opts.failOnUnallocated && rep.Unallocated > 0 {
		return plannererrors.Unallocated(rep.Unallocated)
	}
	return nil
}
