// Package runner drives one allocation run end to end: it loads the approved
// snapshot, runs the engine and reports through logs, metrics and traces.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/kavach-slot-planner/core"
	"github.com/signalsfoundry/kavach-slot-planner/internal/logging"
	"github.com/signalsfoundry/kavach-slot-planner/internal/observability"
	"github.com/signalsfoundry/kavach-slot-planner/kb"
	"github.com/signalsfoundry/kavach-slot-planner/model"
)

// SnapshotSource provides the approved stations a run must respect.
type SnapshotSource interface {
	ListApproved(ctx context.Context) ([]model.ApprovedStation, error)
}

// Recorder persists committed allocations.
type Recorder interface {
	RecordAllocations(ctx context.Context, results []model.AllocationResult) (int, error)
}

// Report is the outcome of one run.
type Report struct {
	RunID       string
	Results     []model.AllocationResult
	Approved    int
	Allocated   int
	Unallocated int
	// Invalid counts the unallocated results rejected before any frequency
	// was tried.
	Invalid     int
	Fingerprint string
	Duration    time.Duration
	Boards      *core.BoardRegistry
}

// UnallocatedResults returns the results that did not receive a frequency.
func (r *Report) UnallocatedResults() []model.AllocationResult {
	var out []model.AllocationResult
	for _, res := range r.Results {
		if !res.Allocated() {
			out = append(out, res)
		}
	}
	return out
}

// Runner executes allocation runs with a fixed engine configuration.
type Runner struct {
	cfg      core.EngineConfig
	source   SnapshotSource
	recorder Recorder
	kb       *kb.KnowledgeBase
	log      logging.Logger
	metrics  *observability.AllocationCollector
	tracer   trace.Tracer
	now      func() time.Time
}

// Option customises a Runner.
type Option func(*Runner)

// WithLogger sets the base logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics feeds run metrics into c.
func WithMetrics(c *observability.AllocationCollector) Option {
	return func(r *Runner) { r.metrics = c }
}

// WithTracer overrides the global planner tracer.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithRecorder enables Commit.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithKnowledgeBase uses kb to hold the approved snapshot between runs.
func WithKnowledgeBase(k *kb.KnowledgeBase) Option {
	return func(r *Runner) {
		if k != nil {
			r.kb = k
		}
	}
}

// New validates cfg and returns a runner. A nil source means no approved
// stations.
func New(cfg core.EngineConfig, source SnapshotSource, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:    cfg,
		source: source,
		kb:     kb.NewKnowledgeBase(),
		log:    logging.Noop(),
		tracer: observability.Tracer(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// KnowledgeBase returns the registry holding the approved snapshot.
func (r *Runner) KnowledgeBase() *kb.KnowledgeBase { return r.kb }

// Run allocates requests in order. Per-station failures are reported in the
// results; an error means the run itself could not start.
func (r *Runner) Run(ctx context.Context, requests []model.StationRequest) (*Report, error) {
	ctx, log := logging.WithRunLogger(ctx, r.log)
	runID := logging.RunIDFromContext(ctx)
	ctx = logging.ContextWithLogger(ctx, log)

	ctx, span := r.tracer.Start(ctx, "allocation.run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("stations", len(requests)),
		attribute.Int("max_frequencies", r.cfg.MaxFrequencies),
	))
	defer span.End()

	approved, err := r.loadSnapshot(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot")
		return nil, err
	}
	span.SetAttributes(attribute.Int("approved", len(approved)))

	opts := []core.EngineOption{core.WithObserver(&runObserver{ctx: ctx, log: log, span: span})}
	if r.metrics != nil {
		opts = append(opts, core.WithObserver(r.metrics))
	}
	engine, err := core.NewAllocationEngine(r.cfg, opts...)
	if err != nil {
		return nil, err
	}

	start := r.now()
	boards := engine.NewBoards()
	results, err := engine.RunOnBoards(boards, requests, approved)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "engine")
		return nil, err
	}
	elapsed := r.now().Sub(start)

	rep := &Report{
		RunID:       runID,
		Results:     results,
		Approved:    len(approved),
		Fingerprint: Fingerprint(results),
		Duration:    elapsed,
		Boards:      boards,
	}
	for _, res := range results {
		if res.Allocated() {
			rep.Allocated++
			continue
		}
		rep.Unallocated++
		if res.FailureKind == model.FailureInvalidRequest {
			rep.Invalid++
		}
	}
	r.metrics.ObserveRun(elapsed, boards)

	span.SetAttributes(
		attribute.Int("allocated", rep.Allocated),
		attribute.Int("unallocated", rep.Unallocated),
		attribute.String("fingerprint", rep.Fingerprint),
	)
	log.Info(ctx, "allocation run complete",
		logging.Int("stations", len(results)),
		logging.Int("allocated", rep.Allocated),
		logging.Int("unallocated", rep.Unallocated),
		logging.Int("approved", rep.Approved),
		logging.String("fingerprint", rep.Fingerprint),
		logging.Duration("elapsed", elapsed),
	)
	return rep, nil
}

func (r *Runner) loadSnapshot(ctx context.Context) ([]model.ApprovedStation, error) {
	if r.source == nil {
		return r.kb.Snapshot(), nil
	}
	approved, err := r.source.ListApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("load approved stations: %w", err)
	}
	if err := r.kb.Load(approved); err != nil {
		// Invalid rows are dropped from the snapshot rather than failing the run.
		logging.FromContextOr(ctx, r.log).Warn(ctx, "skipping invalid approved stations", logging.Err(err))
	}
	return r.kb.Snapshot(), nil
}

// ErrNoRecorder is returned by Commit when the runner has no recorder.
var ErrNoRecorder = errors.New("runner: no recorder configured")

// Commit records the allocated stations of rep and adds them to the
// knowledge base so the next run treats them as approved.
func (r *Runner) Commit(ctx context.Context, rep *Report) (int, error) {
	if r.recorder == nil {
		return 0, ErrNoRecorder
	}
	log := logging.FromContextOr(ctx, r.log).With(logging.String("run_id", rep.RunID))
	n, err := r.recorder.RecordAllocations(ctx, rep.Results)
	if err != nil {
		return 0, fmt.Errorf("record allocations: %w", err)
	}
	for _, res := range rep.Results {
		if !res.Allocated() {
			continue
		}
		if err := r.kb.UpsertStation(model.ApprovedStation{
			Name:         res.Station,
			StationCode:  res.StationCode,
			KavachID:     res.KavachID,
			Latitude:     res.Latitude,
			Longitude:    res.Longitude,
			SafeRadiusKm: res.SafeRadiusKm,
			Frequency:    res.Frequency,
		}); err != nil {
			log.Warn(ctx, "knowledge base rejected committed station", logging.String("station", res.Station), logging.Err(err))
		}
	}
	log.Info(ctx, "allocations recorded", logging.Int("stations", n))
	return n, nil
}

// runObserver turns engine callbacks into log records and span events.
type runObserver struct {
	ctx  context.Context
	log  logging.Logger
	span trace.Span
}

func (o *runObserver) ObserveAttempt(station model.StationRequest, a model.Attempt) {
	o.log.Debug(o.ctx, "frequency rejected",
		logging.String("station", station.Name),
		logging.Int("frequency", int(a.Frequency)),
		logging.String("kind", string(a.Kind)),
		logging.String("detail", a.Detail),
	)
}

func (o *runObserver) ObserveResult(res model.AllocationResult) {
	attrs := []attribute.KeyValue{
		attribute.String("station", res.Station),
		attribute.Int("frequency", int(res.Frequency)),
		attribute.Int("attempts", len(res.Attempts)),
	}
	if !res.Allocated() {
		attrs = append(attrs, attribute.String("failure_kind", string(res.FailureKind)))
		o.span.AddEvent("station.unallocated", trace.WithAttributes(attrs...))
		o.log.Warn(o.ctx, "station unallocated",
			logging.String("station", res.Station),
			logging.String("failure_kind", string(res.FailureKind)),
			logging.String("reason", res.Reason),
		)
		return
	}
	o.span.AddEvent("station.committed", trace.WithAttributes(attrs...))
	o.log.Info(o.ctx, "station committed",
		logging.String("station", res.Station),
		logging.Int("frequency", int(res.Frequency)),
		logging.String("tx_window", res.TxWindow),
		logging.Int("stationary", res.NumStationary()),
		logging.Int("onboard", res.NumOnboard()),
	)
}
