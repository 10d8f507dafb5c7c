package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/kavach-slot-planner/core"
	"github.com/signalsfoundry/kavach-slot-planner/model"
)

// Station outcomes used as the "outcome" label.
const (
	OutcomeAllocated   = "allocated"
	OutcomeUnallocated = "unallocated"
	OutcomeInvalid     = "invalid"
)

// AllocationCollector bundles Prometheus metrics for allocation runs. It also
// satisfies core.Observer so an engine can feed it directly.
type AllocationCollector struct {
	gatherer prometheus.Gatherer

	Runs              prometheus.Counter
	Stations          *prometheus.CounterVec
	FrequencyAttempts *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	SlotsUsed         *prometheus.GaugeVec
}

var _ core.Observer = (*AllocationCollector)(nil)

// NewAllocationCollector registers allocation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewAllocationCollector(reg prometheus.Registerer) (*AllocationCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "slotplanner_runs_total",
		Help: "Number of completed allocation runs.",
	}), "slotplanner_runs_total")
	if err != nil {
		return nil, err
	}

	stations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slotplanner_stations_total",
		Help: "Stations processed, labeled by outcome.",
	}, []string{"outcome"}), "slotplanner_stations_total")
	if err != nil {
		return nil, err
	}

	attempts, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slotplanner_frequency_attempts_total",
		Help: "Frequency attempts, labeled by frequency and result (committed or the rejection kind).",
	}, []string{"frequency", "result"}), "slotplanner_frequency_attempts_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "slotplanner_run_duration_seconds",
		Help:    "Wall time of one allocation run.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}), "slotplanner_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	slots, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slotplanner_slots_used",
		Help: "Owned slot cells after the last run, labeled by frequency and plane.",
	}, []string{"frequency", "plane"}), "slotplanner_slots_used")
	if err != nil {
		return nil, err
	}

	return &AllocationCollector{
		gatherer:          gatherer,
		Runs:              runs,
		Stations:          stations,
		FrequencyAttempts: attempts,
		RunDuration:       duration,
		SlotsUsed:         slots,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *AllocationCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveAttempt counts a rejected frequency.
func (c *AllocationCollector) ObserveAttempt(_ model.StationRequest, a model.Attempt) {
	if c == nil || c.FrequencyAttempts == nil {
		return
	}
	c.FrequencyAttempts.WithLabelValues(frequencyLabel(a.Frequency), string(a.Kind)).Inc()
}

// ObserveResult counts a station outcome.
func (c *AllocationCollector) ObserveResult(res model.AllocationResult) {
	if c == nil {
		return
	}
	outcome := OutcomeAllocated
	switch {
	case res.FailureKind == model.FailureInvalidRequest:
		outcome = OutcomeInvalid
	case !res.Allocated():
		outcome = OutcomeUnallocated
	default:
		if c.FrequencyAttempts != nil {
			c.FrequencyAttempts.WithLabelValues(frequencyLabel(res.Frequency), "committed").Inc()
		}
	}
	if c.Stations != nil {
		c.Stations.WithLabelValues(outcome).Inc()
	}
}

// ObserveRun records a finished run and the board occupancy it left.
func (c *AllocationCollector) ObserveRun(d time.Duration, boards *core.BoardRegistry) {
	if c == nil {
		return
	}
	if c.Runs != nil {
		c.Runs.Inc()
	}
	if c.RunDuration != nil {
		c.RunDuration.Observe(d.Seconds())
	}
	if c.SlotsUsed == nil || boards == nil {
		return
	}
	for _, b := range boards.Boards() {
		f := frequencyLabel(b.Frequency())
		c.SlotsUsed.WithLabelValues(f, core.PlaneStationary.String()).Set(float64(b.Used(core.PlaneStationary)))
		c.SlotsUsed.WithLabelValues(f, core.PlaneOnboard.String()).Set(float64(b.Used(core.PlaneOnboard)))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *AllocationCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current metrics in the node_exporter textfile
// format, for batch runs that exit before any scrape.
func (c *AllocationCollector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func frequencyLabel(f model.FrequencyID) string { return strconv.Itoa(int(f)) }

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
