package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

const businessSubsystem = "fuelpos"

var MetricsSessionTransitions = &Metric{
	ID:          "qrSessionTransitions",
	Name:        "qr_session_transitions_total",
	Description: "QR payment session state transitions, partitioned by target state and reason.",
	Type:        "counter_vec",
	Args:        []string{"state", "reason"},
}

var MetricsSessionWait = &Metric{
	ID:          "qrSessionWait",
	Name:        "qr_session_wait_ms",
	Description: "Time a QR payment session spent waiting for confirmation, in milliseconds.",
	Type:        "histogram",
	Buckets:     WaitBuckets,
}

var MetricsPollOutcomes = &Metric{
	ID:          "qrPollOutcomes",
	Name:        "qr_poll_outcomes_total",
	Description: "Bank status checks issued by the poller, partitioned by outcome.",
	Type:        "counter_vec",
	Args:        []string{"outcome"},
}

var MetricsRecorderFailures = &Metric{
	ID:          "recorderFailures",
	Name:        "recorder_failures_total",
	Description: "Transaction recorder write failures, partitioned by stage (transaction, audit).",
	Type:        "counter_vec",
	Args:        []string{"stage"},
}

// Business holds the domain collectors. A nil *Business is a valid no-op
// sink so services and tests can run without a registry.
type Business struct {
	transitions *prometheus.CounterVec
	wait        prometheus.Histogram
	polls       *prometheus.CounterVec
	recorder    *prometheus.CounterVec
}

// NewBusiness builds the domain collectors and registers them on reg.
// Collectors that are already registered are reused.
func NewBusiness(reg prometheus.Registerer) (*Business, error) {
	b := &Business{}
	for _, m := range []*Metric{MetricsSessionTransitions, MetricsSessionWait, MetricsPollOutcomes, MetricsRecorderFailures} {
		c, err := register(reg, NewMetric(m, businessSubsystem))
		if err != nil {
			return nil, err
		}
		switch m {
		case MetricsSessionTransitions:
			b.transitions = c.(*prometheus.CounterVec)
		case MetricsSessionWait:
			b.wait = c.(prometheus.Histogram)
		case MetricsPollOutcomes:
			b.polls = c.(*prometheus.CounterVec)
		case MetricsRecorderFailures:
			b.recorder = c.(*prometheus.CounterVec)
		}
	}
	return b, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector) (prometheus.Collector, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector, nil
		}
		return nil, err
	}
	return c, nil
}

func NewDefaultBusiness() (*Business, error) {
	return NewBusiness(prometheus.DefaultRegisterer)
}

func (b *Business) SessionTransition(state, reason string) {
	if b == nil {
		return
	}
	b.transitions.WithLabelValues(state, reason).Inc()
}

func (b *Business) SessionWaited(ms float64) {
	if b == nil {
		return
	}
	b.wait.Observe(ms)
}

func (b *Business) PollOutcome(outcome string) {
	if b == nil {
		return
	}
	b.polls.WithLabelValues(outcome).Inc()
}

func (b *Business) RecorderFailure(stage string) {
	if b == nil {
		return
	}
	b.recorder.WithLabelValues(stage).Inc()
}

var Module = fx.Options(
	fx.Provide(NewDefaultBusiness),
)
