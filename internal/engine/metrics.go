package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cindergrid/automaton/internal/aaa"
)

// Metrics is the engine's instrumentation set. All counters and gauges
// are plain prometheus collectors; the caller owns the registerer and
// its exposition surface.
type Metrics struct {
	admissions *prometheus.CounterVec
	executions *prometheus.CounterVec
	fees       prometheus.Counter
	rent       prometheus.Counter
	sweeps     prometheus.Counter
	ringDepth  *prometheus.GaugeVec
}

// NewMetrics builds the metric set on the given registerer. A nil
// registerer yields working but unregistered collectors, which is what
// tests and metric-less embedders want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		admissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "automaton",
			Name:      "admissions_total",
			Help:      "Instances admitted to a ready lane, by class.",
		}, []string{"class"}),
		executions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "automaton",
			Name:      "cycles_total",
			Help:      "Pipeline cycles executed, by class and result.",
		}, []string{"class", "result"}),
		fees: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "automaton",
			Name:      "fees_charged_total",
			Help:      "Total fee amount drawn from sovereign accounts.",
		}),
		rent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "automaton",
			Name:      "rent_debited_total",
			Help:      "Total rent amount debited to the fee sink.",
		}),
		sweeps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "automaton",
			Name:      "sweeps_total",
			Help:      "Instances reclaimed by permissionless sweep.",
		}),
		ringDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "automaton",
			Name:      "ring_depth",
			Help:      "Current ring occupancy, by ring.",
		}, []string{"ring"}),
	}
}

func (m *Metrics) ObserveAdmission(class aaa.Class) {
	m.admissions.WithLabelValues(class.String()).Inc()
}

func (m *Metrics) ObserveExecution(class aaa.Class, result string) {
	m.executions.WithLabelValues(class.String(), result).Inc()
}

func (m *Metrics) ObserveFee(amount aaa.Amount) {
	m.fees.Add(float64(amount))
}

func (m *Metrics) ObserveRent(amount aaa.Amount) {
	m.rent.Add(float64(amount))
}

func (m *Metrics) ObserveSweep() {
	m.sweeps.Inc()
}

func (m *Metrics) ObserveRings(readySystem, readyUser, deferred int) {
	m.ringDepth.WithLabelValues("ready_system").Set(float64(readySystem))
	m.ringDepth.WithLabelValues("ready_user").Set(float64(readyUser))
	m.ringDepth.WithLabelValues("deferred").Set(float64(deferred))
}
