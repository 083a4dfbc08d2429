package crann

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics records build activity. A nil *metrics records nothing.
type metrics struct {
	builds     *prometheus.CounterVec
	sharedHits *prometheus.CounterVec
	cycles     *prometheus.CounterVec
	errors     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crann_builds_total",
				Help: "Total number of instances constructed, by identifier",
			},
			[]string{"identifier"},
		),
		sharedHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crann_shared_hits_total",
				Help: "Total number of resolutions served from the shared instance cache",
			},
			[]string{"identifier"},
		),
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crann_cycles_total",
				Help: "Total number of dependency cycles short-circuited with an in-progress instance",
			},
			[]string{"identifier"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crann_create_errors_total",
				Help: "Total number of failed top-level Create calls, by error kind",
			},
			[]string{"kind"},
		),
	}

	var err error
	for _, vec := range []**prometheus.CounterVec{&m.builds, &m.sharedHits, &m.cycles, &m.errors} {
		if *vec, err = register(reg, *vec); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// register adds vec to reg, reusing the collector already registered by
// another container sharing the same registerer.
func register(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return vec, nil
}

func (m *metrics) built(id string) {
	if m != nil {
		m.builds.WithLabelValues(id).Inc()
	}
}

func (m *metrics) sharedHit(id string) {
	if m != nil {
		m.sharedHits.WithLabelValues(id).Inc()
	}
}

func (m *metrics) cycle(id string) {
	if m != nil {
		m.cycles.WithLabelValues(id).Inc()
	}
}

func (m *metrics) failed(err error) {
	if m != nil {
		m.errors.WithLabelValues(errorKind(err)).Inc()
	}
}
