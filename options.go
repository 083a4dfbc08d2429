package crann

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
)

// Option is a function that configures a Container.
type Option func(*Container) error

// WithLogger sets the logger used for build tracing.
// Build steps are logged at V(1); nothing is logged at V(0).
//
// Example:
//
//	zapLog, _ := zap.NewDevelopment()
//	container := crann.New(crann.WithLogger(zapr.NewLogger(zapLog)))
func WithLogger(logger logr.Logger) Option {
	return func(c *Container) error {
		c.logger = logger.WithName("crann")
		return nil
	}
}

// WithMetrics registers build counters on reg.
// Containers sharing a registerer share counters.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Container) error {
		if reg == nil {
			return fmt.Errorf("metrics registerer cannot be nil")
		}
		m, err := newMetrics(reg)
		if err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
		c.metrics = m
		return nil
	}
}
