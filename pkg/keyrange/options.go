package keyrange

import (
	"github.com/KevoDB/sai/pkg/common/log"
)

type options struct {
	logger  log.Logger
	metrics Metrics
}

// Option configures a builder and the iterator it produces
type Option func(*options)

// WithLogger sets the logger used to report suppressed close failures
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink for build, merge, skip and close events
func WithMetrics(metrics Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.GetDefaultLogger()
	}
	if o.metrics == nil {
		o.metrics = NewNoopMetrics()
	}
	o.logger = o.logger.WithField("component", "keyrange")
	return o
}
