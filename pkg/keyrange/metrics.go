// ABOUTME: Key range telemetry metrics interface and implementation for union builds and merges
// ABOUTME: Tracks build shortcuts, merge rounds, skip fan-out, dropped ranges and close failures

package keyrange

import (
	"context"

	"github.com/KevoDB/sai/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Metrics defines the telemetry operations of key range iterators.
// All metrics are optional - implementations can safely be no-op.
type Metrics interface {
	telemetry.ComponentMetrics

	// RecordBuild records a finished build and whether it bypassed the merge.
	RecordBuild(ctx context.Context, iteratorType string, rangeCount int, degenerate bool)

	// RecordDropped records a range discarded at build time because it was empty.
	RecordDropped(ctx context.Context)

	// RecordMerge records one advance of a union: the size of the tied
	// candidate set, zero when the merge is exhausted.
	RecordMerge(ctx context.Context, candidates int)

	// RecordSkip records a skip and how many ranges it was forwarded to.
	RecordSkip(ctx context.Context, fanout int)

	// RecordClose records the release of a merge's ranges.
	RecordClose(ctx context.Context, ranges int, failures int)
}

type keyRangeMetrics struct {
	tel telemetry.Telemetry
}

// NewMetrics creates a metrics implementation on top of tel.
// If tel is nil, returns a no-op implementation.
func NewMetrics(tel telemetry.Telemetry) Metrics {
	if tel == nil {
		return &noopMetrics{}
	}
	return &keyRangeMetrics{tel: tel}
}

// NewNoopMetrics creates a no-op metrics implementation.
func NewNoopMetrics() Metrics {
	return &noopMetrics{}
}

func (m *keyRangeMetrics) RecordBuild(ctx context.Context, iteratorType string, rangeCount int, degenerate bool) {
	m.tel.RecordCounter(ctx, "sai.keyrange.build.total", 1,
		attribute.String(telemetry.AttrComponent, telemetry.ComponentKeyRange),
		attribute.String(telemetry.AttrOperationType, telemetry.OpTypeBuild),
		attribute.String(telemetry.AttrIteratorType, iteratorType),
		attribute.Bool(telemetry.AttrDegenerate, degenerate),
	)

	m.tel.RecordHistogram(ctx, "sai.keyrange.build.ranges", float64(rangeCount),
		attribute.String(telemetry.AttrComponent, telemetry.ComponentKeyRange),
		attribute.String(telemetry.AttrIteratorType, iteratorType),
	)
}

func (m *keyRangeMetrics) RecordDropped(ctx context.Context) {
	m.tel.RecordCounter(ctx, "sai.keyrange.dropped.total", 1,
		attribute.String(telemetry.AttrComponent, telemetry.ComponentKeyRange),
		attribute.String(telemetry.AttrOperationType, telemetry.OpTypeDrop),
	)
}

func (m *keyRangeMetrics) RecordMerge(ctx context.Context, candidates int) {
	status := telemetry.StatusSuccess
	if candidates == 0 {
		status = telemetry.StatusExhausted
	}

	m.tel.RecordCounter(ctx, "sai.keyrange.merge.total", 1,
		attribute.String(telemetry.AttrComponent, telemetry.ComponentKeyRange),
		attribute.String(telemetry.AttrOperationType, telemetry.OpTypeMerge),
		attribute.String(telemetry.AttrStatus, status),
	)

	if candidates > 0 {
		m.tel.RecordHistogram(ctx, "sai.keyrange.merge.candidates", float64(candidates),
			attribute.String(telemetry.AttrComponent, telemetry.ComponentKeyRange),
		)
	}
}

func (m *keyRangeMetrics) RecordSkip(ctx context.Context, fanout int) {
	m.tel.RecordHistogram(ctx, "sai.keyrange.skip.fanout", float64(fanout),
		attribute.String(telemetry.AttrComponent, telemetry.ComponentKeyRange),
		attribute.String(telemetry.AttrOperationType, telemetry.OpTypeSkip),
	)
}

func (m *keyRangeMetrics) RecordClose(ctx context.Context, ranges int, failures int) {
	status := telemetry.StatusSuccess
	if failures > 0 {
		status = telemetry.StatusError
	}

	m.tel.RecordCounter(ctx, "sai.keyrange.close.total", 1,
		attribute.String(telemetry.AttrComponent, telemetry.ComponentKeyRange),
		attribute.String(telemetry.AttrOperationType, telemetry.OpTypeClose),
		attribute.String(telemetry.AttrStatus, status),
		attribute.Int(telemetry.AttrRangeCount, ranges),
	)

	if failures > 0 {
		m.tel.RecordCounter(ctx, "sai.keyrange.close.failures", int64(failures),
			attribute.String(telemetry.AttrComponent, telemetry.ComponentKeyRange),
		)
	}
}

// Close implements telemetry.ComponentMetrics.
func (m *keyRangeMetrics) Close() error {
	return nil
}

type noopMetrics struct{}

func (n *noopMetrics) RecordBuild(ctx context.Context, iteratorType string, rangeCount int, degenerate bool) {
}
func (n *noopMetrics) RecordDropped(ctx context.Context)                     {}
func (n *noopMetrics) RecordMerge(ctx context.Context, candidates int)       {}
func (n *noopMetrics) RecordSkip(ctx context.Context, fanout int)            {}
func (n *noopMetrics) RecordClose(ctx context.Context, ranges, failures int) {}
func (n *noopMetrics) Close() error                                          { return nil }
