// ABOUTME: OpenTelemetry exporter factory for metric readers and span exporters (Prometheus, OTLP, stdout)
// ABOUTME: Handles configuration and creation of the telemetry export destinations

package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

// createMetricReaders creates metric readers based on configuration. The
// returned registry is non-nil only when the prometheus exporter is enabled.
func createMetricReaders(cfg Config) ([]metric.Reader, *prometheus.Registry, error) {
	var readers []metric.Reader
	var registry *prometheus.Registry

	for _, exporterName := range cfg.Exporters {
		switch exporterName {
		case ExporterPrometheus:
			registry = prometheus.NewRegistry()
			reader, err := otelprom.New(otelprom.WithRegisterer(registry))
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
			}
			readers = append(readers, reader)

		case ExporterStdout:
			exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create stdout metric exporter: %w", err)
			}
			readers = append(readers, metric.NewPeriodicReader(exporter,
				metric.WithInterval(cfg.BatchTimeout),
				metric.WithTimeout(cfg.ExportTimeout),
			))

		default:
			// otlp is only wired for traces
			continue
		}
	}

	return readers, registry, nil
}

// createSpanProcessors creates batching span processors for the configured trace exporters.
func createSpanProcessors(cfg Config) ([]trace.SpanProcessor, error) {
	var processors []trace.SpanProcessor

	for _, exporterName := range cfg.Exporters {
		var exporter trace.SpanExporter
		var err error

		switch exporterName {
		case ExporterOTLP:
			exporter, err = otlptracegrpc.New(
				context.Background(),
				otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
				otlptracegrpc.WithInsecure(),
				otlptracegrpc.WithTimeout(cfg.ExportTimeout),
			)
			if err != nil {
				return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
			}

		case ExporterStdout:
			exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
			if err != nil {
				return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
			}

		default:
			// prometheus doesn't carry traces
			continue
		}

		processors = append(processors, trace.NewBatchSpanProcessor(exporter,
			trace.WithBatchTimeout(cfg.BatchTimeout),
			trace.WithExportTimeout(cfg.ExportTimeout),
			trace.WithMaxQueueSize(cfg.MaxQueueSize),
			trace.WithMaxExportBatchSize(cfg.MaxExportBatchSize),
		))
	}

	return processors, nil
}
