package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/encoding/gzip"
)

const (
	ServiceName = "mailtriage"

	defaultMetricsPort = "4317"
)

// Options selects where telemetry goes. With no endpoint and StdoutLogs unset
// Setup installs nothing and the global noop providers stay in place.
// Exporter headers and TLS come from the standard OTEL_EXPORTER_OTLP_*
// variables.
type Options struct {
	// Endpoint is the OTLP/HTTP host[:port] for traces and logs. Metrics go
	// to the same host on the OTLP/gRPC port.
	Endpoint string
	// StdoutLogs exports log records to Writer instead of over OTLP.
	StdoutLogs bool
	Writer     io.Writer
	Version    string
}

func (o Options) Enabled() bool {
	return o.Endpoint != "" || o.StdoutLogs
}

// Setup bootstraps the OpenTelemetry pipeline.
// If it does not return an error, make sure to call shutdown for proper cleanup.
func Setup(ctx context.Context, opts Options) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	// shutdown calls cleanup functions registered via shutdownFuncs.
	// The errors from the calls are joined.
	// Each registered cleanup will be invoked once.
	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	if !opts.Enabled() {
		return shutdown, nil
	}

	// handleErr calls shutdown for cleanup and makes sure that all errors are returned.
	handleErr := func(inErr error) {
		err = errors.Join(inErr, shutdown(ctx))
	}

	otel.SetTextMapPropagator(newPropagator())

	version := opts.Version
	if version == "" {
		version = "dev"
	}
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			attribute.String("service.name", ServiceName),
			attribute.String("service.version", version),
		))
	if err != nil {
		handleErr(err)
		return
	}

	if opts.Endpoint != "" {
		tracerProvider, err := newTraceProvider(ctx, opts.Endpoint, res)
		if err != nil {
			handleErr(err)
			return shutdown, err
		}
		shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
		otel.SetTracerProvider(tracerProvider)

		meterProvider, err := newMeterProvider(ctx, opts.Endpoint, res)
		if err != nil {
			handleErr(err)
			return shutdown, err
		}
		shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
		otel.SetMeterProvider(meterProvider)
	}

	loggerProvider, err := newLoggerProvider(ctx, opts, res)
	if err != nil {
		handleErr(err)
		return
	}
	shutdownFuncs = append(shutdownFuncs, loggerProvider.Shutdown)
	global.SetLoggerProvider(loggerProvider)

	return
}

// NewLogger returns the process logger: JSON to w, and, when telemetry is
// enabled, every record is also bridged to the OpenTelemetry log pipeline.
func NewLogger(w io.Writer, level slog.Level, bridged bool) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	if !bridged {
		return slog.New(jsonHandler)
	}
	return slog.New(fanout{
		handlers: []slog.Handler{jsonHandler, otelslog.NewHandler(ServiceName)},
		level:    level,
	})
}

func newPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
		xray.Propagator{},
	)
}

func newTraceProvider(ctx context.Context, endpoint string, res *resource.Resource) (*trace.TracerProvider, error) {
	traceExporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
	)
	if err != nil {
		return nil, err
	}

	traceProvider := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithIDGenerator(xray.NewIDGenerator()),
		trace.WithBatcher(traceExporter,
			trace.WithMaxQueueSize(10_000),
			trace.WithMaxExportBatchSize(10_000),
			trace.WithBatchTimeout(time.Second)),
	)
	return traceProvider, nil
}

func newMeterExporter(ctx context.Context, endpoint string) (*otlpmetricgrpc.Exporter, error) {
	preferDeltaTemporalitySelector := func(kind metric.InstrumentKind) metricdata.Temporality {
		switch kind {
		case metric.InstrumentKindCounter,
			metric.InstrumentKindObservableCounter,
			metric.InstrumentKindHistogram:
			return metricdata.DeltaTemporality
		default:
			return metricdata.CumulativeTemporality
		}
	}

	return otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(metricsEndpoint(endpoint)),
		otlpmetricgrpc.WithCompressor(gzip.Name),
		otlpmetricgrpc.WithTemporalitySelector(preferDeltaTemporalitySelector),
	)
}

func newMeterProvider(ctx context.Context, endpoint string, res *resource.Resource) (*metric.MeterProvider, error) {
	metricExporter, err := newMeterExporter(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	reader := metric.NewPeriodicReader(
		metricExporter,
		metric.WithInterval(15*time.Second),
	)

	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(reader),
	)
	return meterProvider, nil
}

func newLoggerExporter(ctx context.Context, opts Options) (log.Exporter, error) {
	if opts.StdoutLogs {
		w := opts.Writer
		if w == nil {
			w = os.Stdout
		}
		return stdoutlog.New(stdoutlog.WithWriter(w))
	}

	return otlploghttp.New(ctx,
		otlploghttp.WithEndpoint(opts.Endpoint),
		otlploghttp.WithCompression(otlploghttp.GzipCompression),
	)
}

func newLoggerProvider(ctx context.Context, opts Options, res *resource.Resource) (*log.LoggerProvider, error) {
	logExporter, err := newLoggerExporter(ctx, opts)
	if err != nil {
		return nil, err
	}

	var processor log.Processor = log.NewBatchProcessor(logExporter)
	if opts.StdoutLogs {
		processor = log.NewSimpleProcessor(logExporter)
	}

	loggerProvider := log.NewLoggerProvider(
		log.WithResource(res),
		log.WithProcessor(processor),
	)
	return loggerProvider, nil
}

// metricsEndpoint swaps the port of endpoint for the OTLP/gRPC one.
func metricsEndpoint(endpoint string) string {
	host, _, err := net.SplitHostPort(endpoint)
	if err != nil {
		host = endpoint
	}
	return net.JoinHostPort(host, defaultMetricsPort)
}
