// Package telemetry exports the phase timers of a run as OpenTelemetry spans.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Options selects the collector and labels the run's spans. Endpoint and
// Enabled normally come from config.Env.
type Options struct {
	ServiceName  string
	Version      string
	Endpoint     string
	Enabled      bool
	RunName      string
	Participants int
}

func (o Options) active() bool { return o.Enabled && o.Endpoint != "" }

func (o Options) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{semconv.ServiceName(o.ServiceName)}
	if o.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(o.Version))
	}
	if o.RunName != "" {
		attrs = append(attrs, attribute.String("dynsm.run", o.RunName))
	}
	if o.Participants > 0 {
		attrs = append(attrs, attribute.Int("dynsm.participants", o.Participants))
	}
	return attrs
}

// Setup registers a global tracer provider exporting to opts.Endpoint over
// OTLP/HTTP. Without an endpoint, or with Enabled false, it registers nothing
// and the phase timers produce no-op spans.
func Setup(ctx context.Context, opts Options) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if !opts.active() {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(opts.Endpoint))
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(opts.attributes()...))
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
