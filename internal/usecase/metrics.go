package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "stthebrew/internal/usecase"

type controllerMetrics struct {
	appended  metric.Int64Counter
	discarded metric.Int64Counter
	restarts  metric.Int64Counter
	errors    metric.Int64Counter
	exports   metric.Int64Counter
}

func newControllerMetrics(meter metric.Meter) (controllerMetrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	var m controllerMetrics
	var err error
	if m.appended, err = meter.Int64Counter("stt.segments.appended",
		metric.WithDescription("Final segments that changed the transcript")); err != nil {
		return m, err
	}
	if m.discarded, err = meter.Int64Counter("stt.segments.discarded",
		metric.WithDescription("Final segments dropped by the append policy")); err != nil {
		return m, err
	}
	if m.restarts, err = meter.Int64Counter("stt.restarts.scheduled",
		metric.WithDescription("Automatic recognition restarts")); err != nil {
		return m, err
	}
	if m.errors, err = meter.Int64Counter("stt.engine.errors",
		metric.WithDescription("Recognition engine errors by code")); err != nil {
		return m, err
	}
	if m.exports, err = meter.Int64Counter("stt.exports",
		metric.WithDescription("Transcript exports by format")); err != nil {
		return m, err
	}
	return m, nil
}

func (m controllerMetrics) segment(appended bool, policy string) {
	opt := metric.WithAttributes(attribute.String("policy", policy))
	if appended {
		m.appended.Add(context.Background(), 1, opt)
		return
	}
	m.discarded.Add(context.Background(), 1, opt)
}

func (m controllerMetrics) restart(mobile bool) {
	m.restarts.Add(context.Background(), 1, metric.WithAttributes(attribute.Bool("mobile", mobile)))
}

func (m controllerMetrics) engineError(code string) {
	m.errors.Add(context.Background(), 1, metric.WithAttributes(attribute.String("code", code)))
}

func (m controllerMetrics) export(ctx context.Context, format string) {
	m.exports.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format)))
}
