package xmetrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xtsdict/xmetrics"
	defaultComponent           = "xtsmap"

	metricOperationTotal = "xtsdict.operation.total"
	metricEntries        = "xtsdict.entries"
	metricRemovedTotal   = "xtsdict.removed.total"
)

type otelConfig struct {
	instrumentationName string
	component           string
	meterProvider       metric.MeterProvider
}

// Option 定义 OTel Recorder 的配置选项。
type Option func(*otelConfig)

// WithInstrumentationName 设置 OTel instrumentation 名称，空值忽略。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithComponent 设置 component 属性，用于区分同一进程内的多个存储实例。
func WithComponent(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.component = name
		}
	}
}

// WithMeterProvider 设置 MeterProvider，nil 忽略（使用全局 provider）。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

type otelRecorder struct {
	total     metric.Int64Counter
	entries   metric.Int64UpDownCounter
	removed   metric.Int64Counter
	component attribute.KeyValue
	// 预构建的属性集合，避免热路径分配
	entriesAttrs metric.MeasurementOption
}

// NewOTelRecorder 创建基于 OpenTelemetry 的 Recorder。
func NewOTelRecorder(opts ...Option) (Recorder, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		component:           defaultComponent,
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	total, err := meter.Int64Counter(
		metricOperationTotal,
		metric.WithDescription("total store operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricOperationTotal, err)
	}
	entries, err := meter.Int64UpDownCounter(
		metricEntries,
		metric.WithDescription("live entries"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricEntries, err)
	}
	removed, err := meter.Int64Counter(
		metricRemovedTotal,
		metric.WithDescription("entries removed by eviction, purge or clear"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricRemovedTotal, err)
	}

	component := attribute.String("component", cfg.component)
	return &otelRecorder{
		total:        total,
		entries:      entries,
		removed:      removed,
		component:    component,
		entriesAttrs: metric.WithAttributes(component),
	}, nil
}

// RecordOp 记录一次操作。
func (r *otelRecorder) RecordOp(ctx context.Context, op string, outcome Outcome) {
	r.total.Add(normalize(ctx), 1, metric.WithAttributes(
		r.component,
		attribute.String("operation", op),
		attribute.String("outcome", string(outcome)),
	))
}

// RecordEntries 记录条目数变化量，0 忽略。
func (r *otelRecorder) RecordEntries(ctx context.Context, delta int64) {
	if delta == 0 {
		return
	}
	r.entries.Add(normalize(ctx), delta, r.entriesAttrs)
}

// RecordRemoved 记录被动移除的条目数，n <= 0 忽略。
func (r *otelRecorder) RecordRemoved(ctx context.Context, reason string, n int) {
	if n <= 0 {
		return
	}
	r.removed.Add(normalize(ctx), int64(n), metric.WithAttributes(
		r.component,
		attribute.String("reason", reason),
	))
}

// normalize 使用不可取消的 context 记录指标，确保调用方 ctx 取消后仍能记录。
func normalize(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
