package observability

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type metrics struct {
	queryExecutionsTotal metric.Int64Counter
	queryDuration        metric.Float64Histogram
	connectorOpsTotal    metric.Int64Counter
	connectorOpDuration  metric.Float64Histogram
	poolWaitDuration     metric.Float64Histogram
	stressQueriesTotal   metric.Int64Counter
}

var (
	metricsOnce sync.Once
	m           metrics
)

func buildMeterProvider(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	if !cfg.Enabled || !cfg.Metrics {
		return sdkmetric.NewMeterProvider(), nil
	}

	exporter, err := otlpmetricgrpc.New(
		ctx,
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := cfg.resource(ctx)
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	), nil
}

func initInstruments() {
	metricsOnce.Do(func() {
		meter := otel.Meter("hyperbench/runtime")
		m.queryExecutionsTotal, _ = meter.Int64Counter("hyperbench.query.executions_total")
		m.queryDuration, _ = meter.Float64Histogram("hyperbench.query.execution_duration_ms")
		m.connectorOpsTotal, _ = meter.Int64Counter("hyperbench.connector.operations_total")
		m.connectorOpDuration, _ = meter.Float64Histogram("hyperbench.connector.operation_duration_ms")
		m.poolWaitDuration, _ = meter.Float64Histogram("hyperbench.pool.wait_duration_ms")
		m.stressQueriesTotal, _ = meter.Int64Counter("hyperbench.stress.queries_total")
	})
}

// RecordQueryExecution records one benchmark execution
func RecordQueryExecution(ctx context.Context, vendor, queryName string, success bool, durationMS float64) {
	initInstruments()
	attrs := metric.WithAttributes(
		attribute.String(AttrVendor, vendor),
		attribute.String(AttrQueryName, queryName),
		attribute.Bool("success", success),
	)
	m.queryExecutionsTotal.Add(ctx, 1, attrs)
	m.queryDuration.Record(ctx, durationMS, attrs)

	promQueryExecutions.WithLabelValues(vendor, queryName, statusLabel(success)).Inc()
	promQueryDuration.WithLabelValues(vendor, queryName).Observe(durationMS / 1000)
}

// RecordConnectorOperation records a connect or execute call on a connector
func RecordConnectorOperation(ctx context.Context, vendor, operation string, success bool, durationMS float64) {
	initInstruments()
	attrs := metric.WithAttributes(
		attribute.String(AttrVendor, vendor),
		attribute.String(AttrOperation, operation),
		attribute.Bool("success", success),
	)
	m.connectorOpsTotal.Add(ctx, 1, attrs)
	m.connectorOpDuration.Record(ctx, durationMS, attrs)

	promConnectorOps.WithLabelValues(vendor, operation, statusLabel(success)).Inc()
}

// RecordPoolWait records how long a caller waited to acquire a connection
func RecordPoolWait(ctx context.Context, vendor string, success bool, durationMS float64) {
	initInstruments()
	m.poolWaitDuration.Record(ctx, durationMS, metric.WithAttributes(
		attribute.String(AttrVendor, vendor),
		attribute.Bool("success", success),
	))
	promPoolWait.WithLabelValues(vendor).Observe(durationMS / 1000)
}

// SetPoolInUse reports the number of checked-out connections
func SetPoolInUse(vendor string, inUse int) {
	promPoolInUse.WithLabelValues(vendor).Set(float64(inUse))
}

// RecordStressQuery records one stress worker execution
func RecordStressQuery(ctx context.Context, vendor, queryName string, success bool) {
	initInstruments()
	m.stressQueriesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrVendor, vendor),
		attribute.String(AttrQueryName, queryName),
		attribute.Bool("success", success),
	))
	promStressQueries.WithLabelValues(vendor, statusLabel(success)).Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
