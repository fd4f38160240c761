package observability

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// ServiceName identifies benchmark telemetry in the collector
const ServiceName = "hyperbench"

// Config controls OTLP export of benchmark traces and metrics. The CLI
// loads it from the telemetry section of its configuration.
type Config struct {
	Enabled       bool    `mapstructure:"enabled"`
	Traces        bool    `mapstructure:"traces"`
	Metrics       bool    `mapstructure:"metrics"`
	Endpoint      string  `mapstructure:"endpoint"`
	SamplingRatio float64 `mapstructure:"sampling_ratio"`
	Environment   string  `mapstructure:"environment"`

	// Set per invocation and attached to every span and metric
	Version   string   `mapstructure:"-"`
	Benchmark string   `mapstructure:"-"`
	Vendors   []string `mapstructure:"-"`
}

// DefaultConfig keeps telemetry in-process
func DefaultConfig() Config {
	return Config{
		Enabled:       false,
		Traces:        true,
		Metrics:       true,
		Endpoint:      "localhost:4317",
		SamplingRatio: 1.0,
		Environment:   "development",
		Version:       "dev",
	}
}

// normalize clamps the sampling ratio and fills blank fields with defaults
func (c Config) normalize() Config {
	def := DefaultConfig()
	c.SamplingRatio = min(max(c.SamplingRatio, 0), 1)
	if strings.TrimSpace(c.Endpoint) == "" {
		c.Endpoint = def.Endpoint
	}
	if c.Environment == "" {
		c.Environment = def.Environment
	}
	if c.Version == "" {
		c.Version = def.Version
	}
	c.Vendors = slices.Sorted(slices.Values(c.Vendors))
	return c
}

// exporting reports whether any signal leaves the process
func (c Config) exporting() bool {
	return c.Enabled && (c.Traces || c.Metrics)
}

// attributes describe the benchmark invocation
func (c Config) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(c.Version),
		semconv.DeploymentEnvironmentName(c.Environment),
	}
	if c.Benchmark != "" {
		attrs = append(attrs, attribute.String(AttrBenchmark, c.Benchmark))
	}
	if len(c.Vendors) > 0 {
		attrs = append(attrs, attribute.StringSlice(AttrVendors, c.Vendors))
	}
	return attrs
}

func (c Config) resource(ctx context.Context) (*resource.Resource, error) {
	res, err := resource.New(ctx, resource.WithAttributes(c.attributes()...))
	if err != nil {
		return nil, fmt.Errorf("create telemetry resource: %w", err)
	}
	return res, nil
}
