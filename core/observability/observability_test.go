package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want Config
	}{
		{
			name: "defaults untouched",
			in:   DefaultConfig(),
			want: DefaultConfig(),
		},
		{
			name: "ratio clamped high and blanks filled",
			in:   Config{Enabled: true, Traces: true, SamplingRatio: 3.5, Vendors: []string{"snowflake", "duckdb"}},
			want: Config{
				Enabled:       true,
				Traces:        true,
				SamplingRatio: 1,
				Endpoint:      "localhost:4317",
				Environment:   "development",
				Version:       "dev",
				Vendors:       []string{"duckdb", "snowflake"},
			},
		},
		{
			name: "ratio clamped low",
			in:   Config{SamplingRatio: -2, Endpoint: "otel.internal:4317", Environment: "ci", Version: "1.0.0"},
			want: Config{SamplingRatio: 0, Endpoint: "otel.internal:4317", Environment: "ci", Version: "1.0.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.normalize())
		})
	}
}

func TestConfig_Attributes(t *testing.T) {
	cfg := Config{Version: "1.2.3", Environment: "ci", Benchmark: "tpch", Vendors: []string{"firebolt"}}
	attrs := map[string]string{}
	for _, kv := range cfg.attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}

	assert.Equal(t, ServiceName, attrs["service.name"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
	assert.Equal(t, "tpch", attrs[AttrBenchmark])
	assert.Equal(t, `["firebolt"]`, attrs[AttrVendors])

	assert.NotContains(t, attributeKeys(Config{}.attributes()), AttrBenchmark)
}

func attributeKeys(attrs []attribute.KeyValue) []string {
	keys := make([]string, 0, len(attrs))
	for _, kv := range attrs {
		keys = append(keys, string(kv.Key))
	}
	return keys
}

func TestConfig_Exporting(t *testing.T) {
	assert.False(t, DefaultConfig().exporting())
	assert.True(t, Config{Enabled: true, Metrics: true}.exporting())
	assert.False(t, Config{Enabled: true}.exporting())
}

func TestRedactAttributeValue(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"password", "[REDACTED]"},
		{"client_secret", "[REDACTED]"},
		{"auth_token", "[REDACTED]"},
		{"database", "value"},
		{"engine_name", "value"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactAttributeValue(tt.key, "value"))
		})
	}
}

func TestRecordQueryExecution_UpdatesPrometheus(t *testing.T) {
	before := testutil.ToFloat64(promQueryExecutions.WithLabelValues("fake", "obs-test", "error"))
	RecordQueryExecution(context.Background(), "fake", "obs-test", false, 12.5)
	after := testutil.ToFloat64(promQueryExecutions.WithLabelValues("fake", "obs-test", "error"))
	assert.Equal(t, before+1, after)

	SetPoolInUse("fake", 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(promPoolInUse.WithLabelValues("fake")))
}

func TestSetupWithoutExport(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Version = "1.2.3"
	cfg.Benchmark = "tpch"
	p, err := Setup(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", ActiveConfig().Version)
	assert.Equal(t, "tpch", ActiveConfig().Benchmark)

	ctx, span := StartSpan(context.Background(), "test")
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))

	assert.NoError(t, p.Shutdown(context.Background()))
}
