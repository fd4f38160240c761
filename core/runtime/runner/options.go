package runner

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hyperterse/hyperbench/core/parser"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// Defaults applied by DefaultOptions
const (
	DefaultPoolSize    = 5
	DefaultConcurrency = 1
	DefaultOutputDir   = "benchmark_results"
)

// Options configures a benchmark run
type Options struct {
	// Benchmark names the suite; defaults to the base name of BenchmarkPath
	Benchmark     string   `json:"benchmark"`
	BenchmarkPath string   `json:"benchmark_path" validate:"required"`
	Vendors       []string `json:"vendors" validate:"required,min=1,dive,required"`
	PoolSize      int      `json:"pool_size" validate:"gte=1"`
	Concurrency   int      `json:"concurrency" validate:"gte=1"`
	OutputDir     string   `json:"output_dir"`
	ExecuteSetup  bool     `json:"execute_setup"`
	RunWarmup     bool     `json:"run_warmup"`
	// AcquireTimeout bounds the wait for a pooled connection; zero waits forever
	AcquireTimeout time.Duration `json:"acquire_timeout" validate:"gte=0"`
	// Queries replaces every vendor's benchmark script when set
	Queries []string `json:"queries,omitempty"`
}

// DefaultOptions returns options with the documented defaults
func DefaultOptions() Options {
	return Options{
		PoolSize:    DefaultPoolSize,
		Concurrency: DefaultConcurrency,
		OutputDir:   DefaultOutputDir,
		RunWarmup:   true,
	}
}

// Iterations is the number of sampling rounds per query. Repeated
// sampling only happens at concurrency 1.
func (o Options) Iterations() int {
	if o.Concurrency == 1 {
		return o.PoolSize
	}
	return 1
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalize validates o and fills derived fields
func (o Options) normalize() (Options, error) {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			details := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
				details = append(details, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
			}
			return o, apperrors.NewConfigurationError(
				fmt.Sprintf("invalid benchmark options: %s", strings.Join(details, "; ")),
				fields...,
			)
		}
		return o, apperrors.WrapError(apperrors.ErrCodeConfiguration, "invalid benchmark options", err)
	}

	// Every concurrent slot needs its own connection
	o.PoolSize = max(o.PoolSize, o.Concurrency)

	if o.Benchmark == "" {
		o.Benchmark = filepath.Base(filepath.Clean(o.BenchmarkPath))
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if len(o.Queries) > 0 {
		o.Queries = parser.FromStatements(o.Queries)
	}
	return o, nil
}
