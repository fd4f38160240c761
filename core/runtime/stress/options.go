package stress

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// seedSpace bounds the per-worker seeds drawn from the master seed
const seedSpace = 42_000_000

// Options configures a stress run against a single vendor
type Options struct {
	Vendor        string        `json:"vendor" validate:"required"`
	BenchmarkPath string        `json:"benchmark_path" validate:"required"`
	Concurrency   int           `json:"concurrency" validate:"gte=1,lte=42000000"`
	Duration      time.Duration `json:"duration" validate:"gt=0"`
	Seed          uint64        `json:"seed"`
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	return v
}()

func (o Options) validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.WrapError(apperrors.ErrCodeConfiguration, "invalid stress options", err)
	}
	fields := make([]string, 0, len(verrs))
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
		details = append(details, fmt.Sprintf("%s failed '%s'", fe.Field(), fe.Tag()))
	}
	return apperrors.NewConfigurationError(
		fmt.Sprintf("invalid stress options: %s", strings.Join(details, "; ")), fields...)
}
