package parser

import (
	"fmt"
	"os"

	"github.com/hyperterse/hyperbench/core/domain"
	"github.com/hyperterse/hyperbench/core/infrastructure/connectors"
	"github.com/hyperterse/hyperbench/core/logger"
)

var (
	// log is the logger instance for the validator package
	log = logger.New("parser")
)

// ValidationErrors represents a collection of validation errors
type ValidationErrors struct {
	Errors []string
}

// Error implements the error interface
// Returns a simple message since detailed errors are already logged
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("validation failed with %d error(s)", len(ve.Errors))
}

// Format returns a formatted string representation of the errors
func (ve *ValidationErrors) Format() string {
	return ve.Error()
}

// Target describes what a benchmark run needs from disk and credentials
type Target struct {
	BenchmarkPath string
	Vendors       []string
	Credentials   map[string]domain.Credentials
	// Stress checks queries.json instead of benchmark.sql
	Stress bool
}

// Validate checks credentials and the benchmark layout for every vendor
// without touching the network
func Validate(t Target) error {
	log.Infof("Starting validation")
	var errors []string

	if info, err := os.Stat(t.BenchmarkPath); err != nil || !info.IsDir() {
		errors = append(errors, fmt.Sprintf("benchmark path '%s' is not a directory", t.BenchmarkPath))
	}

	if len(t.Vendors) == 0 {
		errors = append(errors, "at least one vendor is required")
	}

	for _, vendor := range t.Vendors {
		creds, ok := t.Credentials[vendor]
		if !ok {
			errors = append(errors, fmt.Sprintf("vendor '%s': no credentials found", vendor))
		} else if err := connectors.ValidateCredentials(vendor, creds); err != nil {
			errors = append(errors, fmt.Sprintf("vendor '%s': %v", vendor, err))
		}

		if t.Stress {
			if _, err := LoadStressQueries(t.BenchmarkPath, vendor); err != nil {
				errors = append(errors, fmt.Sprintf("vendor '%s': %v", vendor, err))
			}
			continue
		}

		for _, phase := range Phases {
			statements, path, found, err := LoadPhase(t.BenchmarkPath, vendor, phase)
			switch {
			case err != nil:
				errors = append(errors, fmt.Sprintf("vendor '%s': %v", vendor, err))
			case phase == PhaseBenchmark && !found:
				errors = append(errors, fmt.Sprintf("vendor '%s': benchmark script not found at %s", vendor, path))
			case phase == PhaseBenchmark && len(statements) == 0:
				errors = append(errors, fmt.Sprintf("vendor '%s': benchmark script %s has no statements", vendor, path))
			case found:
				log.Debugf("Vendor '%s': %s has %d statement(s)", vendor, path, len(statements))
			}
		}
	}

	if len(errors) > 0 {
		log.Errorf("Validation failed with %d error(s)", len(errors))
		for i, errMsg := range errors {
			log.Errorf("  %d. %s", i+1, errMsg)
		}
		return &ValidationErrors{Errors: errors}
	}

	log.Infof("Validation completed successfully")
	return nil
}
