package observability

import (
	"strings"
)

const (
	AttrVendor       = "db.system"
	AttrVendors      = "hyperbench.vendors"
	AttrBenchmark    = "hyperbench.benchmark"
	AttrRunID        = "hyperbench.run.id"
	AttrPhase        = "hyperbench.phase"
	AttrQueryName    = "hyperbench.query.name"
	AttrIteration    = "hyperbench.iteration"
	AttrConcurrent   = "hyperbench.concurrent_run"
	AttrOperation    = "hyperbench.operation"
	AttrWorkerID     = "hyperbench.worker.id"
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

var secretKeySubstrings = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"api_key",
	"apikey",
	"authorization",
	"connection_string",
	"dsn",
	"key",
	"auth",
	"uri",
	"url",
}

// RedactAttributeValue masks values for known-sensitive attribute keys.
func RedactAttributeValue(key string, value string) string {
	lower := strings.ToLower(key)
	for _, needle := range secretKeySubstrings {
		if strings.Contains(lower, needle) {
			return "[REDACTED]"
		}
	}
	return value
}
