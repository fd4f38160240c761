package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperterse/hyperbench/core/cli/internal"
	"github.com/hyperterse/hyperbench/core/domain"
	"github.com/hyperterse/hyperbench/core/infrastructure/connectors"
	"github.com/hyperterse/hyperbench/core/infrastructure/storage"
	httptransport "github.com/hyperterse/hyperbench/core/infrastructure/transport/http"
	"github.com/hyperterse/hyperbench/core/logger"
	"github.com/hyperterse/hyperbench/core/observability"
	"github.com/hyperterse/hyperbench/core/parser"
	"github.com/hyperterse/hyperbench/core/runtime/export"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// loadCredentials merges environment credentials with the optional
// credentials file and canonicalizes vendor names
func loadCredentials(path string) (map[string]domain.Credentials, error) {
	var fromFile map[string]domain.Credentials
	if path != "" {
		var err error
		fromFile, err = parser.LoadCredentialsFile(path)
		if err != nil {
			return nil, err
		}
	}

	merged := parser.MergeCredentials(parser.CredentialsFromEnv(), fromFile)
	creds := make(map[string]domain.Credentials, len(merged))
	for vendor, c := range merged {
		creds[connectors.CanonicalVendor(vendor)] = c
	}
	return creds, nil
}

// canonicalVendors resolves aliases in the requested vendor list and
// rejects vendors without a connector
func canonicalVendors(vendors []string) ([]string, error) {
	out := make([]string, 0, len(vendors))
	var unknown []string
	for _, v := range vendors {
		if !connectors.IsSupported(v) {
			unknown = append(unknown, v)
			continue
		}
		out = append(out, connectors.CanonicalVendor(v))
	}
	if len(unknown) > 0 {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("unsupported vendor(s): %s (run 'hyperbench vendors' for the list)", strings.Join(unknown, ", ")),
			"vendors",
		)
	}
	return out, nil
}

// newFileExporter opens the configured storage backend. The caller closes
// the returned backend.
func newFileExporter(ctx context.Context, cfg *internal.Config) (*export.FileExporter, storage.Backend, error) {
	formats, err := export.ParseFormats(cfg.Formats)
	if err != nil {
		return nil, nil, err
	}
	backend, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	return export.NewFileExporter(backend, formats...), backend, nil
}

// session holds the process-wide services started around a run
type session struct {
	providers *observability.Providers
	metrics   *httptransport.Server
	log       logger.Logger
}

// startSession installs telemetry and, when a metrics address is
// configured, the metrics server
func startSession(ctx context.Context, cfg *internal.Config) (*session, error) {
	s := &session{log: logger.New("cli")}

	providers, err := observability.Setup(ctx, cfg.TelemetryConfig(version))
	if err != nil {
		return nil, logger.WithTag("observability", err)
	}
	s.providers = providers

	if addr := cfg.MetricsAddr; addr != "" {
		s.metrics = httptransport.NewServer(addr)
		if err := s.metrics.Start(); err != nil {
			_ = providers.Shutdown(ctx)
			return nil, logger.WithTag("http", err)
		}
	}
	return s, nil
}

func (s *session) setPhase(phase string) {
	if s.metrics != nil {
		s.metrics.SetPhase(phase)
	}
}

// close stops the metrics server and flushes telemetry
func (s *session) close() {
	ctx := context.Background()
	if s.metrics != nil {
		_ = s.metrics.Stop(ctx)
	}
	if err := s.providers.Shutdown(ctx); err != nil {
		s.log.Warnf("Failed to flush telemetry: %v", err)
	}
}
