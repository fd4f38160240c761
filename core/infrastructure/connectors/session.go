package connectors

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperterse/hyperbench/core/domain/interfaces"
	"github.com/hyperterse/hyperbench/core/infrastructure/logging"
	"github.com/hyperterse/hyperbench/core/observability"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// cleanupTimeout bounds vendor cleanup run from Close
const cleanupTimeout = 30 * time.Second

// backend is the vendor-specific half of a Session. A backend is only
// ever driven by its Session, which serializes every call.
type backend interface {
	// open establishes the raw vendor session
	open(ctx context.Context) error
	// ping validates a freshly opened session
	ping(ctx context.Context) error
	// disableCache turns off vendor-side result caching
	disableCache(ctx context.Context) error
	// query runs one statement and materializes its rows
	query(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error)
	// cleanup runs best-effort vendor housekeeping before close
	cleanup(ctx context.Context) error
	// close releases the raw session
	close() error
}

// Session implements interfaces.Connector on top of a backend.
// It owns connect idempotence, the single reconnect-and-retry on
// connection loss, and idempotent close.
type Session struct {
	vendor  string
	target  string
	backend backend
	log     logging.Logger

	mu        sync.Mutex
	connected bool
}

var _ interfaces.Connector = (*Session)(nil)

func newSession(vendor, target string, b backend) *Session {
	return &Session{
		vendor:  vendor,
		target:  target,
		backend: b,
		log:     logging.New(fmt.Sprintf("connector:%s", vendor)),
	}
}

// Vendor returns the vendor name
func (s *Session) Vendor() string {
	return s.vendor
}

// isConnected reports whether the session is currently open
func (s *Session) isConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Connect establishes the vendor session if it is not already open
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *Session) connectLocked(ctx context.Context) error {
	if s.connected {
		return nil
	}

	start := time.Now()
	s.log.Debugf("Opening %s session", s.vendor)

	if err := s.backend.open(ctx); err != nil {
		s.recordOp(ctx, "connect", false, start)
		return describeConnectError(s.vendor, s.target, err)
	}

	if err := s.backend.disableCache(ctx); err != nil {
		s.log.Warnf("Could not disable result cache: %v", err)
	} else {
		s.log.Debugf("Disabled result cache for accurate benchmarking")
	}

	if err := s.backend.ping(ctx); err != nil {
		_ = s.backend.close()
		s.recordOp(ctx, "connect", false, start)
		return describeConnectError(s.vendor, s.target, err)
	}

	s.connected = true
	s.recordOp(ctx, "connect", true, start)
	s.log.Debugf("%s session established", s.vendor)
	return nil
}

// Execute runs one statement, connecting first when needed. A statement
// that fails because the session dropped is replayed exactly once on a
// fresh session.
func (s *Session) Execute(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := s.backend.query(ctx, statement, params)
	if err == nil {
		s.recordOp(ctx, "execute", true, start)
		return rows, nil
	}

	switch {
	case isTimeout(err):
		s.recordOp(ctx, "execute", false, start)
		return nil, apperrors.NewQueryError("query timed out", err)

	case isConnectionLoss(err):
		s.log.Infof("Connection lost, attempting to reconnect: %v", err)
		s.dropLocked()

		if connErr := s.connectLocked(ctx); connErr != nil {
			s.recordOp(ctx, "execute", false, start)
			return nil, apperrors.NewQueryError("reconnect failed", errors.Join(err, connErr))
		}

		rows, retryErr := s.backend.query(ctx, statement, params)
		if retryErr != nil {
			s.recordOp(ctx, "execute", false, start)
			return nil, apperrors.NewQueryError("query failed even after reconnect", errors.Join(err, retryErr))
		}
		s.recordOp(ctx, "execute", true, start)
		s.log.Infof("Query succeeded after reconnect: %d rows", len(rows))
		return rows, nil

	default:
		s.recordOp(ctx, "execute", false, start)
		return nil, apperrors.NewQueryError("error executing query", err)
	}
}

// dropLocked discards a broken session without running cleanup
func (s *Session) dropLocked() {
	if err := s.backend.close(); err != nil {
		s.log.Debugf("Error discarding broken session: %v", err)
	}
	s.connected = false
}

// Close runs vendor cleanup and releases the session. Closing a closed or
// never-connected session is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}
	s.connected = false

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := s.backend.cleanup(ctx); err != nil {
		s.log.Warnf("Cleanup failed: %v", err)
	}

	if err := s.backend.close(); err != nil {
		s.log.Warnf("Error closing %s session: %v", s.vendor, err)
		return err
	}
	s.log.Debugf("%s session closed", s.vendor)
	return nil
}

func (s *Session) recordOp(ctx context.Context, op string, success bool, start time.Time) {
	observability.RecordConnectorOperation(ctx, s.vendor, op, success, float64(time.Since(start).Microseconds())/1000)
}
