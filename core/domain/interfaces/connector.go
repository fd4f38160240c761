package interfaces

import (
	"context"

	"github.com/hyperterse/hyperbench/core/domain"
)

// Connector owns exactly one vendor session.
// Implementations are not safe for concurrent use; callers serialize access
// (the connection pool hands each instance to one caller at a time).
type Connector interface {
	// Vendor returns the vendor name the connector was built for
	Vendor() string

	// Connect establishes the session. Calling it on a connected instance is a no-op.
	Connect(ctx context.Context) error

	// Execute runs one statement, connecting first if needed.
	// Returns: Slice of maps representing rows, where each map is column name -> value
	Execute(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error)

	// Close releases the session. Safe to call repeatedly or before Connect.
	Close() error
}

// ConnectorFactory builds an idle connector for a vendor
type ConnectorFactory interface {
	New(vendor string, creds domain.Credentials) (Connector, error)
}

// ConnectorFactoryFunc adapts a function to ConnectorFactory
type ConnectorFactoryFunc func(vendor string, creds domain.Credentials) (Connector, error)

// New calls f
func (f ConnectorFactoryFunc) New(vendor string, creds domain.Credentials) (Connector, error) {
	return f(vendor, creds)
}

// ConnectorManager tracks the primary connector of every active vendor
type ConnectorManager interface {
	// InitializeAll creates one idle connector per vendor
	InitializeAll(ctx context.Context, creds map[string]domain.Credentials, vendors []string) error

	// CloseAll closes all connectors in parallel
	CloseAll() error

	// Close closes and forgets a single vendor's connector
	Close(vendor string) error

	// Get returns a connector by vendor
	Get(vendor string) (Connector, bool)

	// Count returns the number of managed connectors
	Count() int
}
