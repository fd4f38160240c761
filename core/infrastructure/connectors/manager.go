package connectors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hyperterse/hyperbench/core/domain"
	"github.com/hyperterse/hyperbench/core/domain/interfaces"
	"github.com/hyperterse/hyperbench/core/infrastructure/logging"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// ConnectorManager implements the ConnectorManager interface
type ConnectorManager struct {
	factory    interfaces.ConnectorFactory
	connectors map[string]interfaces.Connector
	mu         sync.RWMutex
}

// NewConnectorManager creates a new ConnectorManager instance. A nil
// factory uses the built-in vendor catalogue.
func NewConnectorManager(factory interfaces.ConnectorFactory) *ConnectorManager {
	if factory == nil {
		factory = Factory
	}
	return &ConnectorManager{
		factory:    factory,
		connectors: make(map[string]interfaces.Connector),
	}
}

var _ interfaces.ConnectorManager = (*ConnectorManager)(nil)

// InitializeAll builds one idle connector per vendor in parallel. The
// first configuration error aborts initialization and closes whatever
// was already built.
func (m *ConnectorManager) InitializeAll(ctx context.Context, creds map[string]domain.Credentials, vendors []string) error {
	if len(vendors) == 0 {
		return nil
	}

	log := logging.New("connector")
	log.Debugf("Initializing %d connector(s)", len(vendors))

	g, _ := errgroup.WithContext(ctx)
	for _, vendor := range vendors {
		g.Go(func() error {
			connLog := logging.New(fmt.Sprintf("connector:%s", vendor))
			connLog.Debugf("Initializing connector")

			vendorCreds, ok := creds[vendor]
			if !ok {
				return apperrors.NewConfigurationError(fmt.Sprintf(
					"no credentials found for vendor '%s'; available vendors: %v", vendor, availableVendors(creds),
				))
			}

			conn, err := m.factory.New(vendor, vendorCreds)
			if err != nil {
				connLog.Errorf("Failed to create connector: %v", err)
				return err
			}

			m.mu.Lock()
			m.connectors[vendor] = conn
			m.mu.Unlock()

			connLog.Debugf("Connector initialized successfully")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Errorf("Initialization failed, closing all connectors: %v", err)
		_ = m.CloseAll()
		return err
	}

	log.Debugf("All connectors initialized successfully")
	return nil
}

// CloseAll closes all connectors in parallel
func (m *ConnectorManager) CloseAll() error {
	m.mu.Lock()
	connectors := m.connectors
	m.connectors = make(map[string]interfaces.Connector)
	m.mu.Unlock()

	if len(connectors) == 0 {
		return nil
	}

	log := logging.New("connector")
	log.Debugf("Closing %d connector(s)", len(connectors))

	var wg sync.WaitGroup
	errChan := make(chan error, len(connectors))
	for name, conn := range connectors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			connLog := logging.New(fmt.Sprintf("connector:%s", name))
			connLog.Debugf("Closing connector")
			if err := conn.Close(); err != nil {
				errChan <- fmt.Errorf("connector '%s': %w", name, err)
			} else {
				connLog.Debugf("Connector closed successfully")
			}
		}()
	}

	wg.Wait()
	close(errChan)
	return collectErrors(errChan)
}

// Close closes and forgets a single vendor's connector
func (m *ConnectorManager) Close(vendor string) error {
	m.mu.Lock()
	conn, ok := m.connectors[vendor]
	delete(m.connectors, vendor)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return conn.Close()
}

// Get returns a connector by vendor
func (m *ConnectorManager) Get(vendor string) (interfaces.Connector, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, exists := m.connectors[vendor]
	return conn, exists
}

// Count returns the number of managed connectors
func (m *ConnectorManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connectors)
}

func availableVendors(creds map[string]domain.Credentials) []string {
	names := make([]string, 0, len(creds))
	for name := range creds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// collectErrors collects all errors from a channel and combines them
func collectErrors(errChan <-chan error) error {
	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	return errors.Join(errs...)
}
