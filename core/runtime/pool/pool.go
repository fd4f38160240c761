// Package pool provides a fixed-size pool of pre-connected connectors with
// exclusive checkout.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hyperterse/hyperbench/core/domain/interfaces"
	"github.com/hyperterse/hyperbench/core/infrastructure/logging"
	"github.com/hyperterse/hyperbench/core/observability"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// Factory builds one idle connector
type Factory func() (interfaces.Connector, error)

// Pool owns a fixed set of connectors. At most Size connectors exist and
// none is ever handed to two callers at once.
type Pool struct {
	vendor string
	size   int
	idle   chan interfaces.Connector
	done   chan struct{}
	log    logging.Logger

	mu     sync.Mutex
	closed bool

	// checkedOut holds the connectors handed out by Acquire
	checkedOut map[interfaces.Connector]struct{}
}

// New builds and connects size connectors in parallel. If any of them
// fails, every connector built so far is closed and the error returned.
func New(ctx context.Context, vendor string, factory Factory, size int) (*Pool, error) {
	if size < 1 {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("pool size must be at least 1, got %d", size), "pool_size")
	}

	log := logging.New(fmt.Sprintf("pool:%s", vendor))
	log.Debugf("Creating pool with %d connection(s)", size)

	conns := make([]interfaces.Connector, size)
	g, gctx := errgroup.WithContext(ctx)
	for i := range size {
		g.Go(func() error {
			conn, err := factory()
			if err != nil {
				return err
			}
			conns[i] = conn
			return conn.Connect(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Errorf("Failed to fill pool: %v", err)
		closeAll(conns)
		return nil, err
	}

	p := &Pool{
		vendor:     vendor,
		size:       size,
		idle:       make(chan interfaces.Connector, size),
		done:       make(chan struct{}),
		log:        log,
		checkedOut: make(map[interfaces.Connector]struct{}, size),
	}
	for _, conn := range conns {
		p.idle <- conn
	}
	log.Debugf("Pool ready")
	return p, nil
}

// Acquire checks out a connector, blocking until one is free. A timeout
// of zero or less waits until ctx is done.
func (p *Pool) Acquire(ctx context.Context, timeout time.Duration) (interfaces.Connector, error) {
	start := time.Now()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-p.done:
		return nil, apperrors.NewPoolClosedError("connection pool is closed")
	default:
	}

	select {
	case conn := <-p.idle:
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			_ = conn.Close()
			return nil, apperrors.NewPoolClosedError("connection pool is closed")
		}
		p.checkedOut[conn] = struct{}{}
		inUse := len(p.checkedOut)
		p.mu.Unlock()

		observability.RecordPoolWait(ctx, p.vendor, true, msSince(start))
		observability.SetPoolInUse(p.vendor, inUse)
		return conn, nil

	case <-p.done:
		return nil, apperrors.NewPoolClosedError("connection pool is closed")

	case <-expired:
		observability.RecordPoolWait(ctx, p.vendor, false, msSince(start))
		return nil, apperrors.NewPoolExhaustedError(
			fmt.Sprintf("no connection available within %s", timeout))

	case <-ctx.Done():
		observability.RecordPoolWait(ctx, p.vendor, false, msSince(start))
		return nil, apperrors.WrapError(apperrors.ErrCodePoolExhausted, "gave up waiting for a connection", ctx.Err())
	}
}

// Release returns a connector to the pool. After CloseAll the connector is
// closed instead. Releasing a connector that is not checked out, including
// a second release of the same one, is ignored.
func (p *Pool) Release(conn interfaces.Connector) {
	if conn == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.checkedOut[conn]; !ok {
		p.log.Warnf("Ignoring release of a connection that is not checked out")
		return
	}
	delete(p.checkedOut, conn)
	observability.SetPoolInUse(p.vendor, len(p.checkedOut))

	if p.closed {
		if err := conn.Close(); err != nil {
			p.log.Warnf("Error closing released connection: %v", err)
		}
		return
	}

	// checkedOut never exceeds size, so a slot is always free
	p.idle <- conn
}

// CloseAll closes every idle connector. Connectors still checked out are
// closed when released. Calling CloseAll again is a no-op.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)

	var idle []interfaces.Connector
	for {
		select {
		case conn := <-p.idle:
			idle = append(idle, conn)
			continue
		default:
		}
		break
	}
	p.mu.Unlock()

	p.log.Debugf("Closing %d idle connection(s)", len(idle))
	return closeAll(idle)
}

// Size returns the number of connectors the pool was built with
func (p *Pool) Size() int {
	return p.size
}

// InUse returns the number of checked-out connectors
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.checkedOut)
}

func closeAll(conns []interfaces.Connector) error {
	var errs []error
	for _, conn := range conns {
		if conn == nil {
			continue
		}
		if err := conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
