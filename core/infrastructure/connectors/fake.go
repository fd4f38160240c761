package connectors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperterse/hyperbench/core/domain"
)

// fakeBackend is an in-memory vendor used for dry runs of a benchmark
// layout. It honours these credential keys:
//
//	rows        rows returned per statement (default 1)
//	latency_ms  simulated execution time per statement
//	fail_on     statements containing this text fail
type fakeBackend struct {
	rows    int
	latency time.Duration
	failOn  string
	opened  bool
}

// NewFakeConnector creates an in-memory connector
func NewFakeConnector(creds domain.Credentials) *Session {
	return newSession(VendorFake, "", &fakeBackend{
		rows:    creds.Int("rows", 1),
		latency: time.Duration(creds.Int("latency_ms", 0)) * time.Millisecond,
		failOn:  creds.String("fail_on"),
	})
}

func (b *fakeBackend) open(context.Context) error {
	b.opened = true
	return nil
}

func (b *fakeBackend) ping(context.Context) error {
	return nil
}

func (b *fakeBackend) disableCache(context.Context) error {
	return nil
}

func (b *fakeBackend) query(ctx context.Context, statement string, _ map[string]any) ([]map[string]any, error) {
	if !b.opened {
		return nil, errors.New("fake session is closed")
	}

	if b.latency > 0 {
		timer := time.NewTimer(b.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if b.failOn != "" && strings.Contains(statement, b.failOn) {
		return nil, fmt.Errorf("statement rejected: contains %q", b.failOn)
	}

	rows := make([]map[string]any, 0, max(b.rows, 0))
	for i := range max(b.rows, 0) {
		rows = append(rows, map[string]any{"n": i})
	}
	return rows, nil
}

func (b *fakeBackend) cleanup(context.Context) error {
	return nil
}

func (b *fakeBackend) close() error {
	b.opened = false
	return nil
}
