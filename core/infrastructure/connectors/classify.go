package connectors

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// isTimeout reports errors that must not be retried
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out")
}

// isConnectionLoss reports errors caused by a dropped session
func isConnectionLoss(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection") ||
		strings.Contains(msg, "disconnected") ||
		strings.Contains(msg, "broken pipe")
}

// describeConnectError turns a raw connect failure into a ConnectionError
// whose message says whether credentials or the compute target are at fault.
func describeConnectError(vendor, target string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "authentication"),
		strings.Contains(msg, "access denied"),
		strings.Contains(msg, "incorrect username or password"):
		return apperrors.NewConnectionError(
			fmt.Sprintf("%s authentication failed - check service credentials", vendor), err)
	case target != "" && (strings.Contains(msg, "engine") || strings.Contains(msg, "warehouse")):
		return apperrors.NewConnectionError(
			fmt.Sprintf("%s engine connection failed - check engine name '%s'", vendor, target), err)
	default:
		return apperrors.NewConnectionError(fmt.Sprintf("%s connection failed", vendor), err)
	}
}
