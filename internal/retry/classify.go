package retry

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// statusCoder is implemented by errors carrying an HTTP status, such as
// the RPCError type in the root package.
type statusCoder interface {
	StatusCode() int
}

// backendCoder is implemented by errors carrying a backend error code.
type backendCoder interface {
	ErrorCode() string
}

// DefaultTransientCodes are the backend error codes treated as retryable.
// Soroban RPC reports these while the ledger is catching up or the node is
// shedding load.
var DefaultTransientCodes = []string{"tryAgainLater", "serverBusy", "timeout"}

// Retryable classifies err with the default rules. Network and timeout
// errors, HTTP 408/429 and 5xx responses, and transient backend codes are
// retryable. Cancellation, auth, validation and resource errors are not,
// and unknown errors are not retried.
func Retryable(err error, transientCodes map[string]struct{}) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// A deadline on one attempt does not doom the next.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		switch code := sc.StatusCode(); {
		case code == 408 || code == 429:
			return true
		case code >= 500:
			return true
		case code >= 400:
			return false
		}
	}

	var bc backendCoder
	if errors.As(err, &bc) {
		if _, ok := transientCodes[bc.ErrorCode()]; ok {
			return true
		}
	}

	return false
}
