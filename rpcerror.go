package ajo

import "fmt"

// RPCError describes a failed Soroban RPC call with enough structure for
// retry classification: the HTTP status and the backend error code, when
// known. Fetchers returning an RPCError get transient failures (408, 429,
// 5xx, designated backend codes) retried and permanent ones surfaced
// immediately.
type RPCError struct {
	// Op is the logical call, e.g. "getGroup".
	Op string

	// Status is the HTTP status, 0 when the call never got a response.
	Status int

	// Code is the backend error code, e.g. "tryAgainLater".
	Code string

	// Err is the underlying cause, may be nil.
	Err error
}

func (e *RPCError) Error() string {
	msg := "ajo: rpc"
	if e.Op != "" {
		msg = "ajo: " + e.Op
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s: code %s", msg, e.Code)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// StatusCode returns the HTTP status for retry classification.
func (e *RPCError) StatusCode() int { return e.Status }

// ErrorCode returns the backend code for retry classification.
func (e *RPCError) ErrorCode() string { return e.Code }

// Unwrap returns the underlying cause.
func (e *RPCError) Unwrap() error { return e.Err }
