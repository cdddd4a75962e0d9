package transport

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by SendRequest when called before Connect (or
// after Close) succeeds.
var ErrNotConnected = errors.New("transport: not connected")

// ErrTimeout is returned by SendRequest when no response arrives within the
// configured timeout.
var ErrTimeout = errors.New("transport: timeout waiting for response")

// IOError wraps an underlying transport I/O failure (read/write error,
// connection reset) so callers can classify it distinctly from framing or
// protocol errors.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("transport: io error: %v", e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// TLSHandshakeError wraps a failure from the TLS handshake performed during
// Connect, distinguishing it from a plain TCP dial failure so the client can
// classify it as retryable per the MODBUS/TLS profile.
type TLSHandshakeError struct {
	Err error
}

func (e *TLSHandshakeError) Error() string { return fmt.Sprintf("transport: tls handshake: %v", e.Err) }
func (e *TLSHandshakeError) Unwrap() error { return e.Err }
