package modbus

import (
	"errors"
	"fmt"

	"github.com/scadalink/modbus/internal/asciiframe"
	"github.com/scadalink/modbus/internal/dispatch"
	"github.com/scadalink/modbus/internal/mbapframe"
	"github.com/scadalink/modbus/internal/rtuframe"
	"github.com/scadalink/modbus/modbus"
	"github.com/scadalink/modbus/pdu"
	"github.com/scadalink/modbus/transport"
)

// Client-level error taxonomy. Codec errors (framing, PDU) from the
// internal packages are mapped into this taxonomy at the transport
// boundary by classify, below.
var (
	ErrNotConnected           = errors.New("modbus: not connected")
	ErrAlreadyConnected       = errors.New("modbus: already connected")
	ErrTimeout                = errors.New("modbus: timed out waiting for response")
	ErrChannelClosed          = errors.New("modbus: channel closed")
	ErrTooManyPendingRequests = errors.New("modbus: too many pending requests")
)

// ConnectionFailedError reports that a connect attempt (initial or
// reconnect) failed.
type ConnectionFailedError struct{ Reason error }

func (e *ConnectionFailedError) Error() string {
	return fmt.Sprintf("modbus: connection failed: %v", e.Reason)
}
func (e *ConnectionFailedError) Unwrap() error { return e.Reason }

// TransactionIDMismatchError reports a response whose transaction id does
// not match the request it was read for.
type TransactionIDMismatchError struct{ Expected, Got uint16 }

func (e *TransactionIDMismatchError) Error() string {
	return fmt.Sprintf("modbus: transaction id mismatch: expected %d, got %d", e.Expected, e.Got)
}

// UnitIDMismatchError reports a response whose unit id does not match the
// unit id the request was addressed to.
type UnitIDMismatchError struct{ Expected, Got modbus.SlaveID }

func (e *UnitIDMismatchError) Error() string {
	return fmt.Sprintf("modbus: unit id mismatch: expected %d, got %d", e.Expected, e.Got)
}

// InvalidResponseError reports a structurally well-formed but semantically
// unexpected response (wrong function code, bad byte count, ...).
type InvalidResponseError struct{ Reason string }

func (e *InvalidResponseError) Error() string { return "modbus: invalid response: " + e.Reason }

// MbapError reports a malformed MBAP header.
type MbapError struct{ Reason string }

func (e *MbapError) Error() string { return "modbus: mbap error: " + e.Reason }

// PduError reports a PDU-level decoding failure not otherwise classified.
type PduError struct{ Reason string }

func (e *PduError) Error() string { return "modbus: pdu error: " + e.Reason }

// IoError wraps an underlying transport I/O failure.
type IoError struct{ Reason error }

func (e *IoError) Error() string { return fmt.Sprintf("modbus: io error: %v", e.Reason) }
func (e *IoError) Unwrap() error { return e.Reason }

// InvalidParameterError reports a caller-supplied argument that fails the
// protocol's own invariants (e.g. quantity out of range). Raised before any
// I/O and never retried.
type InvalidParameterError struct{ Reason string }

func (e *InvalidParameterError) Error() string { return "modbus: invalid parameter: " + e.Reason }

// TLSConfigurationError reports a TLS client context that could not be
// constructed from the supplied config.TLSConfig.
type TLSConfigurationError struct{ Reason string }

func (e *TLSConfigurationError) Error() string {
	return "modbus: tls configuration error: " + e.Reason
}

// TLSHandshakeFailedError reports a failed TLS handshake during Connect.
type TLSHandshakeFailedError struct{ Reason string }

func (e *TLSHandshakeFailedError) Error() string {
	return "modbus: tls handshake failed: " + e.Reason
}

// TransactionIDInUseError reports an attempt to register a transaction id
// that already has a pending waiter (should not occur under the allocator's
// wraparound discipline except at extreme pipelining depths).
type TransactionIDInUseError struct{ TransactionID uint16 }

func (e *TransactionIDInUseError) Error() string {
	return fmt.Sprintf("modbus: transaction id %d already in use", e.TransactionID)
}

// classify maps a raw error from the transport, dispatch, framing, or pdu
// layers into the client error taxonomy (§7) and reports whether the retry
// loop should attempt the request again (§4.9's never-retried list:
// InvalidParameter, ModbusException, InvalidResponse, UnitIdMismatch,
// TransactionIdMismatch, NotConnected-with-reconnect-disabled,
// AlreadyConnected, TlsConfigurationError, TooManyPendingRequests,
// TransactionIdInUse).
func classify(err error) (clientErr error, retryable bool) {
	if err == nil {
		return nil, false
	}

	switch {
	case errors.Is(err, transport.ErrTimeout):
		return ErrTimeout, true
	case errors.Is(err, transport.ErrNotConnected):
		return ErrNotConnected, false
	case errors.Is(err, dispatch.ErrChannelClosed):
		return ErrChannelClosed, true
	case errors.Is(err, rtuframe.ErrInvalidCRC):
		return err, true
	case errors.Is(err, asciiframe.ErrInvalidLRC):
		return err, true
	}

	var connErr *ConnectionFailedError
	if errors.As(err, &connErr) {
		return connErr, true
	}

	var exc *pdu.ExceptionResponseError
	if errors.As(err, &exc) {
		return exc, false
	}
	var unkExc *pdu.UnknownExceptionError
	if errors.As(err, &unkExc) {
		return unkExc, false
	}

	var ioErr *transport.IOError
	if errors.As(err, &ioErr) {
		return &IoError{Reason: ioErr.Err}, true
	}

	var tooMany *dispatch.TooManyPendingRequestsError
	if errors.As(err, &tooMany) {
		return ErrTooManyPendingRequests, false
	}
	var inUse *dispatch.TransactionIDInUseError
	if errors.As(err, &inUse) {
		return &TransactionIDInUseError{TransactionID: inUse.TransactionID}, false
	}

	var rtuShort *rtuframe.FrameTooShortError
	if errors.As(err, &rtuShort) {
		return err, true
	}
	var asciiShort *asciiframe.FrameTooShortError
	if errors.As(err, &asciiShort) {
		return err, true
	}
	var rtuMismatch *rtuframe.UnitIDMismatchError
	if errors.As(err, &rtuMismatch) {
		return &UnitIDMismatchError{Expected: modbus.SlaveID(rtuMismatch.Expected), Got: modbus.SlaveID(rtuMismatch.Got)}, false
	}
	var asciiMismatch *asciiframe.UnitIDMismatchError
	if errors.As(err, &asciiMismatch) {
		return &UnitIDMismatchError{Expected: modbus.SlaveID(asciiMismatch.Expected), Got: modbus.SlaveID(asciiMismatch.Got)}, false
	}

	var mbapLen *mbapframe.InvalidLengthError
	if errors.As(err, &mbapLen) {
		return &MbapError{Reason: err.Error()}, false
	}
	var mbapProto *mbapframe.InvalidProtocolIDError
	if errors.As(err, &mbapProto) {
		return &MbapError{Reason: err.Error()}, false
	}

	var unexpFC *pdu.UnexpectedFunctionCodeError
	if errors.As(err, &unexpFC) {
		return &InvalidResponseError{Reason: err.Error()}, false
	}
	var byteCount *pdu.ByteCountMismatchError
	if errors.As(err, &byteCount) {
		return &InvalidResponseError{Reason: err.Error()}, false
	}
	var echoMismatch *pdu.EchoMismatchError
	if errors.As(err, &echoMismatch) {
		return &InvalidResponseError{Reason: err.Error()}, false
	}
	var fifoExceeded *pdu.FIFOCountExceededError
	if errors.As(err, &fifoExceeded) {
		return &InvalidResponseError{Reason: err.Error()}, false
	}

	return &PduError{Reason: err.Error()}, false
}
