package pdu

import (
	"errors"
	"fmt"

	"github.com/scadalink/modbus/modbus"
)

// ErrPduTooShort is returned whenever a parser runs out of bytes before it
// has consumed every field a function code declares.
var ErrPduTooShort = errors.New("pdu: frame too short")

// UnexpectedFunctionCodeError reports a response PDU whose function code
// does not match the request that was sent.
type UnexpectedFunctionCodeError struct {
	Expected modbus.FunctionCode
	Got      modbus.FunctionCode
}

func (e *UnexpectedFunctionCodeError) Error() string {
	return fmt.Sprintf("pdu: unexpected function code: expected %s, got %s", e.Expected, e.Got)
}

// ByteCountMismatchError reports a byte-count field that disagrees with the
// number of bytes actually present, or with the value implied by a quantity.
type ByteCountMismatchError struct {
	Expected int
	Got      int
}

func (e *ByteCountMismatchError) Error() string {
	return fmt.Sprintf("pdu: byte count mismatch: expected %d, got %d", e.Expected, e.Got)
}

// ExceptionResponseError wraps a well-known MODBUS exception code.
type ExceptionResponseError struct {
	FunctionCode  modbus.FunctionCode
	ExceptionCode modbus.ExceptionCode
}

func (e *ExceptionResponseError) Error() string {
	return fmt.Sprintf("pdu: exception response: %s on %s", e.ExceptionCode, e.FunctionCode)
}

// UnknownExceptionError wraps a raw exception code the codec doesn't
// recognize.
type UnknownExceptionError struct {
	FunctionCode modbus.FunctionCode
	Code         byte
}

func (e *UnknownExceptionError) Error() string {
	return fmt.Sprintf("pdu: unknown exception code %#02x on %s", e.Code, e.FunctionCode)
}

// InvalidMEITypeError reports an unexpected MEI type byte in an
// encapsulated-interface response (FC 0x2B).
type InvalidMEITypeError struct {
	Got byte
}

func (e *InvalidMEITypeError) Error() string {
	return fmt.Sprintf("pdu: invalid MEI type %#02x", e.Got)
}

// InvalidFileReferenceTypeError reports a file-record sub-request/response
// whose reference type is not 0x06.
type InvalidFileReferenceTypeError struct {
	Got byte
}

func (e *InvalidFileReferenceTypeError) Error() string {
	return fmt.Sprintf("pdu: invalid file record reference type %#02x", e.Got)
}

// OddRecordDataLengthError reports a file-record sub-request whose record
// data length in bytes is odd.
type OddRecordDataLengthError struct {
	Length int
}

func (e *OddRecordDataLengthError) Error() string {
	return fmt.Sprintf("pdu: odd file record data length %d", e.Length)
}

// EchoMismatchError reports a write response field that disagrees with what
// the request sent: single/multiple write and mask-write responses echo
// their address, value, quantity, or mask fields verbatim.
type EchoMismatchError struct {
	Field    string
	Expected uint16
	Got      uint16
}

func (e *EchoMismatchError) Error() string {
	return fmt.Sprintf("pdu: response %s mismatch: expected %#04x, got %#04x", e.Field, e.Expected, e.Got)
}

// FIFOCountExceededError reports a read-FIFO-queue response whose declared
// count exceeds the protocol's 31-entry ceiling.
type FIFOCountExceededError struct {
	Got uint16
	Max int
}

func (e *FIFOCountExceededError) Error() string {
	return fmt.Sprintf("pdu: fifo count %d exceeds maximum %d", e.Got, e.Max)
}

// ClassifyException turns a raw exception code, paired with the (already
// exception-bit-cleared) function code it arrived on, into the typed
// exception error: ExceptionResponseError for the codes the protocol names,
// UnknownExceptionError otherwise. Exported so framing layers that recognize
// the exception bit directly off the wire (see internal/rtuframe) can
// surface the same typed error the PDU-level parsers do.
func ClassifyException(fc modbus.FunctionCode, code modbus.ExceptionCode) error {
	switch code {
	case modbus.ExceptionCodeIllegalFunction,
		modbus.ExceptionCodeIllegalDataAddress,
		modbus.ExceptionCodeIllegalDataValue,
		modbus.ExceptionCodeServerDeviceFailure,
		modbus.ExceptionCodeAcknowledge,
		modbus.ExceptionCodeServerDeviceBusy,
		modbus.ExceptionCodeNegativeAcknowledge,
		modbus.ExceptionCodeMemoryParityError,
		modbus.ExceptionCodeGatewayPathUnavail,
		modbus.ExceptionCodeGatewayTargetFail:
		return &ExceptionResponseError{FunctionCode: fc, ExceptionCode: code}
	default:
		return &UnknownExceptionError{FunctionCode: fc, Code: byte(code)}
	}
}

// exceptionFromResponse turns an exception-flagged response PDU into the
// typed exception error via ClassifyException. Every FC-specific parser
// calls this first.
func exceptionFromResponse(resp *Response) error {
	code, err := resp.GetExceptionCode()
	if err != nil {
		return fmt.Errorf("pdu: %w: %v", ErrPduTooShort, err)
	}
	return ClassifyException(resp.FunctionCode.FromException(), code)
}

// expectFunctionCode validates that resp carries fc, once the exception path
// has already been ruled out.
func expectFunctionCode(resp *Response, fc modbus.FunctionCode) error {
	if resp.FunctionCode != fc {
		return &UnexpectedFunctionCodeError{Expected: fc, Got: resp.FunctionCode}
	}
	return nil
}
