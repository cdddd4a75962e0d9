// Package rtuframe implements MODBUS RTU ADU framing: UnitID + PDU + CRC-16,
// plus the T1.5/T3.5 silent-interval timing MODBUS over serial lines relies
// on to delimit frames in place of a length prefix.
package rtuframe

import (
	"time"

	"github.com/scadalink/modbus/internal/crc"
	"github.com/scadalink/modbus/modbus"
	"github.com/scadalink/modbus/pdu"
)

// MinFrameSize is the smallest legal RTU ADU: UnitID + FunctionCode + CRC(2).
const MinFrameSize = 4

// MaxFrameSize is the largest legal RTU ADU: UnitID(1) + PDU(253) + CRC(2).
const MaxFrameSize = 256

// WrapADU builds a complete RTU frame (unitID + pdu + crc16-LE) ready for
// transmission.
func WrapADU(unitID uint8, pduBytes []byte) []byte {
	body := make([]byte, 1+len(pduBytes))
	body[0] = unitID
	copy(body[1:], pduBytes)
	return crc.AppendCRC(body)
}

// UnwrapADU validates and splits a received RTU frame, in the exact order
// the MODBUS over Serial Line response path requires: length floor, CRC,
// exception recognition, then unit id. Function code match and any
// remaining per-function length rules are left to the pdu package, which
// the caller invokes against the returned pdu bytes.
//
// Exception recognition precedes the unit id check because it reads only
// the function code byte, which CRC has already guaranteed is intact; a
// frame carrying the exception bit is classified via pdu.ClassifyException
// before the unit id comparison runs, matching the fixed validation order
// the response path follows end to end.
func UnwrapADU(frame []byte, expectedUnitID uint8) (pduBytes []byte, err error) {
	if len(frame) < MinFrameSize {
		return nil, &FrameTooShortError{Length: len(frame)}
	}
	if !crc.VerifyCRC(frame) {
		return nil, ErrInvalidCRC
	}
	body := frame[:len(frame)-2]
	fc := modbus.FunctionCode(body[1])
	if fc.IsException() {
		if len(body) < 3 {
			return nil, pdu.ErrPduTooShort
		}
		return nil, pdu.ClassifyException(fc.FromException(), modbus.ExceptionCode(body[2]))
	}
	if body[0] != expectedUnitID {
		return nil, &UnitIDMismatchError{Expected: expectedUnitID, Got: body[0]}
	}
	return body[1:], nil
}

// CharTime returns the transmission time of one serial character (start bit
// + data bits + parity bit if any + stop bits) at the given line settings.
func CharTime(baudRate, dataBits, stopBits int, hasParity bool) time.Duration {
	bitsPerChar := 1 + dataBits + stopBits
	if hasParity {
		bitsPerChar++
	}
	nsPerBit := int64(1_000_000_000) / int64(baudRate)
	return time.Duration(int64(bitsPerChar) * nsPerBit)
}

// InterFrameDelay returns T3.5, the silent interval that marks the end of an
// RTU frame. Per the MODBUS over Serial Line spec, baud rates above 19200
// use fixed timings instead of the character-time formula.
func InterFrameDelay(baudRate, dataBits, stopBits int, hasParity bool) time.Duration {
	if baudRate > 19200 {
		return 1750 * time.Microsecond
	}
	charTime := CharTime(baudRate, dataBits, stopBits, hasParity)
	return time.Duration(float64(charTime) * 3.5)
}

// InterCharDelay returns T1.5, the maximum gap allowed between two
// characters of the same frame before the receiver must discard it.
func InterCharDelay(baudRate, dataBits, stopBits int, hasParity bool) time.Duration {
	if baudRate > 19200 {
		return 750 * time.Microsecond
	}
	charTime := CharTime(baudRate, dataBits, stopBits, hasParity)
	return time.Duration(float64(charTime) * 1.5)
}

// StripLocalEcho removes a half-duplex adapter's echo of the outbound
// request from the front of a received buffer. Exactly len(request) bytes
// are stripped when the buffer begins with a byte-for-byte copy of request;
// otherwise the buffer is returned untouched, so a response that differs
// from the request is never mistaken for an echo. A response byte-identical
// to the request (as a write-single-coil or write-single-register reply is)
// cannot be told apart from an echo and is stripped.
func StripLocalEcho(buf, request []byte) []byte {
	if len(buf) < len(request) {
		return buf
	}
	for i := range request {
		if buf[i] != request[i] {
			return buf
		}
	}
	return buf[len(request):]
}
