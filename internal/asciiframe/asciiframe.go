// Package asciiframe implements MODBUS ASCII framing: a leading ':', the
// hex-encoded UnitID + PDU + LRC, and a trailing CRLF.
package asciiframe

import (
	"github.com/scadalink/modbus/internal/crc"
	"github.com/scadalink/modbus/internal/wire"
)

const (
	startChar = ':'
	// MinFrameChars is ':' + 2 hex digits for UnitID + 2 for FunctionCode +
	// 2 for LRC + CRLF.
	MinFrameChars = 9
	// MaxFrameChars is ':' + hex(UnitID + 253-byte PDU + LRC) + CRLF.
	MaxFrameChars = 513
)

// WrapADU builds a complete ASCII frame (":" + hex(unitID+pdu+lrc) + "\r\n")
// ready for transmission.
func WrapADU(unitID uint8, pduBytes []byte) []byte {
	body := make([]byte, 1+len(pduBytes))
	body[0] = unitID
	copy(body[1:], pduBytes)
	lrc := crc.LRC(body)
	body = append(body, lrc)

	hexBody := wire.EncodeHex(body)
	frame := make([]byte, 0, 1+len(hexBody)+2)
	frame = append(frame, startChar)
	frame = append(frame, hexBody...)
	frame = append(frame, '\r', '\n')
	return frame
}

// UnwrapADU validates and decodes a received ASCII frame (payload between
// the leading ':' and trailing CRLF, already stripped by the caller's frame
// reader) into its PDU bytes.
func UnwrapADU(hexPayload []byte, expectedUnitID uint8) (pduBytes []byte, err error) {
	if len(hexPayload) < 6 || len(hexPayload)%2 != 0 {
		return nil, &FrameTooShortError{Length: len(hexPayload)}
	}
	body, err := wire.DecodeHex(hexPayload)
	if err != nil {
		return nil, err
	}
	if len(body) < 3 {
		return nil, &FrameTooShortError{Length: len(hexPayload)}
	}
	data, lrc := body[:len(body)-1], body[len(body)-1]
	if !crc.VerifyLRC(data, lrc) {
		return nil, ErrInvalidLRC
	}
	if data[0] != expectedUnitID {
		return nil, &UnitIDMismatchError{Expected: expectedUnitID, Got: data[0]}
	}
	return data[1:], nil
}
