// Package mbapframe implements the 7-byte MBAP header used by MODBUS
// TCP/TLS/UDP, plus a streaming decoder that accumulates length-prefixed
// ADUs off a growing byte buffer.
package mbapframe

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed length of an MBAP header in bytes.
const HeaderSize = 7

// MaxLength is the largest legal value of the MBAP Length field: UnitID(1) +
// PDU(up to 253 bytes).
const MaxLength = 254

// Header is the 7-byte MBAP header: TxID(2) | ProtocolID=0(2) | Length(2) | UnitID(1).
type Header struct {
	TransactionID uint16
	ProtocolID    uint16
	Length        uint16 // UnitID + PDU
	UnitID        uint8
}

// Encode renders h as its 7-byte wire form.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(buf[0:2], h.TransactionID)
	binary.BigEndian.PutUint16(buf[2:4], h.ProtocolID)
	binary.BigEndian.PutUint16(buf[4:6], h.Length)
	buf[6] = h.UnitID
	return buf
}

// WrapADU builds a complete MBAP ADU (header + pdu) for transmission.
func WrapADU(txID uint16, unitID uint8, pduBytes []byte) []byte {
	h := Header{
		TransactionID: txID,
		ProtocolID:    0,
		Length:        uint16(1 + len(pduBytes)),
		UnitID:        unitID,
	}
	out := h.Encode()
	out = append(out, pduBytes...)
	return out
}

// DecodeHeader parses the fixed 7-byte header at the start of data.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("mbapframe: %w: need %d bytes, got %d", ErrFrameTooShort, HeaderSize, len(data))
	}
	return Header{
		TransactionID: binary.BigEndian.Uint16(data[0:2]),
		ProtocolID:    binary.BigEndian.Uint16(data[2:4]),
		Length:        binary.BigEndian.Uint16(data[4:6]),
		UnitID:        data[6],
	}, nil
}

// ValidateHeader checks Length and ProtocolID per §4.4. A Length of 0 or
// greater than MaxLength, or a non-zero ProtocolID, is a fatal framing error
// that should close the channel (the byte stream can no longer be
// resynchronized).
func ValidateHeader(h Header) error {
	if h.Length == 0 || h.Length > MaxLength {
		return &InvalidLengthError{Length: h.Length}
	}
	if h.ProtocolID != 0 {
		return &InvalidProtocolIDError{ProtocolID: h.ProtocolID}
	}
	return nil
}

// UnwrapADU splits a complete ADU (as handed back by the stream decoder or
// read whole off a UDP socket) into its header and PDU bytes, validating the
// header along the way.
func UnwrapADU(adu []byte) (Header, []byte, error) {
	h, err := DecodeHeader(adu)
	if err != nil {
		return Header{}, nil, err
	}
	if err := ValidateHeader(h); err != nil {
		return Header{}, nil, err
	}
	want := HeaderSize + int(h.Length) - 1
	if len(adu) != want {
		return Header{}, nil, fmt.Errorf("mbapframe: %w: header declares %d total bytes, got %d", ErrFrameTooShort, want, len(adu))
	}
	return h, adu[HeaderSize:], nil
}
