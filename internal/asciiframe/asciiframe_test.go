package asciiframe

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestWrapUnwrapRoundTrip(t *testing.T) {
	pduBytes := []byte{0x03, 0x00, 0x00, 0x00, 0x0A}
	frame := WrapADU(0x01, pduBytes)

	if frame[0] != ':' {
		t.Fatalf("frame does not start with ':': %q", frame)
	}
	if string(frame[len(frame)-2:]) != "\r\n" {
		t.Fatalf("frame does not end with CRLF: %q", frame)
	}

	got, err := UnwrapADU(frame[1:len(frame)-2], 0x01)
	if err != nil {
		t.Fatalf("UnwrapADU: %v", err)
	}
	if string(got) != string(pduBytes) {
		t.Fatalf("pdu = % X, want % X", got, pduBytes)
	}
}

func TestUnwrapRejectsBadLRC(t *testing.T) {
	frame := WrapADU(0x01, []byte{0x03, 0x00, 0x00, 0x00, 0x0A})
	payload := frame[1 : len(frame)-2]
	// Flip the last hex digit of the LRC byte.
	payload[len(payload)-1] = 'F'
	_, err := UnwrapADU(payload, 0x01)
	if !errors.Is(err, ErrInvalidLRC) {
		t.Fatalf("expected ErrInvalidLRC, got %v", err)
	}
}

func TestUnwrapRejectsUnitIDMismatch(t *testing.T) {
	frame := WrapADU(0x01, []byte{0x03, 0x00, 0x00, 0x00, 0x0A})
	_, err := UnwrapADU(frame[1:len(frame)-2], 0x02)
	var mismatch *UnitIDMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *UnitIDMismatchError, got %v", err)
	}
}

func TestWrapUnwrapRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		unitID := rapid.Byte().Draw(t, "unitID")
		n := rapid.IntRange(0, 250).Draw(t, "n")
		pduBytes := rapid.SliceOfN(rapid.Byte(), n, n).Draw(t, "pdu")

		frame := WrapADU(unitID, pduBytes)
		got, err := UnwrapADU(frame[1:len(frame)-2], unitID)
		if err != nil {
			t.Fatalf("UnwrapADU: %v", err)
		}
		if string(got) != string(pduBytes) {
			t.Fatalf("round trip mismatch: got % X, want % X", got, pduBytes)
		}
	})
}
