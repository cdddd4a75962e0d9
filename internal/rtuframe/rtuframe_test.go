package rtuframe

import (
	"errors"
	"testing"

	"github.com/scadalink/modbus/modbus"
	"github.com/scadalink/modbus/pdu"
	"pgregory.net/rapid"
)

func TestWrapUnwrapRoundTrip(t *testing.T) {
	pduBytes := []byte{0x03, 0x00, 0x00, 0x00, 0x0A}
	frame := WrapADU(0x01, pduBytes)
	want := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0xC5, 0xCD}
	if string(frame) != string(want) {
		t.Fatalf("frame = % X, want % X", frame, want)
	}

	got, err := UnwrapADU(frame, 0x01)
	if err != nil {
		t.Fatalf("UnwrapADU: %v", err)
	}
	if string(got) != string(pduBytes) {
		t.Fatalf("pdu = % X, want % X", got, pduBytes)
	}
}

func TestUnwrapRejectsBadCRC(t *testing.T) {
	frame := WrapADU(0x01, []byte{0x03, 0x00, 0x00, 0x00, 0x0A})
	frame[len(frame)-1] ^= 0xFF
	if _, err := UnwrapADU(frame, 0x01); !errors.Is(err, ErrInvalidCRC) {
		t.Fatalf("expected ErrInvalidCRC, got %v", err)
	}
}

func TestUnwrapRejectsUnitIDMismatch(t *testing.T) {
	frame := WrapADU(0x01, []byte{0x03, 0x00, 0x00, 0x00, 0x0A})
	_, err := UnwrapADU(frame, 0x02)
	var mismatch *UnitIDMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *UnitIDMismatchError, got %v", err)
	}
}

func TestUnwrapSurfacesExceptionBeforeUnitIDMismatch(t *testing.T) {
	// Exception PDU (FC 0x03 | 0x80, exception 0x02) addressed to unit 0x01,
	// but UnwrapADU is asked to validate it against unit 0x02: per §4.5 the
	// exception check (step 3) must win over the unit id check (step 4).
	frame := WrapADU(0x01, []byte{0x83, 0x02})
	_, err := UnwrapADU(frame, 0x02)

	var unitMismatch *UnitIDMismatchError
	if errors.As(err, &unitMismatch) {
		t.Fatalf("got *UnitIDMismatchError, want exception to take priority: %v", err)
	}
	var exc *pdu.ExceptionResponseError
	if !errors.As(err, &exc) {
		t.Fatalf("expected *pdu.ExceptionResponseError, got %v", err)
	}
	if exc.ExceptionCode != modbus.ExceptionCodeIllegalDataAddress {
		t.Fatalf("exception code = %v, want IllegalDataAddress", exc.ExceptionCode)
	}
}

func TestUnwrapRejectsTruncatedException(t *testing.T) {
	frame := WrapADU(0x01, []byte{0x83})
	if _, err := UnwrapADU(frame, 0x01); !errors.Is(err, pdu.ErrPduTooShort) {
		t.Fatalf("expected ErrPduTooShort, got %v", err)
	}
}

func TestUnwrapRejectsShortFrame(t *testing.T) {
	_, err := UnwrapADU([]byte{0x01, 0x03}, 0x01)
	var short *FrameTooShortError
	if !errors.As(err, &short) {
		t.Fatalf("expected *FrameTooShortError, got %v", err)
	}
}

func TestStripLocalEcho(t *testing.T) {
	request := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0x0D, 0xCA}
	response := []byte{0x01, 0x03, 0x14, 0xAA}
	buf := append(append([]byte{}, request...), response...)
	got := StripLocalEcho(buf, request)
	if string(got) != string(response) {
		t.Fatalf("got % X, want % X", got, response)
	}
}

func TestStripLocalEchoLeavesNonEchoedBufferAlone(t *testing.T) {
	request := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0x0D, 0xCA}
	response := []byte{0x01, 0x03, 0x14, 0xAA}
	got := StripLocalEcho(response, request)
	if string(got) != string(response) {
		t.Fatalf("got % X, want % X", got, response)
	}
}

func TestWrapUnwrapRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		unitID := rapid.Byte().Draw(t, "unitID")
		fc := rapid.ByteRange(0x01, 0x7F).Draw(t, "fc") // exception bit clear
		n := rapid.IntRange(0, 251).Draw(t, "n")
		data := rapid.SliceOfN(rapid.Byte(), n, n).Draw(t, "data")
		pduBytes := append([]byte{fc}, data...)

		frame := WrapADU(unitID, pduBytes)
		got, err := UnwrapADU(frame, unitID)
		if err != nil {
			t.Fatalf("UnwrapADU: %v", err)
		}
		if string(got) != string(pduBytes) {
			t.Fatalf("round trip mismatch: got % X, want % X", got, pduBytes)
		}
	})
}
