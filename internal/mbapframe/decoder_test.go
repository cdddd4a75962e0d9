package mbapframe

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecoderAccumulatesAcrossPartialReads(t *testing.T) {
	adu := WrapADU(1, 1, []byte{0x03, 0x02, 0x00, 0x01})

	var d Decoder
	for i := 0; i < len(adu)-1; i++ {
		d.Feed(adu[i : i+1])
		if got, ok, err := d.Next(); ok || err != nil || got != nil {
			t.Fatalf("Next after %d/%d bytes = %v, %v, %v; want not-ready", i+1, len(adu), got, ok, err)
		}
		if !d.Pending() {
			t.Fatalf("Pending() = false after %d/%d bytes fed, want true", i+1, len(adu))
		}
	}

	d.Feed(adu[len(adu)-1:])
	got, ok, err := d.Next()
	if err != nil || !ok {
		t.Fatalf("Next() = %v, %v, %v; want complete ADU", got, ok, err)
	}
	if diff := cmp.Diff(adu, got); diff != "" {
		t.Fatalf("decoded ADU mismatch (-want +got):\n%s", diff)
	}
	if d.Pending() {
		t.Fatalf("Pending() = true after full ADU drained, want false")
	}
}

func TestDecoderEmitsMultipleFramesFromOneFeed(t *testing.T) {
	first := WrapADU(1, 1, []byte{0x03, 0x02, 0x00, 0x01})
	second := WrapADU(2, 1, []byte{0x03, 0x02, 0x00, 0x02})
	third := WrapADU(3, 1, []byte{0x03, 0x02, 0x00, 0x03})

	var d Decoder
	d.Feed(append(append(append([]byte{}, first...), second...), third...))

	for i, want := range [][]byte{first, second, third} {
		got, ok, err := d.Next()
		if err != nil || !ok {
			t.Fatalf("Next() #%d = %v, %v, %v; want complete ADU", i, got, ok, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ADU #%d mismatch (-want +got):\n%s", i, diff)
		}
	}

	if got, ok, err := d.Next(); ok || err != nil || got != nil {
		t.Fatalf("Next() after draining all frames = %v, %v, %v; want not-ready", got, ok, err)
	}
	if d.Pending() {
		t.Fatalf("Pending() = true after all frames drained, want false")
	}
}

func TestDecoderRejectsZeroLengthFrame(t *testing.T) {
	frame := Header{TransactionID: 1, ProtocolID: 0, Length: 0, UnitID: 1}.Encode()

	var d Decoder
	d.Feed(frame)

	_, ok, err := d.Next()
	if ok {
		t.Fatalf("Next() ok = true for zero-length frame, want false")
	}
	var invalidLen *InvalidLengthError
	if !errors.As(err, &invalidLen) {
		t.Fatalf("Next() err = %v, want *InvalidLengthError", err)
	}
}

func TestDecoderRejectsNonZeroProtocolID(t *testing.T) {
	frame := Header{TransactionID: 1, ProtocolID: 7, Length: 2, UnitID: 1}.Encode()
	frame = append(frame, 0x03)

	var d Decoder
	d.Feed(frame)

	_, ok, err := d.Next()
	if ok {
		t.Fatalf("Next() ok = true for non-zero protocol id, want false")
	}
	var invalidProto *InvalidProtocolIDError
	if !errors.As(err, &invalidProto) {
		t.Fatalf("Next() err = %v, want *InvalidProtocolIDError", err)
	}
}

func TestDecoderPendingTracksUndrainedBytes(t *testing.T) {
	var d Decoder
	if d.Pending() {
		t.Fatalf("Pending() = true on empty decoder, want false")
	}

	d.Feed([]byte{0x00, 0x01})
	if !d.Pending() {
		t.Fatalf("Pending() = false after partial header fed, want true")
	}

	if _, ok, err := d.Next(); ok || err != nil {
		t.Fatalf("Next() on partial header = ok=%v err=%v, want not-ready", ok, err)
	}
}
