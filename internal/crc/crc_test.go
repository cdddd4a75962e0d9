package crc

import (
	"testing"

	"pgregory.net/rapid"
)

func TestCRC16KnownVector(t *testing.T) {
	// 01 03 00 00 00 0A -> CRC bytes C5 CD (little-endian on the wire).
	frame := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A}
	got := AppendCRC(append([]byte(nil), frame...))
	want := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0xC5, 0xCD}
	if string(got) != string(want) {
		t.Fatalf("AppendCRC(%X) = %X, want %X", frame, got, want)
	}
	if !VerifyCRC(got) {
		t.Fatalf("VerifyCRC(%X) = false, want true", got)
	}
}

func TestLRCKnownVector(t *testing.T) {
	// Address 0x01 + PDU 03 00 00 00 0A sums to 0x0E; LRC is 0xF2.
	data := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A}
	if l := LRC(data); l != 0xF2 {
		t.Fatalf("LRC(%X) = %#02x, want 0xF2", data, l)
	}
}

func TestCRCRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 256).Draw(t, "data")
		framed := AppendCRC(append([]byte(nil), data...))
		if !VerifyCRC(framed) {
			t.Fatalf("VerifyCRC failed on self-produced frame %X", framed)
		}
	})
}

func TestCRCDetectsSingleBitFlip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "data")
		framed := AppendCRC(append([]byte(nil), data...))
		bitIdx := rapid.IntRange(0, len(framed)*8-1).Draw(t, "bit")
		flipped := append([]byte(nil), framed...)
		flipped[bitIdx/8] ^= 1 << uint(bitIdx%8)
		if VerifyCRC(flipped) && string(flipped) != string(framed) {
			t.Fatalf("single bit flip at bit %d of %X went undetected", bitIdx, framed)
		}
	})
}

func TestLRCRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 256).Draw(t, "data")
		l := LRC(data)
		if !VerifyLRC(data, l) {
			t.Fatalf("VerifyLRC failed on self-produced LRC for %X", data)
		}
	})
}
