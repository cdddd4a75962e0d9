package pdu

import (
	"testing"

	"github.com/scadalink/modbus/modbus"
	"pgregory.net/rapid"
)

func addrT(v uint16) modbus.Address { return modbus.Address(v) }
func qtyT(v uint16) modbus.Quantity { return modbus.Quantity(v) }

// TestReadHoldingRegistersBuildParseRoundTrip checks parse(build(x)) == x for
// FC 0x03 across the legal quantity range.
func TestReadHoldingRegistersBuildParseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		addr := rapid.Uint16Range(0, 65000).Draw(t, "addr")
		qty := rapid.Uint16Range(1, 125).Draw(t, "qty")

		req, err := ReadHoldingRegistersRequest(addrT(addr), qtyT(qty))
		if err != nil {
			t.Fatalf("build: %v", err)
		}

		values := make([]uint16, qty)
		for i := range values {
			values[i] = uint16(i)
		}
		respData := append([]byte{byte(qty * 2)}, EncodeUint16Slice(values)...)
		resp := NewResponse(req.FunctionCode, respData)

		got, err := ParseReadHoldingRegistersResponse(resp, qtyT(qty))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if len(got) != len(values) {
			t.Fatalf("length mismatch: got %d, want %d", len(got), len(values))
		}
		for i := range values {
			if got[i] != values[i] {
				t.Fatalf("value %d mismatch: got %d, want %d", i, got[i], values[i])
			}
		}
	})
}

// TestParsersNeverPanicOnArbitraryBytes is the §8 "bounds safety" property:
// every parser either returns a value or a typed error, never a panic.
func TestParsersNeverPanicOnArbitraryBytes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 260).Draw(t, "n")
		data := rapid.SliceOfN(rapid.Byte(), n, n).Draw(t, "data")

		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("panic on input % X: %v", data, r)
			}
		}()

		p, err := ParsePDU(data)
		if err != nil {
			return
		}
		resp := &Response{PDU: p}
		_, _ = ParseReadCoilsResponse(resp, 1)
		_, _ = ParseReadHoldingRegistersResponse(resp, 1)
		_, _ = ParseReadFIFOQueueResponse(resp)
		_, _, _ = ParseReadDeviceIdentificationResponse(resp)
		_, _ = ParseReadFileRecordResponse(resp)
		_, _, _ = ParseGetCommEventLogResponse(resp)
	})
}

// TestBuildIsIdempotent is the §8 "idempotence of build" property.
func TestBuildIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		addr := rapid.Uint16Range(0, 65000).Draw(t, "addr")
		qty := rapid.Uint16Range(1, 125).Draw(t, "qty")
		a, errA := ReadHoldingRegistersRequest(addrT(addr), qtyT(qty))
		b, errB := ReadHoldingRegistersRequest(addrT(addr), qtyT(qty))
		if errA != nil || errB != nil {
			t.Fatalf("unexpected build errors: %v / %v", errA, errB)
		}
		if string(a.Bytes()) != string(b.Bytes()) {
			t.Fatalf("build not idempotent: % X != % X", a.Bytes(), b.Bytes())
		}
	})
}
