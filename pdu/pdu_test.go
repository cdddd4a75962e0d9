package pdu

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/scadalink/modbus/modbus"
)

func TestReadHoldingRegistersRoundTrip(t *testing.T) {
	req, err := ReadHoldingRegistersRequest(0, 10)
	if err != nil {
		t.Fatalf("ReadHoldingRegistersRequest: %v", err)
	}
	want := []byte{0x03, 0x00, 0x00, 0x00, 0x0A}
	if got := req.Bytes(); string(got) != string(want) {
		t.Fatalf("request bytes = % X, want % X", got, want)
	}

	respBytes := []byte{0x03, 0x14, 0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04,
		0x00, 0x05, 0x00, 0x06, 0x00, 0x07, 0x00, 0x08, 0x00, 0x09, 0x00, 0x0A}
	p, err := ParsePDU(respBytes)
	if err != nil {
		t.Fatalf("ParsePDU: %v", err)
	}
	regs, err := ParseReadHoldingRegistersResponse(&Response{PDU: p}, 10)
	if err != nil {
		t.Fatalf("ParseReadHoldingRegistersResponse: %v", err)
	}
	want16 := []uint16{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if diff := cmp.Diff(want16, regs); diff != "" {
		t.Fatalf("registers mismatch (-want +got):\n%s", diff)
	}
}

func TestExceptionPassthrough(t *testing.T) {
	p, err := ParsePDU([]byte{0x83, 0x02})
	if err != nil {
		t.Fatalf("ParsePDU: %v", err)
	}
	_, err = ParseReadHoldingRegistersResponse(&Response{PDU: p}, 1)
	var exc *ExceptionResponseError
	if !errors.As(err, &exc) {
		t.Fatalf("expected *ExceptionResponseError, got %T (%v)", err, err)
	}
	if exc.ExceptionCode != modbus.ExceptionCodeIllegalDataAddress {
		t.Fatalf("exception code = %v, want IllegalDataAddress", exc.ExceptionCode)
	}
}

func TestUnexpectedFunctionCode(t *testing.T) {
	p := NewPDU(modbus.FuncCodeReadInputRegisters, []byte{0x02, 0x00, 0x01})
	_, err := ParseReadHoldingRegistersResponse(&Response{PDU: p}, 1)
	var ufc *UnexpectedFunctionCodeError
	if !errors.As(err, &ufc) {
		t.Fatalf("expected *UnexpectedFunctionCodeError, got %T (%v)", err, err)
	}
}

func TestByteCountMismatch(t *testing.T) {
	p := NewPDU(modbus.FuncCodeReadHoldingRegisters, []byte{0x04, 0x00, 0x01, 0x00, 0x02})
	_, err := ParseReadHoldingRegistersResponse(&Response{PDU: p}, 3)
	var bcm *ByteCountMismatchError
	if !errors.As(err, &bcm) {
		t.Fatalf("expected *ByteCountMismatchError, got %T (%v)", err, err)
	}
}

func TestQuantityBounds(t *testing.T) {
	if _, err := ReadCoilsRequest(0, 0); err == nil {
		t.Fatal("expected error for quantity 0")
	}
	if _, err := ReadCoilsRequest(0, 2001); err == nil {
		t.Fatal("expected error for quantity 2001")
	}
	if _, err := ReadHoldingRegistersRequest(0, 126); err == nil {
		t.Fatal("expected error for quantity 126")
	}
}

func TestWriteSingleCoilRoundTrip(t *testing.T) {
	req, err := WriteSingleCoilRequest(0x10, true)
	if err != nil {
		t.Fatalf("WriteSingleCoilRequest: %v", err)
	}
	want := []byte{0x05, 0x00, 0x10, 0xFF, 0x00}
	if got := req.Bytes(); string(got) != string(want) {
		t.Fatalf("request bytes = % X, want % X", got, want)
	}
	p, _ := ParsePDU(want)
	if err := ParseWriteSingleCoilResponse(&Response{PDU: p}, 0x10, true); err != nil {
		t.Fatalf("ParseWriteSingleCoilResponse: %v", err)
	}
}

func TestReportServerIDResponse(t *testing.T) {
	// byteCount(3) = identifier "AB" (2 bytes) + status(1).
	data := []byte{0x11, 0x03, 'A', 'B', 0xFF}
	p, _ := ParsePDU(data)
	id, run, err := ParseReportServerIDResponse(&Response{PDU: p})
	if err != nil {
		t.Fatalf("ParseReportServerIDResponse: %v", err)
	}
	if string(id) != "AB" || !run {
		t.Fatalf("id=%q run=%v, want AB/true", id, run)
	}
}

func TestGetCommEventCounterResponse(t *testing.T) {
	data := []byte{0x0B, 0x00, 0x00, 0x00, 0x05}
	p, _ := ParsePDU(data)
	status, count, err := ParseGetCommEventCounterResponse(&Response{PDU: p})
	if err != nil {
		t.Fatalf("ParseGetCommEventCounterResponse: %v", err)
	}
	if status != 0 || count != 5 {
		t.Fatalf("status=%d count=%d, want 0/5", status, count)
	}
}

func TestGetCommEventLogResponse(t *testing.T) {
	// byteCount(8): status(2)+eventCount(2)+msgCount(2)+2 event bytes.
	data := []byte{0x0C, 0x08, 0x00, 0x00, 0x00, 0x01, 0x00, 0x02, 0xAA, 0xBB}
	p, _ := ParsePDU(data)
	status, eventCount, msgCount, events, err := ParseGetCommEventLogResponse(&Response{PDU: p})
	if err != nil {
		t.Fatalf("ParseGetCommEventLogResponse: %v", err)
	}
	if status != 0 || eventCount != 1 || msgCount != 2 || string(events) != "\xAA\xBB" {
		t.Fatalf("unexpected decode: status=%d eventCount=%d msgCount=%d events=% X",
			status, eventCount, msgCount, events)
	}
}

func TestReadFileRecordResponseRejectsOverlongSubResponse(t *testing.T) {
	// dataLen=2 declares only 2 bytes, but respLen claims 9 bytes (reference
	// type + 8 data bytes).
	data := []byte{0x14, 0x02, 0x09, 0x06}
	p, _ := ParsePDU(data)
	if _, err := ParseReadFileRecordResponse(&Response{PDU: p}); !errors.Is(err, ErrPduTooShort) {
		t.Fatalf("expected ErrPduTooShort, got %v", err)
	}
}

func TestReadFileRecordResponseRejectsBadReferenceType(t *testing.T) {
	data := []byte{0x14, 0x04, 0x03, 0x07, 0xAA, 0xBB}
	p, _ := ParsePDU(data)
	_, err := ParseReadFileRecordResponse(&Response{PDU: p})
	var ref *InvalidFileReferenceTypeError
	if !errors.As(err, &ref) {
		t.Fatalf("expected *InvalidFileReferenceTypeError, got %T (%v)", err, err)
	}
}

func TestDeviceIdentificationParse(t *testing.T) {
	data := []byte{
		0x2B, 0x0E, 0x01, ConformityBasic, 0x00, 0x00, 0x01,
		0x00, 0x06, 'V', 'e', 'n', 'd', 'o', 'r',
	}
	p, _ := ParsePDU(data)
	id, more, next, err := ParseReadDeviceIdentificationResponse(&Response{PDU: p})
	if err != nil {
		t.Fatalf("ParseReadDeviceIdentificationResponse: %v", err)
	}
	if id.VendorName != "Vendor" || more || next != 0 {
		t.Fatalf("unexpected device id: %+v more=%v next=%d", id, more, next)
	}
}

const ConformityBasic = modbus.ConformityLevelBasicStream

func TestBoolSliceRoundTrip(t *testing.T) {
	values := []bool{true, false, true, true, false, false, false, true, true}
	packed := EncodeBoolSlice(values)
	unpacked := DecodeBoolSlice(packed, len(values))
	if diff := cmp.Diff(values, unpacked); diff != "" {
		t.Fatalf("bool slice round trip mismatch (-want +got):\n%s", diff)
	}
}
