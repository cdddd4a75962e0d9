package pdu

import (
	"fmt"

	"github.com/scadalink/modbus/internal/wire"
	"github.com/scadalink/modbus/modbus"
)

func checkByteCountEnvelope(resp *Response, fc modbus.FunctionCode, expected int) error {
	if err := expectFunctionCode(resp, fc); err != nil {
		return err
	}
	byteCount, err := wire.Uint8(resp.Data, 0)
	if err != nil {
		return ErrPduTooShort
	}
	if len(resp.Data) != 1+int(byteCount) {
		return &ByteCountMismatchError{Expected: 1 + int(byteCount), Got: len(resp.Data)}
	}
	if expected >= 0 && int(byteCount) != expected {
		return &ByteCountMismatchError{Expected: expected, Got: int(byteCount)}
	}
	return nil
}

// ParseReadCoilsResponse parses a response PDU for read coils
func ParseReadCoilsResponse(resp *Response, expectedQuantity modbus.Quantity) ([]bool, error) {
	if resp.IsException() {
		return nil, exceptionFromResponse(resp)
	}
	if err := checkByteCountEnvelope(resp, modbus.FuncCodeReadCoils, -1); err != nil {
		return nil, err
	}
	return DecodeBoolSlice(resp.Data[1:], int(expectedQuantity)), nil
}

// ParseReadDiscreteInputsResponse parses a response PDU for read discrete inputs
func ParseReadDiscreteInputsResponse(resp *Response, expectedQuantity modbus.Quantity) ([]bool, error) {
	if resp.IsException() {
		return nil, exceptionFromResponse(resp)
	}
	if err := checkByteCountEnvelope(resp, modbus.FuncCodeReadDiscreteInputs, -1); err != nil {
		return nil, err
	}
	return DecodeBoolSlice(resp.Data[1:], int(expectedQuantity)), nil
}

// ParseReadHoldingRegistersResponse parses a response PDU for read holding registers
func ParseReadHoldingRegistersResponse(resp *Response, expectedQuantity modbus.Quantity) ([]uint16, error) {
	if resp.IsException() {
		return nil, exceptionFromResponse(resp)
	}
	if err := checkByteCountEnvelope(resp, modbus.FuncCodeReadHoldingRegisters, int(expectedQuantity)*2); err != nil {
		return nil, err
	}
	return DecodeUint16Slice(resp.Data[1:])
}

// ParseReadInputRegistersResponse parses a response PDU for read input registers
func ParseReadInputRegistersResponse(resp *Response, expectedQuantity modbus.Quantity) ([]uint16, error) {
	if resp.IsException() {
		return nil, exceptionFromResponse(resp)
	}
	if err := checkByteCountEnvelope(resp, modbus.FuncCodeReadInputRegisters, int(expectedQuantity)*2); err != nil {
		return nil, err
	}
	return DecodeUint16Slice(resp.Data[1:])
}

// ParseWriteSingleCoilResponse parses a response PDU for write single coil,
// which echoes the request's address and coil value.
func ParseWriteSingleCoilResponse(resp *Response, expectedAddress modbus.Address, expectedValue bool) error {
	if resp.IsException() {
		return exceptionFromResponse(resp)
	}
	if err := expectFunctionCode(resp, modbus.FuncCodeWriteSingleCoil); err != nil {
		return err
	}
	if len(resp.Data) != 4 {
		return &ByteCountMismatchError{Expected: 4, Got: len(resp.Data)}
	}

	address, err := DecodeUint16(resp.Data[0:2])
	if err != nil {
		return ErrPduTooShort
	}
	value, err := DecodeUint16(resp.Data[2:4])
	if err != nil {
		return ErrPduTooShort
	}
	if address != uint16(expectedAddress) {
		return &EchoMismatchError{Field: "address", Expected: uint16(expectedAddress), Got: address}
	}

	expectedCoilValue := uint16(modbus.CoilOff)
	if expectedValue {
		expectedCoilValue = modbus.CoilOn
	}
	if value != expectedCoilValue {
		return &EchoMismatchError{Field: "value", Expected: expectedCoilValue, Got: value}
	}
	return nil
}

// ParseWriteSingleRegisterResponse parses a response PDU for write single
// register, which echoes the request's address and register value.
func ParseWriteSingleRegisterResponse(resp *Response, expectedAddress modbus.Address, expectedValue uint16) error {
	if resp.IsException() {
		return exceptionFromResponse(resp)
	}
	if err := expectFunctionCode(resp, modbus.FuncCodeWriteSingleRegister); err != nil {
		return err
	}
	if len(resp.Data) != 4 {
		return &ByteCountMismatchError{Expected: 4, Got: len(resp.Data)}
	}

	address, err := DecodeUint16(resp.Data[0:2])
	if err != nil {
		return ErrPduTooShort
	}
	value, err := DecodeUint16(resp.Data[2:4])
	if err != nil {
		return ErrPduTooShort
	}
	if address != uint16(expectedAddress) {
		return &EchoMismatchError{Field: "address", Expected: uint16(expectedAddress), Got: address}
	}
	if value != expectedValue {
		return &EchoMismatchError{Field: "value", Expected: expectedValue, Got: value}
	}
	return nil
}

// ParseWriteMultipleCoilsResponse parses a response PDU for write multiple
// coils, which echoes the request's address and quantity.
func ParseWriteMultipleCoilsResponse(resp *Response, expectedAddress modbus.Address, expectedQuantity modbus.Quantity) error {
	if resp.IsException() {
		return exceptionFromResponse(resp)
	}
	if err := expectFunctionCode(resp, modbus.FuncCodeWriteMultipleCoils); err != nil {
		return err
	}
	if len(resp.Data) != 4 {
		return &ByteCountMismatchError{Expected: 4, Got: len(resp.Data)}
	}

	address, err := DecodeUint16(resp.Data[0:2])
	if err != nil {
		return ErrPduTooShort
	}
	quantity, err := DecodeUint16(resp.Data[2:4])
	if err != nil {
		return ErrPduTooShort
	}
	if address != uint16(expectedAddress) {
		return &EchoMismatchError{Field: "address", Expected: uint16(expectedAddress), Got: address}
	}
	if quantity != uint16(expectedQuantity) {
		return &EchoMismatchError{Field: "quantity", Expected: uint16(expectedQuantity), Got: quantity}
	}
	return nil
}

// ParseWriteMultipleRegistersResponse parses a response PDU for write
// multiple registers, which echoes the request's address and quantity.
func ParseWriteMultipleRegistersResponse(resp *Response, expectedAddress modbus.Address, expectedQuantity modbus.Quantity) error {
	if resp.IsException() {
		return exceptionFromResponse(resp)
	}
	if err := expectFunctionCode(resp, modbus.FuncCodeWriteMultipleRegisters); err != nil {
		return err
	}
	if len(resp.Data) != 4 {
		return &ByteCountMismatchError{Expected: 4, Got: len(resp.Data)}
	}

	address, err := DecodeUint16(resp.Data[0:2])
	if err != nil {
		return ErrPduTooShort
	}
	quantity, err := DecodeUint16(resp.Data[2:4])
	if err != nil {
		return ErrPduTooShort
	}
	if address != uint16(expectedAddress) {
		return &EchoMismatchError{Field: "address", Expected: uint16(expectedAddress), Got: address}
	}
	if quantity != uint16(expectedQuantity) {
		return &EchoMismatchError{Field: "quantity", Expected: uint16(expectedQuantity), Got: quantity}
	}
	return nil
}

// ParseReadWriteMultipleRegistersResponse parses a response PDU for
// read/write multiple registers: same byteCount(1)+data(N) envelope as a
// plain register read, sized to the read side of the request.
func ParseReadWriteMultipleRegistersResponse(resp *Response, expectedReadQuantity modbus.Quantity) ([]uint16, error) {
	if resp.IsException() {
		return nil, exceptionFromResponse(resp)
	}
	if err := checkByteCountEnvelope(resp, modbus.FuncCodeReadWriteMultipleRegs, int(expectedReadQuantity)*2); err != nil {
		return nil, err
	}
	return DecodeUint16Slice(resp.Data[1:])
}

// ParseMaskWriteRegisterResponse parses a response PDU for mask write
// register, which echoes the request's address, AND mask, and OR mask.
func ParseMaskWriteRegisterResponse(resp *Response, expectedAddress modbus.Address, expectedAndMask, expectedOrMask uint16) error {
	if resp.IsException() {
		return exceptionFromResponse(resp)
	}
	if err := expectFunctionCode(resp, modbus.FuncCodeMaskWriteRegister); err != nil {
		return err
	}
	if len(resp.Data) != 6 {
		return &ByteCountMismatchError{Expected: 6, Got: len(resp.Data)}
	}

	address, err := DecodeUint16(resp.Data[0:2])
	if err != nil {
		return ErrPduTooShort
	}
	andMask, err := DecodeUint16(resp.Data[2:4])
	if err != nil {
		return ErrPduTooShort
	}
	orMask, err := DecodeUint16(resp.Data[4:6])
	if err != nil {
		return ErrPduTooShort
	}
	if address != uint16(expectedAddress) {
		return &EchoMismatchError{Field: "address", Expected: uint16(expectedAddress), Got: address}
	}
	if andMask != expectedAndMask {
		return &EchoMismatchError{Field: "and_mask", Expected: expectedAndMask, Got: andMask}
	}
	if orMask != expectedOrMask {
		return &EchoMismatchError{Field: "or_mask", Expected: expectedOrMask, Got: orMask}
	}
	return nil
}

// ParseReadFIFOQueueResponse parses a response PDU for read FIFO queue:
// byteCount(2), fifoCount(2), values(N).
func ParseReadFIFOQueueResponse(resp *Response) ([]uint16, error) {
	if resp.IsException() {
		return nil, exceptionFromResponse(resp)
	}
	if err := expectFunctionCode(resp, modbus.FuncCodeReadFIFOQueue); err != nil {
		return nil, err
	}
	if len(resp.Data) < 4 {
		return nil, ErrPduTooShort
	}

	byteCount, err := DecodeUint16(resp.Data[0:2])
	if err != nil {
		return nil, ErrPduTooShort
	}
	if len(resp.Data) != int(byteCount)+2 {
		return nil, &ByteCountMismatchError{Expected: int(byteCount) + 2, Got: len(resp.Data)}
	}

	fifoCount, err := DecodeUint16(resp.Data[2:4])
	if err != nil {
		return nil, ErrPduTooShort
	}
	if fifoCount > modbus.MaxFIFOCount {
		return nil, &FIFOCountExceededError{Got: fifoCount, Max: modbus.MaxFIFOCount}
	}
	if fifoCount == 0 {
		return []uint16{}, nil
	}

	expectedDataBytes := int(fifoCount) * 2
	if len(resp.Data[4:]) != expectedDataBytes {
		return nil, &ByteCountMismatchError{Expected: expectedDataBytes, Got: len(resp.Data[4:])}
	}
	return DecodeUint16Slice(resp.Data[4:])
}

// ParseReadExceptionStatusResponse parses a response PDU for read exception
// status (serial line only): a single status byte.
func ParseReadExceptionStatusResponse(resp *Response) (uint8, error) {
	if resp.IsException() {
		return 0, exceptionFromResponse(resp)
	}
	if err := expectFunctionCode(resp, modbus.FuncCodeReadExceptionStatus); err != nil {
		return 0, err
	}
	if len(resp.Data) != 1 {
		return 0, &ByteCountMismatchError{Expected: 1, Got: len(resp.Data)}
	}
	return resp.Data[0], nil
}

// ParseDiagnosticResponse parses a response PDU for diagnostic function:
// subFunction(2), echoed data(N).
func ParseDiagnosticResponse(resp *Response) (uint16, []byte, error) {
	if resp.IsException() {
		return 0, nil, exceptionFromResponse(resp)
	}
	if err := expectFunctionCode(resp, modbus.FuncCodeDiagnostic); err != nil {
		return 0, nil, err
	}
	if len(resp.Data) < 2 {
		return 0, nil, ErrPduTooShort
	}

	subFunction, err := DecodeUint16(resp.Data[0:2])
	if err != nil {
		return 0, nil, ErrPduTooShort
	}

	data := make([]byte, len(resp.Data)-2)
	copy(data, resp.Data[2:])
	return subFunction, data, nil
}

// ParseReadDeviceIdentificationResponse parses a response PDU for read device identification
func ParseReadDeviceIdentificationResponse(resp *Response) (*modbus.DeviceIdentification, bool, uint8, error) {
	if resp.IsException() {
		return nil, false, 0, exceptionFromResponse(resp)
	}
	if err := expectFunctionCode(resp, modbus.FuncCodeEncapsulatedInterface); err != nil {
		return nil, false, 0, err
	}

	if len(resp.Data) < 6 {
		return nil, false, 0, ErrPduTooShort
	}

	meiType := resp.Data[0]
	if meiType != modbus.MEITypeDeviceIdentification {
		return nil, false, 0, &InvalidMEITypeError{Got: meiType}
	}

	_ = resp.Data[1] // readDevIDCode - not used in response parsing
	conformityLevel := resp.Data[2]
	moreFollows := resp.Data[3] != 0x00
	nextObjectID := resp.Data[4]
	numberOfObjects := resp.Data[5]

	deviceID := &modbus.DeviceIdentification{
		ConformityLevel: conformityLevel,
	}

	offset := 6
	for i := uint8(0); i < numberOfObjects && offset < len(resp.Data); i++ {
		if offset+2 >= len(resp.Data) {
			break
		}

		objectID := resp.Data[offset]
		objectLength := resp.Data[offset+1]
		offset += 2

		if offset+int(objectLength) > len(resp.Data) {
			break
		}

		objectValue := string(resp.Data[offset : offset+int(objectLength)])
		offset += int(objectLength)

		switch objectID {
		case modbus.DeviceIDVendorName:
			deviceID.VendorName = objectValue
		case modbus.DeviceIDProductCode:
			deviceID.ProductCode = objectValue
		case modbus.DeviceIDMajorMinorRevision:
			deviceID.MajorMinorRevision = objectValue
		case modbus.DeviceIDVendorURL:
			deviceID.VendorURL = objectValue
		case modbus.DeviceIDProductName:
			deviceID.ProductName = objectValue
		case modbus.DeviceIDModelName:
			deviceID.ModelName = objectValue
		case modbus.DeviceIDUserAppName:
			deviceID.UserApplicationName = objectValue
		}
	}

	return deviceID, moreFollows, nextObjectID, nil
}

// ParseReportServerIDResponse parses a response PDU for report server ID
// (serial line only): byteCount(1), identifier(N), status(1: 0xFF=ON).
func ParseReportServerIDResponse(resp *Response) (id []byte, run bool, err error) {
	if resp.IsException() {
		return nil, false, exceptionFromResponse(resp)
	}
	if err := expectFunctionCode(resp, modbus.FuncCodeReportServerID); err != nil {
		return nil, false, err
	}
	byteCount, err := wire.Uint8(resp.Data, 0)
	if err != nil {
		return nil, false, ErrPduTooShort
	}
	// byteCount covers identifier + status byte.
	if len(resp.Data) != 1+int(byteCount) {
		return nil, false, &ByteCountMismatchError{Expected: 1 + int(byteCount), Got: len(resp.Data)}
	}
	if byteCount < 1 {
		return nil, false, ErrPduTooShort
	}
	identifier := make([]byte, byteCount-1)
	copy(identifier, resp.Data[1:1+int(byteCount)-1])
	status := resp.Data[int(byteCount)]
	return identifier, status == 0xFF, nil
}

// ParseGetCommEventCounterResponse parses a response PDU for get comm event
// counter (serial line only): status(2), count(2).
func ParseGetCommEventCounterResponse(resp *Response) (status uint16, eventCount uint16, err error) {
	if resp.IsException() {
		return 0, 0, exceptionFromResponse(resp)
	}
	if err := expectFunctionCode(resp, modbus.FuncCodeGetCommEventCounter); err != nil {
		return 0, 0, err
	}
	if len(resp.Data) != 4 {
		return 0, 0, ErrPduTooShort
	}
	status, err = DecodeUint16(resp.Data[0:2])
	if err != nil {
		return 0, 0, err
	}
	eventCount, err = DecodeUint16(resp.Data[2:4])
	if err != nil {
		return 0, 0, err
	}
	return status, eventCount, nil
}

// ParseGetCommEventLogResponse parses a response PDU for get comm event log
// (serial line only): byteCount(1), status(2), eventCount(2), msgCount(2),
// events(N).
func ParseGetCommEventLogResponse(resp *Response) (status, eventCount, msgCount uint16, events []byte, err error) {
	if resp.IsException() {
		return 0, 0, 0, nil, exceptionFromResponse(resp)
	}
	if err := expectFunctionCode(resp, modbus.FuncCodeGetCommEventLog); err != nil {
		return 0, 0, 0, nil, err
	}
	byteCount, err := wire.Uint8(resp.Data, 0)
	if err != nil {
		return 0, 0, 0, nil, ErrPduTooShort
	}
	if len(resp.Data) != 1+int(byteCount) {
		return 0, 0, 0, nil, &ByteCountMismatchError{Expected: 1 + int(byteCount), Got: len(resp.Data)}
	}
	if byteCount < 6 {
		return 0, 0, 0, nil, ErrPduTooShort
	}
	status, err = DecodeUint16(resp.Data[1:3])
	if err != nil {
		return 0, 0, 0, nil, err
	}
	eventCount, err = DecodeUint16(resp.Data[3:5])
	if err != nil {
		return 0, 0, 0, nil, err
	}
	msgCount, err = DecodeUint16(resp.Data[5:7])
	if err != nil {
		return 0, 0, 0, nil, err
	}
	events = make([]byte, int(byteCount)-6)
	copy(events, resp.Data[7:1+int(byteCount)])
	return status, eventCount, msgCount, events, nil
}

// FileRecordResponseEntry is one sub-response within a read-file-record
// response PDU.
type FileRecordResponseEntry struct {
	ReferenceType byte
	Data          []byte
}

// ParseReadFileRecordResponse parses a response PDU for read file record:
// dataLen(1), N x {respLen(1), refType(1), data}. Any sub-response whose
// declared length runs past the remaining buffer fails PduTooShort.
func ParseReadFileRecordResponse(resp *Response) ([]FileRecordResponseEntry, error) {
	if resp.IsException() {
		return nil, exceptionFromResponse(resp)
	}
	if err := expectFunctionCode(resp, modbus.FuncCodeReadFileRecord); err != nil {
		return nil, err
	}
	dataLen, err := wire.Uint8(resp.Data, 0)
	if err != nil {
		return nil, ErrPduTooShort
	}
	if len(resp.Data) != 1+int(dataLen) {
		return nil, &ByteCountMismatchError{Expected: 1 + int(dataLen), Got: len(resp.Data)}
	}

	var entries []FileRecordResponseEntry
	body := resp.Data[1 : 1+int(dataLen)]
	off := 0
	for off < len(body) {
		if off+2 > len(body) {
			return nil, ErrPduTooShort
		}
		respLen := int(body[off])
		refType := body[off+1]
		// respLen covers refType + data, per the MODBUS application protocol.
		dataSpan := respLen - 1
		if dataSpan < 0 || off+2+dataSpan > len(body) {
			return nil, ErrPduTooShort
		}
		if refType != modbus.FileRecordTypeExtended {
			return nil, &InvalidFileReferenceTypeError{Got: refType}
		}
		data := make([]byte, dataSpan)
		copy(data, body[off+2:off+2+dataSpan])
		entries = append(entries, FileRecordResponseEntry{ReferenceType: refType, Data: data})
		off += 2 + dataSpan
	}
	return entries, nil
}

// ParseWriteFileRecordResponse parses a response PDU for write file record,
// which echoes the request: dataLen(1), N x {refType=0x06, fileNo(2),
// recNo(2), recLen(2), data}.
func ParseWriteFileRecordResponse(resp *Response, request *Request) error {
	if resp.IsException() {
		return exceptionFromResponse(resp)
	}
	if err := expectFunctionCode(resp, modbus.FuncCodeWriteFileRecord); err != nil {
		return err
	}
	if len(resp.Data) != len(request.Data) {
		return &ByteCountMismatchError{Expected: len(request.Data), Got: len(resp.Data)}
	}
	for i := range resp.Data {
		if resp.Data[i] != request.Data[i] {
			return fmt.Errorf("pdu: write file record response does not echo request at offset %d", i)
		}
	}
	return nil
}
