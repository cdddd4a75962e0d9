// Package modbus holds the wire-level vocabulary shared by the pdu,
// transport, and config packages: typed addressing primitives, the function
// and exception code tables from the MODBUS Application Protocol
// specification, and the handful of structs (device identification,
// file records, diagnostic counters) that cross those package boundaries.
package modbus

import "fmt"

// SlaveID identifies the unit a request targets: the RTU/ASCII slave address
// on a serial line, or the "unit identifier" MBAP header field over
// TCP/TLS/UDP. 0 is reserved for broadcast.
type SlaveID uint8

// Address is a zero-based MODBUS data-table address (coil, discrete input,
// holding register, or input register).
type Address uint16

// Quantity counts how many coils or registers a request reads or writes.
type Quantity uint16

// FunctionCode identifies the operation a PDU requests, with the high bit
// set on an exception response.
type FunctionCode uint8

// ExceptionCode is the single-byte payload of an exception response.
type ExceptionCode uint8

// IsException reports whether fc has the exception bit (0x80) set.
func (fc FunctionCode) IsException() bool { return fc&0x80 != 0 }

// ToException sets the exception bit on fc.
func (fc FunctionCode) ToException() FunctionCode { return fc | 0x80 }

// FromException clears the exception bit on fc.
func (fc FunctionCode) FromException() FunctionCode { return fc &^ 0x80 }

var functionCodeNames = map[FunctionCode]string{
	FuncCodeReadCoils:              "ReadCoils",
	FuncCodeReadDiscreteInputs:     "ReadDiscreteInputs",
	FuncCodeReadHoldingRegisters:   "ReadHoldingRegisters",
	FuncCodeReadInputRegisters:     "ReadInputRegisters",
	FuncCodeWriteSingleCoil:        "WriteSingleCoil",
	FuncCodeWriteSingleRegister:    "WriteSingleRegister",
	FuncCodeReadExceptionStatus:    "ReadExceptionStatus",
	FuncCodeDiagnostic:             "Diagnostic",
	FuncCodeGetCommEventCounter:    "GetCommEventCounter",
	FuncCodeGetCommEventLog:        "GetCommEventLog",
	FuncCodeWriteMultipleCoils:     "WriteMultipleCoils",
	FuncCodeWriteMultipleRegisters: "WriteMultipleRegisters",
	FuncCodeReportServerID:         "ReportServerID",
	FuncCodeReadFileRecord:         "ReadFileRecord",
	FuncCodeWriteFileRecord:        "WriteFileRecord",
	FuncCodeMaskWriteRegister:      "MaskWriteRegister",
	FuncCodeReadWriteMultipleRegs:  "ReadWriteMultipleRegisters",
	FuncCodeReadFIFOQueue:          "ReadFIFOQueue",
	FuncCodeEncapsulatedInterface:  "EncapsulatedInterface",
}

// String renders fc by name where known, falling back to a hex form for an
// exception or an unrecognized code.
func (fc FunctionCode) String() string {
	if fc.IsException() {
		return fmt.Sprintf("Exception(%02x)", uint8(fc.FromException()))
	}
	if name, ok := functionCodeNames[fc]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%02x)", uint8(fc))
}

var exceptionCodeNames = map[ExceptionCode]string{
	ExceptionCodeIllegalFunction:     "IllegalFunction",
	ExceptionCodeIllegalDataAddress:  "IllegalDataAddress",
	ExceptionCodeIllegalDataValue:    "IllegalDataValue",
	ExceptionCodeServerDeviceFailure: "ServerDeviceFailure",
	ExceptionCodeAcknowledge:         "Acknowledge",
	ExceptionCodeServerDeviceBusy:    "ServerDeviceBusy",
	ExceptionCodeNegativeAcknowledge: "NegativeAcknowledge",
	ExceptionCodeMemoryParityError:   "MemoryParityError",
	ExceptionCodeGatewayPathUnavail:  "GatewayPathUnavailable",
	ExceptionCodeGatewayTargetFail:   "GatewayTargetDeviceFailedToRespond",
}

// String renders ec by name where known, falling back to a hex form.
func (ec ExceptionCode) String() string {
	if name, ok := exceptionCodeNames[ec]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%02x)", uint8(ec))
}

// Error lets an ExceptionCode satisfy the error interface directly, for
// callers that want to compare against it without unwrapping a ModbusError.
func (ec ExceptionCode) Error() string {
	return fmt.Sprintf("MODBUS Exception %02x: %s", uint8(ec), ec.String())
}

// ModbusError pairs the function and exception codes a server returned with
// an optional human-readable note.
type ModbusError struct {
	FunctionCode  FunctionCode
	ExceptionCode ExceptionCode
	Message       string
}

func (e *ModbusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("MODBUS Error [%s]: %s - %s", e.FunctionCode, e.ExceptionCode, e.Message)
	}
	return fmt.Sprintf("MODBUS Error [%s]: %s", e.FunctionCode, e.ExceptionCode)
}

// NewModbusError builds a ModbusError from its three parts.
func NewModbusError(fc FunctionCode, ec ExceptionCode, message string) *ModbusError {
	return &ModbusError{FunctionCode: fc, ExceptionCode: ec, Message: message}
}

// TransportType names the physical/transport-layer carrier a connection
// uses. Distinct from config.TransportKind, which additionally carries the
// dial parameters for each: this is purely the wire identity a Transport
// implementation reports about itself.
type TransportType int

const (
	TransportTCP TransportType = iota
	TransportTLS
	TransportUDP
	TransportRTU
	TransportRTUOverTCP
	TransportASCII
)

func (tt TransportType) String() string {
	switch tt {
	case TransportTCP:
		return "TCP"
	case TransportTLS:
		return "TLS"
	case TransportUDP:
		return "UDP"
	case TransportRTU:
		return "RTU"
	case TransportRTUOverTCP:
		return "RTUOverTCP"
	case TransportASCII:
		return "ASCII"
	default:
		return "Unknown"
	}
}

// DeviceIdentification collects the vendor-supplied object strings returned
// by a read device identification request (FC 0x2B/0x0E).
type DeviceIdentification struct {
	VendorName          string
	ProductCode         string
	MajorMinorRevision  string
	VendorURL           string
	ProductName         string
	ModelName           string
	UserApplicationName string
	ConformityLevel     uint8
}

// FileRecord is one sub-request or sub-response entry within a read/write
// file record PDU (FC 0x14/0x15).
type FileRecord struct {
	ReferenceType uint8
	FileNumber    uint16
	RecordNumber  uint16
	RecordLength  uint16
	RecordData    []uint16
}

// DiagnosticData mirrors the eight bus/server counters a get comm event log
// or comparable diagnostic query returns on a serial line.
type DiagnosticData struct {
	BusMessageCount     uint16
	BusCommErrorCount   uint16
	BusExceptionCount   uint16
	ServerMessageCount  uint16
	ServerNoRespCount   uint16
	ServerNAKCount      uint16
	ServerBusyCount     uint16
	BusCharOverrunCount uint16
}

// Function codes, grouped by the data table they address rather than by
// numeric value: bit-addressed objects (coils, discrete inputs), then
// register-addressed objects, then the serial-line-only diagnostic codes,
// then file/FIFO access, then the encapsulated-interface transport used by
// device identification.
const (
	FuncCodeReadCoils          FunctionCode = 0x01
	FuncCodeReadDiscreteInputs FunctionCode = 0x02
	FuncCodeWriteSingleCoil    FunctionCode = 0x05
	FuncCodeWriteMultipleCoils FunctionCode = 0x0F

	FuncCodeReadHoldingRegisters   FunctionCode = 0x03
	FuncCodeReadInputRegisters     FunctionCode = 0x04
	FuncCodeWriteSingleRegister    FunctionCode = 0x06
	FuncCodeWriteMultipleRegisters FunctionCode = 0x10
	FuncCodeMaskWriteRegister      FunctionCode = 0x16
	FuncCodeReadWriteMultipleRegs  FunctionCode = 0x17

	FuncCodeReadExceptionStatus FunctionCode = 0x07
	FuncCodeDiagnostic          FunctionCode = 0x08
	FuncCodeGetCommEventCounter FunctionCode = 0x0B
	FuncCodeGetCommEventLog     FunctionCode = 0x0C
	FuncCodeReportServerID      FunctionCode = 0x11

	FuncCodeReadFileRecord  FunctionCode = 0x14
	FuncCodeWriteFileRecord FunctionCode = 0x15
	FuncCodeReadFIFOQueue   FunctionCode = 0x18

	FuncCodeEncapsulatedInterface FunctionCode = 0x2B
)

// Exception codes, per MODBUS Application Protocol V1.1b3 §7. 0x07
// (NegativeAcknowledge) covers a program-function request the server
// understood but cannot perform right now, distinct from 0x06
// (ServerDeviceBusy, a transient busy condition).
const (
	ExceptionCodeIllegalFunction     ExceptionCode = 0x01
	ExceptionCodeIllegalDataAddress  ExceptionCode = 0x02
	ExceptionCodeIllegalDataValue    ExceptionCode = 0x03
	ExceptionCodeServerDeviceFailure ExceptionCode = 0x04
	ExceptionCodeAcknowledge         ExceptionCode = 0x05
	ExceptionCodeServerDeviceBusy    ExceptionCode = 0x06
	ExceptionCodeNegativeAcknowledge ExceptionCode = 0x07
	ExceptionCodeMemoryParityError   ExceptionCode = 0x08
	ExceptionCodeGatewayPathUnavail  ExceptionCode = 0x0A
	ExceptionCodeGatewayTargetFail   ExceptionCode = 0x0B
)

// Encapsulated interface MEI types (FC 0x2B's first data byte).
const (
	MEITypeCANopenGeneralReference = 0x0D
	MEITypeDeviceIdentification    = 0x0E
)

// Read device identification access codes (request byte following the MEI
// type) and the standard object IDs every device must support (0x00-0x02)
// plus the optional regular-category ones (0x03-0x06).
const (
	DeviceIDReadBasic    = 0x01
	DeviceIDReadRegular  = 0x02
	DeviceIDReadExtended = 0x03
	DeviceIDReadSpecific = 0x04

	DeviceIDVendorName         = 0x00
	DeviceIDProductCode        = 0x01
	DeviceIDMajorMinorRevision = 0x02
	DeviceIDVendorURL          = 0x03
	DeviceIDProductName        = 0x04
	DeviceIDModelName          = 0x05
	DeviceIDUserAppName        = 0x06
)

// Conformity level values a device reports alongside its identification
// objects; "stream" levels allow a multi-packet response, "individual"
// levels restrict a request to one object at a time.
const (
	ConformityLevelBasicStream        = 0x01
	ConformityLevelRegularStream      = 0x02
	ConformityLevelExtendedStream     = 0x03
	ConformityLevelBasicIndividual    = 0x81
	ConformityLevelRegularIndividual  = 0x82
	ConformityLevelExtendedIndividual = 0x83
)

// Protocol size and quantity ceilings from MODBUS Application Protocol
// V1.1b3 §4.3/§6.
const (
	MaxPDUSize       = 253
	MaxTCPADUSize    = 260
	MaxSerialADUSize = 256

	MaxReadCoils            = 2000
	MaxReadDiscreteInputs   = 2000
	MaxReadHoldingRegs      = 125
	MaxReadInputRegs        = 125
	MaxWriteMultipleCoils   = 1968 // 0x7B0
	MaxWriteMultipleRegs    = 123  // 0x7B
	MaxReadWriteRegs        = 125  // read side of FC 0x17
	MaxWriteReadWriteRegs   = 121  // write side of FC 0x17
	MaxReadFileRecordBytes  = 245  // 0xF5
	MaxWriteFileRecordBytes = 251  // 0xFB
	MaxFIFOCount            = 31
)

// MBAP (MODBUS Application Protocol) header constants for TCP/TLS framing.
const (
	MBAPHeaderSize = 7
	MBAPProtocolID = 0x0000
	TCPDefaultPort = 502
)

// Diagnostic (FC 0x08) sub-function codes, serial-line only.
const (
	DiagSubReturnQueryData           = 0x0000
	DiagSubRestartCommOption         = 0x0001
	DiagSubReturnDiagRegister        = 0x0002
	DiagSubChangeASCIIDelimiter      = 0x0003
	DiagSubForceListenOnlyMode       = 0x0004
	DiagSubClearCounters             = 0x000A
	DiagSubReturnBusMessageCount     = 0x000B
	DiagSubReturnBusCommErrorCount   = 0x000C
	DiagSubReturnBusExceptionCount   = 0x000D
	DiagSubReturnServerMessageCount  = 0x000E
	DiagSubReturnServerNoRespCount   = 0x000F
	DiagSubReturnServerNAKCount      = 0x0010
	DiagSubReturnServerBusyCount     = 0x0011
	DiagSubReturnBusCharOverrunCount = 0x0012
	DiagSubClearOverrunCounter       = 0x0014
)

// Coil values as they appear on the wire: a coil write request/response
// carries one of these two 16-bit patterns, never a bare 0/1.
const (
	CoilOn  = 0xFF00
	CoilOff = 0x0000
)

// FileRecordTypeExtended is the only reference type FC 0x14/0x15 define.
const (
	FileRecordTypeExtended = 0x06
)

// Address bounds for a 16-bit data table.
const (
	MinAddress = 0x0000
	MaxAddress = 0xFFFF
)

// Default timeouts, in milliseconds, used where a caller hasn't configured
// its own (see config.DefaultRequestTimeout/DefaultConnectTimeout for the
// time.Duration equivalents the client actually runs with).
const (
	DefaultResponseTimeout = 1000
	DefaultConnectTimeout  = 5000
)
