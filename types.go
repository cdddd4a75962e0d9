package modbus

import (
	"github.com/scadalink/modbus/modbus"
)

// Re-export types from the modbus package so callers need only import the
// root package for everyday use.
type (
	SlaveID              = modbus.SlaveID
	Address              = modbus.Address
	Quantity             = modbus.Quantity
	FunctionCode         = modbus.FunctionCode
	ExceptionCode        = modbus.ExceptionCode
	ModbusError          = modbus.ModbusError
	TransportType        = modbus.TransportType
	DeviceIdentification = modbus.DeviceIdentification
	FileRecord           = modbus.FileRecord
	DiagnosticData       = modbus.DiagnosticData
)

// Re-export constants from the modbus package.
const (
	// Function codes
	FuncCodeReadCoils              = modbus.FuncCodeReadCoils
	FuncCodeReadDiscreteInputs     = modbus.FuncCodeReadDiscreteInputs
	FuncCodeReadHoldingRegisters   = modbus.FuncCodeReadHoldingRegisters
	FuncCodeReadInputRegisters     = modbus.FuncCodeReadInputRegisters
	FuncCodeWriteSingleCoil        = modbus.FuncCodeWriteSingleCoil
	FuncCodeWriteSingleRegister    = modbus.FuncCodeWriteSingleRegister
	FuncCodeReadExceptionStatus    = modbus.FuncCodeReadExceptionStatus
	FuncCodeDiagnostic             = modbus.FuncCodeDiagnostic
	FuncCodeGetCommEventCounter    = modbus.FuncCodeGetCommEventCounter
	FuncCodeGetCommEventLog        = modbus.FuncCodeGetCommEventLog
	FuncCodeWriteMultipleCoils     = modbus.FuncCodeWriteMultipleCoils
	FuncCodeWriteMultipleRegisters = modbus.FuncCodeWriteMultipleRegisters
	FuncCodeReportServerID         = modbus.FuncCodeReportServerID
	FuncCodeReadFileRecord         = modbus.FuncCodeReadFileRecord
	FuncCodeWriteFileRecord        = modbus.FuncCodeWriteFileRecord
	FuncCodeMaskWriteRegister      = modbus.FuncCodeMaskWriteRegister
	FuncCodeReadWriteMultipleRegs  = modbus.FuncCodeReadWriteMultipleRegs
	FuncCodeReadFIFOQueue          = modbus.FuncCodeReadFIFOQueue
	FuncCodeEncapsulatedInterface  = modbus.FuncCodeEncapsulatedInterface

	// Exception codes
	ExceptionCodeIllegalFunction     = modbus.ExceptionCodeIllegalFunction
	ExceptionCodeIllegalDataAddress  = modbus.ExceptionCodeIllegalDataAddress
	ExceptionCodeIllegalDataValue    = modbus.ExceptionCodeIllegalDataValue
	ExceptionCodeServerDeviceFailure = modbus.ExceptionCodeServerDeviceFailure
	ExceptionCodeAcknowledge         = modbus.ExceptionCodeAcknowledge
	ExceptionCodeServerDeviceBusy    = modbus.ExceptionCodeServerDeviceBusy
	ExceptionCodeNegativeAcknowledge = modbus.ExceptionCodeNegativeAcknowledge
	ExceptionCodeMemoryParityError   = modbus.ExceptionCodeMemoryParityError
	ExceptionCodeGatewayPathUnavail  = modbus.ExceptionCodeGatewayPathUnavail
	ExceptionCodeGatewayTargetFail   = modbus.ExceptionCodeGatewayTargetFail

	// Coil values
	CoilOff = modbus.CoilOff
	CoilOn  = modbus.CoilOn

	// Transport types
	TransportTCP        = modbus.TransportTCP
	TransportTLS        = modbus.TransportTLS
	TransportUDP        = modbus.TransportUDP
	TransportRTU        = modbus.TransportRTU
	TransportRTUOverTCP = modbus.TransportRTUOverTCP
	TransportASCII      = modbus.TransportASCII

	// Broadcast unit id: writeable function codes addressed here get no
	// reply (Modbus spec §4.1.1).
	BroadcastAddress = modbus.SlaveID(0)

	// Other constants
	DefaultResponseTimeout      = modbus.DefaultResponseTimeout
	ConformityLevelBasicStream  = modbus.ConformityLevelBasicStream
	MEITypeDeviceIdentification = modbus.MEITypeDeviceIdentification
	DeviceIDVendorName          = modbus.DeviceIDVendorName
	DeviceIDProductCode         = modbus.DeviceIDProductCode
	DeviceIDMajorMinorRevision  = modbus.DeviceIDMajorMinorRevision

	// Device ID Read Codes
	DeviceIDReadBasic    = modbus.DeviceIDReadBasic
	DeviceIDReadRegular  = modbus.DeviceIDReadRegular
	DeviceIDReadExtended = modbus.DeviceIDReadExtended
	DeviceIDReadSpecific = modbus.DeviceIDReadSpecific
)

// NewModbusError re-exports modbus.NewModbusError.
var NewModbusError = modbus.NewModbusError
