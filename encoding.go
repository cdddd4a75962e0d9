package modbus

import (
	"encoding/binary"
	"math"

	"github.com/scadalink/modbus/modbus"
)

// Endianness selects how the two bytes within a single register are ordered
// on the wire. MODBUS registers are always transmitted big-endian at the PDU
// level (§3); Endianness governs how this package re-assembles the
// *register's own* byte pair when a device's application layer disagrees
// with that convention, which is common enough in the field that most
// Modbus client libraries carry a per-field override for it.
type Endianness int

const (
	// BigEndian treats each register's high byte as transmitted first,
	// matching the wire order of the MODBUS PDU itself.
	BigEndian Endianness = iota
	// LittleEndian swaps each register's two bytes after transport decode.
	LittleEndian
)

// WordOrder selects which register of a multi-register value holds the most
// significant bits. Devices that expose 32/64-bit values across consecutive
// registers disagree on this at least as often as they disagree on
// Endianness, so the two are tracked independently rather than folded into
// one "byte order" setting.
type WordOrder int

const (
	// HighWordFirst stores the most significant register at the lower
	// address, the default assumed by most MODBUS masters.
	HighWordFirst WordOrder = iota
	// LowWordFirst stores the least significant register at the lower
	// address.
	LowWordFirst
)

// EncodingConfig pairs an Endianness and WordOrder; a Client holds one and
// applies it to every typed register helper below.
type EncodingConfig struct {
	ByteOrder Endianness
	WordOrder WordOrder
}

// DefaultEncodingConfig is MODBUS's own wire convention: big-endian bytes,
// high word first.
func DefaultEncodingConfig() *EncodingConfig {
	return &EncodingConfig{ByteOrder: BigEndian, WordOrder: HighWordFirst}
}

// SetEncoding overrides the client's register codec for every subsequent
// typed read/write. It does not affect in-flight requests.
func (c *Client) SetEncoding(byteOrder Endianness, wordOrder WordOrder) {
	c.encoding = &EncodingConfig{ByteOrder: byteOrder, WordOrder: wordOrder}
}

// GetEncoding returns the client's active register codec, lazily defaulting
// it if SetEncoding was never called.
func (c *Client) GetEncoding() *EncodingConfig {
	if c.encoding == nil {
		c.encoding = DefaultEncodingConfig()
	}
	return c.encoding
}

// NoValueReturnedError reports a single-value read helper (ReadCoil,
// ReadHoldingRegister, ...) whose underlying multi-value read returned zero
// elements without an error — a transport contract violation, since a
// quantity-1 request that doesn't error must return exactly one value.
type NoValueReturnedError struct{ Kind string }

func (e *NoValueReturnedError) Error() string {
	return "modbus: no " + e.Kind + " value returned"
}

// --- Single-value convenience reads ---
//
// Each wraps the corresponding quantity-N read with N fixed at 1, trading a
// one-element slice for a scalar return.

func (c *Client) ReadCoil(address modbus.Address) (bool, error) {
	values, err := c.ReadCoils(address, 1)
	if err != nil {
		return false, err
	}
	if len(values) == 0 {
		return false, &NoValueReturnedError{Kind: "coil"}
	}
	return values[0], nil
}

func (c *Client) ReadDiscreteInput(address modbus.Address) (bool, error) {
	values, err := c.ReadDiscreteInputs(address, 1)
	if err != nil {
		return false, err
	}
	if len(values) == 0 {
		return false, &NoValueReturnedError{Kind: "discrete input"}
	}
	return values[0], nil
}

func (c *Client) ReadHoldingRegister(address modbus.Address) (uint16, error) {
	values, err := c.ReadHoldingRegisters(address, 1)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, &NoValueReturnedError{Kind: "holding register"}
	}
	return values[0], nil
}

func (c *Client) ReadInputRegister(address modbus.Address) (uint16, error) {
	values, err := c.ReadInputRegisters(address, 1)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, &NoValueReturnedError{Kind: "input register"}
	}
	return values[0], nil
}

// --- Wide-value codec core ---
//
// Every 32/64-bit helper below reduces to assembling/splitting a slice of
// registers through these two primitives, so WordOrder and Endianness are
// each applied in exactly one place.

// wordsToWide folds a register slice (already in transmission order) into a
// wide unsigned integer, honoring the client's word order and per-register
// byte order.
func wordsToWide(enc *EncodingConfig, regs []uint16) uint64 {
	n := len(regs)
	var wide uint64
	for i := 0; i < n; i++ {
		idx := i
		if enc.WordOrder == LowWordFirst {
			idx = n - 1 - i
		}
		word := regs[idx]
		if enc.ByteOrder == LittleEndian {
			word = (word >> 8) | (word << 8)
		}
		shift := uint(n-1-i) * 16
		wide |= uint64(word) << shift
	}
	return wide
}

// wideToWords splits a wide unsigned integer of the given register width
// back into wire-order registers, honoring the client's word order and
// per-register byte order — the inverse of wordsToWide.
func wideToWords(enc *EncodingConfig, wide uint64, n int) []uint16 {
	regs := make([]uint16, n)
	for i := 0; i < n; i++ {
		shift := uint(n-1-i) * 16
		word := uint16(wide >> shift)
		if enc.ByteOrder == LittleEndian {
			word = (word >> 8) | (word << 8)
		}
		idx := i
		if enc.WordOrder == LowWordFirst {
			idx = n - 1 - i
		}
		regs[idx] = word
	}
	return regs
}

// --- 32-bit integer operations ---

func (c *Client) ReadUint32(address modbus.Address) (uint32, error) {
	values, err := c.ReadHoldingRegisters(address, 2)
	if err != nil {
		return 0, err
	}
	return uint32(wordsToWide(c.GetEncoding(), values)), nil
}

func (c *Client) ReadUint32s(address modbus.Address, quantity uint16) ([]uint32, error) {
	values, err := c.ReadHoldingRegisters(address, modbus.Quantity(quantity*2))
	if err != nil {
		return nil, err
	}
	enc := c.GetEncoding()
	result := make([]uint32, quantity)
	for i := uint16(0); i < quantity; i++ {
		result[i] = uint32(wordsToWide(enc, values[i*2:i*2+2]))
	}
	return result, nil
}

func (c *Client) ReadInt32(address modbus.Address) (int32, error) {
	val, err := c.ReadUint32(address)
	return int32(val), err
}

func (c *Client) ReadInt32s(address modbus.Address, quantity uint16) ([]int32, error) {
	values, err := c.ReadUint32s(address, quantity)
	if err != nil {
		return nil, err
	}
	result := make([]int32, len(values))
	for i, v := range values {
		result[i] = int32(v)
	}
	return result, nil
}

func (c *Client) WriteUint32(address modbus.Address, value uint32) error {
	return c.WriteMultipleRegisters(address, wideToWords(c.GetEncoding(), uint64(value), 2))
}

func (c *Client) WriteUint32s(address modbus.Address, values []uint32) error {
	enc := c.GetEncoding()
	regs := make([]uint16, 0, len(values)*2)
	for _, v := range values {
		regs = append(regs, wideToWords(enc, uint64(v), 2)...)
	}
	return c.WriteMultipleRegisters(address, regs)
}

func (c *Client) WriteInt32(address modbus.Address, value int32) error {
	return c.WriteUint32(address, uint32(value))
}

func (c *Client) WriteInt32s(address modbus.Address, values []int32) error {
	uvals := make([]uint32, len(values))
	for i, v := range values {
		uvals[i] = uint32(v)
	}
	return c.WriteUint32s(address, uvals)
}

func (c *Client) ReadInputUint32(address modbus.Address) (uint32, error) {
	values, err := c.ReadInputRegisters(address, 2)
	if err != nil {
		return 0, err
	}
	return uint32(wordsToWide(c.GetEncoding(), values)), nil
}

func (c *Client) ReadInputUint32s(address modbus.Address, quantity uint16) ([]uint32, error) {
	values, err := c.ReadInputRegisters(address, modbus.Quantity(quantity*2))
	if err != nil {
		return nil, err
	}
	enc := c.GetEncoding()
	result := make([]uint32, quantity)
	for i := uint16(0); i < quantity; i++ {
		result[i] = uint32(wordsToWide(enc, values[i*2:i*2+2]))
	}
	return result, nil
}

// --- 64-bit integer operations ---

func (c *Client) ReadUint64(address modbus.Address) (uint64, error) {
	values, err := c.ReadHoldingRegisters(address, 4)
	if err != nil {
		return 0, err
	}
	return wordsToWide(c.GetEncoding(), values), nil
}

func (c *Client) ReadUint64s(address modbus.Address, quantity uint16) ([]uint64, error) {
	values, err := c.ReadHoldingRegisters(address, modbus.Quantity(quantity*4))
	if err != nil {
		return nil, err
	}
	enc := c.GetEncoding()
	result := make([]uint64, quantity)
	for i := uint16(0); i < quantity; i++ {
		result[i] = wordsToWide(enc, values[i*4:i*4+4])
	}
	return result, nil
}

func (c *Client) ReadInt64(address modbus.Address) (int64, error) {
	val, err := c.ReadUint64(address)
	return int64(val), err
}

func (c *Client) ReadInt64s(address modbus.Address, quantity uint16) ([]int64, error) {
	values, err := c.ReadUint64s(address, quantity)
	if err != nil {
		return nil, err
	}
	result := make([]int64, len(values))
	for i, v := range values {
		result[i] = int64(v)
	}
	return result, nil
}

func (c *Client) WriteUint64(address modbus.Address, value uint64) error {
	return c.WriteMultipleRegisters(address, wideToWords(c.GetEncoding(), value, 4))
}

func (c *Client) WriteUint64s(address modbus.Address, values []uint64) error {
	enc := c.GetEncoding()
	regs := make([]uint16, 0, len(values)*4)
	for _, v := range values {
		regs = append(regs, wideToWords(enc, v, 4)...)
	}
	return c.WriteMultipleRegisters(address, regs)
}

func (c *Client) WriteInt64(address modbus.Address, value int64) error {
	return c.WriteUint64(address, uint64(value))
}

func (c *Client) WriteInt64s(address modbus.Address, values []int64) error {
	uvals := make([]uint64, len(values))
	for i, v := range values {
		uvals[i] = uint64(v)
	}
	return c.WriteUint64s(address, uvals)
}

// --- Float operations ---
//
// IEEE 754 floats ride the same wide-integer codec; only the final
// bits<->float reinterpretation differs from the integer helpers.

func (c *Client) ReadFloat32(address modbus.Address) (float32, error) {
	val, err := c.ReadUint32(address)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(val), nil
}

func (c *Client) ReadFloat32s(address modbus.Address, quantity uint16) ([]float32, error) {
	values, err := c.ReadUint32s(address, quantity)
	if err != nil {
		return nil, err
	}
	result := make([]float32, len(values))
	for i, v := range values {
		result[i] = math.Float32frombits(v)
	}
	return result, nil
}

func (c *Client) WriteFloat32(address modbus.Address, value float32) error {
	return c.WriteUint32(address, math.Float32bits(value))
}

func (c *Client) WriteFloat32s(address modbus.Address, values []float32) error {
	uvals := make([]uint32, len(values))
	for i, v := range values {
		uvals[i] = math.Float32bits(v)
	}
	return c.WriteUint32s(address, uvals)
}

func (c *Client) ReadInputFloat32(address modbus.Address) (float32, error) {
	val, err := c.ReadInputUint32(address)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(val), nil
}

func (c *Client) ReadInputFloat32s(address modbus.Address, quantity uint16) ([]float32, error) {
	values, err := c.ReadInputUint32s(address, quantity)
	if err != nil {
		return nil, err
	}
	result := make([]float32, len(values))
	for i, v := range values {
		result[i] = math.Float32frombits(v)
	}
	return result, nil
}

func (c *Client) ReadFloat64(address modbus.Address) (float64, error) {
	val, err := c.ReadUint64(address)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(val), nil
}

func (c *Client) ReadFloat64s(address modbus.Address, quantity uint16) ([]float64, error) {
	values, err := c.ReadUint64s(address, quantity)
	if err != nil {
		return nil, err
	}
	result := make([]float64, len(values))
	for i, v := range values {
		result[i] = math.Float64frombits(v)
	}
	return result, nil
}

func (c *Client) WriteFloat64(address modbus.Address, value float64) error {
	return c.WriteUint64(address, math.Float64bits(value))
}

func (c *Client) WriteFloat64s(address modbus.Address, values []float64) error {
	uvals := make([]uint64, len(values))
	for i, v := range values {
		uvals[i] = math.Float64bits(v)
	}
	return c.WriteUint64s(address, uvals)
}

// --- Byte and string operations ---

// bytesFromRegisters unpacks byteCount bytes from values per the given
// Endianness, sharing logic between holding- and input-register byte reads.
func bytesFromRegisters(enc *EncodingConfig, values []uint16, byteCount uint16) []byte {
	result := make([]byte, byteCount)
	for i := 0; i < len(values) && i*2 < int(byteCount); i++ {
		hi, lo := byte(values[i]>>8), byte(values[i])
		if enc.ByteOrder == LittleEndian {
			hi, lo = lo, hi
		}
		if i*2 < int(byteCount) {
			result[i*2] = hi
		}
		if i*2+1 < int(byteCount) {
			result[i*2+1] = lo
		}
	}
	return result
}

// ReadBytes reads raw bytes out of byteCount/2 (rounded up) holding
// registers, honoring the client's Endianness.
func (c *Client) ReadBytes(address modbus.Address, byteCount uint16) ([]byte, error) {
	regCount := (byteCount + 1) / 2
	values, err := c.ReadHoldingRegisters(address, modbus.Quantity(regCount))
	if err != nil {
		return nil, err
	}
	return bytesFromRegisters(c.GetEncoding(), values, byteCount), nil
}

// ReadInputBytes is ReadBytes for input registers.
func (c *Client) ReadInputBytes(address modbus.Address, byteCount uint16) ([]byte, error) {
	regCount := (byteCount + 1) / 2
	values, err := c.ReadInputRegisters(address, modbus.Quantity(regCount))
	if err != nil {
		return nil, err
	}
	return bytesFromRegisters(c.GetEncoding(), values, byteCount), nil
}

// WriteBytes packs data into len(data)/2 (rounded up) holding registers,
// honoring the client's Endianness.
func (c *Client) WriteBytes(address modbus.Address, data []byte) error {
	enc := c.GetEncoding()
	regCount := (len(data) + 1) / 2
	regs := make([]uint16, regCount)
	for i := 0; i < regCount; i++ {
		var hi, lo byte
		if i*2 < len(data) {
			hi = data[i*2]
		}
		if i*2+1 < len(data) {
			lo = data[i*2+1]
		}
		if enc.ByteOrder == LittleEndian {
			hi, lo = lo, hi
		}
		regs[i] = uint16(hi)<<8 | uint16(lo)
	}
	return c.WriteMultipleRegisters(address, regs)
}

// ReadString reads maxLength bytes from holding registers and returns the
// portion before the first NUL byte (or the whole buffer if none is found).
func (c *Client) ReadString(address modbus.Address, maxLength uint16) (string, error) {
	data, err := c.ReadBytes(address, maxLength)
	if err != nil {
		return "", err
	}
	end := len(data)
	for i, b := range data {
		if b == 0 {
			end = i
			break
		}
	}
	return string(data[:end]), nil
}

// WriteString writes value into a maxLength-byte NUL-padded buffer.
func (c *Client) WriteString(address modbus.Address, value string, maxLength uint16) error {
	data := make([]byte, maxLength)
	copy(data, value)
	return c.WriteBytes(address, data)
}

// RegistersToBytes re-packs already-fetched register values into bytes per
// the client's Endianness, for callers holding raw register slices (e.g.
// from ReadHoldingRegisters) who want the byte-level view without a second
// round trip.
func (c *Client) RegistersToBytes(regs []uint16) []byte {
	result := make([]byte, len(regs)*2)
	for i, reg := range regs {
		if c.GetEncoding().ByteOrder == BigEndian {
			binary.BigEndian.PutUint16(result[i*2:], reg)
		} else {
			binary.LittleEndian.PutUint16(result[i*2:], reg)
		}
	}
	return result
}

// BytesToRegisters is the inverse of RegistersToBytes: it packs an arbitrary
// byte slice into register-sized words without issuing any I/O, padding a
// trailing odd byte with zero.
func (c *Client) BytesToRegisters(data []byte) []uint16 {
	regCount := (len(data) + 1) / 2
	result := make([]uint16, regCount)
	enc := c.GetEncoding()
	for i := 0; i < regCount; i++ {
		start, end := i*2, i*2+2
		if end > len(data) {
			end = len(data)
		}
		buf := make([]byte, 2)
		copy(buf, data[start:end])
		if enc.ByteOrder == BigEndian {
			result[i] = binary.BigEndian.Uint16(buf)
		} else {
			result[i] = binary.LittleEndian.Uint16(buf)
		}
	}
	return result
}
