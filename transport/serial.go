package transport

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/scadalink/modbus/internal/asciiframe"
	"github.com/scadalink/modbus/internal/rtuframe"
	"github.com/scadalink/modbus/modbus"
	"github.com/scadalink/modbus/pdu"
)

// SerialConfig holds serial port configuration shared by the RTU and ASCII
// transports.
type SerialConfig struct {
	Port            string
	BaudRate        int
	DataBits        int
	StopBits        serial.StopBits
	Parity          serial.Parity
	Timeout         time.Duration
	HandleLocalEcho bool
}

// NewSerialConfig creates a serial configuration, validating stop bits and
// parity against the values go.bug.st/serial accepts.
func NewSerialConfig(port string, baudRate int, dataBits int, stopBits int, parity string) (*SerialConfig, error) {
	var sb serial.StopBits
	switch stopBits {
	case 1:
		sb = serial.OneStopBit
	case 2:
		sb = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("invalid stop bits: %d (must be 1 or 2)", stopBits)
	}

	var p serial.Parity
	switch strings.ToUpper(parity) {
	case "N", "NONE":
		p = serial.NoParity
	case "E", "EVEN":
		p = serial.EvenParity
	case "O", "ODD":
		p = serial.OddParity
	default:
		return nil, fmt.Errorf("invalid parity: %s (must be N, E, or O)", parity)
	}

	return &SerialConfig{
		Port:     port,
		BaudRate: baudRate,
		DataBits: dataBits,
		StopBits: sb,
		Parity:   p,
		Timeout:  time.Duration(modbus.DefaultResponseTimeout) * time.Millisecond,
	}, nil
}

func (c *SerialConfig) hasParity() bool { return c.Parity != serial.NoParity }

func (c *SerialConfig) stopBitsCount() int {
	if c.StopBits == serial.TwoStopBits {
		return 2
	}
	return 1
}

// openPort opens and configures the serial line common to both transports.
func openPort(cfg *SerialConfig) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   cfg.Parity,
		StopBits: cfg.StopBits,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to open serial port %s: %w", cfg.Port, err)
	}
	if err := port.SetReadTimeout(cfg.Timeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("transport: failed to set read timeout: %w", err)
	}
	return port, nil
}

// RTUTransport implements MODBUS RTU over a serial line.
type RTUTransport struct {
	config    *SerialConfig
	port      serial.Port
	connected bool
	mutex     sync.Mutex
	logger    *zap.Logger
}

// NewRTUTransport creates an RTU transport over the given serial config.
func NewRTUTransport(config *SerialConfig) *RTUTransport {
	return &RTUTransport{config: config, logger: zap.NewNop()}
}

// SetLogger attaches a structured logger.
func (t *RTUTransport) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t.logger = logger
}

// Connect opens the serial port.
func (t *RTUTransport) Connect() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.connected {
		return nil
	}
	port, err := openPort(t.config)
	if err != nil {
		return err
	}
	t.port = port
	t.connected = true
	return nil
}

// Close closes the serial port.
func (t *RTUTransport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if !t.connected || t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	t.connected = false
	return err
}

// IsConnected reports whether the serial port is open.
func (t *RTUTransport) IsConnected() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.connected
}

// SetTimeout sets the response timeout.
func (t *RTUTransport) SetTimeout(timeout time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.config.Timeout = timeout
	if t.connected && t.port != nil {
		_ = t.port.SetReadTimeout(timeout)
	}
}

// GetTimeout returns the current response timeout.
func (t *RTUTransport) GetTimeout() time.Duration {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.config.Timeout
}

// flush drains any bytes sitting in the read buffer. SendRequest calls it
// before each write, so a stale partial frame from a previous failed
// exchange cannot be mistaken for the start of the next response.
func (t *RTUTransport) flush() {
	buf := make([]byte, 256)
	_ = t.port.SetReadTimeout(5 * time.Millisecond)
	for {
		n, err := t.port.Read(buf)
		if err != nil || n == 0 {
			break
		}
	}
	_ = t.port.SetReadTimeout(t.config.Timeout)
}

// SendRequest sends an RTU frame and waits for a CRC-valid, silence
// delimited reply. Unit id 0 (broadcast) writeable requests get no reply
// from the line; the caller synthesizes success without waiting here (see
// the client coordinator).
func (t *RTUTransport) SendRequest(slaveID modbus.SlaveID, request *pdu.Request) (*pdu.Response, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.connected {
		return nil, ErrNotConnected
	}

	t.flush()
	frame := rtuframe.WrapADU(uint8(slaveID), request.Bytes())
	if _, err := t.port.Write(frame); err != nil {
		return nil, fmt.Errorf("transport: failed to write RTU frame: %w", err)
	}

	interCharTimeout := rtuframe.InterCharDelay(t.config.BaudRate, t.config.DataBits, t.config.stopBitsCount(), t.config.hasParity())
	frameTimeout := rtuframe.InterFrameDelay(t.config.BaudRate, t.config.DataBits, t.config.stopBitsCount(), t.config.hasParity())

	var response []byte
	buf := make([]byte, 256)
	deadline := time.Now().Add(t.config.Timeout)
	lastReceiveTime := time.Now()
	echoPending := t.config.HandleLocalEcho

	for {
		_ = t.port.SetReadTimeout(interCharTimeout)
		n, err := t.port.Read(buf)
		if n > 0 {
			response = append(response, buf[:n]...)
			lastReceiveTime = time.Now()
			if echoPending && len(response) >= len(frame) {
				response = rtuframe.StripLocalEcho(response, frame)
				echoPending = false
			}
		}
		if err != nil && len(response) == 0 {
			return nil, fmt.Errorf("transport: failed to read RTU response: %w", err)
		}
		if len(response) >= rtuframe.MinFrameSize && time.Since(lastReceiveTime) >= frameTimeout {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
	}
	_ = t.port.SetReadTimeout(t.config.Timeout)

	pduBytes, err := rtuframe.UnwrapADU(response, uint8(slaveID))
	if err != nil {
		return nil, err
	}
	respPDU, err := pdu.ParsePDU(pduBytes)
	if err != nil {
		return nil, err
	}
	return &pdu.Response{PDU: respPDU}, nil
}

// GetTransportType returns TransportRTU.
func (t *RTUTransport) GetTransportType() modbus.TransportType { return modbus.TransportRTU }

func (t *RTUTransport) String() string {
	return fmt.Sprintf("RTU(%s@%d)", t.config.Port, t.config.BaudRate)
}

// SendBroadcast writes an RTU frame addressed to unit id 0. No station
// replies to a broadcast, so this does not wait for or expect a response.
func (t *RTUTransport) SendBroadcast(request *pdu.Request) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if !t.connected {
		return ErrNotConnected
	}
	frame := rtuframe.WrapADU(0, request.Bytes())
	if _, err := t.port.Write(frame); err != nil {
		return fmt.Errorf("transport: failed to write RTU frame: %w", err)
	}
	return nil
}

// ASCIITransport implements MODBUS ASCII over a serial line.
type ASCIITransport struct {
	config    *SerialConfig
	port      serial.Port
	connected bool
	mutex     sync.Mutex
	logger    *zap.Logger
}

// NewASCIITransport creates an ASCII transport over the given serial
// config.
func NewASCIITransport(config *SerialConfig) *ASCIITransport {
	return &ASCIITransport{config: config, logger: zap.NewNop()}
}

// SetLogger attaches a structured logger.
func (t *ASCIITransport) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t.logger = logger
}

// Connect opens the serial port.
func (t *ASCIITransport) Connect() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.connected {
		return nil
	}
	port, err := openPort(t.config)
	if err != nil {
		return err
	}
	t.port = port
	t.connected = true
	return nil
}

// Close closes the serial port.
func (t *ASCIITransport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if !t.connected || t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	t.connected = false
	return err
}

// IsConnected reports whether the serial port is open.
func (t *ASCIITransport) IsConnected() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.connected
}

// SetTimeout sets the response timeout.
func (t *ASCIITransport) SetTimeout(timeout time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.config.Timeout = timeout
	if t.connected && t.port != nil {
		_ = t.port.SetReadTimeout(timeout)
	}
}

// GetTimeout returns the current response timeout.
func (t *ASCIITransport) GetTimeout() time.Duration {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.config.Timeout
}

// SendRequest sends an ASCII frame and waits for a CRLF-delimited,
// LRC-valid reply.
func (t *ASCIITransport) SendRequest(slaveID modbus.SlaveID, request *pdu.Request) (*pdu.Response, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.connected {
		return nil, ErrNotConnected
	}

	frame := asciiframe.WrapADU(uint8(slaveID), request.Bytes())
	if _, err := t.port.Write(frame); err != nil {
		return nil, fmt.Errorf("transport: failed to write ASCII frame: %w", err)
	}

	payload, err := t.readASCIIFrame()
	if err != nil {
		return nil, err
	}

	pduBytes, err := asciiframe.UnwrapADU(payload, uint8(slaveID))
	if err != nil {
		return nil, err
	}
	respPDU, err := pdu.ParsePDU(pduBytes)
	if err != nil {
		return nil, err
	}
	return &pdu.Response{PDU: respPDU}, nil
}

// readASCIIFrame reads up to and including the trailing CRLF, returning the
// hex payload between the leading ':' and the CRLF.
func (t *ASCIITransport) readASCIIFrame() ([]byte, error) {
	var frame []byte
	buf := make([]byte, 1)

	deadline := time.Now().Add(t.config.Timeout)
	for {
		n, err := t.port.Read(buf)
		if err != nil {
			return nil, ErrTimeout
		}
		if n > 0 && buf[0] == ':' {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
	}

	for {
		n, err := t.port.Read(buf)
		if err != nil {
			return nil, ErrTimeout
		}
		if n > 0 {
			frame = append(frame, buf[0])
			if len(frame) >= 2 && frame[len(frame)-2] == '\r' && frame[len(frame)-1] == '\n' {
				break
			}
		}
		if len(frame) > asciiframe.MaxFrameChars || time.Now().After(deadline) {
			return nil, ErrTimeout
		}
	}

	return frame[:len(frame)-2], nil
}

// GetTransportType returns TransportASCII.
func (t *ASCIITransport) GetTransportType() modbus.TransportType { return modbus.TransportASCII }

func (t *ASCIITransport) String() string {
	return fmt.Sprintf("ASCII(%s@%d)", t.config.Port, t.config.BaudRate)
}

// SendBroadcast writes an ASCII frame addressed to unit id 0 without
// waiting for a reply.
func (t *ASCIITransport) SendBroadcast(request *pdu.Request) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if !t.connected {
		return ErrNotConnected
	}
	frame := asciiframe.WrapADU(0, request.Bytes())
	if _, err := t.port.Write(frame); err != nil {
		return fmt.Errorf("transport: failed to write ASCII frame: %w", err)
	}
	return nil
}
