package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scadalink/modbus/internal/rtuframe"
	"github.com/scadalink/modbus/modbus"
	"github.com/scadalink/modbus/pdu"
)

// RTUOverTCPTransport carries classic RTU framing (UnitID+PDU+CRC16, no
// MBAP header) over a TCP byte stream — common with serial-to-Ethernet
// gateways that tunnel RTU rather than translating it to MBAP.
type RTUOverTCPTransport struct {
	address        string
	timeout        atomicDuration
	connectTimeout time.Duration
	logger         *zap.Logger

	mu        sync.Mutex
	conn      net.Conn
	connected bool
}

// NewRTUOverTCPTransport creates an RTU-over-TCP transport dialing address.
func NewRTUOverTCPTransport(address string) *RTUOverTCPTransport {
	t := &RTUOverTCPTransport{
		address:        address,
		connectTimeout: time.Duration(modbus.DefaultConnectTimeout) * time.Millisecond,
		logger:         zap.NewNop(),
	}
	t.timeout.Store(time.Duration(modbus.DefaultResponseTimeout) * time.Millisecond)
	return t
}

// SetLogger attaches a structured logger.
func (t *RTUOverTCPTransport) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t.logger = logger
}

// Connect dials the configured TCP address.
func (t *RTUOverTCPTransport) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connected {
		return nil
	}
	dialer := &net.Dialer{Timeout: t.connectTimeout}
	conn, err := dialer.Dial("tcp", t.address)
	if err != nil {
		return fmt.Errorf("transport: failed to connect to %s: %w", t.address, err)
	}
	t.conn = conn
	t.connected = true
	t.logger.Debug("rtu-over-tcp transport connected", zap.String("address", t.address))
	return nil
}

// Close closes the TCP connection.
func (t *RTUOverTCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected || t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.connected = false
	return err
}

// IsConnected reports whether the connection is open.
func (t *RTUOverTCPTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// SetTimeout sets the per-request response timeout.
func (t *RTUOverTCPTransport) SetTimeout(timeout time.Duration) { t.timeout.Store(timeout) }

// GetTimeout returns the current per-request response timeout.
func (t *RTUOverTCPTransport) GetTimeout() time.Duration { return t.timeout.Load() }

// SendRequest writes an RTU frame and reads back a complete, CRC-valid RTU
// frame. Request serialization (one in flight at a time) matches the
// single-pending-request discipline real RTU gateways enforce even when
// tunnelled over TCP.
func (t *RTUOverTCPTransport) SendRequest(slaveID modbus.SlaveID, request *pdu.Request) (*pdu.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return nil, ErrNotConnected
	}

	frame := rtuframe.WrapADU(uint8(slaveID), request.Bytes())
	if err := t.conn.SetDeadline(time.Now().Add(t.timeout.Load())); err != nil {
		return nil, fmt.Errorf("transport: failed to set deadline: %w", err)
	}
	if _, err := t.conn.Write(frame); err != nil {
		return nil, fmt.Errorf("transport: failed to write RTU frame: %w", err)
	}

	buf := make([]byte, rtuframe.MaxFrameSize)
	n, err := t.conn.Read(buf)
	if err != nil {
		return nil, ErrTimeout
	}

	pduBytes, err := rtuframe.UnwrapADU(buf[:n], uint8(slaveID))
	if err != nil {
		return nil, err
	}
	respPDU, err := pdu.ParsePDU(pduBytes)
	if err != nil {
		return nil, err
	}
	return &pdu.Response{PDU: respPDU}, nil
}

// GetTransportType returns TransportRTUOverTCP.
func (t *RTUOverTCPTransport) GetTransportType() modbus.TransportType {
	return modbus.TransportRTUOverTCP
}

func (t *RTUOverTCPTransport) String() string {
	return fmt.Sprintf("RTU-over-TCP(%s)", t.address)
}

// SendBroadcast writes an RTU frame addressed to unit id 0 and returns
// without waiting for a reply.
func (t *RTUOverTCPTransport) SendBroadcast(request *pdu.Request) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return ErrNotConnected
	}
	frame := rtuframe.WrapADU(0, request.Bytes())
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.timeout.Load())); err != nil {
		return fmt.Errorf("transport: failed to set deadline: %w", err)
	}
	if _, err := t.conn.Write(frame); err != nil {
		return fmt.Errorf("transport: broadcast write failed: %w", err)
	}
	return nil
}
