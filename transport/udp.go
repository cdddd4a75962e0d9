package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scadalink/modbus/internal/mbapframe"
	"github.com/scadalink/modbus/internal/txid"
	"github.com/scadalink/modbus/modbus"
	"github.com/scadalink/modbus/pdu"
)

// UDPTransport implements MODBUS over UDP (connectionless MBAP framing,
// §4.6). Unlike TCP, there is no byte stream to resynchronize: each request
// is one datagram out, one datagram back, and transaction-id matching
// guards against a stale or misdirected reply.
type UDPTransport struct {
	address string
	timeout atomicDuration
	logger  *zap.Logger

	mu        sync.Mutex
	conn      *net.UDPConn
	connected bool

	alloc txid.Allocator
}

// NewUDPTransport creates a UDP transport dialing address ("host:port").
func NewUDPTransport(address string) *UDPTransport {
	t := &UDPTransport{address: address, logger: zap.NewNop()}
	t.timeout.Store(time.Duration(modbus.DefaultResponseTimeout) * time.Millisecond)
	return t
}

// SetLogger attaches a structured logger.
func (t *UDPTransport) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t.logger = logger
}

// Connect resolves the remote address and opens the UDP socket.
func (t *UDPTransport) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connected {
		return nil
	}

	remoteAddr, err := net.ResolveUDPAddr("udp", t.address)
	if err != nil {
		return fmt.Errorf("transport: failed to resolve UDP address %s: %w", t.address, err)
	}
	conn, err := net.DialUDP("udp", nil, remoteAddr)
	if err != nil {
		return fmt.Errorf("transport: failed to open UDP socket: %w", err)
	}

	t.conn = conn
	t.connected = true
	t.logger.Debug("udp transport connected", zap.String("address", t.address))
	return nil
}

// Close closes the UDP socket.
func (t *UDPTransport) Close() error {
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

// IsConnected reports whether the socket is open.
func (t *UDPTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// SetTimeout sets the per-request response timeout.
func (t *UDPTransport) SetTimeout(timeout time.Duration) { t.timeout.Store(timeout) }

// GetTimeout returns the current per-request response timeout.
func (t *UDPTransport) GetTimeout() time.Duration { return t.timeout.Load() }

// SendRequest sends one MBAP-framed datagram and waits for the matching
// reply. UDP transports do not pipeline: being connectionless, there is no
// read loop to demultiplex concurrent waiters against, so each SendRequest
// owns the socket exclusively for the duration of its round trip.
func (t *UDPTransport) SendRequest(slaveID modbus.SlaveID, request *pdu.Request) (*pdu.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return nil, ErrNotConnected
	}

	id := t.alloc.Next()
	adu := mbapframe.WrapADU(id, uint8(slaveID), request.Bytes())

	if err := t.conn.SetDeadline(time.Now().Add(t.timeout.Load())); err != nil {
		return nil, fmt.Errorf("transport: failed to set deadline: %w", err)
	}
	if _, err := t.conn.Write(adu); err != nil {
		return nil, fmt.Errorf("transport: failed to send UDP datagram: %w", err)
	}

	buf := make([]byte, modbus.MaxTCPADUSize)
	for {
		n, err := t.conn.Read(buf)
		if err != nil {
			return nil, ErrTimeout
		}
		header, pduBytes, uerr := mbapframe.UnwrapADU(buf[:n])
		if uerr != nil {
			return nil, uerr
		}
		if header.TransactionID != id {
			// A stray reply for a previous, already-timed-out request;
			// keep waiting for this request's own datagram.
			continue
		}
		respPDU, perr := pdu.ParsePDU(pduBytes)
		if perr != nil {
			return nil, perr
		}
		return &pdu.Response{PDU: respPDU}, nil
	}
}

// GetTransportType returns TransportUDP.
func (t *UDPTransport) GetTransportType() modbus.TransportType {
	return modbus.TransportUDP
}

func (t *UDPTransport) String() string {
	return fmt.Sprintf("UDP(%s)", t.address)
}

// SendBroadcast writes one MBAP-framed datagram addressed to unit id 0 and
// returns without waiting for a reply: broadcast requests never receive one.
func (t *UDPTransport) SendBroadcast(request *pdu.Request) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return ErrNotConnected
	}
	id := t.alloc.Next()
	adu := mbapframe.WrapADU(id, 0, request.Bytes())
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.timeout.Load())); err != nil {
		return fmt.Errorf("transport: failed to set deadline: %w", err)
	}
	if _, err := t.conn.Write(adu); err != nil {
		return fmt.Errorf("transport: broadcast write failed: %w", err)
	}
	return nil
}
