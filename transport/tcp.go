package transport

import (
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scadalink/modbus/internal/dispatch"
	"github.com/scadalink/modbus/internal/mbapframe"
	"github.com/scadalink/modbus/internal/txid"
	"github.com/scadalink/modbus/modbus"
	"github.com/scadalink/modbus/pdu"
)

// TCPTransportConfig holds the dial-time configuration for a TCPTransport.
// A non-nil TLSConfig dials with TLS instead of plain TCP (MBAP/TLS, port
// 802 by convention).
type TCPTransportConfig struct {
	Address        string
	Timeout        time.Duration
	ConnectTimeout time.Duration
	IdleTimeout    time.Duration
	MaxInFlight    int
	TLSConfig      *tls.Config
	Logger         *zap.Logger
}

// TCPTransport implements MODBUS TCP/IP (and, with a TLSConfig, MODBUS/TLS)
// transport with true request pipelining: writes are serialized under
// writeMu, and a single background read loop completes transaction-id-keyed
// waiters in internal/dispatch as ADUs arrive, possibly out of the order
// they were sent.
type TCPTransport struct {
	cfg    TCPTransportConfig
	logger *zap.Logger

	connMu    sync.Mutex
	conn      net.Conn
	connected bool

	writeMu sync.Mutex

	timeout      atomicDuration
	lastActivity atomicTime

	alloc txid.Allocator
	disp  *dispatch.Dispatcher

	readLoopDone chan struct{}
}

// NewTCPTransport creates a plain MODBUS TCP transport dialing address
// ("host:port").
func NewTCPTransport(address string) *TCPTransport {
	return NewTCPTransportWithConfig(TCPTransportConfig{
		Address:        address,
		Timeout:        time.Duration(modbus.DefaultResponseTimeout) * time.Millisecond,
		ConnectTimeout: time.Duration(modbus.DefaultConnectTimeout) * time.Millisecond,
		IdleTimeout:    60 * time.Second,
		MaxInFlight:    dispatch.DefaultMaxInFlight,
	})
}

// NewTCPTransportWithConfig creates a TCP (or, with TLSConfig set, MBAP/TLS)
// transport with full configuration.
func NewTCPTransportWithConfig(cfg TCPTransportConfig) *TCPTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &TCPTransport{
		cfg:    cfg,
		logger: logger,
		disp:   dispatch.New(cfg.MaxInFlight),
	}
	t.timeout.Store(cfg.Timeout)
	return t
}

// Connect dials the configured address and starts the background read
// loop. Calling Connect while already connected is a no-op.
func (t *TCPTransport) Connect() error {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	if t.connected {
		return nil
	}

	dialer := &net.Dialer{Timeout: t.cfg.ConnectTimeout}
	var conn net.Conn
	var err error
	if t.cfg.TLSConfig != nil {
		conn, err = tls.DialWithDialer(dialer, "tcp", t.cfg.Address, t.cfg.TLSConfig)
		if err != nil {
			return &TLSHandshakeError{Err: err}
		}
	} else {
		conn, err = dialer.Dial("tcp", t.cfg.Address)
		if err != nil {
			return fmt.Errorf("transport: failed to connect to %s: %w", t.cfg.Address, err)
		}
	}

	t.conn = conn
	t.connected = true
	t.lastActivity.Store(time.Now())
	t.disp.Reopen()
	t.readLoopDone = make(chan struct{})
	t.logger.Debug("tcp transport connected", zap.String("address", t.cfg.Address))

	go t.readLoop(conn, t.readLoopDone)
	return nil
}

// Close closes the connection, which unblocks and fails the read loop; the
// read loop fans an *IOError wrapping the read failure out to every pending
// waiter.
func (t *TCPTransport) Close() error {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	if !t.connected || t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.connected = false
	t.conn = nil
	return err
}

// IsConnected reports whether the transport currently holds an open
// connection.
func (t *TCPTransport) IsConnected() bool {
	t.connMu.Lock()
	defer t.connMu.Unlock()
	return t.connected
}

// SetTimeout sets the per-request response timeout.
func (t *TCPTransport) SetTimeout(timeout time.Duration) {
	t.timeout.Store(timeout)
}

// GetTimeout returns the current per-request response timeout.
func (t *TCPTransport) GetTimeout() time.Duration {
	return t.timeout.Load()
}

// readLoop owns the socket read side for the lifetime of one connection. It
// feeds a streaming mbapframe.Decoder and completes the matching dispatcher
// waiter for every ADU it decodes. A fatal framing error or read failure
// closes out every pending waiter and ends the loop.
func (t *TCPTransport) readLoop(conn net.Conn, done chan struct{}) {
	defer close(done)

	var dec mbapframe.Decoder
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])
			for {
				adu, ok, derr := dec.Next()
				if derr != nil {
					t.logger.Debug("mbap framing error, closing connection", zap.Error(derr))
					t.disp.CloseAll(derr)
					_ = conn.Close()
					return
				}
				if !ok {
					break
				}
				header, pduBytes, uerr := mbapframe.UnwrapADU(adu)
				if uerr != nil {
					t.logger.Debug("mbap unwrap error", zap.Error(uerr))
					continue
				}
				respPDU, perr := pdu.ParsePDU(pduBytes)
				t.disp.Complete(header.TransactionID, dispatch.Result{
					Response: &pdu.Response{PDU: respPDU},
					Err:      perr,
				})
			}
		}
		if err != nil {
			if dec.Pending() {
				t.logger.Debug("connection closed with a partial frame buffered")
			}
			t.disp.CloseAll(&IOError{Err: err})
			return
		}
	}
}

// SendRequest writes request addressed to slaveID and blocks for the
// matching response, or until the configured timeout elapses. Concurrent
// callers pipeline freely up to the configured maxInFlight bound.
func (t *TCPTransport) SendRequest(slaveID modbus.SlaveID, request *pdu.Request) (*pdu.Response, error) {
	t.connMu.Lock()
	connected := t.connected
	conn := t.conn
	t.connMu.Unlock()
	if !connected {
		return nil, ErrNotConnected
	}

	id := t.alloc.Next()
	waiter, err := t.disp.Register(id)
	if err != nil {
		return nil, err
	}

	adu := mbapframe.WrapADU(id, uint8(slaveID), request.Bytes())

	t.writeMu.Lock()
	werr := conn.SetWriteDeadline(time.Now().Add(t.GetTimeout()))
	if werr == nil {
		_, werr = conn.Write(adu)
	}
	t.writeMu.Unlock()
	if werr != nil {
		t.disp.Cancel(id)
		return nil, fmt.Errorf("transport: write failed: %w", werr)
	}
	t.lastActivity.Store(time.Now())

	select {
	case result := <-waiter:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Response, nil
	case <-time.After(t.GetTimeout()):
		t.disp.Cancel(id)
		return nil, ErrTimeout
	}
}

// GetTransportType returns TransportTLS when a TLSConfig is set, TransportTCP
// otherwise; the wire PDU/MBAP framing is identical either way, only the
// socket differs.
func (t *TCPTransport) GetTransportType() modbus.TransportType {
	if t.cfg.TLSConfig != nil {
		return modbus.TransportTLS
	}
	return modbus.TransportTCP
}

func (t *TCPTransport) String() string {
	if t.cfg.TLSConfig != nil {
		return fmt.Sprintf("TLS(%s)", t.cfg.Address)
	}
	return fmt.Sprintf("TCP(%s)", t.cfg.Address)
}

// SendBroadcast writes request addressed to the broadcast unit id (0)
// without registering a waiter or reading a reply: broadcast requests never
// receive one (§4.9).
func (t *TCPTransport) SendBroadcast(request *pdu.Request) error {
	t.connMu.Lock()
	connected := t.connected
	conn := t.conn
	t.connMu.Unlock()
	if !connected {
		return ErrNotConnected
	}

	id := t.alloc.Next()
	adu := mbapframe.WrapADU(id, 0, request.Bytes())

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(t.GetTimeout())); err != nil {
		return fmt.Errorf("transport: failed to set deadline: %w", err)
	}
	if _, err := conn.Write(adu); err != nil {
		return fmt.Errorf("transport: broadcast write failed: %w", err)
	}
	return nil
}
