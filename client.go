package modbus

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scadalink/modbus/config"
	"github.com/scadalink/modbus/modbus"
	"github.com/scadalink/modbus/pdu"
	"github.com/scadalink/modbus/transport"
)

// connState tracks the per-connection lifecycle (Disconnected -> Connecting
// -> Connected -> Disconnecting -> Disconnected).
type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
	stateDisconnecting
)

// Client is a MODBUS client coordinator built on a transport.Transport: it
// owns connection lifecycle, the retry loop and reconnection strategy, and
// exposes one method per MODBUS function code.
type Client struct {
	transport transport.Transport
	cfg       *config.ClientConfig
	logger    *zap.Logger
	encoding  *EncodingConfig

	mu           sync.Mutex
	state        connState
	backoff      time.Duration
	lastActivity time.Time
	retryDelay   time.Duration
}

// NewClient creates a client wrapping an already-constructed transport,
// applying cfg (or config.Default(config.TransportTCP) if nil).
func NewClient(t transport.Transport, cfg *config.ClientConfig) *Client {
	if cfg == nil {
		cfg = config.Default(config.TransportTCP)
	}
	cfg.Validate()
	t.SetTimeout(cfg.RequestTimeout)
	return &Client{
		transport:  t,
		cfg:        cfg,
		logger:     zap.NewNop(),
		retryDelay: 100 * time.Millisecond,
	}
}

// NewTCPClient creates a MODBUS TCP client dialing address ("host:port")
// with default configuration.
func NewTCPClient(address string) *Client {
	cfg := config.Default(config.TransportTCP)
	return NewClient(transport.NewTCPTransport(address), cfg)
}

// NewClientFromConfig builds the transport cfg describes (TCP, TLS, UDP,
// RTU, RTU-over-TCP, or ASCII) and wraps it in a Client.
func NewClientFromConfig(cfg *config.ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, &InvalidParameterError{Reason: "nil config"}
	}
	cfg.Validate()
	logger := zap.NewNop()
	t, err := newTransportFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	c := NewClient(t, cfg)
	c.logger = logger
	return c, nil
}

// NewClientFromJSONFile loads a config.ClientConfig from a JSON file and
// builds the corresponding client.
func NewClientFromJSONFile(path string) (*Client, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("modbus: failed to load config: %w", err)
	}
	return NewClientFromConfig(cfg)
}

func newTransportFromConfig(cfg *config.ClientConfig, logger *zap.Logger) (transport.Transport, error) {
	switch cfg.Transport {
	case config.TransportTCP:
		return transport.NewTCPTransportWithConfig(transport.TCPTransportConfig{
			Address:        cfg.Address(),
			Timeout:        cfg.RequestTimeout,
			ConnectTimeout: cfg.ConnectTimeout,
			IdleTimeout:    cfg.IdleTimeout,
			MaxInFlight:    cfg.Pipelining.MaxInFlight,
			Logger:         logger,
		}), nil

	case config.TransportTLS:
		tlsConfig, err := loadTLSConfig(&cfg.TLS)
		if err != nil {
			return nil, err
		}
		return transport.NewTCPTransportWithConfig(transport.TCPTransportConfig{
			Address:        cfg.Address(),
			Timeout:        cfg.RequestTimeout,
			ConnectTimeout: cfg.ConnectTimeout,
			IdleTimeout:    cfg.IdleTimeout,
			MaxInFlight:    cfg.Pipelining.MaxInFlight,
			TLSConfig:      tlsConfig,
			Logger:         logger,
		}), nil

	case config.TransportUDP:
		t := transport.NewUDPTransport(cfg.Address())
		t.SetLogger(logger)
		t.SetTimeout(cfg.RequestTimeout)
		return t, nil

	case config.TransportRTUOverTCP:
		t := transport.NewRTUOverTCPTransport(cfg.Address())
		t.SetLogger(logger)
		t.SetTimeout(cfg.RequestTimeout)
		return t, nil

	case config.TransportRTU:
		sc, err := transport.NewSerialConfig(cfg.Serial.Port, cfg.Serial.BaudRate, cfg.Serial.DataBits, cfg.Serial.StopBits, cfg.Serial.Parity)
		if err != nil {
			return nil, &InvalidParameterError{Reason: err.Error()}
		}
		sc.Timeout = cfg.RequestTimeout
		sc.HandleLocalEcho = cfg.Serial.HandleLocalEcho
		t := transport.NewRTUTransport(sc)
		t.SetLogger(logger)
		return t, nil

	case config.TransportASCII:
		sc, err := transport.NewSerialConfig(cfg.Serial.Port, cfg.Serial.BaudRate, cfg.Serial.DataBits, cfg.Serial.StopBits, cfg.Serial.Parity)
		if err != nil {
			return nil, &InvalidParameterError{Reason: err.Error()}
		}
		sc.Timeout = cfg.RequestTimeout
		t := transport.NewASCIITransport(sc)
		t.SetLogger(logger)
		return t, nil

	default:
		return nil, &InvalidParameterError{Reason: fmt.Sprintf("unknown transport kind %v", cfg.Transport)}
	}
}

// loadTLSConfig builds a *tls.Config from c, loading the client
// certificate/key pair and CA bundle named in c from disk. A missing or
// malformed certificate, key, or CA file is a configuration error, not a
// connection failure: it can never succeed by retrying, so it is surfaced
// once at transport construction rather than inside the retry loop.
func loadTLSConfig(c *config.TLSConfig) (*tls.Config, error) {
	tlsConfig := c.ToStdlib()

	if c.CertFile != "" || c.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, &TLSConfigurationError{Reason: fmt.Sprintf("loading client certificate: %v", err)}
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, &TLSConfigurationError{Reason: fmt.Sprintf("reading CA file: %v", err)}
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, &TLSConfigurationError{Reason: fmt.Sprintf("no valid certificates found in %s", c.CAFile)}
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

// SetLogger attaches a structured logger used for connection and retry
// diagnostics.
func (c *Client) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
}

// Connect establishes the connection. Calling Connect while already
// connected returns ErrAlreadyConnected.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport.IsConnected() {
		return ErrAlreadyConnected
	}

	c.state = stateConnecting
	if err := c.transport.Connect(); err != nil {
		c.state = stateDisconnected
		return &ConnectionFailedError{Reason: err}
	}
	c.state = stateConnected
	c.backoff = c.cfg.Reconnect.InitialDelay
	c.lastActivity = time.Now()
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = stateDisconnecting
	err := c.transport.Close()
	c.state = stateDisconnected
	return err
}

// IsConnected returns true if the client is connected.
func (c *Client) IsConnected() bool {
	return c.transport.IsConnected()
}

// SetSlaveID sets the slave/unit ID used for subsequent requests.
func (c *Client) SetSlaveID(slaveID modbus.SlaveID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.UnitID = slaveID
}

// GetSlaveID returns the current slave/unit ID.
func (c *Client) GetSlaveID() modbus.SlaveID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.UnitID
}

// SetTimeout sets the per-request response timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.RequestTimeout = timeout
	c.transport.SetTimeout(timeout)
}

// GetTimeout returns the current per-request response timeout.
func (c *Client) GetTimeout() time.Duration {
	return c.transport.GetTimeout()
}

// SetRetryCount sets the number of retries attempted after an initial
// failure whose classification is retryable.
func (c *Client) SetRetryCount(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Retries = count
}

// GetRetryCount returns the current retry count.
func (c *Client) GetRetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Retries
}

// SetRetryDelay sets the delay slept between retry attempts.
func (c *Client) SetRetryDelay(delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retryDelay = delay
}

// GetRetryDelay returns the delay slept between retry attempts.
func (c *Client) GetRetryDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryDelay
}

// Config returns the client's current configuration.
func (c *Client) Config() *config.ClientConfig {
	return c.cfg
}

// String returns a string representation of the client.
func (c *Client) String() string {
	return fmt.Sprintf("ModbusClient(slave=%d, transport=%s)", c.GetSlaveID(), c.transport.String())
}

// checkIdle closes the channel proactively if idle longer than
// cfg.IdleTimeout, per §4.9; the next request reconnects per strategy.
func (c *Client) checkIdle() {
	if c.cfg.IdleTimeout <= 0 {
		return
	}
	c.mu.Lock()
	idle := !c.lastActivity.IsZero() && time.Since(c.lastActivity) > c.cfg.IdleTimeout
	c.mu.Unlock()
	if idle && c.transport.IsConnected() {
		c.logger.Debug("closing idle connection")
		_ = c.transport.Close()
	}
}

// ensureConnected reconnects per the configured strategy if the transport
// is currently disconnected.
func (c *Client) ensureConnected() error {
	if c.transport.IsConnected() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.cfg.Reconnect.Kind {
	case config.ReconnectDisabled:
		return ErrNotConnected

	case config.ReconnectImmediate:
		if err := c.transport.Connect(); err != nil {
			return wrapConnectError(err)
		}
		c.state = stateConnected
		c.lastActivity = time.Now()
		return nil

	case config.ReconnectExponentialBackoff:
		if err := c.transport.Connect(); err != nil {
			delay := c.backoff
			if delay <= 0 {
				delay = c.cfg.Reconnect.InitialDelay
			}
			next := delay * 2
			if c.cfg.Reconnect.MaxDelay > 0 && next > c.cfg.Reconnect.MaxDelay {
				next = c.cfg.Reconnect.MaxDelay
			}
			if next <= 0 {
				next = c.cfg.Reconnect.InitialDelay
			}
			c.backoff = next
			return wrapConnectError(err)
		}
		c.backoff = c.cfg.Reconnect.InitialDelay
		c.state = stateConnected
		c.lastActivity = time.Now()
		return nil

	default:
		return ErrNotConnected
	}
}

// wrapConnectError distinguishes a TLS handshake failure (retryable, per
// spec §4.10) from any other dial failure (also retryable, but surfaced as
// a plain ConnectionFailedError rather than a TLS-specific one).
func wrapConnectError(err error) error {
	var tlsErr *transport.TLSHandshakeError
	if errors.As(err, &tlsErr) {
		return &TLSHandshakeFailedError{Reason: tlsErr.Error()}
	}
	return &ConnectionFailedError{Reason: err}
}

// sendRequest runs the per-request orchestration of §4.9: ensure connected,
// transmit, await response, classify failures, and retry up to cfg.Retries
// additional times for retryable errors.
func (c *Client) sendRequest(req *pdu.Request) (*pdu.Response, error) {
	c.checkIdle()

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if err := c.ensureConnected(); err != nil {
			lastErr = err
			var connFailed *ConnectionFailedError
			var tlsFailed *TLSHandshakeFailedError
			if !errors.As(err, &connFailed) && !errors.As(err, &tlsFailed) {
				return nil, err // ErrNotConnected (reconnect disabled): never retried
			}
			if attempt < c.cfg.Retries {
				wait := c.retryDelay
				if c.cfg.Reconnect.Kind == config.ReconnectExponentialBackoff {
					c.mu.Lock()
					wait = c.backoff
					c.mu.Unlock()
				}
				time.Sleep(wait)
			}
			continue
		}

		resp, err := c.transport.SendRequest(c.GetSlaveID(), req)
		if err == nil {
			c.mu.Lock()
			c.lastActivity = time.Now()
			c.mu.Unlock()
			return resp, nil
		}

		clientErr, retryable := classify(err)
		lastErr = clientErr
		if !retryable {
			return nil, clientErr
		}
		if attempt < c.cfg.Retries {
			c.logger.Debug("retrying modbus request", zap.Error(clientErr), zap.Int("attempt", attempt+1))
			time.Sleep(c.retryDelay)
		}
	}

	return nil, fmt.Errorf("modbus: request failed after %d attempts: %w", c.cfg.Retries+1, lastErr)
}

// sendBroadcast transmits req to unit id 0, synthesizing success without
// awaiting a reply, per §4.9 step 5 and Modbus spec §4.1.1.
func (c *Client) sendBroadcast(req *pdu.Request) error {
	c.checkIdle()
	if err := c.ensureConnected(); err != nil {
		return err
	}

	b, ok := c.transport.(transport.Broadcaster)
	if !ok {
		// RTU serial transports are inherently write-only for unit id 0;
		// a plain SendRequest to unit id 0 would block for a reply that
		// never comes, so transports without SendBroadcast are not usable
		// for broadcast and this is a parameter error, not a retryable one.
		return &InvalidParameterError{Reason: fmt.Sprintf("%s does not support broadcast", c.transport.String())}
	}
	if err := b.SendBroadcast(req); err != nil {
		clientErr, _ := classify(err)
		return clientErr
	}
	return nil
}

// ReadCoils reads coils (function code 0x01).
func (c *Client) ReadCoils(address modbus.Address, quantity modbus.Quantity) ([]bool, error) {
	req, err := pdu.ReadCoilsRequest(address, quantity)
	if err != nil {
		return nil, &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}
	return pdu.ParseReadCoilsResponse(resp, quantity)
}

// ReadDiscreteInputs reads discrete inputs (function code 0x02).
func (c *Client) ReadDiscreteInputs(address modbus.Address, quantity modbus.Quantity) ([]bool, error) {
	req, err := pdu.ReadDiscreteInputsRequest(address, quantity)
	if err != nil {
		return nil, &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}
	return pdu.ParseReadDiscreteInputsResponse(resp, quantity)
}

// ReadHoldingRegisters reads holding registers (function code 0x03).
func (c *Client) ReadHoldingRegisters(address modbus.Address, quantity modbus.Quantity) ([]uint16, error) {
	req, err := pdu.ReadHoldingRegistersRequest(address, quantity)
	if err != nil {
		return nil, &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}
	return pdu.ParseReadHoldingRegistersResponse(resp, quantity)
}

// ReadInputRegisters reads input registers (function code 0x04).
func (c *Client) ReadInputRegisters(address modbus.Address, quantity modbus.Quantity) ([]uint16, error) {
	req, err := pdu.ReadInputRegistersRequest(address, quantity)
	if err != nil {
		return nil, &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}
	return pdu.ParseReadInputRegistersResponse(resp, quantity)
}

// WriteSingleCoil writes a single coil (function code 0x05).
func (c *Client) WriteSingleCoil(address modbus.Address, value bool) error {
	req, err := pdu.WriteSingleCoilRequest(address, value)
	if err != nil {
		return &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	return pdu.ParseWriteSingleCoilResponse(resp, address, value)
}

// WriteSingleRegister writes a single register (function code 0x06).
func (c *Client) WriteSingleRegister(address modbus.Address, value uint16) error {
	req, err := pdu.WriteSingleRegisterRequest(address, value)
	if err != nil {
		return &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	return pdu.ParseWriteSingleRegisterResponse(resp, address, value)
}

// ReadExceptionStatus reads exception status (function code 0x07, serial line only).
func (c *Client) ReadExceptionStatus() (uint8, error) {
	req, err := pdu.ReadExceptionStatusRequest()
	if err != nil {
		return 0, &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return 0, err
	}
	return pdu.ParseReadExceptionStatusResponse(resp)
}

// Diagnostic performs a diagnostic sub-function (function code 0x08, serial line only).
func (c *Client) Diagnostic(subFunction uint16, data []byte) (uint16, []byte, error) {
	req, err := pdu.DiagnosticRequest(subFunction, data)
	if err != nil {
		return 0, nil, &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return 0, nil, err
	}
	return pdu.ParseDiagnosticResponse(resp)
}

// GetCommEventCounter reads the communication event counter (function code 0x0B, serial line only).
func (c *Client) GetCommEventCounter() (status uint16, eventCount uint16, err error) {
	req, err := pdu.GetCommEventCounterRequest()
	if err != nil {
		return 0, 0, &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return 0, 0, err
	}
	return pdu.ParseGetCommEventCounterResponse(resp)
}

// GetCommEventLog reads the communication event log (function code 0x0C, serial line only).
func (c *Client) GetCommEventLog() (status uint16, eventCount uint16, messageCount uint16, events []byte, err error) {
	req, err := pdu.GetCommEventLogRequest()
	if err != nil {
		return 0, 0, 0, nil, &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	return pdu.ParseGetCommEventLogResponse(resp)
}

// WriteMultipleCoils writes multiple coils (function code 0x0F).
func (c *Client) WriteMultipleCoils(address modbus.Address, values []bool) error {
	req, err := pdu.WriteMultipleCoilsRequest(address, values)
	if err != nil {
		return &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	return pdu.ParseWriteMultipleCoilsResponse(resp, address, modbus.Quantity(len(values)))
}

// WriteMultipleRegisters writes multiple registers (function code 0x10).
func (c *Client) WriteMultipleRegisters(address modbus.Address, values []uint16) error {
	req, err := pdu.WriteMultipleRegistersRequest(address, values)
	if err != nil {
		return &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	return pdu.ParseWriteMultipleRegistersResponse(resp, address, modbus.Quantity(len(values)))
}

// ReportServerID reads the server ID (function code 0x11, serial line only).
func (c *Client) ReportServerID() (id []byte, running bool, err error) {
	req, err := pdu.ReportServerIDRequest()
	if err != nil {
		return nil, false, &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, false, err
	}
	return pdu.ParseReportServerIDResponse(resp)
}

// ReadFileRecord reads file records (function code 0x14).
func (c *Client) ReadFileRecord(records []modbus.FileRecord) ([]pdu.FileRecordResponseEntry, error) {
	req, err := pdu.ReadFileRecordRequest(records)
	if err != nil {
		return nil, &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}
	return pdu.ParseReadFileRecordResponse(resp)
}

// WriteFileRecord writes file records (function code 0x15).
func (c *Client) WriteFileRecord(records []modbus.FileRecord) error {
	req, err := pdu.WriteFileRecordRequest(records)
	if err != nil {
		return &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	return pdu.ParseWriteFileRecordResponse(resp, req)
}

// MaskWriteRegister performs a mask write on a register (function code 0x16).
func (c *Client) MaskWriteRegister(address modbus.Address, andMask, orMask uint16) error {
	req, err := pdu.MaskWriteRegisterRequest(address, andMask, orMask)
	if err != nil {
		return &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	return pdu.ParseMaskWriteRegisterResponse(resp, address, andMask, orMask)
}

// ReadWriteMultipleRegisters reads and writes registers in one transaction (function code 0x17).
func (c *Client) ReadWriteMultipleRegisters(readAddress modbus.Address, readQuantity modbus.Quantity,
	writeAddress modbus.Address, writeValues []uint16) ([]uint16, error) {
	req, err := pdu.ReadWriteMultipleRegistersRequest(readAddress, readQuantity, writeAddress, writeValues)
	if err != nil {
		return nil, &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}
	return pdu.ParseReadWriteMultipleRegistersResponse(resp, readQuantity)
}

// ReadFIFOQueue reads a FIFO queue (function code 0x18).
func (c *Client) ReadFIFOQueue(address modbus.Address) ([]uint16, error) {
	req, err := pdu.ReadFIFOQueueRequest(address)
	if err != nil {
		return nil, &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}
	return pdu.ParseReadFIFOQueueResponse(resp)
}

// ReadDeviceIdentification reads device identification objects (function code 0x2B/0x0E).
func (c *Client) ReadDeviceIdentification(readCode uint8, objectID uint8) (*modbus.DeviceIdentification, bool, uint8, error) {
	req, err := pdu.ReadDeviceIdentificationRequest(readCode, objectID)
	if err != nil {
		return nil, false, 0, &InvalidParameterError{Reason: err.Error()}
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, false, 0, err
	}
	return pdu.ParseReadDeviceIdentificationResponse(resp)
}

// Broadcast methods: sent to unit id 0, no response expected (§4.9 step 5).

// BroadcastWriteSingleCoil broadcasts a write single coil command.
func (c *Client) BroadcastWriteSingleCoil(address modbus.Address, value bool) error {
	req, err := pdu.WriteSingleCoilRequest(address, value)
	if err != nil {
		return &InvalidParameterError{Reason: err.Error()}
	}
	return c.sendBroadcast(req)
}

// BroadcastWriteSingleRegister broadcasts a write single register command.
func (c *Client) BroadcastWriteSingleRegister(address modbus.Address, value uint16) error {
	req, err := pdu.WriteSingleRegisterRequest(address, value)
	if err != nil {
		return &InvalidParameterError{Reason: err.Error()}
	}
	return c.sendBroadcast(req)
}

// BroadcastWriteMultipleCoils broadcasts a write multiple coils command.
func (c *Client) BroadcastWriteMultipleCoils(address modbus.Address, values []bool) error {
	req, err := pdu.WriteMultipleCoilsRequest(address, values)
	if err != nil {
		return &InvalidParameterError{Reason: err.Error()}
	}
	return c.sendBroadcast(req)
}

// BroadcastWriteMultipleRegisters broadcasts a write multiple registers command.
func (c *Client) BroadcastWriteMultipleRegisters(address modbus.Address, values []uint16) error {
	req, err := pdu.WriteMultipleRegistersRequest(address, values)
	if err != nil {
		return &InvalidParameterError{Reason: err.Error()}
	}
	return c.sendBroadcast(req)
}
