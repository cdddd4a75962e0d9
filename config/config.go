// Package config holds validated, immutable client configuration: transport
// addressing, timeouts, retries, pipelining bounds, reconnection strategy,
// and the serial- and TLS-specific knobs each transport needs. Every
// numerical field clamps invalid input into a valid range rather than
// rejecting it, per field, as documented below.
package config

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/scadalink/modbus/modbus"
)

// Default ports per transport, per the MODBUS Messaging and Security specs.
const (
	DefaultTCPPort = 502
	DefaultTLSPort = 802
	DefaultUDPPort = 502
)

const (
	DefaultRequestTimeout = 1 * time.Second
	DefaultConnectTimeout = 5 * time.Second
	DefaultRetries        = 3
	DefaultIdleTimeout    = 60 * time.Second
	DefaultMaxInFlight    = 4
	MaxInFlightCeiling    = 65535
)

// ReconnectStrategyKind selects how the client coordinator re-establishes a
// dropped connection.
type ReconnectStrategyKind int

const (
	// ReconnectDisabled means a dropped connection is never retried
	// automatically; the next request fails with NotConnected.
	ReconnectDisabled ReconnectStrategyKind = iota
	// ReconnectImmediate attempts a single reconnect with no delay.
	ReconnectImmediate
	// ReconnectExponentialBackoff retries with the delay doubling on each
	// failure, capped at MaxDelay, and reset to InitialDelay on success.
	ReconnectExponentialBackoff
)

func (k ReconnectStrategyKind) String() string {
	switch k {
	case ReconnectDisabled:
		return "disabled"
	case ReconnectImmediate:
		return "immediate"
	case ReconnectExponentialBackoff:
		return "exponential-backoff"
	default:
		return "unknown"
	}
}

// ReconnectStrategy describes how and whether to reconnect after a dropped
// connection or serial I/O error.
type ReconnectStrategy struct {
	Kind         ReconnectStrategyKind `json:"kind"`
	InitialDelay time.Duration         `json:"initial_delay"`
	MaxDelay     time.Duration         `json:"max_delay"`
}

// normalize clamps InitialDelay/MaxDelay into a sane, non-negative,
// InitialDelay<=MaxDelay relationship.
func (r *ReconnectStrategy) normalize() {
	if r.InitialDelay < 0 {
		r.InitialDelay = 0
	}
	if r.MaxDelay < r.InitialDelay {
		r.MaxDelay = r.InitialDelay
	}
}

// PipeliningConfig bounds how many requests may be in flight at once on a
// single client. Disabled is equivalent to MaxInFlight == 1 (the serial
// single-pending-request discipline).
type PipeliningConfig struct {
	Disabled       bool          `json:"disabled"`
	MaxInFlight    int           `json:"max_in_flight"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

func (p *PipeliningConfig) normalize() {
	if p.Disabled {
		p.MaxInFlight = 1
		return
	}
	if p.MaxInFlight == 0 {
		p.MaxInFlight = DefaultMaxInFlight
	}
	if p.MaxInFlight < 1 {
		p.MaxInFlight = 1
	}
	if p.MaxInFlight > MaxInFlightCeiling {
		p.MaxInFlight = MaxInFlightCeiling
	}
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = DefaultRequestTimeout
	}
}

// CertificateVerificationMode selects how strictly a TLS peer certificate is
// checked, per the Modbus Security specification's three conformance modes.
type CertificateVerificationMode int

const (
	CertVerifyFull CertificateVerificationMode = iota
	CertVerifyNoHostname
	CertVerifyNone
)

// TLSConfig carries the Modbus-Security-profile TLS settings for the MBAP/TLS
// transport. CertFile/KeyFile/CAFile are PEM paths; TLSConfig has no fields
// for in-memory certificate material (transport.TCPTransportConfig.TLSConfig
// accepts a ready-built *tls.Config).
type TLSConfig struct {
	MinVersion       uint16                      `json:"min_version"`
	MaxVersion       uint16                      `json:"max_version"`
	CertFile         string                      `json:"cert_file"`
	KeyFile          string                      `json:"key_file"`
	CAFile           string                      `json:"ca_file"`
	VerificationMode CertificateVerificationMode `json:"verification_mode"`
	ServerName       string                      `json:"server_name"`
}

func (c *TLSConfig) normalize() {
	if c.MinVersion == 0 || c.MinVersion < tls.VersionTLS12 {
		c.MinVersion = tls.VersionTLS12
	}
	if c.MaxVersion != 0 && c.MaxVersion < c.MinVersion {
		c.MaxVersion = c.MinVersion
	}
}

// ToStdlib builds a *tls.Config from the version bounds and server name.
// Only CertVerifyNone changes verification (it sets InsecureSkipVerify);
// CertVerifyNoHostname is not distinguished from CertVerifyFull, so the
// standard verification, hostname check included, applies to both. Loading
// the certificate/key/CA material from disk is left to the caller building
// the transport, since it may legitimately fail and config.Validate keeps
// this package I/O-free beyond its own JSON file.
func (c *TLSConfig) ToStdlib() *tls.Config {
	cfg := &tls.Config{
		MinVersion: c.MinVersion,
		MaxVersion: c.MaxVersion,
		ServerName: c.ServerName,
	}
	if c.VerificationMode == CertVerifyNone {
		cfg.InsecureSkipVerify = true
	}
	return cfg
}

// SerialErrorRecovery names a recovery mode for an I/O error on a serial
// file descriptor (EBADF/ECONNRESET/EPIPE analogues). It is stored in
// SerialConfig and saved/loaded with it, as are ReconnectDelay and
// ReconnectMaxDelay, but no transport or client code reads these fields: a
// serial I/O error is classified by the client like any other transport
// error, whatever mode is set.
type SerialErrorRecovery int

const (
	SerialErrorRecoveryDisabled SerialErrorRecovery = iota
	SerialErrorRecoveryFixedDelay
	SerialErrorRecoveryExponentialBackoff
)

// SerialConfig carries MODBUS RTU/ASCII serial-line settings.
type SerialConfig struct {
	Port              string              `json:"port"`
	BaudRate          int                 `json:"baud_rate"`
	DataBits          int                 `json:"data_bits"`
	Parity            string              `json:"parity"` // "N", "E", "O"
	StopBits          int                 `json:"stop_bits"`
	HandleLocalEcho   bool                `json:"handle_local_echo"`
	ErrorRecovery     SerialErrorRecovery `json:"error_recovery"`
	ReconnectDelay    time.Duration       `json:"reconnect_delay"`
	ReconnectMaxDelay time.Duration       `json:"reconnect_max_delay"`
}

func (s *SerialConfig) normalize() {
	if s.BaudRate <= 0 {
		s.BaudRate = 9600
	}
	if s.DataBits != 7 && s.DataBits != 8 {
		s.DataBits = 8
	}
	if s.StopBits != 1 && s.StopBits != 2 {
		s.StopBits = 1
	}
	switch s.Parity {
	case "N", "E", "O":
	default:
		s.Parity = "N"
	}
	if s.ReconnectDelay < 0 {
		s.ReconnectDelay = 0
	}
	if s.ReconnectMaxDelay < s.ReconnectDelay {
		s.ReconnectMaxDelay = s.ReconnectDelay
	}
}

// TransportKind names the wire transport a ClientConfig targets.
type TransportKind int

const (
	TransportTCP TransportKind = iota
	TransportTLS
	TransportUDP
	TransportRTU
	TransportRTUOverTCP
	TransportASCII
)

// ClientConfig is the complete, validated configuration for one client
// instance. Exactly one of the transport-specific sections is meaningful,
// selected by Transport.
type ClientConfig struct {
	Transport TransportKind `json:"transport"`

	Host string `json:"host"`
	Port int    `json:"port"`

	UnitID modbus.SlaveID `json:"unit_id"`

	RequestTimeout time.Duration     `json:"request_timeout"`
	ConnectTimeout time.Duration     `json:"connect_timeout"`
	Retries        int               `json:"retries"`
	IdleTimeout    time.Duration     `json:"idle_timeout"` // 0 disables
	Reconnect      ReconnectStrategy `json:"reconnect"`
	Pipelining     PipeliningConfig  `json:"pipelining"`

	TLS    TLSConfig    `json:"tls"`
	Serial SerialConfig `json:"serial"`
}

// Validate clamps every numerical knob into a valid range in place and
// fills in transport-appropriate defaults (e.g. port 502/802 for TCP/TLS).
// It never rejects a ClientConfig outright; out-of-range input is corrected,
// per field, documented below:
//   - Port <= 0: defaulted per Transport (TCP/UDP 502, TLS 802).
//   - RequestTimeout/ConnectTimeout <= 0: DefaultRequestTimeout/DefaultConnectTimeout.
//   - Retries < 0: DefaultRetries.
//   - IdleTimeout < 0: DefaultIdleTimeout (IdleTimeout == 0 means disabled and is left alone).
func (c *ClientConfig) Validate() {
	if c.Port <= 0 {
		switch c.Transport {
		case TransportTLS:
			c.Port = DefaultTLSPort
		default:
			c.Port = DefaultTCPPort
		}
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Retries < 0 {
		c.Retries = DefaultRetries
	}
	if c.IdleTimeout < 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	c.Reconnect.normalize()
	c.Pipelining.normalize()
	c.TLS.normalize()
	c.Serial.normalize()

	// Serial transports are inherently single-pending-request: a half-duplex
	// line cannot pipeline regardless of the configured bound.
	switch c.Transport {
	case TransportRTU, TransportASCII:
		c.Pipelining.Disabled = true
		c.Pipelining.MaxInFlight = 1
	}
}

// Address returns the "host:port" dial target for network transports.
func (c *ClientConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Default returns a ClientConfig with every field at its documented
// default, for the given transport.
func Default(transport TransportKind) *ClientConfig {
	c := &ClientConfig{
		Transport:      transport,
		UnitID:         1,
		RequestTimeout: DefaultRequestTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		Retries:        DefaultRetries,
		IdleTimeout:    DefaultIdleTimeout,
		Pipelining:     PipeliningConfig{MaxInFlight: DefaultMaxInFlight, RequestTimeout: DefaultRequestTimeout},
	}
	c.Validate()
	return c
}

// Load reads a ClientConfig from a JSON file and validates it.
func Load(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	var c ClientConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	c.Validate()
	return &c, nil
}

// Save writes c to a JSON file.
func (c *ClientConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}
