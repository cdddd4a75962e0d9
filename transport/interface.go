package transport

import (
	"time"

	"github.com/scadalink/modbus/modbus"
	"github.com/scadalink/modbus/pdu"
)

// Transport is the wire carrier a Client coordinator drives: one request at
// a time for serial lines, pipelined (concurrent SendRequest calls
// multiplexed over one connection) for TCP/TLS. Connect/Close/IsConnected
// track a single connection's lifecycle; the coordinator owns reconnection
// policy and idle-timeout bookkeeping above this interface, not the
// transport itself.
type Transport interface {
	// Connect dials (or opens) the underlying carrier. Calling Connect
	// while already connected is a no-op.
	Connect() error

	// Close tears the carrier down and fails any request still waiting
	// on a reply.
	Close() error

	// IsConnected reports whether Connect has succeeded and Close has
	// not yet been called.
	IsConnected() bool

	// SendRequest transmits request addressed to slaveID and blocks for
	// its reply or GetTimeout, whichever comes first. Safe for
	// concurrent use by transports that support pipelining.
	SendRequest(slaveID modbus.SlaveID, request *pdu.Request) (*pdu.Response, error)

	// SetTimeout/GetTimeout configure how long SendRequest waits for a
	// reply before returning ErrTimeout.
	SetTimeout(timeout time.Duration)
	GetTimeout() time.Duration

	// GetTransportType reports which of the six wire carriers this
	// implementation is, for logging and diagnostics.
	GetTransportType() modbus.TransportType

	String() string
}

// Broadcaster is an optional capability: a Transport implementing it can
// address unit id 0 without registering a waiter or awaiting a reply, per
// Modbus spec §4.1.1 (a broadcast request gets no response at all). Every
// transport in this package implements it; it is kept separate from
// Transport so a caller can detect the capability with a type assertion
// rather than every future transport being forced to support broadcast.
type Broadcaster interface {
	SendBroadcast(request *pdu.Request) error
}
