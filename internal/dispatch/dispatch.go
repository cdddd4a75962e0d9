// Package dispatch matches asynchronous transport reads back to the
// synchronous SendRequest caller that issued them, keyed by MBAP
// transaction id. It supports both the single-pending-request discipline
// serial transports require and the pipelined, many-in-flight discipline
// TCP/TLS/UDP transports allow.
package dispatch

import (
	"fmt"
	"sync"

	"github.com/scadalink/modbus/pdu"
)

// DefaultMaxInFlight is used when a caller configures 0 as its pipelining
// bound.
const DefaultMaxInFlight = 4

// Result is what a waiter receives: either a parsed response or the error
// that prevented one from arriving.
type Result struct {
	Response *pdu.Response
	Err      error
}

// Dispatcher owns the set of in-flight transaction ids awaiting a response.
// A Dispatcher with MaxInFlight == 1 enforces the single-pending-request
// discipline serial transports need; higher values allow pipelining.
type Dispatcher struct {
	mu          sync.Mutex
	waiters     map[uint16]chan Result
	maxInFlight int
	closed      bool
	closeErr    error
}

// New creates a Dispatcher. maxInFlight is clamped to [1, 65535]; 0 selects
// DefaultMaxInFlight.
func New(maxInFlight int) *Dispatcher {
	if maxInFlight == 0 {
		maxInFlight = DefaultMaxInFlight
	}
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	if maxInFlight > 65535 {
		maxInFlight = 65535
	}
	return &Dispatcher{
		waiters:     make(map[uint16]chan Result),
		maxInFlight: maxInFlight,
	}
}

// Register reserves txID for an in-flight request and returns a channel that
// will receive exactly one Result. It fails if the dispatcher is closed, if
// txID already has a pending waiter, or if the in-flight bound is already
// saturated.
func (d *Dispatcher) Register(txID uint16) (<-chan Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrChannelClosed
	}
	if _, exists := d.waiters[txID]; exists {
		return nil, &TransactionIDInUseError{TransactionID: txID}
	}
	if len(d.waiters) >= d.maxInFlight {
		return nil, &TooManyPendingRequestsError{MaxInFlight: d.maxInFlight}
	}

	ch := make(chan Result, 1)
	d.waiters[txID] = ch
	return ch, nil
}

// Cancel removes a registered waiter without delivering a result, used when
// the caller gives up (e.g. on a context cancellation) before a response
// arrives.
func (d *Dispatcher) Cancel(txID uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.waiters, txID)
}

// Complete delivers a result to the waiter registered for txID, if any. It
// reports whether a waiter was found; an unmatched transaction id (a
// response for a request nobody is waiting on, or a retransmitted/stale
// response) is not an error at this layer — the caller decides whether to
// log and drop it.
func (d *Dispatcher) Complete(txID uint16, result Result) bool {
	d.mu.Lock()
	ch, ok := d.waiters[txID]
	if ok {
		delete(d.waiters, txID)
	}
	d.mu.Unlock()

	if !ok {
		return false
	}
	ch <- result
	return true
}

// CloseAll fans err out to every pending waiter and marks the dispatcher
// closed; subsequent Register calls fail with ErrChannelClosed. Used when
// the underlying connection drops with requests still in flight.
func (d *Dispatcher) CloseAll(err error) {
	d.mu.Lock()
	d.closed = true
	d.closeErr = err
	waiters := d.waiters
	d.waiters = make(map[uint16]chan Result)
	d.mu.Unlock()

	for _, ch := range waiters {
		ch <- Result{Err: err}
	}
}

// Reopen clears the closed state so the dispatcher can be reused after a
// successful reconnect.
func (d *Dispatcher) Reopen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = false
	d.closeErr = nil
}

// Pending reports the number of transaction ids currently awaiting a
// response.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.waiters)
}

func (d *Dispatcher) String() string {
	return fmt.Sprintf("Dispatcher(maxInFlight=%d, pending=%d)", d.maxInFlight, d.Pending())
}
