// Package txid allocates MBAP transaction identifiers: a monotonically
// increasing counter over the range 1-65535 that wraps around without ever
// producing 0, safe for concurrent use by pipelined senders.
package txid

import "sync/atomic"

// Allocator hands out transaction identifiers. The zero value is ready to
// use and starts from 1.
type Allocator struct {
	next uint32
}

// Next returns the next transaction identifier, wrapping from 65535 back to
// 1 without ever yielding 0 (0 is reserved so callers can use it as a
// "no active transaction" sentinel).
func (a *Allocator) Next() uint16 {
	for {
		v := atomic.AddUint32(&a.next, 1)
		id := uint16(v)
		if id != 0 {
			return id
		}
		// v wrapped uint16 to exactly 0 (v == 65536, 131072, ...); retry.
	}
}
