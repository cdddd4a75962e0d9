package transport

import (
	"sync/atomic"
	"time"
)

// atomicDuration is a lock-free time.Duration, used for the timeout knob
// SendRequest and SetTimeout access concurrently.
type atomicDuration struct {
	v atomic.Int64
}

func (a *atomicDuration) Store(d time.Duration) { a.v.Store(int64(d)) }
func (a *atomicDuration) Load() time.Duration   { return time.Duration(a.v.Load()) }

// atomicTime is a lock-free time.Time, used to record last-activity for
// idle-timeout tracking without taking a mutex on every send.
type atomicTime struct {
	v atomic.Int64
}

func (a *atomicTime) Store(t time.Time) { a.v.Store(t.UnixNano()) }
func (a *atomicTime) Load() time.Time   { return time.Unix(0, a.v.Load()) }
