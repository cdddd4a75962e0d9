package dispatch

import (
	"errors"
	"testing"

	"github.com/scadalink/modbus/pdu"
)

func TestRegisterCompleteRoundTrip(t *testing.T) {
	d := New(4)
	ch, err := d.Register(7)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	resp := &pdu.Response{}
	if !d.Complete(7, Result{Response: resp}) {
		t.Fatal("Complete reported no waiter found")
	}
	got := <-ch
	if got.Response != resp {
		t.Fatalf("got response %v, want %v", got.Response, resp)
	}
}

func TestCompleteOnUnknownTxIDIsNotAnError(t *testing.T) {
	d := New(4)
	if d.Complete(99, Result{}) {
		t.Fatal("expected Complete to report no waiter for an unregistered txID")
	}
}

func TestRegisterRejectsDuplicateTxID(t *testing.T) {
	d := New(4)
	if _, err := d.Register(1); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := d.Register(1)
	var dup *TransactionIDInUseError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *TransactionIDInUseError, got %v", err)
	}
}

// TestPipeliningBound is the §8 "pipelining bound" property: Register never
// allows more than maxInFlight concurrently pending waiters.
func TestPipeliningBound(t *testing.T) {
	d := New(4)
	for i := uint16(1); i <= 4; i++ {
		if _, err := d.Register(i); err != nil {
			t.Fatalf("Register(%d): %v", i, err)
		}
	}
	_, err := d.Register(5)
	var tooMany *TooManyPendingRequestsError
	if !errors.As(err, &tooMany) {
		t.Fatalf("expected *TooManyPendingRequestsError, got %v", err)
	}

	// Completing one frees a slot for the next registration.
	d.Complete(1, Result{})
	if _, err := d.Register(5); err != nil {
		t.Fatalf("Register after Complete: %v", err)
	}
}

// TestFanOutOnClose is the §8 "fan out on close" property: every pending
// waiter receives the close error exactly once, and further registration
// fails until Reopen.
func TestFanOutOnClose(t *testing.T) {
	d := New(4)
	chans := make([]<-chan Result, 0, 3)
	for i := uint16(1); i <= 3; i++ {
		ch, err := d.Register(i)
		if err != nil {
			t.Fatalf("Register(%d): %v", i, err)
		}
		chans = append(chans, ch)
	}

	closeErr := errors.New("connection reset")
	d.CloseAll(closeErr)

	for i, ch := range chans {
		result := <-ch
		if !errors.Is(result.Err, closeErr) {
			t.Fatalf("waiter %d: got err %v, want %v", i, result.Err, closeErr)
		}
	}

	if _, err := d.Register(10); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("expected ErrChannelClosed after CloseAll, got %v", err)
	}

	d.Reopen()
	if _, err := d.Register(10); err != nil {
		t.Fatalf("Register after Reopen: %v", err)
	}
}

func TestSerialModeSingleWaiter(t *testing.T) {
	d := New(1)
	if _, err := d.Register(1); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := d.Register(2)
	var tooMany *TooManyPendingRequestsError
	if !errors.As(err, &tooMany) {
		t.Fatalf("expected *TooManyPendingRequestsError for second concurrent serial request, got %v", err)
	}
}
