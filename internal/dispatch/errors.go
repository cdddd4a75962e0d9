package dispatch

import (
	"errors"
	"fmt"
)

// ErrChannelClosed is returned by Register once the dispatcher has been
// closed (the underlying connection dropped) and fanned out to any
// already-pending waiters.
var ErrChannelClosed = errors.New("dispatch: channel closed")

// TooManyPendingRequestsError reports that the pipelining bound would be
// exceeded by registering another transaction.
type TooManyPendingRequestsError struct {
	MaxInFlight int
}

func (e *TooManyPendingRequestsError) Error() string {
	return fmt.Sprintf("dispatch: too many pending requests: max in flight is %d", e.MaxInFlight)
}

// TransactionIDInUseError reports an attempt to register a transaction id
// that already has a pending waiter.
type TransactionIDInUseError struct {
	TransactionID uint16
}

func (e *TransactionIDInUseError) Error() string {
	return fmt.Sprintf("dispatch: transaction id %d already in use", e.TransactionID)
}
