package enums

import "fmt"

// TransactionStatus is the lifecycle state of a payment transaction.
type TransactionStatus string

const (
	TransactionStatusCreated         TransactionStatus = "created"
	TransactionStatusAuthorised      TransactionStatus = "authorised"
	TransactionStatusCaptured        TransactionStatus = "captured"
	TransactionStatusRefundRequested TransactionStatus = "refund_requested"
	TransactionStatusRefunded        TransactionStatus = "refunded"
	TransactionStatusFailed          TransactionStatus = "failed"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusCreated,
	TransactionStatusAuthorised,
	TransactionStatusCaptured,
	TransactionStatusRefundRequested,
	TransactionStatusRefunded,
	TransactionStatusFailed,
}

// allowedTransactionTransitions is the directed edge set for explicit API
// flows (confirm, refund request). PSP notifications overwrite status
// directly and are not routed through this table, because out-of-order
// redelivery is tolerated there.
var allowedTransactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusCreated:         {TransactionStatusAuthorised, TransactionStatusFailed},
	TransactionStatusAuthorised:      {TransactionStatusCaptured, TransactionStatusRefundRequested, TransactionStatusFailed},
	TransactionStatusCaptured:        {TransactionStatusRefundRequested, TransactionStatusRefunded, TransactionStatusFailed},
	TransactionStatusRefundRequested: {TransactionStatusRefunded, TransactionStatusFailed},
}

// String implements fmt.Stringer.
func (s TransactionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TransactionStatus.
func (s TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave this state.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusRefunded || s == TransactionStatusFailed
}

// CanTransitionTo reports whether the directed edge s -> next exists.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, candidate := range allowedTransactionTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseTransactionStatus converts raw input into a TransactionStatus.
func ParseTransactionStatus(value string) (TransactionStatus, error) {
	for _, candidate := range validTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction status %q", value)
}
