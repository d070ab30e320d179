package enums

// EventCode identifies the PSP notification types the reconciler acts on.
// Anything else is acknowledged and ignored.
type EventCode string

const (
	EventCodeAuthorisation EventCode = "AUTHORISATION"
	EventCodeCapture       EventCode = "CAPTURE"
	EventCodeRefund        EventCode = "REFUND"
)

var handledEventCodes = []EventCode{
	EventCodeAuthorisation,
	EventCodeCapture,
	EventCodeRefund,
}

// String implements fmt.Stringer.
func (e EventCode) String() string {
	return string(e)
}

// IsHandled reports whether the reconciler has a transition rule for the code.
func (e EventCode) IsHandled() bool {
	for _, candidate := range handledEventCodes {
		if candidate == e {
			return true
		}
	}
	return false
}
