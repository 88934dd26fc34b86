package checkout

// State is where the current checkout attempt stands.
//
//	Idle -> AwaitingIntent -> ConfirmingPayment -> Completing -> Done
//	                      \-> Completing (free order)
//
// Any step may end in Failed; Failed accepts a new Submit.
type State int

const (
	Idle State = iota
	AwaitingIntent
	ConfirmingPayment
	Completing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingIntent:
		return "awaiting_intent"
	case ConfirmingPayment:
		return "confirming_payment"
	case Completing:
		return "completing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight reports whether a network step of an attempt is running.
func (s State) InFlight() bool {
	return s == AwaitingIntent || s == ConfirmingPayment || s == Completing
}
