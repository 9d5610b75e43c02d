package swap

// State is the position of a swap attempt in its lifecycle. Confirmed
// and Failed are terminal; Failed is reachable from every other state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateQuoted
	StateApproving
	StateAwaitingApprovalReceipt
	StateSwapping
	StateAwaitingSwapReceipt
	StateConfirmed
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:                    "Idle",
	StateConnecting:              "Connecting",
	StateQuoted:                  "Quoted",
	StateApproving:               "Approving",
	StateAwaitingApprovalReceipt: "AwaitingApprovalReceipt",
	StateSwapping:                "Swapping",
	StateAwaitingSwapReceipt:     "AwaitingSwapReceipt",
	StateConfirmed:               "Confirmed",
	StateFailed:                  "Failed",
}

func (s State) String() string {
	name, ok := stateNames[s]
	if !ok {
		return "Unknown"
	}
	return name
}

// Terminal reports whether the attempt has finished.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateFailed
}

// FailureReason classifies why an attempt ended in Failed.
type FailureReason string

const (
	ReasonInvalidRequest           FailureReason = "InvalidRequest"
	ReasonWalletConnectionFailed   FailureReason = "WalletConnectionFailed"
	ReasonApprovalSubmissionFailed FailureReason = "ApprovalSubmissionFailed"
	ReasonApprovalReverted         FailureReason = "ApprovalReverted"
	ReasonSwapSubmissionFailed     FailureReason = "SwapSubmissionFailed"
	ReasonSwapReverted             FailureReason = "SwapReverted"
	ReasonReceiptTimeout           FailureReason = "ReceiptTimeout"
	ReasonTransportError           FailureReason = "TransportError"
	ReasonCancelled                FailureReason = "Cancelled"
)
