package swap

import (
	"fmt"
	"sync"
	"time"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/bizk/ERC20-gasless-swap/internal/aa"
	"github.com/bizk/ERC20-gasless-swap/internal/quote"
)

// Event kinds recorded in an attempt's submission log.
const (
	EventConnected              = "connected"
	EventQuoted                 = "quoted"
	EventApprovalSubmit         = "approvalSubmit"
	EventApprovalReceiptSuccess = "approvalReceiptSuccess"
	EventSwapSubmit             = "swapSubmit"
	EventSwapReceiptSuccess     = "swapReceiptSuccess"
)

// Intent is a user's swap request. It is read-only once created and
// lives only for the duration of one attempt.
type Intent struct {
	// Owner is the wallet address driving the swap. When zero, the
	// orchestrator connects a wallet first and binds the owner then.
	Owner ecommon.Address
	// FromToken and ToToken are directory identifiers.
	FromToken string
	ToToken   string
	// Amount is a positive decimal string in human units.
	Amount string
	// SlippagePercent defaults to the aggregator default when zero.
	SlippagePercent int
}

// Event is one entry of an attempt's ordered submission log.
type Event struct {
	Kind string
	At   time.Time
}

// Failure is the error an attempt terminates with.
type Failure struct {
	Reason FailureReason
	Cause  error
}

func (f *Failure) Error() string {
	if f.Cause == nil {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %v", f.Reason, f.Cause)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Attempt is the aggregate root of one swap: intent, quote, per-action
// call data and handles, and the current state. It is owned exclusively
// by the orchestrator running it and never shared between attempts.
type Attempt struct {
	ID     uuid.UUID
	Intent Intent

	mu        sync.Mutex
	state     State
	failure   *Failure
	quote     quote.Quote
	cancelled bool

	approvalHandle aa.OperationHandle
	swapHandle     aa.OperationHandle

	events []Event
}

func NewAttempt(intent Intent) *Attempt {
	return &Attempt{
		ID:     uuid.New(),
		Intent: intent,
		state:  StateIdle,
	}
}

func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Failure returns the terminal failure, or nil.
func (a *Attempt) Failure() *Failure {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failure
}

// Quote returns the quote computed at confirmation time.
func (a *Attempt) Quote() quote.Quote {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quote
}

// Events returns a copy of the ordered submission log.
func (a *Attempt) Events() []Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Event, len(a.events))
	copy(out, a.events)
	return out
}

// EventKinds returns the log as ordered kind strings, for assertions.
func (a *Attempt) EventKinds() []string {
	events := a.Events()
	kinds := make([]string, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}

// Cancel aborts the attempt if no user operation has been submitted
// yet. Once a handle exists the on-chain operation cannot be unsent and
// the attempt must run to a terminal state.
func (a *Attempt) Cancel() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state.Terminal() {
		return fmt.Errorf("attempt already %s", a.state)
	}
	if a.approvalHandle != "" || a.swapHandle != "" {
		return fmt.Errorf("cannot cancel after submission, attempt is %s", a.state)
	}
	a.cancelled = true
	return nil
}

func (a *Attempt) isCancelled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancelled
}

func (a *Attempt) setState(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = s
}

func (a *Attempt) setQuote(q quote.Quote) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quote = q
}

func (a *Attempt) record(kind string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, Event{Kind: kind, At: time.Now()})
}

func (a *Attempt) recordApprovalSubmit(handle aa.OperationHandle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.approvalHandle = handle
	a.state = StateAwaitingApprovalReceipt
	a.events = append(a.events, Event{Kind: EventApprovalSubmit, At: time.Now()})
}

func (a *Attempt) recordSwapSubmit(handle aa.OperationHandle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.swapHandle = handle
	a.state = StateAwaitingSwapReceipt
	a.events = append(a.events, Event{Kind: EventSwapSubmit, At: time.Now()})
}

func (a *Attempt) fail(reason FailureReason, cause error) *Failure {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = StateFailed
	a.failure = &Failure{Reason: reason, Cause: cause}
	return a.failure
}
