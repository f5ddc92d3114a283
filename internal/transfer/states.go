package transfer

import "fmt"

// State enumerates the transfer engine's states.
type State string

const (
	StateStaged     State = "staged"
	StateCopying    State = "copying"
	StateVerifying  State = "verifying"
	StateCommitting State = "committing"
	StateDone       State = "done"
	StateRetrying   State = "retrying"
	StateRolledBack State = "rolled_back"
)

// Event enumerates the inputs that drive state transitions.
type Event string

const (
	EventStageReady    Event = "stage_ready"
	EventCopyComplete  Event = "copy_complete"
	EventVerifyPassed  Event = "verify_passed"
	EventCommitted     Event = "committed"
	EventFailureRetry  Event = "failure_retry"
	EventFailureFinal  Event = "failure_final"
	EventRetryAttempt  Event = "retry_attempt"
)

// transitions enumerates every legal edge of the state machine.
var transitions = map[State]map[Event]State{
	StateStaged: {
		EventStageReady:   StateCopying,
		EventFailureRetry: StateRetrying,
		EventFailureFinal: StateRolledBack,
	},
	StateCopying: {
		EventCopyComplete: StateVerifying,
		EventFailureRetry: StateRetrying,
		EventFailureFinal: StateRolledBack,
	},
	StateVerifying: {
		EventVerifyPassed: StateCommitting,
		EventFailureRetry: StateRetrying,
		EventFailureFinal: StateRolledBack,
	},
	StateCommitting: {
		EventCommitted:    StateDone,
		EventFailureRetry: StateRetrying,
		EventFailureFinal: StateRolledBack,
	},
	StateRetrying: {
		EventRetryAttempt: StateStaged,
		EventFailureFinal: StateRolledBack,
	},
}

// Transition is the pure transition function of the engine's state machine.
// It returns an error for any edge not enumerated above, so an illegal
// sequence is a programming error caught in tests rather than silent drift.
func Transition(from State, ev Event) (State, error) {
	if next, ok := transitions[from][ev]; ok {
		return next, nil
	}
	return from, fmt.Errorf("illegal transition from %s on %s", from, ev)
}
