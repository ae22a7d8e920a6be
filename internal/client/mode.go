package client

// Mode is where the synchronizer currently reads and writes.
type Mode int

const (
	// ModeRemote reads and writes through the state service.
	ModeRemote Mode = iota
	// ModeDegraded reads and writes local slice files only.
	ModeDegraded
)

func (m Mode) String() string {
	if m == ModeDegraded {
		return "degraded"
	}
	return "remote"
}

// Outcome is the result of one remote call.
type Outcome struct {
	Failure FailureKind
}

// OutcomeOf classifies err into an Outcome.
func OutcomeOf(err error) Outcome {
	return Outcome{Failure: Classify(err)}
}

// Succeeded reports whether the call succeeded.
func (o Outcome) Succeeded() bool { return o.Failure == FailureNone }

// Transition returns the mode after a remote call with outcome o.
// Any classified failure degrades; a success restores remote mode.
func Transition(m Mode, o Outcome) Mode {
	switch o.Failure {
	case FailureNone:
		return ModeRemote
	case FailureTimeout, FailureNetwork, FailureStatus, FailureDecode:
		return ModeDegraded
	}
	return m
}
