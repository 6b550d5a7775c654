package workflow

// Step is one of the three workflow steps.
type Step int

const (
	StepCompose Step = 1
	StepVerify  Step = 2
	StepSend    Step = 3
)

func (s Step) Valid() bool { return s >= StepCompose && s <= StepSend }

// State is the observable position of a workflow session.
type State struct {
	Step             Step          `json:"step"`
	Gate             bool          `json:"gate"`
	SendStatus       *VersionStamp `json:"send_status,omitempty"`
	EditingAfterSend bool          `json:"editing_after_send"`
}

// Machine drives one artifact through the Compose, Verify, Send protocol.
// All gating failures are returned as *ValidationError values and leave the
// state unchanged; the machine never panics or throws on user input.
type Machine struct {
	kind  Kind
	state State
}

func NewMachine(kind Kind) *Machine {
	return &Machine{kind: kind, state: State{Step: StepCompose}}
}

func (m *Machine) Kind() Kind   { return m.kind }
func (m *Machine) State() State { return m.state }

// Advance moves one step forward. Compose to Verify is unconditional; leaving
// Verify requires the gate.
func (m *Machine) Advance() error {
	switch m.state.Step {
	case StepCompose:
		m.state.Step = StepVerify
		return nil
	case StepVerify:
		if !m.state.Gate {
			return errNotSigned(m.kind)
		}
		m.state.Step = StepSend
		return nil
	default:
		return nil
	}
}

// SelectStep jumps directly to a step. Backward jumps are always allowed;
// jumping forward to the send step requires the gate.
func (m *Machine) SelectStep(s Step) error {
	if !s.Valid() {
		return &ValidationError{Code: "invalid_step", Message: "unknown step"}
	}
	if s == StepSend && m.state.Step < StepSend && !m.state.Gate {
		return errNotSigned(m.kind)
	}
	m.state.Step = s
	return nil
}

// SetGate records the sign/validate confirmation for the verify step.
func (m *Machine) SetGate(v bool) {
	m.state.Gate = v
}

// CanSend checks every precondition of the send action without executing it:
// the session must be at the send step with the gate set, the draft must have
// content, and at least one recipient must be selected. A draft that has
// already been sent must go through Modify first; there is no repeat-send
// path for an unchanged record.
func (m *Machine) CanSend(d Draft) error {
	if m.state.Step != StepSend || !m.state.Gate {
		return errNotSigned(m.kind)
	}
	if m.state.SendStatus != nil && !m.state.EditingAfterSend {
		return ErrAlreadySent
	}
	if d.Empty() {
		return errEmptyDraft(m.kind)
	}
	if !d.SendTo().Any() {
		return ErrNoRecipient
	}
	return nil
}

// RecordSend commits a successful send: the stamp becomes the send status,
// the editing flag clears, and the machine stays at the send step showing the
// confirmation.
func (m *Machine) RecordSend(stamp VersionStamp) {
	m.state.SendStatus = &stamp
	m.state.EditingAfterSend = false
}

// Modify re-opens a sent artifact for editing: the machine jumps back to
// Compose with the gate reset, and the next send will bump the version.
// Only valid once something has been sent and no edit is already in progress.
func (m *Machine) Modify() error {
	if m.state.SendStatus == nil || m.state.EditingAfterSend {
		return ErrNotSent
	}
	m.state.EditingAfterSend = true
	m.state.Gate = false
	m.state.Step = StepCompose
	return nil
}

// Restore seeds the machine as if the given stamp had just been sent. The
// detail inspector uses this when re-opening a historical record: the session
// shows the send confirmation, and an explicit Modify is still required
// before anything changes.
func (m *Machine) Restore(stamp VersionStamp) {
	m.state = State{Step: StepSend, Gate: true, SendStatus: &stamp}
}
