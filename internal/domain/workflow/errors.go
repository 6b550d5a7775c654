package workflow

import "fmt"

// ValidationError is a blocking, user-recoverable gating failure. It is
// returned as a value from transition and send operations; the machine state
// and the repositories are untouched whenever one is returned.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches validation errors by code so that callers can use errors.Is
// against the exported sentinels regardless of the message wording.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

var (
	ErrNotSigned   = &ValidationError{Code: "not_signed", Message: "sign before continuing"}
	ErrNoRecipient = &ValidationError{Code: "no_recipient", Message: "select at least one recipient"}
	ErrEmptyDraft  = &ValidationError{Code: "empty_draft", Message: "nothing to send"}
	ErrNotSent     = &ValidationError{Code: "not_sent", Message: "nothing has been sent yet"}
	ErrAlreadySent = &ValidationError{Code: "already_sent", Message: "already sent; use modify to send a new version"}
)

func errNotSigned(k Kind) *ValidationError {
	return &ValidationError{
		Code:    ErrNotSigned.Code,
		Message: fmt.Sprintf("the %s must be %s first", k, k.GateLabel()),
	}
}

func errEmptyDraft(k Kind) *ValidationError {
	msg := "nothing to send"
	switch k {
	case KindPrescription:
		msg = "add at least one medication"
	case KindLabRequest:
		msg = "select at least one test"
	}
	return &ValidationError{Code: ErrEmptyDraft.Code, Message: msg}
}
