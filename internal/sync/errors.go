package sync

import (
	"errors"
	"strings"

	"github.com/smswire/smswire/internal/gateway"
	"github.com/smswire/smswire/internal/state"
)

// ErrorKind classifies an operation failure by what the consumer should
// do with it.
type ErrorKind int

const (
	// KindTransport covers network failures and unexpected gateway
	// statuses. Retryable; render a generic failure.
	KindTransport ErrorKind = iota
	// KindValidation covers field-level rejections of a send. SendMessage
	// recovers these into FieldErrors; Classify only sees them when a
	// caller inspects a raw error chain.
	KindValidation
	// KindLookup covers local lookups that fail loudly, such as opening a
	// thread id absent from the loaded list. A sequencing bug in the
	// caller, not a remote fault.
	KindLookup
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindLookup:
		return "lookup"
	default:
		return "transport"
	}
}

// Classify reports which kind of failure err represents.
func Classify(err error) ErrorKind {
	var verr *gateway.ValidationError
	if errors.As(err, &verr) {
		return KindValidation
	}
	if errors.Is(err, state.ErrThreadNotFound) {
		return KindLookup
	}
	return KindTransport
}

// FieldErrors holds the per-field messages of a rejected send, ready for
// inline display next to the compose inputs.
type FieldErrors struct {
	Content []string
	To      []string
}

// Empty reports whether no field carries a message.
func (f *FieldErrors) Empty() bool {
	return f == nil || (len(f.Content) == 0 && len(f.To) == 0)
}

// recoverValidation converts a gateway validation rejection into
// FieldErrors, pushing "from" messages as error notifications. Returns
// nil when err is not a validation error.
func (e *Engine) recoverValidation(err error) *FieldErrors {
	var verr *gateway.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	for _, msg := range verr.Field("from") {
		e.store.Notify(msg, state.NotifyError)
	}
	return &FieldErrors{
		Content: verr.Field("content"),
		To:      rewriteToMessages(verr.Field("to")),
	}
}

// rewriteToMessages swaps the wire-level field name for the label the
// compose form renders.
func rewriteToMessages(msgs []string) []string {
	if len(msgs) == 0 {
		return msgs
	}
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = strings.ReplaceAll(m, "to field", "phone number field")
	}
	return out
}
