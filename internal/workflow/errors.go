package workflow

import "errors"

// ErrClosed is returned once the session has been torn down. Results of
// calls that were in flight at that moment are discarded.
var ErrClosed = errors.New("workflow session closed")

// Kind classifies a failed workflow operation.
type Kind string

const (
	KindFetch      Kind = "fetch"
	KindSave       Kind = "save"
	KindGeneration Kind = "generation"
)

// Error is returned by every controller operation that failed against an
// external collaborator. Msg is the user-readable text also published as
// the state's generation error.
type Error struct {
	Kind  Kind
	Phase Phase
	Msg   string
	Err   error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a workflow Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var we *Error
	return errors.As(err, &we) && we.Kind == kind
}
