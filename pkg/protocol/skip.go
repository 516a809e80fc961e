package protocol

// SkipError signals that a handler could not run because of missing
// configuration or an unready collaborator. The dispatcher records it as a
// skipped result, not a failure.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return "action skipped: " + e.Reason
}

func Skip(reason string) *SkipError {
	return &SkipError{Reason: reason}
}
