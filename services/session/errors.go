package session

// Error is the session engine's error taxonomy. Sentinels below are compared
// with errors.Is by handlers to pick response codes.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

var (
	// ErrDuplicateSession means a registry entry already exists for the id.
	ErrDuplicateSession = &Error{Code: "duplicateSession", Message: "session already registered"}
	// ErrSessionNotFound means no live or recently finished session matches.
	ErrSessionNotFound = &Error{Code: "sessionNotFound", Message: "session not found"}
	// ErrInvalidTransition means the requested state change violates the
	// session state machine. No mutation is applied.
	ErrInvalidTransition = &Error{Code: "invalidTransition", Message: "invalid session state transition"}
)
