package dispatch

// Error is the dispatcher's error taxonomy.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

var (
	// ErrRequestNotFound means no reading request matches the id.
	ErrRequestNotFound = &Error{Code: "requestNotFound", Message: "reading request not found"}
	// ErrRequestClosed means the request already reached a terminal status
	// (accepted, declined or expired) and cannot change again.
	ErrRequestClosed = &Error{Code: "requestClosed", Message: "reading request is no longer open"}
)
