package scheduling

// Error is the booking engine's error taxonomy.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

var (
	// ErrSlotConflict means the interval was taken between slot listing and
	// booking. The caller should refresh the listing and retry; the engine
	// never silently picks an alternate slot.
	ErrSlotConflict = &Error{Code: "slotConflict", Message: "requested interval is no longer available"}
	// ErrReadingNotFound means no scheduled reading matches the id.
	ErrReadingNotFound = &Error{Code: "readingNotFound", Message: "scheduled reading not found"}
	// ErrInvalidSlot means the requested interval falls outside the reader's
	// availability windows.
	ErrInvalidSlot = &Error{Code: "invalidSlot", Message: "interval is outside the reader's availability"}
	// ErrInvalidState means the reading is not in a state that allows the
	// requested operation.
	ErrInvalidState = &Error{Code: "invalidState", Message: "reading state does not allow this operation"}
)
