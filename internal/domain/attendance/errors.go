package attendance

import "errors"

// Attendance domain errors
var (
	// Clocking errors
	ErrInvalidMode          = errors.New("mode must be work or break")
	ErrImageRequired        = errors.New("photo is required")
	ErrFaceNotRecognized    = errors.New("face not recognized")
	ErrFaceMismatch         = errors.New("recognized face does not belong to the authenticated employee")
	ErrShiftAlreadyFinished = errors.New("you have already finished your shift for today")
	ErrEntryRequired        = errors.New("you must register your entry before a break")
	ErrBreakOpen            = errors.New("close your break before registering the exit")

	// General errors
	ErrEventNotFound  = errors.New("attendance event not found")
	ErrNotEntryEvent  = errors.New("only entry events carry lateness")
	ErrInvalidBreak   = errors.New("break start must precede break end")
	ErrBreakMismatch  = errors.New("events do not form a break pair")
	ErrEventWrongDate = errors.New("event does not belong to the requested date")
	ErrInvalidRange   = errors.New("end date precedes start date")
)
