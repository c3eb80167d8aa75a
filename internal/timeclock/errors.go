package timeclock

import "errors"

var (
	ErrAlreadyActiveSession = errors.New("user already has an active session")
	ErrNoActiveSession      = errors.New("user has no active session")
	ErrUnknownUser          = errors.New("user has no recorded sessions")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrUnknownAction        = errors.New("unknown action")
	ErrInvalidAction        = errors.New("invalid action")
)
