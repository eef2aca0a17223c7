package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportUnavailable indicates no engine is attached to the session.
	ErrTransportUnavailable = errors.New("engine transport unavailable")
	// ErrSessionClosed indicates the session was torn down.
	ErrSessionClosed = errors.New("session closed")
	// ErrSessionNotFound indicates an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists indicates a session id is already registered.
	ErrSessionExists = errors.New("session already exists")
	// ErrSessionLimit indicates the registry is full.
	ErrSessionLimit = errors.New("session limit reached")
	// ErrAlreadyAttached indicates a transport was attached twice.
	ErrAlreadyAttached = errors.New("engine already attached")
	// ErrInvalidMode indicates an unknown session mode.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrInvalidSlot indicates a slot that does not belong to the session mode.
	ErrInvalidSlot = errors.New("invalid slot")
	// ErrInvalidOption indicates an unknown option or a value of the wrong type.
	ErrInvalidOption = errors.New("invalid option")
	// ErrUnsafeIdentifier indicates an identifier with characters outside the safe set.
	ErrUnsafeIdentifier = errors.New("unsafe identifier")
	// ErrUnknownOp indicates a command operation the engine protocol does not define.
	ErrUnknownOp = errors.New("unknown operation")
	// ErrLoadFailed indicates the engine page failed to initialize.
	ErrLoadFailed = errors.New("engine load failed")
)

// LoadError describes a failed engine page load.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	if e == nil {
		return ErrLoadFailed.Error()
	}
	if e.URL == "" {
		return fmt.Sprintf("%s: %v", ErrLoadFailed, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrLoadFailed, e.URL, e.Err)
}

func (e *LoadError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return []error{ErrLoadFailed, e.Err}
}
