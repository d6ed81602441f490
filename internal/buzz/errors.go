package buzz

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceNotFound means no matching receiver was enumerated.
	ErrDeviceNotFound = errors.New("no buzzer receiver found")

	// ErrInterfaceUnavailable means a receiver was found but none of its
	// interfaces could be opened.
	ErrInterfaceUnavailable = errors.New("buzzer interface unavailable")

	// ErrEndpointNotFound means the claimed interface exposes no usable
	// input channel.
	ErrEndpointNotFound = errors.New("no input endpoint on buzzer interface")

	// ErrInvalidArgument is returned for malformed caller input, such as an
	// LED array whose length is not 4.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrShortReport marks an input report below the minimum length.
	// Callers drop these silently; they are expected hardware noise.
	ErrShortReport = errors.New("input report too short")

	// ErrClosed is returned from transport operations after Close.
	ErrClosed = errors.New("device closed")
)

// SetupError wraps any failure during discovery, claiming, or channel
// setup. Every caller waiting on the same readiness attempt receives the
// same *SetupError.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("buzzer setup failed: %v", e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// LedWriteError reports a failed LED write. It is only ever delivered
// through the Error event channel, never returned to SetLeds callers.
type LedWriteError struct {
	State LedState
	Err   error
}

func (e *LedWriteError) Error() string {
	return fmt.Sprintf("led write failed: %v", e.Err)
}

func (e *LedWriteError) Unwrap() error {
	return e.Err
}
