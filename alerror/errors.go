// Package alerror defines the error-code taxonomy and per-device last-error
// latch used throughout oalcore. A fixed, enumerable code set is returned
// through a latch that GetError reads-and-clears, which a plain Go error
// value can't express on its own, so Code wraps the sentinel values below.
package alerror

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Code is one of the six error codes this package enumerates.
type Code int32

const (
	NoError Code = iota
	InvalidDevice
	InvalidContext
	InvalidEnum
	InvalidValue
	OutOfMemory
)

func (c Code) String() string {
	switch c {
	case NoError:
		return "NO_ERROR"
	case InvalidDevice:
		return "INVALID_DEVICE"
	case InvalidContext:
		return "INVALID_CONTEXT"
	case InvalidEnum:
		return "INVALID_ENUM"
	case InvalidValue:
		return "INVALID_VALUE"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	default:
		return fmt.Sprintf("UNKNOWN_ERROR(%d)", int32(c))
	}
}

// Sentinel errors, one per code, so callers can use errors.Is against a
// wrapped error returned from a public API method.
var (
	ErrInvalidDevice  = errors.New("al: invalid device")
	ErrInvalidContext = errors.New("al: invalid context")
	ErrInvalidEnum    = errors.New("al: invalid enum")
	ErrInvalidValue   = errors.New("al: invalid value")
	ErrOutOfMemory    = errors.New("al: out of memory")
)

// FromCode returns the sentinel error associated with a Code, or nil for
// NoError.
func FromCode(c Code) error {
	switch c {
	case NoError:
		return nil
	case InvalidDevice:
		return ErrInvalidDevice
	case InvalidContext:
		return ErrInvalidContext
	case InvalidEnum:
		return ErrInvalidEnum
	case InvalidValue:
		return ErrInvalidValue
	case OutOfMemory:
		return ErrOutOfMemory
	default:
		return fmt.Errorf("al: unknown error code %d", c)
	}
}

// ToCode maps a sentinel (or wrapped sentinel) error back to its Code. A nil
// or unrecognized error maps to NoError.
func ToCode(err error) Code {
	switch {
	case err == nil:
		return NoError
	case errors.Is(err, ErrInvalidDevice):
		return InvalidDevice
	case errors.Is(err, ErrInvalidContext):
		return InvalidContext
	case errors.Is(err, ErrInvalidEnum):
		return InvalidEnum
	case errors.Is(err, ErrInvalidValue):
		return InvalidValue
	case errors.Is(err, ErrOutOfMemory):
		return OutOfMemory
	default:
		return NoError
	}
}

// Latch is a single-slot "last error" cell, exchanged to NoError on read,
// that never queues errors. One Latch backs each device; a single
// process-wide Latch backs LastNullDeviceError for operations with no
// device target.
type Latch struct {
	code atomic.Int32

	// TrapOnError, when set, converts every stored error into a panic
	// instead of a silent latch.
	mu          sync.Mutex
	trapOnError bool
}

// Store records an error code, overwriting whatever was previously latched.
// Storing NoError clears the latch.
func (l *Latch) Store(c Code) {
	l.mu.Lock()
	trap := l.trapOnError
	l.mu.Unlock()

	if trap && c != NoError {
		panic(fmt.Sprintf("al: trapped error %s", c))
	}
	l.code.Store(int32(c))
}

// Take reads and clears the latch: errors are returned at most once and are
// never queued.
func (l *Latch) Take() Code {
	return Code(l.code.Swap(int32(NoError)))
}

// Peek reads without clearing; used internally when a routine needs to
// check-then-decide without consuming the application-visible error.
func (l *Latch) Peek() Code {
	return Code(l.code.Load())
}

// SetTrapOnError toggles converting any stored error into a panic instead
// of a silent latch.
func (l *Latch) SetTrapOnError(trap bool) {
	l.mu.Lock()
	l.trapOnError = trap
	l.mu.Unlock()
}
