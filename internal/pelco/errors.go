package pelco

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes. Every concrete error returned by this package unwraps to
// exactly one of these, so callers can branch with errors.Is.
var (
	ErrValidation       = errors.New("pelco: validation failed")
	ErrFrame            = errors.New("pelco: malformed frame")
	ErrChecksumMismatch = errors.New("pelco: checksum mismatch")
	ErrTransport        = errors.New("pelco: transport failure")
	ErrProtocol         = errors.New("pelco: protocol violation")
)

// Specific failure kinds.
var (
	ErrOutOfRange       = fmt.Errorf("%w: value out of range", ErrValidation)
	ErrNotAllowed       = fmt.Errorf("%w: value not allowed", ErrValidation)
	ErrConflictingFlags = fmt.Errorf("%w: conflicting flags", ErrValidation)
	ErrBadLength        = fmt.Errorf("%w: bad length", ErrFrame)
	ErrBadSync          = fmt.Errorf("%w: bad sync byte", ErrFrame)
	ErrTimeout          = fmt.Errorf("%w: timed out waiting for reply", ErrTransport)
	ErrUnexpectedOpcode = fmt.Errorf("%w: unexpected reply opcode", ErrProtocol)
)

// RangeError reports a parameter outside its legal range.
type RangeError struct {
	Field Field
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("pelco: %s %d not in range %d..%d", e.Field, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// ChoiceError reports a parameter that must be one of a few discrete values.
type ChoiceError struct {
	Field   Field
	Value   int
	Allowed []int
}

func (e *ChoiceError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, v := range e.Allowed {
		allowed[i] = fmt.Sprintf("0x%02X", v)
	}
	return fmt.Sprintf("pelco: %s 0x%02X not one of %s", e.Field, e.Value, strings.Join(allowed, ", "))
}

func (e *ChoiceError) Unwrap() error { return ErrNotAllowed }

// ConflictError reports mutually exclusive flags set together.
type ConflictError struct {
	Flags []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("pelco: %s cannot be set together", strings.Join(e.Flags, " and "))
}

func (e *ConflictError) Unwrap() error { return ErrConflictingFlags }

// LengthError reports a buffer of the wrong size for the frame being decoded.
type LengthError struct {
	Want int
	Got  int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("pelco: expected %d bytes, got %d", e.Want, e.Got)
}

func (e *LengthError) Unwrap() error { return ErrBadLength }

// SyncError reports a first byte other than Sync.
type SyncError struct {
	Got byte
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("pelco: invalid sync byte 0x%02X, expected 0x%02X", e.Got, Sync)
}

func (e *SyncError) Unwrap() error { return ErrBadSync }

// ChecksumError reports a checksum byte that disagrees with the recomputed sum.
type ChecksumError struct {
	Expected byte
	Actual   byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("pelco: checksum 0x%02X, expected 0x%02X", e.Actual, e.Expected)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// OpcodeError reports an extended reply answering a different opcode.
type OpcodeError struct {
	Expected byte
	Actual   byte
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("pelco: reply opcode 0x%02X, expected 0x%02X", e.Actual, e.Expected)
}

func (e *OpcodeError) Unwrap() error { return ErrUnexpectedOpcode }

// TransportError wraps an I/O failure on the underlying channel.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pelco: %s: %v", e.Op, e.Err)
}

// Unwrap exposes both the transport class and the cause.
func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }
