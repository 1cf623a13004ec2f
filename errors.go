package truthbits

import (
	"errors"
	"fmt"
)

var (
	// ErrStop may be returned by a BatchFunc to end a run early without error.
	ErrStop = errors.New("truthbits: stop")

	// ErrNoStore is returned by operations that need a blob store when none is configured.
	ErrNoStore = errors.New("truthbits: no blob store configured")

	// ErrManifestMismatch is returned when resuming a run whose stored
	// manifest was written with different parameters.
	ErrManifestMismatch = errors.New("truthbits: manifest does not match generator")

	// ErrCorruptManifest is returned for a manifest whose statuses cannot be
	// parsed or are out of row order.
	ErrCorruptManifest = errors.New("truthbits: corrupt manifest")
)

// ErrInvalidInputs indicates an unusable input count or batch width.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidInputs struct {
	Inputs  int
	UseBits int
	cause   error
}

func (e *ErrInvalidInputs) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("invalid inputs %d with use bits %d: %v", e.Inputs, e.UseBits, e.cause)
	}
	return fmt.Sprintf("invalid inputs %d with use bits %d", e.Inputs, e.UseBits)
}

func (e *ErrInvalidInputs) Unwrap() error { return e.cause }

// ErrCorruptBatch indicates a stored batch whose checksum or encoding does
// not match its manifest entry.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrCorruptBatch struct {
	Name  string
	Want  string
	Got   string
	cause error
}

func (e *ErrCorruptBatch) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("corrupt batch %s: %v", e.Name, e.cause)
	}
	return fmt.Sprintf("corrupt batch %s: checksum %s, want %s", e.Name, e.Got, e.Want)
}

func (e *ErrCorruptBatch) Unwrap() error { return e.cause }
