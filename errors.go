package hedge

import (
	"errors"
	"fmt"
	"strings"
)

// Exhausted returns true if the error is the failure of the last permitted
// attempt, delivered because no attempt succeeded.
func Exhausted(e error) bool {
	var ee *exhaustedErr
	return errors.As(e, &ee)
}

type exhaustedErr struct {
	err     error
	attempt int
}

func (ee *exhaustedErr) Error() string {
	return ee.err.Error()
}

func (ee *exhaustedErr) Unwrap() error {
	return ee.err
}

func errExhausted(e error, attempt int) *exhaustedErr {
	return &exhaustedErr{err: e, attempt: attempt}
}

// ValidationError is returned before any attempt is launched when the inputs
// to a run are malformed. It lists every problem found, not just the first.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	return "hedge: invalid arguments: " + strings.Join(ve.Problems, ";\n")
}

// Add records a problem. Use [ValidationError.Err] to get a nil error when
// nothing was recorded.
func (ve *ValidationError) Add(format string, a ...any) {
	ve.Problems = append(ve.Problems, fmt.Sprintf(format, a...))
}

// Err returns ve as an error, or nil if no problems were recorded.
func (ve *ValidationError) Err() error {
	if ve == nil || len(ve.Problems) == 0 {
		return nil
	}
	return ve
}

// PanicError is the failure recorded for an attempt whose transport panicked.
// The panic is never propagated to the caller of the run.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (pe *PanicError) Error() string {
	return fmt.Sprintf("attempt panicked: %v", pe.Value)
}

// Unwrap returns the panic value if it was an error.
func (pe *PanicError) Unwrap() error {
	err, _ := pe.Value.(error)
	return err
}
