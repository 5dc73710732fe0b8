package utils

import (
	"errors"
	"fmt"
)

// ErrorRecordNotFound is returned when a formula, product or store
// reference does not resolve. Dangling catalog references (e.g. a stale
// cached formula pointing at a deleted product) surface as this error
// rather than a crash.
var ErrorRecordNotFound = errors.New("record not found")

// InvalidInputError covers operator input that can never produce a valid
// lot: withdrawals from a disallowed category, non-positive quantities,
// a non-positive recovery factor. These abort the computation before any
// inventory transaction is constructed.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return e.Reason
}

func InvalidInputf(format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

func IsInvalidInput(err error) bool {
	var iie *InvalidInputError
	return errors.As(err, &iie)
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
