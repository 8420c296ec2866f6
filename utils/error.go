package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// DuplicateError reports a uniqueness violation on one column; the transport
// treats it as a client error.
type DuplicateError struct {
	Column string
}

func (e *DuplicateError) Error() string {
	return "duplicate " + e.Column
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
