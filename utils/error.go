package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorAlreadyLinked signals a set-once link that was already taken, e.g. an
// order that already carries an invoice id.
var ErrorAlreadyLinked = errors.New("record is already linked")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
