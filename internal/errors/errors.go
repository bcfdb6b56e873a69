// Package errors wraps pkg/errors so infrastructure code gets stack traces
// without importing it everywhere. Domain and delivery code match errors with
// the stdlib errors package directly; this facade only covers creation.
package errors

import (
	stderrors "errors"

	pkgerrors "github.com/pkg/errors"
)

// New returns an error that formats as the given text.
func New(text string) error {
	return stderrors.New(text)
}

// Wrap annotates err with a stack trace and a message.
// Returns nil when err is nil.
func Wrap(err error, message string) error {
	return pkgerrors.Wrap(err, message)
}
