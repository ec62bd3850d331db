// Package fatal turns errors that must stop a request into the stop page
// shown to the user.
package fatal

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a request-terminating failure as presented to the user.
type Error struct {
	Title   string
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Status, e.Title, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Status, e.Title)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a fatal error without a cause.
func New(status int, title, message string) *Error {
	return &Error{Title: title, Message: message, Status: status}
}

// Translator looks up user-facing strings.
type Translator interface {
	T(key string, replace ...map[string]string) string
}

// Keyed errors pick the translation keys used for their stop page:
// "fatal.<key>.title" and "fatal.<key>.message".
type Keyed interface {
	FatalKey() string
}

// FromError converts err into a fatal error. A *Error in the chain is
// returned as is; anything else becomes a 500 whose texts come from tr.
func FromError(err error, tr Translator) *Error {
	if err == nil {
		return nil
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	key := "default"
	var keyed Keyed
	if errors.As(err, &keyed) {
		key = keyed.FatalKey()
	}

	return &Error{
		Title:   translate(tr, "fatal."+key+".title", "Error"),
		Message: translate(tr, "fatal."+key+".message", "The request could not be completed."),
		Status:  http.StatusInternalServerError,
		Cause:   err,
	}
}

func translate(tr Translator, key, fallback string) string {
	if tr == nil {
		return fallback
	}
	if text := tr.T(key); text != key {
		return text
	}
	return fallback
}
