// Package faults defines the error kinds that decide how a capture cycle
// reacts to a failure: abort the cycle or degrade and continue.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure by the component that produced it.
type Kind string

const (
	KindDevice         Kind = "DEVICE"          // microphone or audio output
	KindRemoteAPI      Kind = "REMOTE_API"      // transcription, emotion, cleanup
	KindDomInteraction Kind = "DOM_INTERACTION" // browser page automation
	KindCapture        Kind = "CAPTURE"         // screenshots, window lookup, overlay
)

// Error is a failure tagged with a Kind.
type Error struct {
	Kind Kind
	// Op names the step that failed, e.g. "open input stream" or "find submit".
	Op string
	// Detail carries the context an operator needs: a selector, an HTTP
	// status, a strategy name.
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Device creates a device error.
func Device(op string, err error) *Error {
	return &Error{Kind: KindDevice, Op: op, Err: err}
}

// RemoteAPI creates a remote API error. status is the HTTP status code, or 0
// when the request never got a response.
func RemoteAPI(op string, status int, err error) *Error {
	e := &Error{Kind: KindRemoteAPI, Op: op, Err: err}
	if status != 0 {
		e.Detail = fmt.Sprintf("status %d", status)
	}
	return e
}

// Dom creates a DOM interaction error for the given selector.
func Dom(op, selector string, err error) *Error {
	return &Error{Kind: KindDomInteraction, Op: op, Detail: selector, Err: err}
}

// Capture creates a capture error.
func Capture(op string, err error) *Error {
	return &Error{Kind: KindCapture, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err's chain contains an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
