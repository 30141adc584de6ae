// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a client to extend it with custom
// functionality.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs before the
	// execution starts.
	//
	// When BeforeExecutionStart fires, the execution's ID, Start time,
	// Request and Config are set, but no route has been planned yet.
	BeforeExecutionStart Event = iota
	// AfterRoutePlanned identifies the event that occurs after the
	// route to the target host has been planned, both at the start of
	// the execution and after each redirect to another host.
	AfterRoutePlanned
	// AfterConnect identifies the event that occurs after a new
	// connection has been opened and its route established. It does
	// not fire when a pooled connection is reused.
	AfterConnect
	// BeforeAttempt identifies the event that occurs before each
	// individual request attempt, after the request interceptors have
	// run.
	//
	// When BeforeAttempt fires, the execution's HTTPRequest field is
	// set to the message that WILL BE written to the connection, and
	// handlers may still modify its header.
	BeforeAttempt
	// AfterResponse identifies the event that occurs after a response
	// has been received, before the response interceptors run.
	AfterResponse
	// AfterAttemptTimeout identifies the event that occurs after an
	// attempt failed because of a timeout.
	//
	// When AfterAttemptTimeout fires, the execution's Err field is set
	// to the timeout error and AttemptTimeouts has been incremented.
	AfterAttemptTimeout
	// AfterAttemptError identifies the event that occurs after any
	// attempt ended in an I/O error, before the retry decision is made.
	AfterAttemptError
	// BeforeRetry identifies the event that occurs when a failed
	// attempt is going to be retried, before the retry wait.
	BeforeRetry
	// AfterRedirect identifies the event that occurs after a redirect
	// has been accepted and the next request built.
	AfterRedirect
	// AfterExecutionEnd identifies the event that occurs after the
	// execution ends.
	//
	// When AfterExecutionEnd fires, End is set and Err holds the error
	// returned to the caller, if any.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"AfterRoutePlanned",
	"AfterConnect",
	"BeforeAttempt",
	"AfterResponse",
	"AfterAttemptTimeout",
	"AfterAttemptError",
	"BeforeRetry",
	"AfterRedirect",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur in an
// execution, in the order in which they would first occur.
func Events() []Event {
	events := make([]Event, numEvents)
	for i := range events {
		events[i] = Event(i)
	}
	return events
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
