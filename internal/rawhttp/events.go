package rawhttp

import "time"

// Event is one entry in the lifecycle sequence of an exchange. For a
// successful request the sequence is always
//
//	RequestStart, ResponseHead, zero or more BodyPart, ResponseEnd
//
// and a failed request stops after any prefix of it, the error being
// reported by the stream instead of an event.
//
// Each event carries a monotonic offset from the moment the request was
// issued, so relative timing between events survives wall clock
// adjustments.
type Event interface {
	event()
}

// RequestStart is emitted before any I/O happens. Time is the wall clock
// send time, Monotonic is zero by construction and anchors the offsets of
// the events that follow.
type RequestStart struct {
	Time      time.Time
	Monotonic time.Duration
}

// ResponseHead is emitted once when the status line and headers have been
// read. Header preserves the order, duplicates and casing the server sent,
// independent of how the request headers were given.
type ResponseHead struct {
	Proto      string
	StatusCode int
	Status     string
	Header     RawHeaders
	Monotonic  time.Duration
}

// BodyPart carries one chunk of response body exactly as the transport
// delivered it. Bytes are never decoded, re-chunked or coalesced.
type BodyPart struct {
	Data      []byte
	Monotonic time.Duration
}

// ResponseEnd marks clean completion. No event or error follows it.
type ResponseEnd struct {
	Monotonic time.Duration
}

func (RequestStart) event() {}
func (ResponseHead) event() {}
func (BodyPart) event()     {}
func (ResponseEnd) event()  {}
