package rawhttp

import (
	"context"
	"io"
)

type Dialer interface {
	Dial(ctx context.Context, r *PreparedRequest) (io.ReadWriteCloser, error)
	Unwrap() Dialer
}

// Request describes one exchange to put on the wire. The header list is
// written exactly as given: nothing is added, removed or reordered, so a
// request without Host or Content-Length goes out without them.
type Request struct {
	Method string
	URL    string
	Header RawHeaders
	Body   []byte
}

// Response carries the head of a received response. Header holds the
// headers as they arrived on the wire, re-paired without canonicalization.
type Response struct {
	Proto      string
	StatusCode int
	Status     string // reason phrase as received, possibly empty

	Header RawHeaders
}
