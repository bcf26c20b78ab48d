package transport

import (
	"bufio"
	"io"

	"github.com/rawbytes/go-rawhttp/internal/rawhttp"
)

// Transport implements the message syntax of one HTTP version: putting a
// prepared request onto a stream and taking a response head and body off
// of it.
type Transport interface {
	Write(w io.Writer, r *rawhttp.PreparedRequest) error
	ReadHead(br *bufio.Reader, resp *rawhttp.Response) error
	// BodyReader returns a reader delimiting the response body on br.
	// Framing (chunk sizes, content length) is consumed to find the end of
	// the message, the payload bytes themselves pass through untouched.
	BodyReader(br *bufio.Reader, req *rawhttp.PreparedRequest, resp *rawhttp.Response) io.Reader
}

// RawTransport marks transports that can put caller supplied header bytes
// on the wire verbatim, without synthesizing Host, Content-Length,
// Transfer-Encoding or Connection and without reordering anything. The
// client refuses to send through a transport that does not report the
// capability.
type RawTransport interface {
	Transport
	RawHeaderMode() bool
}
