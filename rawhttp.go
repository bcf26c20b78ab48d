// Package rawhttp sends HTTP(S) requests with an exact, caller specified
// status line and header sequence. Nothing is normalized, reordered,
// deduplicated or synthesized: a request without Host or Content-Length
// goes on the wire without them, duplicate headers go out in order. Each
// exchange is reported as an ordered stream of lifecycle events.
package rawhttp

import (
	"github.com/rawbytes/go-rawhttp/internal"
	"github.com/rawbytes/go-rawhttp/internal/rawhttp"
)

type Client = internal.Client
type Stream = internal.Stream
type Middleware = internal.Middleware

type Request = rawhttp.Request
type PreparedRequest = rawhttp.PreparedRequest
type Response = rawhttp.Response

type RawHeaders = rawhttp.RawHeaders

type Event = rawhttp.Event
type RequestStart = rawhttp.RequestStart
type ResponseHead = rawhttp.ResponseHead
type BodyPart = rawhttp.BodyPart
type ResponseEnd = rawhttp.ResponseEnd

type ConnError = rawhttp.ConnError
type ProtocolError = rawhttp.ProtocolError
type CancelError = rawhttp.CancelError

var ErrNotRawCapable = internal.ErrNotRawCapable

// PairFlat groups a flat alternating key/value sequence into RawHeaders,
// preserving order and duplicates. See [rawhttp.PairFlat].
func PairFlat(flat []string) RawHeaders { return rawhttp.PairFlat(flat) }
