package internal

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/rawbytes/go-rawhttp/internal/dialer"
	"github.com/rawbytes/go-rawhttp/internal/rawhttp"
	"github.com/rawbytes/go-rawhttp/internal/transport"
)

type PreparedRequest = rawhttp.PreparedRequest

type Handler = func(ctx context.Context, req *PreparedRequest) (*Stream, error)
type Middleware func(next Handler) Handler

type Dialer = dialer.Dialer

// ErrNotRawCapable is returned when the configured transport cannot put
// caller supplied header bytes on the wire verbatim.
var ErrNotRawCapable = errors.New("rawhttp: transport does not support raw header mode")

// Client transmits requests exactly as prepared and reports each exchange
// as a stream of lifecycle events. The zero value is usable.
type Client struct {
	middlewares []Middleware
	dialer      Dialer
	transport   transport.Transport

	// Logger, when set, receives debug level wire lifecycle logs.
	Logger *zerolog.Logger
}

var nopLogger = zerolog.Nop()

func (c *Client) log() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &nopLogger
}

// Use appends mw to the end of the chain. The last "Use"d mw executes first
func (c *Client) Use(mws ...Middleware) {
	c.middlewares = append(c.middlewares, mws...)
}

// UseDialer swaps the dialer for the one returned by wrap, which receives
// the currently configured dialer.
func (c *Client) UseDialer(wrap func(Dialer) Dialer) {
	d := c.dialer
	if d == nil {
		d = &dialer.CoreDialer{}
	}
	c.dialer = wrap(d)
}

// UseTransport swaps the wire codec. The transport must implement
// [transport.RawTransport], otherwise the next send fails.
func (c *Client) UseTransport(t transport.Transport) {
	c.transport = t
}

var defaultDialer = &dialer.CoreDialer{}

func (c *Client) dial(ctx context.Context, req *PreparedRequest) (io.ReadWriteCloser, error) {
	if c.dialer != nil {
		return c.dialer.Dial(ctx, req)
	}
	return defaultDialer.Dial(ctx, req)
}

func (c *Client) raw() (transport.RawTransport, error) {
	if c.transport == nil {
		return transport.HTTP1{}, nil
	}
	if rt, ok := c.transport.(transport.RawTransport); ok && rt.RawHeaderMode() {
		return rt, nil
	}
	return nil, ErrNotRawCapable
}

// CtxSend issues req and returns the event stream for the exchange. The
// stream already holds the RequestStart event when CtxSend returns; all
// I/O happens asynchronously and later events arrive as the exchange
// progresses. Cancelling ctx aborts the exchange at the next I/O
// boundary and terminates the stream with a *[rawhttp.CancelError].
//
// The returned stream owns its connection exclusively and must be
// drained or closed, otherwise the connection stays open.
//
// Errors returned directly from CtxSend are caller contract violations
// (unparseable target, transport without raw header support); transport
// level failures travel through the stream instead.
func (c *Client) CtxSend(ctx context.Context, req *rawhttp.Request) (*Stream, error) {
	pr, err := req.Prepare()
	if err != nil {
		return nil, err
	}
	t, err := c.raw()
	if err != nil {
		return nil, err
	}
	next := func(ctx context.Context, pr *PreparedRequest) (*Stream, error) {
		return c.send(ctx, t, pr), nil
	}
	for _, mw := range c.middlewares {
		next = mw(next)
	}
	return next(ctx, pr)
}

func (c *Client) send(ctx context.Context, t transport.RawTransport, pr *PreparedRequest) *Stream {
	s := newStream()
	// RequestStart is on the stream before any I/O is attempted
	s.events <- rawhttp.RequestStart{Time: s.start}
	go s.run(ctx, c, t, pr)
	return s
}
