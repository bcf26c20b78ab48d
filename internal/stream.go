package internal

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rawbytes/go-rawhttp/internal/rawhttp"
	"github.com/rawbytes/go-rawhttp/internal/transport"
)

// streamBuffer bounds how many events may be pending before the producer
// blocks. Emission selects on the request context, so cancellation still
// wins against a stalled consumer.
const streamBuffer = 16

// Stream is the single-consumer, forward-only sequence of lifecycle
// events for one exchange. It cannot be rewound or replayed.
type Stream struct {
	start  time.Time // monotonic base for event offsets
	events chan rawhttp.Event

	// written once by the producer before events is closed
	err error

	abort     chan struct{}
	abortOnce sync.Once
}

func newStream() *Stream {
	return &Stream{
		start:  time.Now(),
		events: make(chan rawhttp.Event, streamBuffer),
		abort:  make(chan struct{}),
	}
}

func (s *Stream) since() time.Duration { return time.Since(s.start) }

// Next returns the next lifecycle event. After ResponseEnd it returns
// io.EOF; after a failed exchange it returns the terminal error. ctx only
// governs the wait itself, not the exchange (cancel the CtxSend context
// or Close the stream for that).
func (s *Stream) Next(ctx context.Context) (rawhttp.Event, error) {
	select {
	case ev, ok := <-s.events:
		if !ok {
			if s.err != nil {
				return nil, s.err
			}
			return nil, io.EOF
		}
		return ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Err reports the terminal error of the exchange. It is only meaningful
// once Next has returned a non-nil error.
func (s *Stream) Err() error { return s.err }

// Close aborts a still running exchange and releases the connection
// eagerly. Closing a finished stream is a no-op.
func (s *Stream) Close() error {
	s.abortOnce.Do(func() { close(s.abort) })
	return nil
}

// emit delivers ev, waiting for buffer space if the consumer lags. It
// reports false once the exchange has been cancelled, recording the
// terminal error.
func (s *Stream) emit(ctx context.Context, ev rawhttp.Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		s.fail(&rawhttp.CancelError{Err: ctx.Err()})
		return false
	case <-s.abort:
		s.fail(&rawhttp.CancelError{Err: context.Canceled})
		return false
	}
}

func (s *Stream) fail(err error) {
	s.err = err
	close(s.events)
}

func (s *Stream) finish() {
	close(s.events)
}

// run is the producer side of the stream. It owns the connection for the
// whole exchange and closes it on every exit path.
func (s *Stream) run(ctx context.Context, c *Client, t transport.RawTransport, pr *PreparedRequest) {
	log := c.log()

	conn, err := c.dial(ctx, pr)
	if err != nil {
		s.fail(s.terminal(ctx, pr, err, false))
		return
	}
	log.Debug().Str("url", pr.URL).Msg("connection established")

	// tear the connection down the moment the context or Close fires so
	// blocked reads and writes return
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-s.abort:
			conn.Close()
		case <-watchDone:
		}
	}()
	defer conn.Close()

	if err := t.Write(conn, pr); err != nil {
		s.fail(s.terminal(ctx, pr, err, false))
		return
	}
	log.Debug().Str("method", pr.Method).Int("header_pairs", len(pr.Header)).Msg("request written")

	br := bufio.NewReader(conn)
	resp := &rawhttp.Response{}
	if err := t.ReadHead(br, resp); err != nil {
		s.fail(s.terminal(ctx, pr, err, false))
		return
	}
	if !s.emit(ctx, rawhttp.ResponseHead{
		Proto:      resp.Proto,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Monotonic:  s.since(),
	}) {
		return
	}
	log.Debug().Int("status", resp.StatusCode).Msg("response head received")

	body := t.BodyReader(br, pr, resp)
	buf := make([]byte, 32<<10)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			part := make([]byte, n)
			copy(part, buf[:n])
			if !s.emit(ctx, rawhttp.BodyPart{Data: part, Monotonic: s.since()}) {
				return
			}
		}
		if err == io.EOF {
			if s.emit(ctx, rawhttp.ResponseEnd{Monotonic: s.since()}) {
				s.finish()
				log.Debug().Msg("response complete")
			}
			return
		}
		if err != nil {
			s.fail(s.terminal(ctx, pr, err, true))
			return
		}
	}
}

// terminal classifies an exchange failure. Cancellation wins over
// whatever error the torn down connection produced; otherwise failures
// before a response are connection errors and failures mid-response are
// protocol errors.
func (s *Stream) terminal(ctx context.Context, pr *PreparedRequest, err error, midResponse bool) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &rawhttp.CancelError{Err: ctxErr}
	}
	select {
	case <-s.abort:
		return &rawhttp.CancelError{Err: context.Canceled}
	default:
	}
	var pe *rawhttp.ProtocolError
	if errors.As(err, &pe) {
		return err
	}
	if midResponse {
		return &rawhttp.ProtocolError{Reason: "interrupted response", Err: err}
	}
	return &rawhttp.ConnError{URL: pr.URL, Err: err}
}
