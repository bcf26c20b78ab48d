package internal_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawbytes/go-rawhttp/internal"
	"github.com/rawbytes/go-rawhttp/internal/rawhttp"
	"github.com/rawbytes/go-rawhttp/internal/transport"
)

type CombinedReadWriteCloser struct {
	io.Reader
	io.Writer
	io.Closer
}

type TestDialer struct {
	io.ReadWriteCloser
	err error
}

// Dial implements internal.Dialer.
func (t *TestDialer) Dial(ctx context.Context, r *rawhttp.PreparedRequest) (io.ReadWriteCloser, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.ReadWriteCloser, nil
}

// Unwrap implements internal.Dialer.
func (t *TestDialer) Unwrap() internal.Dialer {
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// respondWith builds a client whose single connection replays response and
// discards whatever is written to it.
func respondWith(response string) *internal.Client {
	c := &internal.Client{}
	c.UseDialer(func(internal.Dialer) internal.Dialer {
		return &TestDialer{ReadWriteCloser: CombinedReadWriteCloser{
			Reader: strings.NewReader(response),
			Writer: io.Discard,
			Closer: nopCloser{},
		}}
	})
	return c
}

func drain(t *testing.T, s *internal.Stream) ([]rawhttp.Event, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var evs []rawhttp.Event
	for {
		ev, err := s.Next(ctx)
		if err != nil {
			return evs, err
		}
		evs = append(evs, ev)
	}
}

func bodyOf(evs []rawhttp.Event) string {
	var b strings.Builder
	for _, ev := range evs {
		if part, ok := ev.(rawhttp.BodyPart); ok {
			b.Write(part.Data)
		}
	}
	return b.String()
}

func TestEventOrdering(t *testing.T) {
	c := respondWith("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello")
	s, err := c.CtxSend(context.Background(), &rawhttp.Request{
		Method: "GET",
		URL:    "http://www.example.com/",
		Header: rawhttp.RawHeaders{{"Host", "www.example.com"}},
	})
	require.NoError(t, err)
	evs, err := drain(t, s)
	require.ErrorIs(t, err, io.EOF)
	require.NoError(t, s.Err())

	require.NotEmpty(t, evs)
	start, ok := evs[0].(rawhttp.RequestStart)
	require.True(t, ok, "first event must be RequestStart, got %T", evs[0])
	assert.False(t, start.Time.IsZero())

	head, ok := evs[1].(rawhttp.ResponseHead)
	require.True(t, ok, "second event must be ResponseHead, got %T", evs[1])
	assert.Equal(t, 200, head.StatusCode)
	assert.Equal(t, "OK", head.Status)
	require.Equal(t, rawhttp.RawHeaders{{"Content-Length", "5"}}, head.Header)

	end, ok := evs[len(evs)-1].(rawhttp.ResponseEnd)
	require.True(t, ok, "last event must be ResponseEnd, got %T", evs[len(evs)-1])
	assert.GreaterOrEqual(t, end.Monotonic, head.Monotonic)

	for _, ev := range evs[2 : len(evs)-1] {
		_, ok := ev.(rawhttp.BodyPart)
		require.True(t, ok, "unexpected mid-stream event %T", ev)
	}
	assert.Equal(t, "hello", bodyOf(evs))

	// the sequence is terminal: no further events, no late errors
	ev, err := s.Next(context.Background())
	assert.Nil(t, ev)
	assert.ErrorIs(t, err, io.EOF)
}

func TestRequestStartIsSynchronous(t *testing.T) {
	// the dialer blocks forever, yet RequestStart must already be buffered
	// when CtxSend returns
	blocked := make(chan struct{})
	defer close(blocked)
	c := &internal.Client{}
	c.UseDialer(func(internal.Dialer) internal.Dialer {
		return &TestDialer{ReadWriteCloser: CombinedReadWriteCloser{
			Reader: waitReader{blocked},
			Writer: io.Discard,
			Closer: nopCloser{},
		}}
	})
	s, err := c.CtxSend(context.Background(), &rawhttp.Request{Method: "GET", URL: "http://example.com/"})
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := s.Next(ctx)
	require.NoError(t, err)
	_, ok := ev.(rawhttp.RequestStart)
	require.True(t, ok)
}

// captureExchange runs one request against an in-memory pipe pair and
// returns the exact bytes the client put on the wire.
func captureExchange(t *testing.T, req *rawhttp.Request, response string) []byte {
	t.Helper()
	readResponse, writeResponse := io.Pipe()
	go io.Copy(writeResponse, strings.NewReader(response))

	readRequest, writeRequest := io.Pipe()
	c := &internal.Client{}
	c.UseDialer(func(internal.Dialer) internal.Dialer {
		return &TestDialer{ReadWriteCloser: CombinedReadWriteCloser{
			Reader: readResponse,
			Writer: writeRequest,
			Closer: writeRequest,
		}}
	})
	go func() {
		s, err := c.CtxSend(context.Background(), req)
		if err != nil {
			t.Error(err)
			return
		}
		if _, err := drain(t, s); err != io.EOF {
			t.Error(err)
		}
	}()
	wire, err := io.ReadAll(readRequest)
	require.NoError(t, err)
	return wire
}

func TestHeaderExactnessOnWire(t *testing.T) {
	wire := captureExchange(t, &rawhttp.Request{
		Method: "GET",
		URL:    "http://www.example.com/",
		Header: rawhttp.RawHeaders{{"X-A", "1"}, {"X-A", "2"}},
	}, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\nConnection: close\r\n\r\n")
	require.Equal(t, "GET / HTTP/1.1\r\nX-A: 1\r\nX-A: 2\r\n\r\n", string(wire))
}

func TestBodyFidelity(t *testing.T) {
	body := make([]byte, 100)
	for i := range body {
		body[i] = byte(i)
	}
	wire := captureExchange(t, &rawhttp.Request{
		Method: "POST",
		URL:    "http://www.example.com/upload",
		Header: rawhttp.RawHeaders{
			{"Host", "www.example.com"},
			{"Content-Length", "100"},
		},
		Body: body,
	}, "HTTP/1.1 204 No Content\r\n\r\n")

	head, got, ok := strings.Cut(string(wire), "\r\n\r\n")
	require.True(t, ok)
	assert.Equal(t, "POST /upload HTTP/1.1\r\nHost: www.example.com\r\nContent-Length: 100", head)
	require.Len(t, got, 100)
	assert.Equal(t, string(body), got)
}

type waitReader struct{ release <-chan struct{} }

func (r waitReader) Read([]byte) (int, error) {
	<-r.release
	return 0, io.EOF
}

func TestCancellationBeforeResponse(t *testing.T) {
	// the conn blocks on read until torn down, like a server that never
	// answers
	sig := &closeSignal{closed: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	c := &internal.Client{}
	c.UseDialer(func(internal.Dialer) internal.Dialer {
		return &TestDialer{ReadWriteCloser: CombinedReadWriteCloser{
			Reader: waitReader{sig.closed},
			Writer: io.Discard,
			Closer: sig,
		}}
	})
	s, err := c.CtxSend(ctx, &rawhttp.Request{Method: "GET", URL: "http://example.com/"})
	require.NoError(t, err)

	ev, err := s.Next(context.Background())
	require.NoError(t, err)
	_, ok := ev.(rawhttp.RequestStart)
	require.True(t, ok)

	cancel()
	evs, err := drain(t, s)
	require.Error(t, err)
	var ce *rawhttp.CancelError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, context.Canceled)
	for _, ev := range evs {
		_, isHead := ev.(rawhttp.ResponseHead)
		assert.False(t, isHead, "ResponseHead after cancellation")
	}
}

type closeSignal struct {
	once   sync.Once
	closed chan struct{}
}

func (c *closeSignal) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func TestCloseReleasesConnection(t *testing.T) {
	sig := &closeSignal{closed: make(chan struct{})}

	c := &internal.Client{}
	c.UseDialer(func(internal.Dialer) internal.Dialer {
		return &TestDialer{ReadWriteCloser: CombinedReadWriteCloser{
			Reader: waitReader{sig.closed},
			Writer: io.Discard,
			Closer: sig,
		}}
	})
	s, err := c.CtxSend(context.Background(), &rawhttp.Request{Method: "GET", URL: "http://example.com/"})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	select {
	case <-sig.closed:
	case <-time.After(5 * time.Second):
		t.Fatal("connection not torn down after Close")
	}
	_, err = drain(t, s)
	var ce *rawhttp.CancelError
	require.ErrorAs(t, err, &ce)
}

func TestConnectionError(t *testing.T) {
	dialErr := errors.New("no route to host")
	c := &internal.Client{}
	c.UseDialer(func(internal.Dialer) internal.Dialer {
		return &TestDialer{err: dialErr}
	})
	s, err := c.CtxSend(context.Background(), &rawhttp.Request{Method: "GET", URL: "http://example.com/"})
	require.NoError(t, err)

	evs, err := drain(t, s)
	require.Len(t, evs, 1) // RequestStart only
	var ce *rawhttp.ConnError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, dialErr)
	assert.Equal(t, err, s.Err())
}

func TestProtocolErrorMidResponse(t *testing.T) {
	// chunked body that stops mid-chunk
	c := respondWith("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\nff\r\nshort")
	s, err := c.CtxSend(context.Background(), &rawhttp.Request{Method: "GET", URL: "http://example.com/"})
	require.NoError(t, err)

	evs, err := drain(t, s)
	var pe *rawhttp.ProtocolError
	require.ErrorAs(t, err, &pe)
	// the head and the partial body were still delivered in order
	_, ok := evs[1].(rawhttp.ResponseHead)
	require.True(t, ok)
	assert.Equal(t, "short", bodyOf(evs))
}

func TestPrepareErrors(t *testing.T) {
	c := &internal.Client{}
	_, err := c.CtxSend(context.Background(), &rawhttp.Request{Method: "GET", URL: "ftp://example.com/"})
	require.Error(t, err)
	_, err = c.CtxSend(context.Background(), &rawhttp.Request{Method: "GET", URL: "http://"})
	require.Error(t, err)
}

type plainTransport struct{ transport.HTTP1 }

func (plainTransport) RawHeaderMode() bool { return false }

func TestRefusesNonRawTransport(t *testing.T) {
	c := respondWith("HTTP/1.1 200 OK\r\n\r\n")
	c.UseTransport(plainTransport{})
	_, err := c.CtxSend(context.Background(), &rawhttp.Request{Method: "GET", URL: "http://example.com/"})
	require.ErrorIs(t, err, internal.ErrNotRawCapable)
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(name string) internal.Middleware {
		return func(next internal.Handler) internal.Handler {
			return func(ctx context.Context, req *internal.PreparedRequest) (*internal.Stream, error) {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}
	c := respondWith("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")
	c.Use(mw("first"), mw("second"))
	s, err := c.CtxSend(context.Background(), &rawhttp.Request{Method: "GET", URL: "http://example.com/"})
	require.NoError(t, err)
	_, err = drain(t, s)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"second", "first"}, order)
}
