package transport

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/rawbytes/go-rawhttp/internal/rawhttp"
)

type HTTP1 struct{}

func (HTTP1) RawHeaderMode() bool { return true }

// Write writes the request line, the caller's header pairs and the raw
// body onto w, e.g.:
//
//	GET / HTTP/1.1\r\n
//	X-Xx-Yy: cccccc\r\n
//	X-Xx-Yy: dddddd\r\n
//	\r\n
//
// every header pair goes out verbatim, in order. Host, Content-Length,
// Transfer-Encoding and Connection are only present if the caller put
// them there. A caller that sends Transfer-Encoding: chunked with an
// unframed body gets exactly that on the wire.
func (t HTTP1) Write(w io.Writer, r *rawhttp.PreparedRequest) error {
	bw := bufio.NewWriter(w) // default bufsize is 4096

	bw.WriteString(r.Method)
	bw.WriteByte(' ')
	bw.WriteString(requestTarget(r))
	bw.WriteString(" HTTP/1.1\r\n")
	for _, kv := range r.Header {
		bw.WriteString(kv[0])
		bw.WriteString(": ")
		bw.WriteString(kv[1])
		bw.WriteString("\r\n")
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return err
	}
	if len(r.Body) > 0 {
		if _, err := bw.Write(r.Body); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func requestTarget(r *rawhttp.PreparedRequest) string {
	if r.Method == "CONNECT" {
		return r.U.Host
	}
	return r.U.RequestURI()
}

// ReadHead parses the status line and header block. Header keys are kept
// byte-exact and in arrival order, values get their surrounding OWS
// trimmed, obs-fold continuation lines are folded into the previous
// value. The result is re-paired through [rawhttp.PairFlat].
func (t HTTP1) ReadHead(br *bufio.Reader, resp *rawhttp.Response) error {
	line, err := readLine(br)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	proto, rest, ok := strings.Cut(line, " ")
	if !ok || !strings.HasPrefix(proto, "HTTP/") {
		return &rawhttp.ProtocolError{Reason: "malformed status line " + strconv.Quote(line)}
	}
	code, reason, _ := strings.Cut(rest, " ")
	if len(code) != 3 {
		return &rawhttp.ProtocolError{Reason: "malformed status code " + strconv.Quote(code)}
	}
	statusCode, err := strconv.Atoi(code)
	if err != nil || statusCode < 0 {
		return &rawhttp.ProtocolError{Reason: "malformed status code " + strconv.Quote(code)}
	}
	resp.Proto = proto
	resp.StatusCode = statusCode
	resp.Status = reason

	var flat []string
	for {
		line, err := readLine(br)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return err
		}
		if line == "" {
			break
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(flat) == 0 {
				return &rawhttp.ProtocolError{Reason: "continuation line before first header"}
			}
			flat[len(flat)-1] += " " + strings.Trim(line, " \t")
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return &rawhttp.ProtocolError{Reason: "malformed header line " + strconv.Quote(line)}
		}
		flat = append(flat, k, strings.Trim(v, " \t"))
	}
	resp.Header = rawhttp.PairFlat(flat)
	return nil
}

// BodyReader picks the body delimiter for a received head. Only framing
// is interpreted here; payload bytes are passed through without content
// or transfer decoding beyond removing chunk frames.
func (t HTTP1) BodyReader(br *bufio.Reader, req *rawhttp.PreparedRequest, resp *rawhttp.Response) io.Reader {
	if req != nil && req.Method == "HEAD" {
		return eofReader{}
	}
	if c := resp.StatusCode; c/100 == 1 || c == 204 || c == 304 {
		return eofReader{}
	}
	if te, ok := resp.Header.Get("Transfer-Encoding"); ok && isChunked(te) {
		return newChunkedReader(br)
	}
	if cl, ok := resp.Header.Get("Content-Length"); ok {
		if n, err := strconv.ParseUint(strings.TrimSpace(cl), 10, 63); err == nil {
			if n == 0 {
				return eofReader{}
			}
			return &lengthReader{r: br, remain: int64(n)}
		}
	}
	// no framing headers, the connection close delimits the message
	return br
}

// isChunked reports whether the final transfer coding is chunked.
func isChunked(te string) bool {
	codings := strings.Split(te, ",")
	return strings.EqualFold(strings.TrimSpace(codings[len(codings)-1]), "chunked")
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// lengthReader delimits a Content-Length body and, unlike a plain
// [io.LimitReader], turns a premature connection close into
// [io.ErrUnexpectedEOF] instead of a clean end.
type lengthReader struct {
	r      io.Reader
	remain int64
}

func (l *lengthReader) Read(p []byte) (int, error) {
	if l.remain <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > l.remain {
		p = p[:l.remain]
	}
	n, err := l.r.Read(p)
	l.remain -= int64(n)
	if err == io.EOF && l.remain > 0 {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}
