package transport

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// newChunkedReader returns a reader that removes HTTP/1.1 chunk framing
// from br and yields the payload bytes unaltered. The terminating
// zero-length chunk and any trailer section are consumed, so after the
// final EOF the reader is positioned past the end of the message.
func newChunkedReader(br *bufio.Reader) io.Reader {
	return &chunkedReader{br: br}
}

type chunkedReader struct {
	br  *bufio.Reader
	n   uint64 // unread bytes in the current chunk
	err error
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	for c.n == 0 {
		if err := c.nextChunk(); err != nil {
			c.err = err
			return 0, err
		}
	}
	if uint64(len(p)) > c.n {
		p = p[:c.n]
	}
	n, err := c.br.Read(p)
	c.n -= uint64(n)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err == nil && c.n == 0 {
		err = c.expectCRLF()
	}
	if err != nil {
		c.err = err
	}
	return n, err
}

// nextChunk reads a chunk-size line. The CRLF terminating the previous
// chunk's data has already been consumed by Read.
func (c *chunkedReader) nextChunk() error {
	line, err := readLine(c.br)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	// chunk extensions are dropped
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	size, err := parseChunkSize(strings.TrimRight(line, " \t"))
	if err != nil {
		return err
	}
	if size == 0 {
		if err := c.discardTrailer(); err != nil {
			return err
		}
		return io.EOF
	}
	c.n = size
	return nil
}

func (c *chunkedReader) expectCRLF() error {
	line, err := readLine(c.br)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	if line != "" {
		return errors.New("malformed chunked encoding")
	}
	return nil
}

// discardTrailer consumes trailer fields after the last chunk up to and
// including the blank line ending the message.
func (c *chunkedReader) discardTrailer() error {
	for {
		line, err := readLine(c.br)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return err
		}
		if line == "" {
			return nil
		}
	}
}

func parseChunkSize(line string) (size uint64, err error) {
	if line == "" {
		return 0, errors.New("empty chunk length")
	}
	for i := 0; i < len(line); i++ {
		b := line[i]
		switch {
		case '0' <= b && b <= '9':
			b = b - '0'
		case 'a' <= b && b <= 'f':
			b = b - 'a' + 10
		case 'A' <= b && b <= 'F':
			b = b - 'A' + 10
		default:
			return 0, errors.New("invalid byte in chunk length")
		}
		if i >= 16 {
			return 0, errors.New("http chunk length too large")
		}
		size = size<<4 | uint64(b)
	}
	return size, nil
}
