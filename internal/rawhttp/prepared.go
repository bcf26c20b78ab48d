package rawhttp

import (
	"errors"
	"net/url"
)

type PreparedRequest struct {
	*Request

	U *url.URL
}

// Prepare parses the request target so dialers know where to connect.
// Unlike most clients it deliberately leaves the header list alone: Host
// and Content-Length are never extracted, defaulted or checked against the
// body. What the caller wrote is what gets sent.
func (r *Request) Prepare() (*PreparedRequest, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("unsupported scheme: " + u.Scheme)
	}
	if u.Host == "" {
		return nil, url.InvalidHostError("empty host")
	}
	return &PreparedRequest{Request: r, U: u}, nil
}
