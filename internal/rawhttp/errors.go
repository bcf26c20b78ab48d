package rawhttp

// ConnError reports a failure to establish or use the underlying
// connection before any response was received.
type ConnError struct {
	URL string
	Err error
}

func (e *ConnError) Error() string {
	return "rawhttp: connect " + e.URL + ": " + e.Err.Error()
}

func (e *ConnError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed or interrupted response mid-stream.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return "rawhttp: " + e.Reason + ": " + e.Err.Error()
	}
	return "rawhttp: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// CancelError reports a caller triggered abort. It wraps the context's
// error so errors.Is(err, context.Canceled) keeps working.
type CancelError struct {
	Err error
}

func (e *CancelError) Error() string {
	return "rawhttp: request canceled: " + e.Err.Error()
}

func (e *CancelError) Unwrap() error { return e.Err }
