package rawhttp

import (
	"github.com/rawbytes/go-rawhttp/internal/dialer"
)

// Dialers are responsible for creating underlying streams that requests
// could be written to and responses could be read from, one fresh
// connection per exchange. A Dialer MUST NOT hold active connection
// states, which means a Dialer must be able to be swapped out from a
// [Client] without pain; it SHOULD hold the connection related configs
// like [ProxyConfig] or *[crypto/tls.Config].
type Dialer = dialer.Dialer

// CoreDialer is the default implementation of the [Dialer] interface. It
// would be used by a zero value [Client].
type CoreDialer = dialer.CoreDialer

type ProxyConfig = dialer.ProxyConfig

type ResolveConfig = dialer.ResolveConfig
