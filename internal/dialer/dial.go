package dialer

import (
	"context"
	"crypto/tls"
	"io"
	"net"

	"github.com/rawbytes/go-rawhttp/internal/rawhttp"
)

var schemes = map[string]string{
	"http": "80", "https": "443",
}

var zeroDialer net.Dialer
var customDnsDialer = net.Dialer{
	Resolver: &customServerResolver,
}

// Dial opens a fresh connection for one request. Connections are never
// pooled or reused: each exchange exclusively owns the stream it gets
// here until it is torn down.
func (d *CoreDialer) Dial(ctx context.Context, r *rawhttp.PreparedRequest) (io.ReadWriteCloser, error) {
	addr, port := r.U.Hostname(), r.U.Port()
	if port == "" {
		port = schemes[r.U.Scheme]
	}
	hp := net.JoinHostPort(addr, port)

	conn, err := d.tryDialProxy(ctx, r)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		network, dialer, dialctx, dst := "tcp", &zeroDialer, ctx, hp

		if d.ResolveConfig != nil {
			if d.ResolveConfig.Network == "ip4" {
				network = "tcp4"
			} else if d.ResolveConfig.Network == "ip6" {
				network = "tcp6"
			}
			if static, ok := d.ResolveConfig.StaticHosts[addr]; ok {
				dst = net.JoinHostPort(static, port)
			}
			if dns := d.ResolveConfig.CustomDNSServer; dns != "" {
				dialctx = dnsServerCtx{dialctx, dns}
				dialer = &customDnsDialer
			}
		}
		conn, err = dialer.DialContext(dialctx, network, dst)
		if err != nil {
			return nil, err
		}
	}
	if r.U.Scheme == "https" {
		config := d.TLSConfig.Clone()
		if config == nil {
			config = &tls.Config{}
		}
		if config.ServerName == "" {
			config.ServerName = r.U.Hostname()
		}
		// h2 is out of scope, never offer it over ALPN
		config.NextProtos = nil
		c := tls.Client(conn, config)
		if err := c.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		conn = c
	}
	return conn, nil
}
