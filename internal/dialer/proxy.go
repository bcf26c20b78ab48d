package dialer

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/url"

	xproxy "golang.org/x/net/proxy"

	"github.com/rawbytes/go-rawhttp/internal/rawhttp"
	"github.com/rawbytes/go-rawhttp/internal/transport"
)

var h1Transport = transport.HTTP1{}

func (d *CoreDialer) tryDialProxy(ctx context.Context, r *rawhttp.PreparedRequest) (net.Conn, error) {
	if d.GetProxy == nil {
		return nil, nil
	}
	proxy, perr := d.GetProxy(ctx, r.Request)
	if perr != nil {
		return nil, perr
	}
	if proxy == "" {
		return nil, nil
	}
	proxyU, perr := url.Parse(proxy)
	if perr != nil {
		return nil, perr
	}
	return d.DialContextOverProxy(ctx, r.U, proxyU)
}

// DialContextOverProxy creates a connection over an http(s) CONNECT
// tunnel or a socks5 proxy. This part of logic may be reused when
// wrapping *[CoreDialer] into a new custom [Dialer]
func (d *CoreDialer) DialContextOverProxy(ctx context.Context, remote, proxy *url.URL) (net.Conn, error) {
	addr, port := remote.Hostname(), remote.Port()
	if port == "" {
		port = schemes[remote.Scheme]
	}

	if resolveLocally(d.ProxyConfig, proxy.Scheme) {
		dnsCfg := d.ProxyConfig.ResolveConfig
		if dnsCfg == nil {
			dnsCfg = d.ResolveConfig
		}
		if res, ok := staticHost(dnsCfg, addr); ok {
			addr = res
		} else {
			ips, err := d.lookup(ctx, dnsCfg, addr)
			if err != nil {
				return nil, err
			}
			addr = ips[rand.Intn(len(ips))].String()
		}
	}

	switch proxy.Scheme {
	case "socks5", "socks5h":
		return d.dialSocks(ctx, proxy, net.JoinHostPort(addr, port))
	case "http", "https":
		return d.dialConnect(ctx, remote, proxy, net.JoinHostPort(addr, port))
	}
	return nil, errors.New("unsupported proxy scheme:" + proxy.Scheme)
}

func (d *CoreDialer) dialSocks(ctx context.Context, proxy *url.URL, target string) (net.Conn, error) {
	var auth *xproxy.Auth
	if u := proxy.User; u != nil {
		pw, _ := u.Password()
		auth = &xproxy.Auth{User: u.Username(), Password: pw}
	}
	hp := proxy.Host
	if proxy.Port() == "" {
		hp = net.JoinHostPort(proxy.Hostname(), "1080")
	}
	pd, err := xproxy.SOCKS5("tcp", hp, auth, &zeroDialer)
	if err != nil {
		return nil, err
	}
	if cd, ok := pd.(xproxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", target)
	}
	return pd.Dial("tcp", target)
}

func (d *CoreDialer) dialConnect(ctx context.Context, remote, proxy *url.URL, target string) (net.Conn, error) {
	hp := proxy.Host
	if proxy.Port() == "" {
		hp = net.JoinHostPort(proxy.Hostname(), schemes[proxy.Scheme])
	}
	conn, err := zeroDialer.DialContext(ctx, "tcp", hp)
	if err != nil {
		return nil, err
	}
	if proxy.Scheme == "https" {
		tlsCfg := d.TLSConfig
		if d.ProxyConfig != nil && d.ProxyConfig.TLSConfig != nil {
			tlsCfg = d.ProxyConfig.TLSConfig
		}
		if tlsCfg == nil {
			tlsCfg = &tls.Config{}
		} else {
			tlsCfg = tlsCfg.Clone()
		}
		if tlsCfg.ServerName == "" {
			tlsCfg.ServerName = proxy.Hostname()
		}
		c := tls.Client(conn, tlsCfg)
		if err := c.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		conn = c
	}

	// the transport never synthesizes headers, so the tunnel request
	// spells out its own
	header := rawhttp.RawHeaders{{"Host", remote.Host}}
	if auth := proxy.User.String(); auth != "" {
		header = append(header, [2]string{
			"Proxy-Authorization", "Basic " + base64.StdEncoding.EncodeToString([]byte(auth)),
		})
	}
	connReq := &rawhttp.PreparedRequest{
		Request: &rawhttp.Request{Method: "CONNECT", Header: header},
		U:       &url.URL{Host: target},
	}
	if err := h1Transport.Write(conn, connReq); err != nil {
		conn.Close()
		return nil, err
	}
	br := bufio.NewReader(conn)
	resp := &rawhttp.Response{}
	if err := h1Transport.ReadHead(br, resp); err != nil {
		conn.Close()
		return nil, err
	}
	if resp.StatusCode != 200 {
		s, _ := io.ReadAll(h1Transport.BodyReader(br, connReq, resp))
		conn.Close()
		return nil, fmt.Errorf("proxy server returned error. status:%d, body:%s", resp.StatusCode, string(s))
	}
	return conn, nil
}

func resolveLocally(cfg *ProxyConfig, proxyScheme string) bool {
	// socks5h leaves resolution to the proxy regardless of config
	return cfg != nil && cfg.ResolveLocally && proxyScheme != "socks5h"
}

func staticHost(cfg *ResolveConfig, addr string) (string, bool) {
	if cfg == nil {
		return "", false
	}
	res, ok := cfg.StaticHosts[addr]
	return res, ok
}
