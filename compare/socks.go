// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package compare

import (
	"context"
	"net"

	"github.com/decred/go-socks/socks"
)

// socksDialer adapts a socks.Proxy, which only exposes a blocking Dial, to
// the context-aware DialContext shape net/http.Transport expects.
type socksDialer struct {
	proxy *socks.Proxy
}

func newSocksDialer(addr, user, pass string) (*socksDialer, error) {
	return &socksDialer{
		proxy: &socks.Proxy{
			Addr:     addr,
			Username: user,
			Password: pass,
		},
	}, nil
}

func (d *socksDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := d.proxy.Dial(network, address)
		ch <- result{conn, err}
	}()

	select {
	case r := <-ch:
		return r.conn, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
