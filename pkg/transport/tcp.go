package transport

import (
	"context"
	"errors"
	"net"

	"golang.org/x/sync/errgroup"
)

// Dial connects to a peer listening on a TCP address and returns the
// connection as a Stream. net.Conn already satisfies Stream.
func Dial(ctx context.Context, addr string) (Stream, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Listen opens a TCP listener on addr for Serve.
func Listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

// Serve accepts connections until the context is cancelled, invoking handle
// on its own goroutine per connection. It returns once the listener is
// closed and every in-flight handler has finished. Handler errors are
// collected through the errgroup; the first one cancels the rest.
func Serve(ctx context.Context, lis net.Listener, handle func(ctx context.Context, stream Stream) error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return lis.Close()
	})

	g.Go(func() error {
		for {
			conn, err := lis.Accept()
			if err != nil {
				if gctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				return err
			}
			g.Go(func() error {
				defer conn.Close()
				return handle(gctx, conn)
			})
		}
	})

	err := g.Wait()
	if errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
