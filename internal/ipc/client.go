package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"syscall"

	"muzzman/internal/failure"
	"muzzman/internal/session"
)

// Client provides RPC access to the daemon and implements
// session.Transport.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path. Every dial
// failure is reported as failure.ErrNotRunning.
func Dial(ctx context.Context, path string) (*Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", failure.ErrNotRunning, describeDialError(path, err))
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Dialer adapts Dial for session.Connect.
func Dialer(path string) session.Dialer {
	return func(ctx context.Context) (session.Transport, error) {
		return Dial(ctx, path)
	}
}

func describeDialError(path string, err error) string {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Sprintf("socket %s not found (is muzzmand running?)", path)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Sprintf("socket %s refused the connection (stale socket from a stopped daemon?)", path)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("timed out connecting to %s", path)
	default:
		return err.Error()
	}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Call performs one RPC bounded by ctx. A deadline that expires first is
// reported as failure.ErrTimeout; the daemon-side call may still complete.
func (c *Client) Call(ctx context.Context, method string, args, reply any) error {
	call := c.client.Go(method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-call.Done:
		return decodeCallError(call.Error)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s: %w", failure.ErrTimeout, method, ctx.Err())
		}
		return ctx.Err()
	}
}

func decodeCallError(err error) error {
	if err == nil {
		return nil
	}
	var serverErr rpc.ServerError
	if errors.As(err, &serverErr) {
		return failure.Decode(string(serverErr))
	}
	// Anything else is a broken connection: rpc.ErrShutdown, EOF or a
	// reset socket.
	return fmt.Errorf("%w: %w", failure.ErrNotRunning, err)
}
