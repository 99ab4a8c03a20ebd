// Package client sends a single filesock request and reads the reply.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/pithecene-io/filesock/iox"
	"github.com/pithecene-io/filesock/ipc"
	"github.com/pithecene-io/filesock/types"
)

// Send dials socketPath, writes m as one frame and reads the reply.
//
// The server answers with zero or one frame and then closes. When it closes
// without answering, Send returns types.None and a nil error.
func Send(ctx context.Context, socketPath string, m types.Message) (types.Message, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return types.None, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	defer iox.DiscardClose(conn)

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if err := ipc.WriteMessage(conn, m); err != nil {
		return types.None, err
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		_ = uc.CloseWrite()
	}

	reply, err := ipc.ReadMessage(conn, 0)
	if err != nil {
		if ipc.IsEndOfStream(err) && errors.Is(err, io.EOF) {
			return types.None, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.None, fmt.Errorf("read reply: %w", ctxErr)
		}
		return types.None, fmt.Errorf("read reply: %w", err)
	}
	return reply, nil
}
