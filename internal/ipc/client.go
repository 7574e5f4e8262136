package ipc

import (
	"context"
	"fmt"
	"net"
	"time"

	"pomo/internal/countdown"
)

// DialTimeout caps how long Send waits for the daemon to accept.
const DialTimeout = 2 * time.Second

// Send delivers msg to the daemon listening at path. It does not retry and
// expects no reply.
func Send(ctx context.Context, path string, msg countdown.Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return err
	}

	dialer := net.Dialer{Timeout: DialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			return fmt.Errorf("close write: %w", err)
		}
	}
	return nil
}
