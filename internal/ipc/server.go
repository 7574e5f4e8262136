package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"pomo/internal/countdown"
	"pomo/internal/logging"
)

const defaultReadTimeout = 5 * time.Second

// Observer is notified about every connection outcome. metrics.Collector
// satisfies it.
type Observer interface {
	RecordMessage(msg countdown.Message)
	RecordRejected(reason string)
}

type nopObserver struct{}

func (nopObserver) RecordMessage(countdown.Message) {}
func (nopObserver) RecordRejected(string)           {}

// Options tune a Server.
type Options struct {
	// ReadTimeout bounds how long a client may take to deliver its payload.
	ReadTimeout time.Duration
	Observer    Observer
}

// Server accepts control connections on a Unix domain socket.
type Server struct {
	path        string
	logger      *slog.Logger
	listener    net.Listener
	readTimeout time.Duration
	observer    Observer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Listen removes any stale socket at path and binds a new one readable and
// writable only by the current user.
func Listen(path string, logger *slog.Logger, opts Options) (*Server, error) {
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	old := unix.Umask(0o177)
	listener, err := net.Listen("unix", path)
	unix.Umask(old)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	return &Server{
		path:        path,
		logger:      logger,
		listener:    listener,
		readTimeout: readTimeout,
		observer:    observer,
	}, nil
}

// Path returns the socket path.
func (s *Server) Path() string { return s.path }

// Serve accepts connections until ctx is canceled or Close is called,
// forwarding each decoded message to out. Connections are handled one at a
// time in accept order; when out is full the accept loop blocks.
func (s *Server) Serve(ctx context.Context, out chan<- countdown.Message) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		<-ctx.Done()
		_ = s.listener.Close()
	}()
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "a control command may have been lost"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			msg, err := s.receive(conn)
			if err != nil {
				s.reject(err)
				continue
			}
			s.observer.RecordMessage(msg)
			s.logger.Debug("message received",
				logging.String("message", msg.String()),
				logging.String(logging.FieldEventType, "ipc_message_received"))
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Server) receive(conn net.Conn) (countdown.Message, error) {
	defer conn.Close()
	if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
		return 0, fmt.Errorf("set read deadline: %w", err)
	}
	payload, err := io.ReadAll(io.LimitReader(conn, MaxMessageSize+1))
	if err != nil {
		return 0, fmt.Errorf("read message: %w", err)
	}
	return DecodeMessage(payload)
}

func (s *Server) reject(err error) {
	reason := "read_error"
	if errors.Is(err, ErrMalformedMessage) {
		reason = "malformed"
	}
	s.observer.RecordRejected(reason)
	logging.WarnWithContext(s.logger, "control message dropped", "ipc_message_rejected",
		logging.Error(err),
		logging.String("reason", reason),
		logging.String(logging.FieldImpact, "the command had no effect on the timer"),
		logging.String(logging.FieldErrorHint, "retry with pomo start or pomo stop"))
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	_ = s.listener.Close()
	s.wg.Wait()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale socket remains until the next daemon start"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}
