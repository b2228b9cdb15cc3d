package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler answers one request.
type Handler func(ctx context.Context, req Request) Response

// Server accepts control connections on a Unix socket.
type Server struct {
	path    string
	handler Handler
	log     *zap.Logger

	ln net.Listener
	wg sync.WaitGroup
}

// Listen binds the socket at path. A leftover socket file with no
// listener behind it is removed first. Listen fails if another daemon is
// already serving path.
func Listen(path string, handler Handler, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if _, err := os.Stat(path); err == nil {
		conn, dialErr := net.DialTimeout("unix", path, time.Second)
		if dialErr == nil {
			conn.Close()
			return nil, fmt.Errorf("another daemon is listening on %s", path)
		}
		log.Info("removing stale socket", zap.String("path", path))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("chmod socket %s: %w", path, err)
	}
	return &Server{path: path, handler: handler, log: log, ln: ln}, nil
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Serve accepts connections until ctx is done or Close is called. It
// waits for in-flight connections before returning.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	defer s.wg.Wait()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

// Close stops accepting connections and removes the socket file.
func (s *Server) Close() error {
	err := s.ln.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(DefaultTimeout))

	var req Request
	if err := NewDecoder(conn).Decode(&req); err != nil {
		s.log.Warn("failed to decode request", zap.Error(err))
		_ = NewEncoder(conn).Encode(ErrorResponse(fmt.Errorf("bad request: %w", err)))
		return
	}

	resp := s.handler(ctx, req)
	if err := NewEncoder(conn).Encode(resp); err != nil {
		s.log.Warn("failed to send response", zap.String("action", req.Action), zap.Error(err))
	}
}
