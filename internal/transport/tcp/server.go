package tcp

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/Alex386386/streem-relay/internal/core"
)

// maxLine bounds a single protocol line.
const maxLine = 64 * 1024

// Server accepts raw TCP connections and bridges them to core.Client:
// one goroutine reads newline-delimited lines into the hub, another
// drains the client's event buffer back onto the socket.
type Server struct {
	hub    *core.Hub
	log    *zerolog.Logger
	buffer int

	lis net.Listener
	wg  sync.WaitGroup
}

// NewServer builds a TCP transport for the given hub. buffer sizes
// each client's outbound event channel.
func NewServer(hub *core.Hub, logger *zerolog.Logger, buffer int) *Server {
	return &Server{hub: hub, log: logger, buffer: buffer}
}

// Listen binds the listening socket.
func (s *Server) Listen(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = lis
	return nil
}

// Addr returns the bound listener address. Valid after Listen.
func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}

// Serve accepts connections until ctx is cancelled, then waits for
// every connection handler to drain.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.lis.Close()
	}()

	for {
		conn, err := s.lis.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			s.log.Warn().Err(err).Msg("accept failed")
			continue
		}

		s.wg.Add(1)
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	client := core.NewClient(conn.RemoteAddr().String(), s.buffer)
	s.hub.RegisterClient(client)
	defer s.hub.UnregisterClient(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- s.readLoop(conn, client)
	}()
	go func() {
		errCh <- s.writeLoop(ctx, conn, client)
	}()

	err := <-errCh
	cancel()
	conn.Close() // unblocks the read loop
	<-errCh

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, net.ErrClosed) {
		s.log.Warn().Err(err).Str("addr", client.Addr).Msg("connection error")
	}
}

// readLoop feeds inbound lines to the hub. A line that is not valid
// UTF-8 gets a notice back and is otherwise ignored; the connection
// stays open.
func (s *Server) readLoop(conn net.Conn, client *core.Client) error {
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), maxLine)
	for sc.Scan() {
		raw := sc.Bytes()
		if !utf8.Valid(raw) {
			s.log.Info().Str("addr", client.Addr).Msg("unacceptable type of message")
			client.Deliver(core.LineEvent(core.NoticeBadEncoding))
			continue
		}
		s.hub.Dispatch(client, string(raw))
	}
	return sc.Err()
}

// writeLoop drains the client's events onto the socket. EventShutdown
// writes the sentinel and closes the connection.
func (s *Server) writeLoop(ctx context.Context, conn net.Conn, client *core.Client) error {
	for {
		select {
		case ev := <-client.Events:
			switch ev.Kind {
			case core.EventLine:
				if _, err := conn.Write([]byte(ev.Line + "\n")); err != nil {
					return err
				}
			case core.EventShutdown:
				_, err := conn.Write([]byte(core.ShutdownLine + "\n"))
				if err != nil {
					return err
				}
				return nil
			}
		case <-ctx.Done():
			// Best effort: the peer is told to terminate before the
			// listener goes away.
			_, _ = conn.Write([]byte(core.ShutdownLine + "\n"))
			return ctx.Err()
		}
	}
}
