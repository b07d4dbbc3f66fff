package ws

import (
	"context"
	"errors"
	"io"
	"time"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alex386386/streem-relay/internal/core"
)

// handler upgrades HTTP connections and bridges them to core.Client.
type handler struct {
	hub    *core.Hub
	log    *zerolog.Logger
	buffer int
}

func (h *handler) serve(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	// The remote address alone is not a unique key behind a proxy.
	addr := c.Request.RemoteAddr + "#" + uuid.NewString()
	client := core.NewClient(addr, h.buffer)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel()
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		if s := websocket.CloseStatus(err); s == -1 {
			status = websocket.StatusInternalError
			reason = err.Error()
			h.log.Warn().Err(err).Str("addr", client.Addr).Msg("ws connection closed with error")
		}
	}
	conn.Close(status, reason)
}

// readLoop feeds inbound frames to the hub as protocol lines. Binary
// or non-UTF-8 frames get a notice back; the connection stays open.
func (h *handler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText || !utf8.Valid(data) {
			h.log.Info().Str("addr", client.Addr).Msg("unacceptable type of message")
			client.Deliver(core.LineEvent(core.NoticeBadEncoding))
			continue
		}
		h.hub.Dispatch(client, string(data))
	}
}

// writeLoop drains the client's events onto the socket.
func (h *handler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case ev := <-client.Events:
			switch ev.Kind {
			case core.EventLine:
				if err := conn.Write(ctx, websocket.MessageText, []byte(ev.Line)); err != nil {
					return err
				}
			case core.EventShutdown:
				if err := conn.Write(ctx, websocket.MessageText, []byte(core.ShutdownLine)); err != nil {
					return err
				}
				return nil
			}
		case <-ctx.Done():
			writeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			_ = conn.Write(writeCtx, websocket.MessageText, []byte(core.ShutdownLine))
			cancel()
			return ctx.Err()
		}
	}
}
