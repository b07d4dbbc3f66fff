package core

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func zerologNop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// startHub runs a hub for the duration of a test. The returned stop
// function cancels the loop and waits for it to finish, after which
// hub state can be inspected directly.
func startHub(t *testing.T, opts Options) (*Hub, func()) {
	t.Helper()

	logger := zerolog.Nop()
	h := NewHub(&logger, opts)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	stop := func() {
		cancel()
		<-h.done
	}
	t.Cleanup(stop)
	return h, stop
}

// connect registers a bare connection with the hub.
func connect(h *Hub, addr string) *Client {
	c := NewClient(addr, 32)
	h.RegisterClient(c)
	return c
}

// registerUser connects and submits the registration line.
func registerUser(h *Hub, addr, name string) *Client {
	c := connect(h, addr)
	h.Dispatch(c, name)
	return c
}

// mustLine waits for the next line event on a client.
func mustLine(t *testing.T, c *Client) string {
	t.Helper()

	select {
	case ev := <-c.Events:
		if ev.Kind != EventLine {
			t.Fatalf("expected line event, got kind %v", ev.Kind)
		}
		return ev.Line
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for line")
		return ""
	}
}

// expectLine waits for the next line and compares it.
func expectLine(t *testing.T, c *Client, want string) {
	t.Helper()

	if got := mustLine(t, c); got != want {
		t.Fatalf("expected line %q, got %q", want, got)
	}
}

// mustShutdown waits for the shutdown event.
func mustShutdown(t *testing.T, c *Client) {
	t.Helper()

	select {
	case ev := <-c.Events:
		if ev.Kind != EventShutdown {
			t.Fatalf("expected shutdown event, got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for shutdown event")
	}
}

// mustNoLine asserts no event is queued. Only meaningful after a
// later hub op has already produced an observable reply, since ops
// are processed in submission order.
func mustNoLine(t *testing.T, c *Client) {
	t.Helper()

	select {
	case ev := <-c.Events:
		t.Fatalf("expected no event, got %+v", ev)
	default:
	}
}
