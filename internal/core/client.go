package core

// Client is one live connection as seen by the engine.
type Client struct {
	// Addr is the transport address and the registry key.
	Addr string
	// Events carries rendered protocol lines out to the
	// connection's write pump.
	Events chan Event
}

// NewClient constructs a client with a buffered event channel.
func NewClient(addr string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		Addr:   addr,
		Events: make(chan Event, buffer),
	}
}

// Deliver queues an event without blocking. Returns false if the
// client's buffer is full and the event was dropped.
func (c *Client) Deliver(ev Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
