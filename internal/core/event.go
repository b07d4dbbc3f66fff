package core

// EventKind is a notification the engine emits to a connection.
type EventKind int

const (
	// EventLine delivers one rendered protocol line to the peer.
	EventLine EventKind = iota
	// EventShutdown instructs the transport to write the shutdown
	// sentinel and close the connection.
	EventShutdown
)

// Event is sent to a client's write pump.
type Event struct {
	Kind EventKind
	Line string
}

// LineEvent wraps a rendered line in an Event.
func LineEvent(line string) Event {
	return Event{Kind: EventLine, Line: line}
}

// Protocol sentinels and transport-level notices.
const (
	// ShutdownLine tells the client to terminate its session.
	ShutdownLine = "SERVER_SHUTDOWN"
	// NoticeBadEncoding is sent when a peer delivers non-text bytes.
	// The connection stays open.
	NoticeBadEncoding = "This message has unacceptable type!"
)
