package core

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alex386386/streem-relay/internal/store"
)

// Engine defaults.
const (
	DefaultRetention    = time.Hour
	DefaultSweepPeriod  = time.Minute
	DefaultReplayDepth  = 20
	DefaultClientBuffer = 256
)

// Options tunes the hub. Zero values fall back to the defaults above.
type Options struct {
	// Retention is how long history entries are kept.
	Retention time.Duration
	// SweepPeriod is how often expired entries are pruned.
	SweepPeriod time.Duration
	// ReplayDepth is how many lobby entries a first-time user gets
	// on registration.
	ReplayDepth int
}

type opKind int

const (
	opRegister opKind = iota
	opUnregister
	opLine
)

type op struct {
	kind   opKind
	client *Client
	line   string
}

// Hub owns every piece of shared chat state: the connection registry,
// the identity map, the channels and the histories. A single goroutine
// (Run) consumes the op queue, so compound read-modify-write sequences
// are serialized without locks and history order always matches
// delivery order. The hub never writes to a socket; delivery is a
// non-blocking send into the client's event buffer.
type Hub struct {
	ops  chan op
	done chan struct{}

	log *zerolog.Logger
	now func() time.Time

	retention   time.Duration
	sweepPeriod time.Duration
	replayDepth int

	conns    map[string]*Client // live connections by address
	identity *Identity
	lobby    *Log
	channels map[string]*Channel
}

// NewHub constructs a hub. Call Run to start processing.
func NewHub(logger *zerolog.Logger, opts Options) *Hub {
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.SweepPeriod <= 0 {
		opts.SweepPeriod = DefaultSweepPeriod
	}
	if opts.ReplayDepth <= 0 {
		opts.ReplayDepth = DefaultReplayDepth
	}
	return &Hub{
		ops:         make(chan op, 64),
		done:        make(chan struct{}),
		log:         logger,
		now:         time.Now,
		retention:   opts.Retention,
		sweepPeriod: opts.SweepPeriod,
		replayDepth: opts.ReplayDepth,
		conns:       make(map[string]*Client),
		identity:    NewIdentity(),
		lobby:       NewLog(),
		channels:    make(map[string]*Channel),
	}
}

// RegisterClient adds a live connection to the registry. An existing
// entry for the same address is overwritten.
func (h *Hub) RegisterClient(c *Client) {
	h.submit(op{kind: opRegister, client: c})
}

// UnregisterClient removes a connection, its username binding and its
// channel memberships.
func (h *Hub) UnregisterClient(c *Client) {
	h.submit(op{kind: opUnregister, client: c})
}

// Dispatch hands one inbound protocol line to the hub.
func (h *Hub) Dispatch(c *Client, line string) {
	h.submit(op{kind: opLine, client: c, line: line})
}

func (h *Hub) submit(o op) {
	select {
	case h.ops <- o:
	case <-h.done:
	}
}

// Run processes ops and runs the expiry sweeper until ctx is
// cancelled, then sends the shutdown sentinel to every live
// connection and returns.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.sweepPeriod)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case now := <-ticker.C:
			h.sweep(now)
		case o := <-h.ops:
			h.handle(o)
		}
	}
}

func (h *Hub) handle(o op) {
	switch o.kind {
	case opRegister:
		h.conns[o.client.Addr] = o.client
		h.log.Info().Str("addr", o.client.Addr).Msg("start serving connection")
	case opUnregister:
		h.removeClient(o.client.Addr)
		h.log.Info().Str("addr", o.client.Addr).Msg("connection lost")
	case opLine:
		h.handleLine(o.client, o.line)
	}
}

// handleLine classifies one inbound line: registration while the
// connection has no username, then quit / command / channel message /
// lobby message in that order.
func (h *Hub) handleLine(c *Client, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}

	sender, registered := h.identity.NameOf(c.Addr)
	if !registered {
		h.register(c, trimmed)
		return
	}

	if strings.Contains(trimmed, "quit") {
		h.quit(c)
		return
	}

	if rest, ok := strings.CutPrefix(trimmed, "/"); ok {
		h.command(c, sender, rest, "")
		return
	}

	first, payload, _ := strings.Cut(trimmed, " ")
	if ch, ok := h.channels[first]; ok {
		if cmd, isCmd := strings.CutPrefix(payload, "/"); isCmd {
			h.command(c, sender, cmd, first)
			return
		}
		if payload == "" {
			// Bare channel name with nothing to deliver.
			return
		}
		h.channelMessage(c, sender, ch, payload)
		return
	}

	h.lobbyMessage(c, sender, trimmed)
}

// register consumes the first non-empty line as the desired username
// and replays missed lobby history: a returning name gets everything
// after its own last entry, a new name gets the most recent entries.
// A name held by a live connection is rejected and the connection
// stays unregistered.
func (h *Hub) register(c *Client, name string) {
	if addr, live := h.identity.AddrOf(name); live && addr != c.Addr {
		h.send(c, ErrNameConflict.Notice)
		h.log.Info().Str("addr", c.Addr).Str("name", name).Msg("registration rejected, name in use")
		return
	}

	if h.lobby.Len() > 0 {
		if h.identity.Seen(name) {
			h.sendEntries(c, h.lobby.SinceLast(name))
		} else {
			h.sendEntries(c, h.lobby.LastN(h.replayDepth))
		}
	}

	h.identity.Bind(c.Addr, name)
	h.log.Info().Str("addr", c.Addr).Str("name", name).Msg("registered")
}

// quit tears the connection down from the server side: the peer gets
// the shutdown sentinel and the address leaves the registry.
func (h *Hub) quit(c *Client) {
	c.Deliver(Event{Kind: EventShutdown})
	h.removeClient(c.Addr)
	h.log.Info().Str("addr", c.Addr).Msg("connection closed by client")
}

func (h *Hub) channelMessage(c *Client, sender string, ch *Channel, payload string) {
	rendered := sender + ": " + payload
	ch.History.Append(Entry{Text: rendered, SentAt: h.now(), Author: sender})
	for _, addr := range ch.Members() {
		if addr == c.Addr {
			continue
		}
		if member, ok := h.conns[addr]; ok {
			h.send(member, rendered)
		}
	}
}

// lobbyMessage fans a line out to every registered connection that is
// a member of no channel, excluding the sender, and records it in the
// lobby history.
func (h *Hub) lobbyMessage(c *Client, sender, text string) {
	rendered := sender + ": " + text
	for addr, peer := range h.conns {
		if addr == c.Addr {
			continue
		}
		if _, registered := h.identity.NameOf(addr); !registered {
			continue
		}
		if h.inAnyChannel(addr) {
			continue
		}
		h.send(peer, rendered)
	}
	h.lobby.Append(Entry{Text: rendered, SentAt: h.now(), Author: sender})
}

func (h *Hub) inAnyChannel(addr string) bool {
	for _, ch := range h.channels {
		if ch.Member(addr) {
			return true
		}
	}
	return false
}

// removeClient drops the connection, its username binding and every
// channel membership it held.
func (h *Hub) removeClient(addr string) {
	delete(h.conns, addr)
	h.identity.Unbind(addr)
	for _, ch := range h.channels {
		ch.Remove(addr)
	}
}

func (h *Hub) sweep(now time.Time) {
	removed := h.lobby.PruneOlderThan(now, h.retention)
	for _, ch := range h.channels {
		removed += ch.History.PruneOlderThan(now, h.retention)
	}
	h.log.Debug().Int("removed", removed).Msg("swept expired history")
}

func (h *Hub) shutdown() {
	for _, c := range h.conns {
		c.Deliver(Event{Kind: EventShutdown})
	}
	h.log.Info().Int("connections", len(h.conns)).Msg("hub stopped")
}

func (h *Hub) send(c *Client, line string) {
	if !c.Deliver(LineEvent(line)) {
		h.log.Warn().Str("addr", c.Addr).Msg("client buffer full, line dropped")
	}
}

func (h *Hub) sendEntries(c *Client, entries []Entry) {
	for _, e := range entries {
		h.send(c, e.Text)
	}
}

// Restore seeds the hub from a snapshot. Channels come back with
// empty membership. Must be called before Run starts.
func (h *Hub) Restore(snap *store.Snapshot) {
	if snap == nil {
		return
	}
	h.lobby.Replace(entriesFromMessages(snap.LobbyHistory))
	for _, name := range snap.Channels {
		h.channels[name] = NewChannel(name)
	}
	for name, msgs := range snap.ChannelHistory {
		ch, ok := h.channels[name]
		if !ok {
			ch = NewChannel(name)
			h.channels[name] = ch
		}
		ch.History.Replace(entriesFromMessages(msgs))
	}
	h.identity.RestoreKnown(snap.Usernames)
}

// Snapshot captures the persistable state. Must only be called after
// Run has returned.
func (h *Hub) Snapshot() *store.Snapshot {
	snap := &store.Snapshot{
		LobbyHistory:   messagesFromEntries(h.lobby.Entries()),
		Channels:       make([]string, 0, len(h.channels)),
		ChannelHistory: make(map[string][]store.Message, len(h.channels)),
		Usernames:      h.identity.Known(),
	}
	for name, ch := range h.channels {
		snap.Channels = append(snap.Channels, name)
		snap.ChannelHistory[name] = messagesFromEntries(ch.History.Entries())
	}
	return snap
}

func entriesFromMessages(msgs []store.Message) []Entry {
	out := make([]Entry, len(msgs))
	for i, m := range msgs {
		out[i] = Entry{Text: m.Text, SentAt: m.SentAt, Author: m.Author}
	}
	return out
}

func messagesFromEntries(entries []Entry) []store.Message {
	out := make([]store.Message, len(entries))
	for i, e := range entries {
		out[i] = store.Message{Text: e.Text, SentAt: e.SentAt, Author: e.Author}
	}
	return out
}
