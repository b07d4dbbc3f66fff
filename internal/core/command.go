package core

import "strings"

// command parses and executes one slash command. cmd arrives with the
// leading slash already stripped. channelCtx is non-empty only when
// the command came in the "channelname /command" form; invite is the
// one command that needs it. Unknown commands are ignored. Commands
// with too few arguments get a single malformed-command notice.
func (h *Hub) command(c *Client, sender, cmd, channelCtx string) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "join":
		if len(fields) < 2 {
			h.send(c, ErrMalformed.Notice)
			return
		}
		h.join(c, sender, fields[1])
	case "leave":
		if len(fields) < 2 {
			h.send(c, ErrMalformed.Notice)
			return
		}
		h.leave(c, sender, fields[1])
	case "create":
		if len(fields) < 2 {
			h.send(c, ErrMalformed.Notice)
			return
		}
		h.create(c, fields[1])
	case "private":
		parts := strings.SplitN(cmd, " ", 3)
		if len(parts) < 3 || parts[1] == "" || strings.TrimSpace(parts[2]) == "" {
			h.send(c, ErrMalformed.Notice)
			return
		}
		h.private(c, sender, parts[1], parts[2])
	case "invite":
		if channelCtx == "" || len(fields) < 2 {
			h.send(c, ErrMalformed.Notice)
			return
		}
		h.invite(c, fields[1], channelCtx)
	}
}

// join adds the sender to a channel and replays what it missed from
// that channel's own history.
func (h *Hub) join(c *Client, sender, name string) {
	ch, ok := h.channels[name]
	if !ok {
		h.send(c, ErrChannelNotFound.Notice)
		return
	}
	ch.Add(c.Addr)
	h.send(c, joinedNotice(name))
	h.sendEntries(c, ch.History.SinceLast(sender))
}

// leave removes the sender from a channel and replays the lobby talk
// it missed while inside, catching it up on the space it returns to.
func (h *Hub) leave(c *Client, sender, name string) {
	ch, ok := h.channels[name]
	if !ok || !ch.Member(c.Addr) {
		h.send(c, ErrNotAMember.Notice)
		return
	}
	ch.Remove(c.Addr)
	h.sendEntries(c, h.lobby.SinceLast(sender))
}

// create makes a new channel with the sender as its only member.
func (h *Hub) create(c *Client, name string) {
	if _, exists := h.channels[name]; exists {
		h.send(c, ErrAlreadyExists.Notice)
		return
	}
	ch := NewChannel(name)
	ch.Add(c.Addr)
	h.channels[name] = ch
	h.send(c, joinedNotice(name))
	h.log.Info().Str("channel", name).Str("addr", c.Addr).Msg("channel created")
}

// private delivers a message to one user only. Private messages are
// never stored in any history.
func (h *Hub) private(c *Client, sender, recipient, text string) {
	target, ok := h.lookup(recipient)
	if !ok {
		h.send(c, ErrUnknownRecipient.Notice)
		return
	}
	h.send(target, sender+": (private) "+text)
}

// invite tells a user how to join the channel the command was issued
// from.
func (h *Hub) invite(c *Client, recipient, channel string) {
	target, ok := h.lookup(recipient)
	if !ok {
		h.send(c, ErrUnknownRecipient.Notice)
		return
	}
	h.send(target, "You are invited to channel ("+channel+")")
	h.send(target, `To join, type "/join `+channel+`"`)
}

// lookup resolves a username to its live connection.
func (h *Hub) lookup(name string) (*Client, bool) {
	addr, ok := h.identity.AddrOf(name)
	if !ok {
		return nil, false
	}
	c, ok := h.conns[addr]
	return c, ok
}

func joinedNotice(channel string) string {
	return "You joined channel " + channel
}
