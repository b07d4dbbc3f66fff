package core

// Channel is a named group with its own member set and history.
// Members are transport addresses of registered connections.
type Channel struct {
	Name    string
	History *Log
	members map[string]struct{}
}

// NewChannel constructs a channel with no members and empty history.
func NewChannel(name string) *Channel {
	return &Channel{
		Name:    name,
		History: NewLog(),
		members: make(map[string]struct{}),
	}
}

// Add inserts an address into the member set. Returns true if newly
// added; repeating a join is a no-op.
func (ch *Channel) Add(addr string) bool {
	if _, exists := ch.members[addr]; exists {
		return false
	}
	ch.members[addr] = struct{}{}
	return true
}

// Remove deletes an address from the member set. Returns true if it
// was a member.
func (ch *Channel) Remove(addr string) bool {
	if _, exists := ch.members[addr]; !exists {
		return false
	}
	delete(ch.members, addr)
	return true
}

// Member reports whether the address is in the member set.
func (ch *Channel) Member(addr string) bool {
	_, ok := ch.members[addr]
	return ok
}

// Members returns the current member addresses.
func (ch *Channel) Members() []string {
	out := make([]string, 0, len(ch.members))
	for addr := range ch.members {
		out = append(out, addr)
	}
	return out
}

// Len returns the member count.
func (ch *Channel) Len() int {
	return len(ch.members)
}
