package core

// Identity is the bidirectional address<->username mapping. Both
// directions are updated together so they can never disagree. Beyond
// the live bindings it remembers every name ever registered, which is
// what distinguishes a returning user from a first-time one.
type Identity struct {
	nameByAddr map[string]string
	addrByName map[string]string
	lastAddr   map[string]string // username -> last address that held it
}

// NewIdentity constructs an empty mapping.
func NewIdentity() *Identity {
	return &Identity{
		nameByAddr: make(map[string]string),
		addrByName: make(map[string]string),
		lastAddr:   make(map[string]string),
	}
}

// Bind records a live address<->name binding and marks the name seen.
func (id *Identity) Bind(addr, name string) {
	id.nameByAddr[addr] = name
	id.addrByName[name] = addr
	id.lastAddr[name] = addr
}

// Unbind drops the live binding for addr, if any. The name stays in
// the seen set.
func (id *Identity) Unbind(addr string) {
	name, ok := id.nameByAddr[addr]
	if !ok {
		return
	}
	delete(id.nameByAddr, addr)
	if id.addrByName[name] == addr {
		delete(id.addrByName, name)
	}
}

// NameOf returns the username bound to a live address.
func (id *Identity) NameOf(addr string) (string, bool) {
	name, ok := id.nameByAddr[addr]
	return name, ok
}

// AddrOf returns the live address bound to a username.
func (id *Identity) AddrOf(name string) (string, bool) {
	addr, ok := id.addrByName[name]
	return addr, ok
}

// Seen reports whether the name has ever been registered.
func (id *Identity) Seen(name string) bool {
	_, ok := id.lastAddr[name]
	return ok
}

// Known returns the address->username map of every name ever seen,
// keyed by the last address that held it. This is the persisted form
// and it is lossy by design: when two names share a last address
// (ephemeral-port reuse across restarts) only one row survives, the
// same way the original address-keyed map behaved.
func (id *Identity) Known() map[string]string {
	out := make(map[string]string, len(id.lastAddr))
	for name, addr := range id.lastAddr {
		out[addr] = name
	}
	return out
}

// RestoreKnown seeds the seen set from a persisted address->username
// map. No live bindings are created.
func (id *Identity) RestoreKnown(byAddr map[string]string) {
	for addr, name := range byAddr {
		id.lastAddr[name] = addr
	}
}
