package core

import "testing"

func TestIdentityBindAndLookup(t *testing.T) {
	id := NewIdentity()
	id.Bind("1.2.3.4:100", "alice")

	if name, ok := id.NameOf("1.2.3.4:100"); !ok || name != "alice" {
		t.Fatalf("NameOf returned %q, %v", name, ok)
	}
	if addr, ok := id.AddrOf("alice"); !ok || addr != "1.2.3.4:100" {
		t.Fatalf("AddrOf returned %q, %v", addr, ok)
	}
}

func TestIdentityUnbindKeepsSeen(t *testing.T) {
	id := NewIdentity()
	id.Bind("1.2.3.4:100", "alice")
	id.Unbind("1.2.3.4:100")

	if _, ok := id.NameOf("1.2.3.4:100"); ok {
		t.Fatal("address still bound after Unbind")
	}
	if _, ok := id.AddrOf("alice"); ok {
		t.Fatal("name still bound after Unbind")
	}
	if !id.Seen("alice") {
		t.Fatal("name forgotten after Unbind")
	}
}

func TestIdentityRebindKeepsDirectionsConsistent(t *testing.T) {
	id := NewIdentity()
	id.Bind("addr1", "alice")
	id.Unbind("addr1")
	id.Bind("addr2", "alice")

	if addr, _ := id.AddrOf("alice"); addr != "addr2" {
		t.Fatalf("expected alice bound to addr2, got %q", addr)
	}
	if _, ok := id.NameOf("addr1"); ok {
		t.Fatal("stale address binding survived")
	}
}

func TestIdentityKnownCollapsesSharedLastAddress(t *testing.T) {
	id := NewIdentity()
	id.Bind("addr1", "alice")
	id.Unbind("addr1")
	id.Bind("addr1", "bob")

	// Address-keyed persistence keeps one row per address.
	known := id.Known()
	if len(known) != 1 {
		t.Fatalf("expected 1 known binding, got %d", len(known))
	}
	if name := known["addr1"]; name != "alice" && name != "bob" {
		t.Fatalf("unexpected surviving name %q", name)
	}

	// Both names stay recognizable as returning users regardless.
	if !id.Seen("alice") || !id.Seen("bob") {
		t.Fatal("seen set must keep both names")
	}
}

func TestIdentityKnownRoundTrip(t *testing.T) {
	id := NewIdentity()
	id.Bind("addr1", "alice")
	id.Bind("addr2", "bob")
	id.Unbind("addr1")

	known := id.Known()
	if len(known) != 2 {
		t.Fatalf("expected 2 known bindings, got %d", len(known))
	}

	restored := NewIdentity()
	restored.RestoreKnown(known)
	if !restored.Seen("alice") || !restored.Seen("bob") {
		t.Fatal("seen set not restored")
	}
	if _, ok := restored.AddrOf("alice"); ok {
		t.Fatal("restore must not create live bindings")
	}
}
