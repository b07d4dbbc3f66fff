package core

import (
	"testing"
	"time"
)

func entry(text, author string, at time.Time) Entry {
	return Entry{Text: text, SentAt: at, Author: author}
}

func texts(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

func TestLogSinceLast(t *testing.T) {
	now := time.Now()
	l := NewLog()
	l.Append(entry("a", "u", now))
	l.Append(entry("b", "v", now))
	l.Append(entry("c", "w", now))

	tests := []struct {
		name   string
		author string
		want   []string
	}{
		{"after own last entry", "u", []string{"b", "c"}},
		{"author in the middle", "v", []string{"c"}},
		{"author is last", "w", []string{}},
		{"never seen author gets everything", "x", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := texts(l.SinceLast(tt.author))
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestLogSinceLastUsesMostRecentEntry(t *testing.T) {
	now := time.Now()
	l := NewLog()
	l.Append(entry("a", "u", now))
	l.Append(entry("b", "v", now))
	l.Append(entry("c", "u", now))
	l.Append(entry("d", "v", now))

	got := texts(l.SinceLast("u"))
	if len(got) != 1 || got[0] != "d" {
		t.Fatalf("expected [d], got %v", got)
	}
}

func TestLogLastN(t *testing.T) {
	now := time.Now()
	l := NewLog()
	for _, s := range []string{"a", "b", "c", "d"} {
		l.Append(entry(s, "u", now))
	}

	got := texts(l.LastN(2))
	if len(got) != 2 || got[0] != "c" || got[1] != "d" {
		t.Fatalf("expected [c d], got %v", got)
	}

	if got := l.LastN(10); len(got) != 4 {
		t.Fatalf("expected whole log, got %d entries", len(got))
	}
	if got := l.LastN(0); len(got) != 0 {
		t.Fatalf("expected nothing, got %d entries", len(got))
	}
}

func TestLogPruneOlderThan(t *testing.T) {
	now := time.Now()
	window := time.Hour

	l := NewLog()
	l.Append(entry("expired", "u", now.Add(-3601*time.Second)))
	l.Append(entry("boundary", "u", now.Add(-3600*time.Second)))
	l.Append(entry("fresh", "u", now.Add(-3599*time.Second)))

	removed := l.PruneOlderThan(now, window)
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	got := texts(l.Entries())
	if len(got) != 1 || got[0] != "fresh" {
		t.Fatalf("expected only the fresh entry, got %v", got)
	}
}

func TestHubSweepPrunesAllHistories(t *testing.T) {
	logger := zerologNop()
	h := NewHub(logger, Options{})

	now := time.Now()
	h.lobby.Append(entry("old", "u", now.Add(-2*time.Hour)))
	h.lobby.Append(entry("new", "u", now))

	ch := NewChannel("tea")
	ch.History.Append(entry("old", "u", now.Add(-2*time.Hour)))
	ch.History.Append(entry("new", "u", now))
	h.channels["tea"] = ch

	h.sweep(now)

	if h.lobby.Len() != 1 {
		t.Fatalf("expected 1 lobby entry after sweep, got %d", h.lobby.Len())
	}
	if ch.History.Len() != 1 {
		t.Fatalf("expected 1 channel entry after sweep, got %d", ch.History.Len())
	}
}
