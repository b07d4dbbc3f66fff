package core

import "time"

// Entry is one rendered line of chat history.
type Entry struct {
	Text   string
	SentAt time.Time
	Author string
}

// Log is an append-only, time-pruned message history. It backs both
// the lobby history and each channel's history. Not safe for
// concurrent use; the hub goroutine owns every Log.
type Log struct {
	entries []Entry
}

// NewLog constructs an empty history log.
func NewLog() *Log {
	return &Log{}
}

// Append adds an entry at the end of the log.
func (l *Log) Append(e Entry) {
	l.entries = append(l.entries, e)
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// PruneOlderThan drops entries whose age relative to now is window or
// more, and returns how many were removed.
func (l *Log) PruneOlderThan(now time.Time, window time.Duration) int {
	kept := l.entries[:0]
	for _, e := range l.entries {
		if now.Sub(e.SentAt) < window {
			kept = append(kept, e)
		}
	}
	removed := len(l.entries) - len(kept)
	l.entries = kept
	return removed
}

// SinceLast returns, in chronological order, every entry authored
// after the given author's most recent entry, exclusive of that entry.
// If the author never appears, the whole retained log is returned.
func (l *Log) SinceLast(author string) []Entry {
	cut := 0
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Author == author {
			cut = i + 1
			break
		}
	}
	out := make([]Entry, len(l.entries)-cut)
	copy(out, l.entries[cut:])
	return out
}

// LastN returns the most recent n entries in chronological order.
func (l *Log) LastN(n int) []Entry {
	if n <= 0 {
		return nil
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Entries returns a copy of the whole retained log.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Replace swaps the log contents, used when restoring a snapshot.
func (l *Log) Replace(entries []Entry) {
	l.entries = append(l.entries[:0:0], entries...)
}
