package store

import (
	"context"
	"time"
)

// Message is one persisted history line.
type Message struct {
	Text   string
	SentAt time.Time
	Author string
}

// Snapshot is the persisted server state. Channel membership is
// deliberately absent: channels always restore empty.
type Snapshot struct {
	LobbyHistory   []Message
	Channels       []string
	ChannelHistory map[string][]Message
	Usernames      map[string]string // address -> username
}

// Store persists a snapshot across restarts. LoadSnapshot returns
// (nil, nil) when no state has ever been saved.
type Store interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
	Close() error
}
