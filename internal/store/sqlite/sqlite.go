package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Alex386386/streem-relay/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS lobby_messages (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	text    TEXT NOT NULL,
	sent_at INTEGER NOT NULL,
	author  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS channels (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS channel_messages (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	channel TEXT NOT NULL,
	text    TEXT NOT NULL,
	sent_at INTEGER NOT NULL,
	author  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS usernames (
	address  TEXT PRIMARY KEY,
	username TEXT NOT NULL
);
`

// SQLiteStore implements store.Store on a SQLite file. Timestamps are
// stored as unix nanoseconds.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (and creates if needed) the snapshot database at dbPath.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSnapshot rewrites the whole snapshot in one transaction.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *store.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"lobby_messages", "channels", "channel_messages", "usernames"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, m := range snap.LobbyHistory {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lobby_messages (text, sent_at, author) VALUES (?, ?, ?)`,
			m.Text, m.SentAt.UnixNano(), m.Author,
		); err != nil {
			return fmt.Errorf("insert lobby message: %w", err)
		}
	}

	for _, name := range snap.Channels {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO channels (name) VALUES (?)`, name,
		); err != nil {
			return fmt.Errorf("insert channel: %w", err)
		}
	}

	for channel, msgs := range snap.ChannelHistory {
		for _, m := range msgs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO channel_messages (channel, text, sent_at, author) VALUES (?, ?, ?, ?)`,
				channel, m.Text, m.SentAt.UnixNano(), m.Author,
			); err != nil {
				return fmt.Errorf("insert channel message: %w", err)
			}
		}
	}

	for address, username := range snap.Usernames {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO usernames (address, username) VALUES (?, ?)`,
			address, username,
		); err != nil {
			return fmt.Errorf("insert username: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the persisted state. Returns (nil, nil) when the
// database holds no state at all.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context) (*store.Snapshot, error) {
	snap := &store.Snapshot{
		ChannelHistory: make(map[string][]store.Message),
		Usernames:      make(map[string]string),
	}

	var err error
	if snap.LobbyHistory, err = s.loadMessages(ctx,
		`SELECT text, sent_at, author FROM lobby_messages ORDER BY id`); err != nil {
		return nil, fmt.Errorf("load lobby history: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM channels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		snap.Channels = append(snap.Channels, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}

	for _, name := range snap.Channels {
		msgs, err := s.loadChannelMessages(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("load channel %q history: %w", name, err)
		}
		snap.ChannelHistory[name] = msgs
	}

	userRows, err := s.db.QueryContext(ctx, `SELECT address, username FROM usernames`)
	if err != nil {
		return nil, fmt.Errorf("load usernames: %w", err)
	}
	defer userRows.Close()
	for userRows.Next() {
		var address, username string
		if err := userRows.Scan(&address, &username); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		snap.Usernames[address] = username
	}
	if err := userRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usernames: %w", err)
	}

	if len(snap.LobbyHistory) == 0 && len(snap.Channels) == 0 && len(snap.Usernames) == 0 {
		return nil, nil
	}
	return snap, nil
}

func (s *SQLiteStore) loadMessages(ctx context.Context, query string, args ...any) ([]store.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Message
	for rows.Next() {
		var m store.Message
		var nanos int64
		if err := rows.Scan(&m.Text, &nanos, &m.Author); err != nil {
			return nil, err
		}
		m.SentAt = unixNano(nanos)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadChannelMessages(ctx context.Context, channel string) ([]store.Message, error) {
	return s.loadMessages(ctx,
		`SELECT text, sent_at, author FROM channel_messages WHERE channel = ? ORDER BY id`, channel)
}

func unixNano(n int64) time.Time {
	return time.Unix(0, n)
}
