package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/colosseum-live/arena/internal/core"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: dbPath,
	}, nil
}

// Initialize creates the database schema.
func (s *SQLiteStore) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS debate_rooms (
		debate_id INTEGER PRIMARY KEY,
		room_id TEXT NOT NULL UNIQUE,
		FOREIGN KEY (room_id) REFERENCES rooms(id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		room_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (room_id) REFERENCES rooms(id)
	);

	CREATE TABLE IF NOT EXISTS leases (
		debate_id INTEGER NOT NULL,
		transition TEXT NOT NULL,
		acquired_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (debate_id, transition)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_room_id ON messages(room_id);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return &core.StoreError{Op: "initialize", Err: err}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRoom creates a new room and returns its generated id.
func (s *SQLiteStore) CreateRoom() (string, error) {
	roomID := uuid.NewString()
	_, err := s.db.Exec("INSERT INTO rooms (id) VALUES (?)", roomID)
	if err != nil {
		return "", &core.StoreError{Op: "create room", Err: err}
	}
	return roomID, nil
}

// MapDebateToRoom records the 1:1 debate/room mapping. A room id, once
// mapped to a debate, never changes.
func (s *SQLiteStore) MapDebateToRoom(debateID uint64, roomID string) error {
	_, err := s.db.Exec("INSERT INTO debate_rooms (debate_id, room_id) VALUES (?, ?)", debateID, roomID)
	if err != nil {
		return &core.StoreError{Op: "map debate to room", Err: err}
	}
	return nil
}

// RoomIDFor resolves the room for a debate. An unmapped debate yields an
// empty id and no error.
func (s *SQLiteStore) RoomIDFor(debateID uint64) (string, error) {
	var roomID string
	err := s.db.QueryRow("SELECT room_id FROM debate_rooms WHERE debate_id = ?", debateID).Scan(&roomID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", &core.StoreError{Op: "resolve room", Err: err}
	}
	return roomID, nil
}

// DebateIDFor resolves the inverse mapping, room id to debate id.
func (s *SQLiteStore) DebateIDFor(roomID string) (uint64, bool, error) {
	var debateID uint64
	err := s.db.QueryRow("SELECT debate_id FROM debate_rooms WHERE room_id = ?", roomID).Scan(&debateID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &core.StoreError{Op: "resolve debate", Err: err}
	}
	return debateID, true, nil
}

// Append appends a message to a room's log.
func (s *SQLiteStore) Append(roomID string, msg core.Message) error {
	query := `
	INSERT INTO messages (id, room_id, sender, content, created_at)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		msg.ID,
		roomID,
		msg.Sender,
		msg.Content,
		msg.CreatedAt,
	)

	if err != nil {
		return &core.StoreError{Op: "append message", Err: err}
	}

	return nil
}

// Messages returns all messages for a room in original append order. An
// unknown room yields an empty slice.
func (s *SQLiteStore) Messages(roomID string) ([]core.Message, error) {
	query := `
	SELECT id, room_id, sender, content, created_at
	FROM messages
	WHERE room_id = ?
	ORDER BY seq ASC
	`

	rows, err := s.db.Query(query, roomID)
	if err != nil {
		return nil, &core.StoreError{Op: "read messages", Err: err}
	}
	defer rows.Close()

	var msgs []core.Message
	for rows.Next() {
		var msg core.Message
		err := rows.Scan(
			&msg.ID,
			&msg.RoomID,
			&msg.Sender,
			&msg.Content,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, &core.StoreError{Op: "scan message", Err: err}
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "read messages", Err: err}
	}

	return msgs, nil
}

// LastMessage returns the most recently appended message for a room, or nil
// when the room is empty.
func (s *SQLiteStore) LastMessage(roomID string) (*core.Message, error) {
	query := `
	SELECT id, room_id, sender, content, created_at
	FROM messages
	WHERE room_id = ?
	ORDER BY seq DESC
	LIMIT 1
	`

	var msg core.Message
	err := s.db.QueryRow(query, roomID).Scan(
		&msg.ID,
		&msg.RoomID,
		&msg.Sender,
		&msg.Content,
		&msg.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &core.StoreError{Op: "read last message", Err: err}
	}

	return &msg, nil
}

// AcquireLease claims the (debateID, transition) lease. The unique primary
// key makes the claim a compare-and-swap: the first writer wins, later
// writers see false.
func (s *SQLiteStore) AcquireLease(debateID uint64, transition string) (bool, error) {
	res, err := s.db.Exec(
		"INSERT OR IGNORE INTO leases (debate_id, transition) VALUES (?, ?)",
		debateID, transition,
	)
	if err != nil {
		return false, &core.StoreError{Op: "acquire lease", Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, &core.StoreError{Op: "acquire lease", Err: err}
	}

	return n == 1, nil
}

// ReleaseLease drops the (debateID, transition) lease so the transition can
// be claimed again. Releasing an unheld lease is a no-op.
func (s *SQLiteStore) ReleaseLease(debateID uint64, transition string) error {
	_, err := s.db.Exec(
		"DELETE FROM leases WHERE debate_id = ? AND transition = ?",
		debateID, transition,
	)
	if err != nil {
		return &core.StoreError{Op: "release lease", Err: err}
	}
	return nil
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "arena.db"
	}
	return filepath.Join(home, ".arena", "arena.db")
}
