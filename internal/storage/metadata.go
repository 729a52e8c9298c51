package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

// ErrTranscriptNotFound is returned when no archive row exists for a task id
var ErrTranscriptNotFound = errors.New("transcript not found")

// MetadataDB handles SQLite database operations
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB creates a new metadata database
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT NOT NULL UNIQUE,
		request_name TEXT NOT NULL,
		source_type TEXT NOT NULL,
		speakers TEXT NOT NULL DEFAULT '',
		gdrive_url TEXT NOT NULL DEFAULT '',
		local_path TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		duration REAL,
		word_count INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_created_at ON transcripts(created_at);
	CREATE INDEX IF NOT EXISTS idx_request_name ON transcripts(request_name);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MetadataDB{db: db}, nil
}

// SaveTranscript saves transcript metadata to the database
func (mdb *MetadataDB) SaveTranscript(result *types.TranscriptionResult) error {
	query := `
	INSERT INTO transcripts (task_id, request_name, source_type, speakers, gdrive_url, local_path, created_at, duration, word_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := mdb.db.Exec(query, result.TaskID, result.Name, result.Source,
		strings.Join(result.Speakers, ","), result.GDriveURL, result.LocalPath,
		result.ProcessedAt.UTC(), result.Duration, result.WordCount)
	if err != nil {
		return fmt.Errorf("failed to save transcript metadata: %w", err)
	}

	return nil
}

const selectColumns = `task_id, request_name, source_type, speakers, gdrive_url, local_path, created_at, duration, word_count`

// GetTranscript retrieves transcript metadata by task ID
func (mdb *MetadataDB) GetTranscript(taskID string) (*types.TranscriptionResult, error) {
	row := mdb.db.QueryRow(`SELECT `+selectColumns+` FROM transcripts WHERE task_id = ?`, taskID)

	result, err := scanTranscript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptNotFound, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return result, nil
}

// ListTranscripts returns the most recent transcripts first
func (mdb *MetadataDB) ListTranscripts(limit int) ([]*types.TranscriptionResult, error) {
	rows, err := mdb.db.Query(`SELECT `+selectColumns+` FROM transcripts ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	transcripts := make([]*types.TranscriptionResult, 0)
	for rows.Next() {
		result, err := scanTranscript(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}
		transcripts = append(transcripts, result)
	}

	return transcripts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTranscript(row rowScanner) (*types.TranscriptionResult, error) {
	var (
		result    types.TranscriptionResult
		speakers  string
		createdAt time.Time
	)
	err := row.Scan(&result.TaskID, &result.Name, &result.Source, &speakers,
		&result.GDriveURL, &result.LocalPath, &createdAt, &result.Duration, &result.WordCount)
	if err != nil {
		return nil, err
	}
	if speakers != "" {
		result.Speakers = strings.Split(speakers, ",")
	}
	result.ProcessedAt = createdAt
	return &result, nil
}

// Close closes the database connection
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}
