// Package ledger persists file records, normalized events and index build
// history in a single SQLite database.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	lwerrors "github.com/logward/logward/internal/errors"
	"github.com/logward/logward/pkg/types"
)

// IndexMeta is one row of the index build log.
type IndexMeta struct {
	ID          int64
	BuiltAt     time.Time
	DocCount    int64
	VocabSize   int64
	Fingerprint string
}

// EventFilter narrows ListEvents. Zero values match everything. From and
// To are inclusive bounds compared lexicographically against the ISO-8601
// event time.
type EventFilter struct {
	FileUID string
	Level   string
	Service string
	From    string
	To      string
}

// Stats summarizes the ledger for the stats and dashboard endpoints.
type Stats struct {
	TotalFiles    int64            `json:"total_files"`
	TotalEvents   int64            `json:"total_events"`
	ErrorEvents   int64            `json:"error_events"`
	TotalBytes    int64            `json:"total_bytes"`
	FilesByStatus map[string]int64 `json:"files_by_status"`
	EventsByLevel map[string]int64 `json:"events_by_level"`
	FilesByCloud  map[string]int64 `json:"files_by_cloud"`
}

// Store is the persistence boundary for the ingestion pipeline and the API.
type Store interface {
	// RecordFile inserts a new file record with a fresh UID and status
	// "uploaded", returning the stored record.
	RecordFile(ctx context.Context, filename string, size int64, fileType string, cloudType types.CloudType) (*types.FileRecord, error)

	// UpdateFileStatus performs the single post-creation transition of a
	// file record: to processed with an event count, or to error with a
	// message.
	UpdateFileStatus(ctx context.Context, uid, status, errorMessage string, eventCount int64) error

	// AppendEvents stores a batch of normalized events for a file in one
	// transaction.
	AppendEvents(ctx context.Context, fileUID string, events []types.NormalizedEvent) error

	// GetFile returns the file record with the given UID.
	GetFile(ctx context.Context, uid string) (*types.FileRecord, error)

	// ListFiles returns file records, newest upload first.
	ListFiles(ctx context.Context, limit int) ([]types.FileRecord, error)

	// ListEvents returns events matching the filter, newest first.
	ListEvents(ctx context.Context, filter EventFilter, limit int) ([]types.NormalizedEvent, error)

	// RecordIndexBuild appends one row to the index build log.
	RecordIndexBuild(ctx context.Context, docCount, vocabSize int64, fingerprint string) error

	// LatestIndexMeta returns the most recent index build, or nil when the
	// index has never been built.
	LatestIndexMeta(ctx context.Context) (*IndexMeta, error)

	// Stats summarizes files and events.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases both database connections.
	Close() error
}

// SQLiteStore implements Store on a single SQLite file with a dedicated
// write connection and a small read pool.
type SQLiteStore struct {
	db     *sql.DB // single writer
	readDB *sql.DB
	dbPath string
	mu     sync.Mutex // serializes writers

	insertEventStmt *sql.Stmt
}

// Open opens or creates the ledger database at dbPath.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to open ledger database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, dbPath: dbPath}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to initialize ledger schema", err)
	}

	readDB, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&mode=ro")
	if err != nil {
		db.Close()
		return nil, lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to open ledger read pool", err)
	}
	readDB.SetMaxOpenConns(4)
	readDB.SetMaxIdleConns(4)
	readDB.SetConnMaxLifetime(5 * time.Minute)
	store.readDB = readDB

	insertStmt, err := db.Prepare(`
		INSERT INTO events (file_id, ts_event, level, service, user, ip, message, json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		readDB.Close()
		db.Close()
		return nil, lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to prepare event insert", err)
	}
	store.insertEventStmt = insertStmt

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range allSchemaSQL() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// RecordFile inserts a new file record with status "uploaded".
func (s *SQLiteStore) RecordFile(ctx context.Context, filename string, size int64, fileType string, cloudType types.CloudType) (*types.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := &types.FileRecord{
		UID:        uuid.NewString(),
		Filename:   filename,
		UploadTime: time.Now().UTC(),
		Size:       size,
		FileType:   fileType,
		Status:     types.StatusUploaded,
		CloudType:  cloudType,
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO files (uid, filename, upload_time, size, file_type, status, cloud_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.UID, record.Filename, record.UploadTime.Unix(),
		record.Size, record.FileType, record.Status, string(record.CloudType),
	)
	if err != nil {
		return nil, lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to record file", err)
	}

	record.ID, err = result.LastInsertId()
	if err != nil {
		return nil, lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to read file id", err)
	}
	return record, nil
}

// UpdateFileStatus transitions a file record to processed or error.
func (s *SQLiteStore) UpdateFileStatus(ctx context.Context, uid, status, errorMessage string, eventCount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx,
		`UPDATE files SET status = ?, error_message = ?, event_count = ? WHERE uid = ?`,
		status, errorMessage, eventCount, uid,
	)
	if err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to update file status", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return lwerrors.NewStoreError(lwerrors.CodeNotFound, fmt.Sprintf("file %s not found", uid), nil)
	}
	return nil
}

// AppendEvents stores all events for a file in one transaction.
func (s *SQLiteStore) AppendEvents(ctx context.Context, fileUID string, events []types.NormalizedEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var fileID int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM files WHERE uid = ?", fileUID).Scan(&fileID)
	if err == sql.ErrNoRows {
		return lwerrors.NewStoreError(lwerrors.CodeNotFound, fmt.Sprintf("file %s not found", fileUID), nil)
	}
	if err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to resolve file id", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt := tx.StmtContext(ctx, s.insertEventStmt)
	for _, e := range events {
		if _, err := stmt.ExecContext(ctx,
			fileID, e.Timestamp, e.Level, e.Service, e.User, e.IP, e.Message, e.RawJSON,
		); err != nil {
			return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to insert event", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to commit events", err)
	}
	return nil
}

// GetFile returns the file record with the given UID.
func (s *SQLiteStore) GetFile(ctx context.Context, uid string) (*types.FileRecord, error) {
	row := s.readDB.QueryRowContext(ctx,
		`SELECT id, uid, filename, upload_time, size, file_type, status, error_message, event_count, cloud_type
		 FROM files WHERE uid = ?`, uid)

	record, err := scanFileRecord(row)
	if err == sql.ErrNoRows {
		return nil, lwerrors.NewStoreError(lwerrors.CodeNotFound, fmt.Sprintf("file %s not found", uid), nil)
	}
	if err != nil {
		return nil, lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to scan file record", err)
	}
	return record, nil
}

// ListFiles returns file records ordered by upload time, newest first.
func (s *SQLiteStore) ListFiles(ctx context.Context, limit int) ([]types.FileRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.readDB.QueryContext(ctx,
		`SELECT id, uid, filename, upload_time, size, file_type, status, error_message, event_count, cloud_type
		 FROM files ORDER BY upload_time DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to query files", err)
	}
	defer rows.Close()

	var records []types.FileRecord
	for rows.Next() {
		record, err := scanFileRecord(rows)
		if err != nil {
			return nil, lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to scan file record", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "error iterating files", err)
	}
	return records, nil
}

// ListEvents returns events matching the filter, newest first.
func (s *SQLiteStore) ListEvents(ctx context.Context, filter EventFilter, limit int) ([]types.NormalizedEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT e.ts_event, e.level, e.service, e.user, e.ip, e.message, e.json
		FROM events e`
	var clauses []string
	var args []interface{}

	if filter.FileUID != "" {
		query += " JOIN files f ON f.id = e.file_id"
		clauses = append(clauses, "f.uid = ?")
		args = append(args, filter.FileUID)
	}
	if filter.Level != "" {
		clauses = append(clauses, "e.level = ?")
		args = append(args, filter.Level)
	}
	if filter.Service != "" {
		clauses = append(clauses, "e.service = ?")
		args = append(args, filter.Service)
	}
	if filter.From != "" {
		clauses = append(clauses, "e.ts_event >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		clauses = append(clauses, "e.ts_event <= ?")
		args = append(args, filter.To)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY e.id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to query events", err)
	}
	defer rows.Close()

	var events []types.NormalizedEvent
	for rows.Next() {
		var e types.NormalizedEvent
		if err := rows.Scan(&e.Timestamp, &e.Level, &e.Service, &e.User, &e.IP, &e.Message, &e.RawJSON); err != nil {
			return nil, lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to scan event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "error iterating events", err)
	}
	return events, nil
}

// RecordIndexBuild appends one row to the index build log.
func (s *SQLiteStore) RecordIndexBuild(ctx context.Context, docCount, vocabSize int64, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO index_meta (built_at, doc_count, vocab_size, fingerprint) VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Unix(), docCount, vocabSize, fingerprint,
	)
	if err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to record index build", err)
	}
	return nil
}

// LatestIndexMeta returns the most recent index build, or nil if none.
func (s *SQLiteStore) LatestIndexMeta(ctx context.Context) (*IndexMeta, error) {
	var meta IndexMeta
	var builtAtUnix int64

	err := s.readDB.QueryRowContext(ctx,
		`SELECT id, built_at, doc_count, vocab_size, fingerprint
		 FROM index_meta ORDER BY id DESC LIMIT 1`,
	).Scan(&meta.ID, &builtAtUnix, &meta.DocCount, &meta.VocabSize, &meta.Fingerprint)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to query index meta", err)
	}

	meta.BuiltAt = time.Unix(builtAtUnix, 0).UTC()
	return &meta, nil
}

// Stats summarizes files and events.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		FilesByStatus: make(map[string]int64),
		EventsByLevel: make(map[string]int64),
		FilesByCloud:  make(map[string]int64),
	}

	if err := s.readDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&stats.TotalFiles); err != nil {
		return nil, lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to count files", err)
	}
	if err := s.readDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&stats.TotalEvents); err != nil {
		return nil, lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to count events", err)
	}
	if err := s.readDB.QueryRowContext(ctx, "SELECT COALESCE(SUM(size), 0) FROM files").Scan(&stats.TotalBytes); err != nil {
		return nil, lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to sum file sizes", err)
	}

	if err := s.groupCount(ctx, "SELECT status, COUNT(*) FROM files GROUP BY status", stats.FilesByStatus); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, "SELECT level, COUNT(*) FROM events GROUP BY level", stats.EventsByLevel); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, "SELECT cloud_type, COUNT(*) FROM files WHERE cloud_type != '' GROUP BY cloud_type", stats.FilesByCloud); err != nil {
		return nil, err
	}

	for _, level := range types.ErrorLevels {
		stats.ErrorEvents += stats.EventsByLevel[level]
	}
	return stats, nil
}

func (s *SQLiteStore) groupCount(ctx context.Context, query string, into map[string]int64) error {
	rows, err := s.readDB.QueryContext(ctx, query)
	if err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to query grouped counts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to scan grouped count", err)
		}
		into[key] = count
	}
	if err := rows.Err(); err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "error iterating grouped counts", err)
	}
	return nil
}

// Close closes the prepared statements and both connections.
func (s *SQLiteStore) Close() error {
	if s.insertEventStmt != nil {
		s.insertEventStmt.Close()
	}
	if err := s.readDB.Close(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFileRecord(row rowScanner) (*types.FileRecord, error) {
	var record types.FileRecord
	var uploadUnix int64
	var cloud string

	err := row.Scan(
		&record.ID, &record.UID, &record.Filename, &uploadUnix,
		&record.Size, &record.FileType, &record.Status,
		&record.ErrorMessage, &record.EventCount, &cloud,
	)
	if err != nil {
		return nil, err
	}

	record.UploadTime = time.Unix(uploadUnix, 0).UTC()
	record.CloudType = types.CloudType(cloud)
	return &record, nil
}
