package ledger

// Schema DDL for ledger.db. All statements are idempotent so opening an
// existing database is safe.

const filesTableSQL = `
CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	filename TEXT NOT NULL,
	upload_time INTEGER NOT NULL,
	size INTEGER NOT NULL,
	file_type TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	event_count INTEGER NOT NULL DEFAULT 0,
	cloud_type TEXT NOT NULL DEFAULT ''
)`

const eventsTableSQL = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL REFERENCES files(id),
	ts_event TEXT NOT NULL,
	level TEXT NOT NULL,
	service TEXT NOT NULL DEFAULT '',
	user TEXT NOT NULL DEFAULT '',
	ip TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL,
	json TEXT NOT NULL DEFAULT ''
)`

const indexMetaTableSQL = `
CREATE TABLE IF NOT EXISTS index_meta (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	built_at INTEGER NOT NULL,
	doc_count INTEGER NOT NULL,
	vocab_size INTEGER NOT NULL,
	fingerprint TEXT NOT NULL
)`

var indexSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_files_status ON files(status)`,
	`CREATE INDEX IF NOT EXISTS idx_events_file ON events(file_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_level ON events(level)`,
	`CREATE INDEX IF NOT EXISTS idx_events_service ON events(service)`,
	`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts_event)`,
}

// allSchemaSQL returns every DDL statement in creation order.
func allSchemaSQL() []string {
	stmts := []string{filesTableSQL, eventsTableSQL, indexMetaTableSQL}
	return append(stmts, indexSQL...)
}
