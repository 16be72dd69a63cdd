package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zuo-Peng/archive-threads/internal/parse"
	"github.com/Zuo-Peng/archive-threads/internal/thread"
	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS archives (
    path       TEXT PRIMARY KEY,
    mtime      INTEGER NOT NULL DEFAULT 0,
    size       INTEGER NOT NULL DEFAULT 0,
    indexed_at TEXT NOT NULL DEFAULT '',
    rules_hash TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS threads (
    thread_key      TEXT PRIMARY KEY,
    archive         TEXT NOT NULL,
    participant_key TEXT NOT NULL,
    label           TEXT NOT NULL,
    started_at      TEXT NOT NULL DEFAULT '',
    ended_at        TEXT NOT NULL DEFAULT '',
    message_count   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS threads_archive ON threads(archive);

CREATE TABLE IF NOT EXISTS messages (
    thread_key   TEXT NOT NULL,
    seq          INTEGER NOT NULL,
    source_order INTEGER NOT NULL,
    ts           TEXT NOT NULL,
    sender       TEXT NOT NULL,
    body         TEXT NOT NULL,
    line_number  INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (thread_key, seq)
);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    body,
    sender,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, body, sender) VALUES (new.rowid, new.body, new.sender);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, body, sender) VALUES('delete', old.rowid, old.body, old.sender);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, body, sender) VALUES('delete', old.rowid, old.body, old.sender);
    INSERT INTO messages_fts(rowid, body, sender) VALUES (new.rowid, new.body, new.sender);
END;
`

// TimeFormat is how timestamps are stored; it sorts lexically.
const TimeFormat = "2006-01-02T15:04:05Z"

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrateColumns(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	// schema version tracking for forced re-index
	db.Exec("CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)")
	d.migrateSchemaVersion()

	return d, nil
}

// schemaVersion should be bumped whenever thread reconstruction changes
// to force a full re-index.
const schemaVersion = "2"

// migrateColumns adds columns introduced after a database was created.
func (d *DB) migrateColumns() error {
	var n int
	err := d.db.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info('archives') WHERE name = 'rules_hash'",
	).Scan(&n)
	if err != nil || n > 0 {
		return err
	}
	_, err = d.db.Exec("ALTER TABLE archives ADD COLUMN rules_hash TEXT NOT NULL DEFAULT ''")
	return err
}

func (d *DB) migrateSchemaVersion() {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver != schemaVersion {
		// force re-index by resetting all archive mtime/size to 0
		d.db.Exec("UPDATE archives SET mtime = 0, size = 0")
		d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	}
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type ArchiveInfo struct {
	Mtime     int64
	Size      int64
	RulesHash string // fingerprint of the rules the archive was indexed with
}

func (d *DB) GetArchiveInfo(path string) (*ArchiveInfo, error) {
	var info ArchiveInfo
	err := d.db.QueryRow(
		"SELECT mtime, size, rules_hash FROM archives WHERE path = ?",
		path,
	).Scan(&info.Mtime, &info.Size, &info.RulesHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (d *DB) AllArchives() (map[string]struct{}, error) {
	rows, err := d.db.Query("SELECT path FROM archives")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths[p] = struct{}{}
	}
	return paths, rows.Err()
}

// DeleteArchive removes an archive with all of its threads and messages.
func (d *DB) DeleteArchive(path string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteArchiveTx(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM archives WHERE path = ?", path); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteArchiveTx(tx *sql.Tx, path string) error {
	if _, err := tx.Exec(
		"DELETE FROM messages WHERE thread_key IN (SELECT thread_key FROM threads WHERE archive = ?)", path,
	); err != nil {
		return err
	}
	_, err := tx.Exec("DELETE FROM threads WHERE archive = ?", path)
	return err
}

func (d *DB) ArchiveCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM archives").Scan(&n)
	return n, err
}

func (d *DB) ThreadCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM threads").Scan(&n)
	return n, err
}

func (d *DB) MessageCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

type ThreadRow struct {
	ThreadKey      string
	Archive        string
	ParticipantKey string
	Label          string
	StartedAt      string
	EndedAt        string
	MessageCount   int
}

// Participants decodes the stored participant set.
func (t ThreadRow) Participants() thread.ParticipantSet {
	return thread.ParseKey(t.ParticipantKey)
}

func (d *DB) GetThreadByKey(threadKey string) (*ThreadRow, error) {
	var t ThreadRow
	err := d.db.QueryRow(
		`SELECT thread_key, archive, participant_key, label, started_at, ended_at, message_count
		 FROM threads WHERE thread_key = ?`,
		threadKey,
	).Scan(&t.ThreadKey, &t.Archive, &t.ParticipantKey, &t.Label, &t.StartedAt, &t.EndedAt, &t.MessageCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ResolveThreadKey accepts a full key or a unique prefix of one.
func (d *DB) ResolveThreadKey(prefix string) (string, error) {
	rows, err := d.db.Query(
		"SELECT thread_key FROM threads WHERE thread_key LIKE ? ESCAPE '\\' ORDER BY thread_key LIMIT 2",
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return "", err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(keys) {
	case 0:
		return "", fmt.Errorf("thread not found: %s", prefix)
	case 1:
		return keys[0], nil
	}
	if keys[0] == prefix {
		return prefix, nil
	}
	return "", fmt.Errorf("ambiguous thread key: %s", prefix)
}

type MessageRow struct {
	ThreadKey   string
	Seq         int
	SourceOrder int
	Ts          string
	Sender      string
	Body        string
	LineNumber  int
}

func (d *DB) GetMessages(threadKey string) ([]MessageRow, error) {
	rows, err := d.db.Query(
		`SELECT thread_key, seq, source_order, ts, sender, body, line_number
		 FROM messages WHERE thread_key = ? ORDER BY seq`,
		threadKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []MessageRow
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.ThreadKey, &m.Seq, &m.SourceOrder, &m.Ts, &m.Sender, &m.Body, &m.LineNumber); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetThread loads a stored thread back into its in-memory form.
func (d *DB) GetThread(threadKey string) (*ThreadRow, thread.Thread, error) {
	row, err := d.GetThreadByKey(threadKey)
	if err != nil {
		return nil, thread.Thread{}, fmt.Errorf("get thread: %w", err)
	}
	if row == nil {
		return nil, thread.Thread{}, fmt.Errorf("thread not found: %s", threadKey)
	}

	msgs, err := d.GetMessages(threadKey)
	if err != nil {
		return nil, thread.Thread{}, fmt.Errorf("get messages: %w", err)
	}

	th := thread.Thread{
		Participants: row.Participants(),
		Label:        row.Label,
		Messages:     make([]parse.RawMessage, 0, len(msgs)),
	}
	for _, m := range msgs {
		ts, _ := time.Parse(TimeFormat, m.Ts)
		th.Messages = append(th.Messages, parse.RawMessage{
			Sender:      m.Sender,
			Timestamp:   ts,
			Body:        m.Body,
			SourceOrder: m.SourceOrder,
			Line:        m.LineNumber,
		})
	}
	return row, th, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
