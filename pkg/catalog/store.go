// Package catalog implements the durable, single-writer embedded SQL
// catalog (C8): roots, files, stacks, metadata blobs and the sync queue.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
	"github.com/ChrisCarter22/Cataloger/pkg/log"
	"github.com/ChrisCarter22/Cataloger/pkg/scanner"
)

const schema = `
CREATE TABLE IF NOT EXISTS root_folders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT UNIQUE NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stacks (
	stack_group_id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	anchor_file_id INTEGER
);

CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	root_id INTEGER NOT NULL REFERENCES root_folders(id) ON DELETE CASCADE,
	relative_path TEXT NOT NULL,
	filename TEXT NOT NULL,
	extension TEXT NOT NULL,
	capture_ts INTEGER NOT NULL DEFAULT 0,
	file_size INTEGER NOT NULL DEFAULT 0,
	stack_group_id INTEGER REFERENCES stacks(stack_group_id),
	preview_state INTEGER NOT NULL DEFAULT 0,
	rating INTEGER NOT NULL DEFAULT 0,
	color INTEGER NOT NULL DEFAULT 0,
	ingest_seq INTEGER NOT NULL DEFAULT 0,
	metadata_rev INTEGER NOT NULL DEFAULT 0,
	UNIQUE(root_id, relative_path)
);

CREATE TABLE IF NOT EXISTS metadata_blobs (
	file_id INTEGER PRIMARY KEY REFERENCES files(id) ON DELETE CASCADE,
	iptc_json TEXT NOT NULL DEFAULT '',
	xmp_json TEXT NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL DEFAULT 0,
	template_source TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sync_queue (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	root_id INTEGER NOT NULL,
	relative_path TEXT NOT NULL,
	event_type TEXT NOT NULL,
	payload TEXT NOT NULL DEFAULT '',
	processed_flag INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_root_relpath ON files(root_id, relative_path);
CREATE INDEX IF NOT EXISTS idx_files_browse ON files(root_id, capture_ts, ingest_seq, id);
CREATE INDEX IF NOT EXISTS idx_sync_queue_pending ON sync_queue(processed_flag, id);
`

// IngestRecord is a pre-insert, catalog-shaped file record: the same
// shape ScanRoot produces and IngestRecords consumes.
type IngestRecord struct {
	RelativePath string
	Filename     string
	Extension    string
	CaptureTs    int64
	FileSize     int64
}

// Store is the single-writer embedded SQL catalog. All public methods take
// the same process-wide lock; the pipeline is I/O-bound, so a plain mutex
// is simpler than a reader/writer split and still serializes writes the
// way a single-process SQLite handle requires.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	log log.PluggableLoggerInterface
}

// NewStore builds an unopened catalog store. Call ConfigureDatabase before
// any other method.
func NewStore(logger log.PluggableLoggerInterface) *Store {
	if logger == nil {
		logger = log.Noop()
	}
	return &Store{log: logger}
}

// ConfigureDatabase closes any prior handle and opens the sqlite file at
// path, creating parent directories as needed.
func (s *Store) ConfigureDatabase(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("catalog: error closing prior handle: %s", err.Error())
		}
		s.db = nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("catalog: mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("catalog: open %s: %w", path, err)
	}
	// A single embedded writer: one open connection keeps every statement
	// serialized at the driver level in addition to our own mutex.
	db.SetMaxOpenConns(1)

	s.db = db
	return nil
}

// InitializeSchema creates any missing tables/indexes. Idempotent.
func (s *Store) InitializeSchema() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotOpen
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("catalog: initialize schema: %w", fmt.Errorf("%w: %s", ErrStoreFailure, err.Error()))
	}
	return nil
}

// RegisterRoot canonicalizes path and inserts it if absent, returning the
// row id. Idempotent: two calls with the same path return the same id.
func (s *Store) RegisterRoot(path string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return 0, ErrNotOpen
	}

	canonical := path
	if abs, err := filepath.Abs(path); err == nil {
		canonical = abs
	}

	var id int64
	err := s.db.QueryRow(`SELECT id FROM root_folders WHERE path = ?`, canonical).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("catalog: register root: %w: %s", ErrStoreFailure, err.Error())
	}

	res, err := s.db.Exec(`INSERT INTO root_folders(path, created_at) VALUES (?, ?)`, canonical, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("catalog: register root: %w: %s", ErrStoreFailure, err.Error())
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("catalog: register root: %w: %s", ErrStoreFailure, err.Error())
	}
	return id, nil
}

// ScanRoot has the same enumeration semantics as the scanner package's
// Scan, but returns catalog-shaped records with a normalized (lowercased)
// extension, ready to pass to IngestRecords.
func (s *Store) ScanRoot(root string) ([]IngestRecord, error) {
	descriptors, err := scanner.Scan(0, root)
	if err != nil {
		return nil, fmt.Errorf("catalog: scan root %s: %w", root, err)
	}

	records := make([]IngestRecord, 0, len(descriptors))
	for _, d := range descriptors {
		records = append(records, IngestRecord{
			RelativePath: d.RelativePath,
			Filename:     filepath.Base(d.RelativePath),
			Extension:    strings.ToLower(filepath.Ext(d.RelativePath)),
			CaptureTs:    d.CaptureTs,
			FileSize:     d.FileSize,
		})
	}
	return records, nil
}

// ErrRootMissing re-exports scanner.ErrRootMissing so callers of the
// catalog package don't need to import scanner for the sentinel alone.
var ErrRootMissing = scanner.ErrRootMissing

// IngestRecords inserts every record into files within a single
// transaction, materializing Stacks for any filename-base group of size
// >= 2 in the batch. Any failure rolls back the whole batch.
func (s *Store) IngestRecords(rootID int64, records []IngestRecord) ([]v1.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, ErrNotOpen
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("catalog: ingest: %w: %s", ErrStoreFailure, err.Error())
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	files := make([]v1.File, 0, len(records))
	groups := map[string][]int{} // filename base -> indexes into files

	for i, rec := range records {
		res, err := tx.Exec(
			`INSERT INTO files(root_id, relative_path, filename, extension, capture_ts, file_size)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rootID, rec.RelativePath, rec.Filename, strings.ToLower(rec.Extension), rec.CaptureTs, rec.FileSize,
		)
		if err != nil {
			return nil, fmt.Errorf("catalog: ingest %s: %w: %s", rec.RelativePath, ErrStoreFailure, err.Error())
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("catalog: ingest %s: %w: %s", rec.RelativePath, ErrStoreFailure, err.Error())
		}

		files = append(files, v1.File{
			ID:           id,
			RootID:       rootID,
			RelativePath: rec.RelativePath,
			Filename:     rec.Filename,
			Extension:    strings.ToLower(rec.Extension),
			CaptureTs:    rec.CaptureTs,
			FileSize:     rec.FileSize,
		})

		base := filenameBase(rec.Filename)
		groups[base] = append(groups[base], i)
	}

	baseKeys := make([]string, 0, len(groups))
	for base := range groups {
		baseKeys = append(baseKeys, base)
	}
	sort.Strings(baseKeys)

	for _, base := range baseKeys {
		indexes := groups[base]
		if len(indexes) < 2 {
			continue
		}

		stackType := stackTypeFor(records, indexes)
		anchorID := files[indexes[0]].ID

		res, err := tx.Exec(`INSERT INTO stacks(type, anchor_file_id) VALUES (?, ?)`, string(stackType), anchorID)
		if err != nil {
			return nil, fmt.Errorf("catalog: ingest stack %s: %w: %s", base, ErrStoreFailure, err.Error())
		}
		stackID, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("catalog: ingest stack %s: %w: %s", base, ErrStoreFailure, err.Error())
		}

		for _, idx := range indexes {
			if _, err := tx.Exec(`UPDATE files SET stack_group_id = ? WHERE id = ?`, stackID, files[idx].ID); err != nil {
				return nil, fmt.Errorf("catalog: ingest stack update %s: %w: %s", base, ErrStoreFailure, err.Error())
			}
			sid := stackID
			files[idx].StackGroupID = &sid
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("catalog: ingest commit: %w: %s", ErrStoreFailure, err.Error())
	}
	committed = true

	return files, nil
}

func filenameBase(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		return filename[:idx]
	}
	return filename
}

func stackTypeFor(records []IngestRecord, indexes []int) v1.StackType {
	hasRaw, hasJpeg := false, false
	for _, idx := range indexes {
		ext := strings.ToLower(records[idx].Extension)
		if v1.RawExtensions[ext] {
			hasRaw = true
		}
		if v1.JpegExtensions[ext] {
			hasJpeg = true
		}
	}
	if hasRaw && hasJpeg {
		return v1.StackTypePair
	}
	return v1.StackTypeSequence
}

// ListFiles returns every file registered under rootID, ordered by
// ascending id.
func (s *Store) ListFiles(rootID int64) ([]v1.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.Query(
		`SELECT id, relative_path, extension, stack_group_id, preview_state
		 FROM files WHERE root_id = ? ORDER BY id ASC`, rootID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list files: %w: %s", ErrStoreFailure, err.Error())
	}
	defer rows.Close()

	var out []v1.File
	for rows.Next() {
		var f v1.File
		var stackGroupID sql.NullInt64
		var previewState int
		if err := rows.Scan(&f.ID, &f.RelativePath, &f.Extension, &stackGroupID, &previewState); err != nil {
			return nil, fmt.Errorf("catalog: list files scan: %w: %s", ErrStoreFailure, err.Error())
		}
		f.RootID = rootID
		f.PreviewState = v1.PreviewState(previewState)
		if stackGroupID.Valid {
			id := stackGroupID.Int64
			f.StackGroupID = &id
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list files rows: %w: %s", ErrStoreFailure, err.Error())
	}
	return out, nil
}

// EnqueueSyncEvent appends an unprocessed sync event, assigning it a
// monotonic id.
func (s *Store) EnqueueSyncEvent(rootID int64, relativePath, eventType, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotOpen
	}
	_, err := s.db.Exec(
		`INSERT INTO sync_queue(root_id, relative_path, event_type, payload, processed_flag, created_at)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		rootID, relativePath, eventType, payload, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("catalog: enqueue sync event: %w: %s", ErrStoreFailure, err.Error())
	}
	return nil
}

// PendingSyncEvents returns every row with processed_flag = 0, in id
// order.
func (s *Store) PendingSyncEvents() ([]v1.SyncEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.Query(
		`SELECT id, root_id, relative_path, event_type, payload, created_at
		 FROM sync_queue WHERE processed_flag = 0 ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("catalog: pending sync events: %w: %s", ErrStoreFailure, err.Error())
	}
	defer rows.Close()

	var out []v1.SyncEvent
	for rows.Next() {
		var e v1.SyncEvent
		if err := rows.Scan(&e.ID, &e.RootID, &e.RelativePath, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: pending sync events scan: %w: %s", ErrStoreFailure, err.Error())
		}
		e.Processed = false
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: pending sync events rows: %w: %s", ErrStoreFailure, err.Error())
	}
	return out, nil
}

// MarkSyncEventProcessed sets processed_flag = 1 for id. At-least-once
// delivery: a crash between PendingSyncEvents and this call redelivers
// the event on the next poll.
func (s *Store) MarkSyncEventProcessed(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotOpen
	}
	if _, err := s.db.Exec(`UPDATE sync_queue SET processed_flag = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("catalog: mark sync event processed: %w: %s", ErrStoreFailure, err.Error())
	}
	return nil
}

// UpdatePreviewState writes a file's new preview state. A missing file id
// is a no-op: the caller (the Preview Service) is responsible for
// referential integrity, not this method.
func (s *Store) UpdatePreviewState(fileID int64, state v1.PreviewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotOpen
	}
	if _, err := s.db.Exec(`UPDATE files SET preview_state = ? WHERE id = ?`, int(state), fileID); err != nil {
		return fmt.Errorf("catalog: update preview state: %w: %s", ErrStoreFailure, err.Error())
	}
	return nil
}

// UpsertMetadataBlob writes (insert-or-replace) the metadata row the
// out-of-scope metadata template service would otherwise own.
func (s *Store) UpsertMetadataBlob(fileID int64, iptcJSON, xmpJSON, templateSource string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotOpen
	}
	_, err := s.db.Exec(
		`INSERT INTO metadata_blobs(file_id, iptc_json, xmp_json, updated_at, template_source)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(file_id) DO UPDATE SET
			iptc_json = excluded.iptc_json,
			xmp_json = excluded.xmp_json,
			updated_at = excluded.updated_at,
			template_source = excluded.template_source`,
		fileID, iptcJSON, xmpJSON, time.Now().Unix(), templateSource,
	)
	if err != nil {
		return fmt.Errorf("catalog: upsert metadata blob: %w: %s", ErrStoreFailure, err.Error())
	}
	return nil
}

// GetMetadataBlob reads the metadata row for fileID, if any.
func (s *Store) GetMetadataBlob(fileID int64) (v1.MetadataBlob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return v1.MetadataBlob{}, false, ErrNotOpen
	}

	var m v1.MetadataBlob
	m.FileID = fileID
	err := s.db.QueryRow(
		`SELECT iptc_json, xmp_json, updated_at, template_source FROM metadata_blobs WHERE file_id = ?`,
		fileID,
	).Scan(&m.IptcJSON, &m.XmpJSON, &m.UpdatedAt, &m.TemplateSource)
	if err == sql.ErrNoRows {
		return v1.MetadataBlob{}, false, nil
	}
	if err != nil {
		return v1.MetadataBlob{}, false, fmt.Errorf("catalog: get metadata blob: %w: %s", ErrStoreFailure, err.Error())
	}
	return m, true, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("catalog: close: %w", err)
	}
	return nil
}
