package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cmccabe/expertise-engine/internal/model"
)

// timestampLayout is the stored timestamp format.
const timestampLayout = "2006-01-02 15:04:05"

// SQLiteStore implements Store using SQLite. WAL mode lets multiple
// short-lived one-shot invocations open the same file without corruption.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the expertise log at the given path.
// Opening is idempotent: the schema is created if absent and existing
// records are never touched.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create db dir: %v", ErrInit, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %v", ErrInit, err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", ErrInit, err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS expertise_log (
		id                        INTEGER PRIMARY KEY AUTOINCREMENT,
		actor_id                  TEXT NOT NULL,
		timestamp                 TEXT NOT NULL,
		source_kind_or_path       TEXT NOT NULL,
		primary_technologies      TEXT,
		supporting_libraries      TEXT,
		key_patterns_and_concepts TEXT,
		inferred_skills           TEXT,
		analysis_summary          TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_expertise_actor ON expertise_log(actor_id);
	CREATE INDEX IF NOT EXISTS idx_expertise_timestamp ON expertise_log(timestamp DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append inserts one record. The insert is a single statement, so a failure
// leaves nothing partially written.
func (s *SQLiteStore) Append(ctx context.Context, rec model.ExpertiseRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO expertise_log (actor_id, timestamp, source_kind_or_path,
		   primary_technologies, supporting_libraries, key_patterns_and_concepts,
		   inferred_skills, analysis_summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ActorID,
		time.Now().Format(timestampLayout),
		sourceRef(rec),
		encodeList(rec.Analysis.PrimaryTechnologies),
		encodeList(rec.Analysis.SupportingLibraries),
		encodeList(rec.Analysis.KeyPatternsAndConcepts),
		encodeList(rec.Analysis.InferredSkills),
		rec.Analysis.Summary,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: insert: %v", ErrWrite, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: last insert id: %v", ErrWrite, err)
	}
	return id, nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]model.ExpertiseRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, actor_id, timestamp, source_kind_or_path,
		        primary_technologies, supporting_libraries,
		        key_patterns_and_concepts, inferred_skills, analysis_summary
		 FROM expertise_log
		 ORDER BY id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.ExpertiseRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sourceRef stores the file path for file events and the commit ref for
// commit events, prefixed so both fit one column.
func sourceRef(rec model.ExpertiseRecord) string {
	if rec.SourceKind == model.SourceCommit {
		return "commit:" + rec.SourceRef
	}
	return rec.SourceRef
}

// encodeList serializes a list field as a JSON array so the stored shape is
// self-describing and independently parseable.
func encodeList(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func decodeList(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal([]byte(s.String), &list); err != nil || list == nil {
		return []string{}
	}
	return list
}

func scanRecord(rows *sql.Rows) (model.ExpertiseRecord, error) {
	var rec model.ExpertiseRecord
	var ts, src string
	var techs, libs, patterns, skills, summary sql.NullString

	if err := rows.Scan(&rec.ID, &rec.ActorID, &ts, &src,
		&techs, &libs, &patterns, &skills, &summary); err != nil {
		return rec, err
	}

	rec.Timestamp, _ = time.ParseInLocation(timestampLayout, ts, time.Local)
	if ref, ok := strings.CutPrefix(src, "commit:"); ok {
		rec.SourceKind = model.SourceCommit
		rec.SourceRef = ref
	} else {
		rec.SourceKind = model.SourceFile
		rec.SourceRef = src
	}
	rec.Analysis = model.AnalysisResult{
		PrimaryTechnologies:    decodeList(techs),
		SupportingLibraries:    decodeList(libs),
		KeyPatternsAndConcepts: decodeList(patterns),
		InferredSkills:         decodeList(skills),
	}
	if summary.Valid {
		rec.Analysis.Summary = summary.String
	}
	return rec, nil
}
