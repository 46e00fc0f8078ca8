// Package history archives completed divinations in SQLite. The full trace
// log is stored as a zstd-compressed JSON blob; the summary columns stay
// queryable for listing and stats.
package history

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/maelin/cybermancy/internal/engine"
	"github.com/maelin/cybermancy/internal/trace"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	asked_at    TEXT NOT NULL,
	question    TEXT NOT NULL,
	nickname    TEXT,
	score       INTEGER NOT NULL,
	signature   TEXT NOT NULL,
	hexagram    TEXT,
	line        INTEGER,
	trace_zst   BLOB NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_asked_at ON runs(asked_at);
`

// Record is one archived divination.
type Record struct {
	RunID     string
	AskedAt   time.Time
	Question  string
	Nickname  string
	Score     int
	Signature string
	Hexagram  string
	Line      int
	Events    []trace.Event
	CreatedAt time.Time
}

// Store manages the run archive in SQLite.
type Store struct {
	db       *sql.DB
	compress bool
}

// Open opens the database at dbPath and runs migrations.
func Open(dbPath string, compress bool) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, compress: compress}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save archives one run and returns its generated id.
func (s *Store) Save(in engine.Input, r engine.Result, events []trace.Event) (string, error) {
	blob, err := s.encodeTrace(events)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	_, err = s.db.Exec(
		`INSERT INTO runs (run_id, asked_at, question, nickname, score, signature, hexagram, line, trace_zst, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.When.UTC().Format(time.RFC3339Nano), in.Question, in.Nickname,
		r.Score, r.Signature, r.Carry.Hexagram.Name, r.Carry.Hexagram.Line,
		blob, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Get retrieves an archived run and verifies its trace before returning it.
func (s *Store) Get(runID string) (Record, error) {
	var rec Record
	var asked, created string
	var blob []byte
	var nickname, hexagram sql.NullString
	var line sql.NullInt64

	err := s.db.QueryRow(
		`SELECT run_id, asked_at, question, nickname, score, signature, hexagram, line, trace_zst, created_at
		 FROM runs WHERE run_id = ?`, runID,
	).Scan(&rec.RunID, &asked, &rec.Question, &nickname, &rec.Score,
		&rec.Signature, &hexagram, &line, &blob, &created)
	if err != nil {
		return Record{}, fmt.Errorf("get run %s: %w", runID, err)
	}

	rec.AskedAt, _ = time.Parse(time.RFC3339Nano, asked)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	rec.Nickname = nickname.String
	rec.Hexagram = hexagram.String
	rec.Line = int(line.Int64)

	rec.Events, err = decodeTrace(blob)
	if err != nil {
		return Record{}, err
	}
	if err := trace.Verify(rec.Events); err != nil {
		return Record{}, fmt.Errorf("run %s: stored trace corrupt: %w", runID, err)
	}
	return rec, nil
}

// List returns summaries of the most recent runs, newest first. The trace
// blob is not loaded.
func (s *Store) List(limit int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT run_id, asked_at, question, nickname, score, signature, hexagram, line, created_at
		 FROM runs ORDER BY asked_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var asked, created string
		var nickname, hexagram sql.NullString
		var line sql.NullInt64

		if err := rows.Scan(&rec.RunID, &asked, &rec.Question, &nickname,
			&rec.Score, &rec.Signature, &hexagram, &line, &created); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.AskedAt, _ = time.Parse(time.RFC3339Nano, asked)
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		rec.Nickname = nickname.String
		rec.Hexagram = hexagram.String
		rec.Line = int(line.Int64)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune deletes all but the newest keep runs. keep <= 0 is a no-op.
func (s *Store) Prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.db.Exec(
		`DELETE FROM runs WHERE run_id NOT IN
		 (SELECT run_id FROM runs ORDER BY asked_at DESC LIMIT ?)`, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Export writes every archived run as zstd-compressed JSON lines.
func (s *Store) Export(w io.Writer) error {
	rows, err := s.db.Query(
		`SELECT run_id, asked_at, question, nickname, score, signature, hexagram, line, trace_zst
		 FROM runs ORDER BY asked_at ASC`,
	)
	if err != nil {
		return fmt.Errorf("export query: %w", err)
	}
	defer rows.Close()

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}

	out := json.NewEncoder(enc)
	for rows.Next() {
		var rec exportRow
		var blob []byte
		var nickname, hexagram sql.NullString
		var line sql.NullInt64
		if err := rows.Scan(&rec.RunID, &rec.AskedAt, &rec.Question, &nickname,
			&rec.Score, &rec.Signature, &hexagram, &line, &blob); err != nil {
			enc.Close()
			return fmt.Errorf("scan row: %w", err)
		}
		rec.Nickname = nickname.String
		rec.Hexagram = hexagram.String
		rec.Line = int(line.Int64)
		if rec.Events, err = decodeTrace(blob); err != nil {
			enc.Close()
			return err
		}
		if err := out.Encode(rec); err != nil {
			enc.Close()
			return fmt.Errorf("encode run %s: %w", rec.RunID, err)
		}
	}
	if err := rows.Err(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

type exportRow struct {
	RunID     string        `json:"run_id"`
	AskedAt   string        `json:"asked_at"`
	Question  string        `json:"question"`
	Nickname  string        `json:"nickname,omitempty"`
	Score     int           `json:"score"`
	Signature string        `json:"signature"`
	Hexagram  string        `json:"hexagram,omitempty"`
	Line      int           `json:"line,omitempty"`
	Events    []trace.Event `json:"events"`
}

// encodeTrace marshals the event log, zstd-compressing when configured.
// Both forms are distinguishable on read: zstd frames never start with '['.
func (s *Store) encodeTrace(events []trace.Event) ([]byte, error) {
	raw, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("marshal trace: %w", err)
	}
	if !s.compress {
		return raw, nil
	}
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return nil, fmt.Errorf("compress trace: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeTrace(blob []byte) ([]trace.Event, error) {
	if len(blob) > 0 && blob[0] != '[' {
		dec, err := zstd.NewReader(bytes.NewReader(blob))
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		defer dec.Close()
		raw, err := io.ReadAll(dec)
		if err != nil {
			return nil, fmt.Errorf("decompress trace: %w", err)
		}
		blob = raw
	}
	var events []trace.Event
	if err := json.Unmarshal(blob, &events); err != nil {
		return nil, fmt.Errorf("unmarshal trace: %w", err)
	}
	return events, nil
}
