// Package store persists batches, their immutable blocks, the derived result
// payloads and the historical benchmark table in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/analytics"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

type SQLiteStore struct {
	db     *sqlx.DB
	logger *zap.Logger
	now    func() time.Time
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS batches (
	batch_id         TEXT PRIMARY KEY,
	mode             TEXT NOT NULL,
	institution_name TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	error_message    TEXT NOT NULL DEFAULT '',
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS blocks (
	block_id    TEXT PRIMARY KEY,
	batch_id    TEXT NOT NULL,
	position    INTEGER NOT NULL,
	block_type  TEXT NOT NULL,
	source_doc  TEXT NOT NULL DEFAULT '',
	payload     TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	UNIQUE (batch_id, position)
);

CREATE TABLE IF NOT EXISTS results (
	batch_id     TEXT PRIMARY KEY,
	payload      TEXT NOT NULL,
	published_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS historical_kpis (
	year    INTEGER PRIMARY KEY,
	source  TEXT NOT NULL DEFAULT '',
	metrics TEXT NOT NULL DEFAULT '{}'
);
`

func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- batches ---

type batchRow struct {
	ID              string `db:"batch_id"`
	Mode            string `db:"mode"`
	InstitutionName string `db:"institution_name"`
	Status          string `db:"status"`
	ErrorMessage    string `db:"error_message"`
	CreatedAt       string `db:"created_at"`
	UpdatedAt       string `db:"updated_at"`
}

func (r batchRow) batch() Batch {
	b := Batch{
		ID:              r.ID,
		Mode:            blocks.Mode(r.Mode),
		InstitutionName: r.InstitutionName,
		Status:          Status(r.Status),
		ErrorMessage:    r.ErrorMessage,
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339Nano, r.CreatedAt)
	b.UpdatedAt, _ = time.Parse(time.RFC3339Nano, r.UpdatedAt)
	return b
}

// CreateBatch inserts a batch in the created status.
func (s *SQLiteStore) CreateBatch(ctx context.Context, b Batch) (Batch, error) {
	if strings.TrimSpace(b.ID) == "" {
		return Batch{}, errors.New("batch id is required")
	}
	if _, ok := blocks.ParseMode(string(b.Mode)); !ok {
		return Batch{}, fmt.Errorf("invalid mode %q", b.Mode)
	}
	now := s.now().UTC()
	b.Status, b.ErrorMessage, b.CreatedAt, b.UpdatedAt = StatusCreated, "", now, now

	_, err := s.db.NamedExecContext(ctx, `INSERT INTO batches (batch_id, mode, institution_name, status, error_message, created_at, updated_at)
		VALUES (:batch_id, :mode, :institution_name, :status, :error_message, :created_at, :updated_at)`,
		batchRow{
			ID:              b.ID,
			Mode:            string(b.Mode),
			InstitutionName: b.InstitutionName,
			Status:          string(b.Status),
			CreatedAt:       timeToString(now),
			UpdatedAt:       timeToString(now),
		})
	if err != nil {
		if isConstraint(err) {
			return Batch{}, fmt.Errorf("batch %s: %w", b.ID, ErrAlreadyExists)
		}
		return Batch{}, fmt.Errorf("insert batch: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) GetBatch(ctx context.Context, id string) (Batch, error) {
	var row batchRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM batches WHERE batch_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Batch{}, fmt.Errorf("batch %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Batch{}, fmt.Errorf("get batch: %w", err)
	}
	return row.batch(), nil
}

func (s *SQLiteStore) ListBatches(ctx context.Context) ([]Batch, error) {
	var rows []batchRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM batches ORDER BY created_at, batch_id`); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	out := make([]Batch, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.batch())
	}
	return out, nil
}

// UpdateStatus moves a batch forward. Terminal batches are not updated.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE batches SET status = ?, error_message = ?, updated_at = ?
		WHERE batch_id = ? AND status NOT IN (?, ?)`,
		string(status), errMsg, timeToString(s.now()), id, string(StatusCompleted), string(StatusFailed))
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetBatch(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("batch %s is already terminal", id)
	}
	s.logger.Debug("batch status", zap.String("batch_id", id), zap.String("status", string(status)))
	return nil
}

// --- blocks ---

type blockRow struct {
	ID        string `db:"block_id"`
	BatchID   string `db:"batch_id"`
	Position  int    `db:"position"`
	Type      string `db:"block_type"`
	SourceDoc string `db:"source_doc"`
	Payload   string `db:"payload"`
	CreatedAt string `db:"created_at"`
}

// SaveBlocks persists the blocks of a batch once, in order. Blocks are
// immutable: saving a batch that already has blocks fails with
// ErrAlreadyExists.
func (s *SQLiteStore) SaveBlocks(ctx context.Context, batchID string, bs []blocks.Block) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.GetContext(ctx, &existing, `SELECT COUNT(*) FROM blocks WHERE batch_id = ?`, batchID); err != nil {
		return fmt.Errorf("count blocks: %w", err)
	}
	if existing > 0 {
		return fmt.Errorf("blocks for batch %s: %w", batchID, ErrAlreadyExists)
	}
	for i, b := range bs {
		payload, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode block %s: %w", b.ID, err)
		}
		_, err = tx.NamedExecContext(ctx, `INSERT INTO blocks (block_id, batch_id, position, block_type, source_doc, payload, created_at)
			VALUES (:block_id, :batch_id, :position, :block_type, :source_doc, :payload, :created_at)`,
			blockRow{
				ID:        b.ID,
				BatchID:   batchID,
				Position:  i,
				Type:      string(b.Type),
				SourceDoc: b.SourceDoc,
				Payload:   string(payload),
				CreatedAt: timeToString(b.CreatedAt),
			})
		if err != nil {
			return fmt.Errorf("insert block %s: %w", b.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit blocks: %w", err)
	}
	return nil
}

// Blocks returns the persisted blocks of a batch in their saved order.
func (s *SQLiteStore) Blocks(ctx context.Context, batchID string) ([]blocks.Block, error) {
	var payloads []string
	if err := s.db.SelectContext(ctx, &payloads, `SELECT payload FROM blocks WHERE batch_id = ? ORDER BY position`, batchID); err != nil {
		return nil, fmt.Errorf("select blocks: %w", err)
	}
	out := make([]blocks.Block, 0, len(payloads))
	for _, p := range payloads {
		var b blocks.Block
		if err := json.Unmarshal([]byte(p), &b); err != nil {
			return nil, fmt.Errorf("decode block: %w", err)
		}
		out = append(out, b)
	}
	return out, nil
}

// --- results ---

// PublishResults writes the derived payloads and marks the batch completed in
// one transaction.
func (s *SQLiteStore) PublishResults(ctx context.Context, batchID string, r Results) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	now := timeToString(s.now())

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE batches SET status = ?, error_message = '', updated_at = ?
		WHERE batch_id = ? AND status NOT IN (?, ?)`,
		string(StatusCompleted), now, batchID, string(StatusCompleted), string(StatusFailed))
	if err != nil {
		return fmt.Errorf("complete batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("batch %s is missing or terminal: %w", batchID, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO results (batch_id, payload, published_at) VALUES (?, ?, ?)`, batchID, string(payload), now); err != nil {
		if isConstraint(err) {
			return fmt.Errorf("results for batch %s: %w", batchID, ErrAlreadyExists)
		}
		return fmt.Errorf("insert results: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	s.logger.Info("results published", zap.String("batch_id", batchID))
	return nil
}

func (s *SQLiteStore) Results(ctx context.Context, batchID string) (Results, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM results WHERE batch_id = ?`, batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return Results{}, fmt.Errorf("results for batch %s: %w", batchID, ErrNotFound)
	}
	if err != nil {
		return Results{}, fmt.Errorf("get results: %w", err)
	}
	var r Results
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return Results{}, fmt.Errorf("decode results: %w", err)
	}
	return r, nil
}

// --- benchmarks ---

type benchmarkRow struct {
	Year    int    `db:"year"`
	Source  string `db:"source"`
	Metrics string `db:"metrics"`
}

func (s *SQLiteStore) PutBenchmark(ctx context.Context, b analytics.Benchmark) error {
	if b.Year == 0 {
		return errors.New("benchmark year is required")
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT OR REPLACE INTO historical_kpis (year, source, metrics) VALUES (:year, :source, :metrics)`,
		benchmarkRow{Year: b.Year, Source: b.Source, Metrics: marshalJSON(b.Metrics)})
	if err != nil {
		return fmt.Errorf("put benchmark: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Benchmarks(ctx context.Context) ([]analytics.Benchmark, error) {
	var rows []benchmarkRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT year, source, metrics FROM historical_kpis ORDER BY year`); err != nil {
		return nil, fmt.Errorf("list benchmarks: %w", err)
	}
	out := make([]analytics.Benchmark, 0, len(rows))
	for _, r := range rows {
		b := analytics.Benchmark{Year: r.Year, Source: r.Source, Metrics: map[string]float64{}}
		if err := json.Unmarshal([]byte(r.Metrics), &b.Metrics); err != nil {
			return nil, fmt.Errorf("decode benchmark %d: %w", r.Year, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// --- helpers ---

func timeToString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func isConstraint(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "constraint")
}
