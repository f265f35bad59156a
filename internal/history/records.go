package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const timeLayout = time.RFC3339Nano

// Status is the terminal state of a recorded batch.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ErrNotFound is returned by Get when no batch matches the id.
var ErrNotFound = errors.New("batch not found")

// Item is one file of a recorded batch.
type Item struct {
	Position    int    `json:"position"`
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

// Batch is one ledger row plus its items.
type Batch struct {
	ID          string    `json:"id"`
	Operation   string    `json:"operation"`
	Status      Status    `json:"status"`
	Message     string    `json:"message,omitempty"`
	ErrorCode   string    `json:"error_code,omitempty"`
	OutputDir   string    `json:"output_dir,omitempty"`
	FileCount   int       `json:"file_count"`
	OutputCount int       `json:"output_count"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Items       []Item    `json:"items,omitempty"`
}

// Duration reports how long the batch ran.
func (b Batch) Duration() time.Duration {
	if b.FinishedAt.Before(b.StartedAt) {
		return 0
	}
	return b.FinishedAt.Sub(b.StartedAt)
}

// Record persists b and its items in a single transaction. An empty ID is
// replaced with a fresh UUID; the stored ID is returned.
func (s *Store) Record(ctx context.Context, b Batch) (string, error) {
	if strings.TrimSpace(b.ID) == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = StatusFailed
	}
	if b.FileCount == 0 {
		b.FileCount = len(b.Items)
	}
	if b.FinishedAt.IsZero() {
		b.FinishedAt = time.Now()
	}
	if b.StartedAt.IsZero() {
		b.StartedAt = b.FinishedAt
	}

	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batches (id, operation, status, message, error_code, output_dir,
                file_count, output_count, started_at, finished_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.Operation, string(b.Status), b.Message, b.ErrorCode, b.OutputDir,
			b.FileCount, b.OutputCount,
			b.StartedAt.UTC().Format(timeLayout), b.FinishedAt.UTC().Format(timeLayout),
		); err != nil {
			return err
		}
		for _, item := range b.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO batch_items (batch_id, position, source, destination, status, error)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				b.ID, item.Position, item.Source, item.Destination, item.Status, item.Error,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", fmt.Errorf("record batch %s: %w", b.ID, err)
	}
	return b.ID, nil
}

// List returns the most recent batches without items, newest first. A
// non-positive limit returns every row.
func (s *Store) List(ctx context.Context, limit int) ([]Batch, error) {
	query := `SELECT id, operation, status, message, error_code, output_dir,
        file_count, output_count, started_at, finished_at
        FROM batches ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Get returns the batch with id, including its items. A unique id prefix is
// accepted.
func (s *Store) Get(ctx context.Context, id string) (Batch, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Batch{}, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, operation, status, message, error_code, output_dir,
            file_count, output_count, started_at, finished_at
         FROM batches WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2`,
		id, stripLikeWildcards(id)+"%")
	if err != nil {
		return Batch{}, fmt.Errorf("get batch: %w", err)
	}
	var matches []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			rows.Close()
			return Batch{}, err
		}
		matches = append(matches, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Batch{}, fmt.Errorf("get batch: %w", err)
	}

	var batch Batch
	switch {
	case len(matches) == 0:
		return Batch{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(matches) == 1:
		batch = matches[0]
	case matches[0].ID == id:
		batch = matches[0]
	default:
		return Batch{}, fmt.Errorf("batch id prefix %q is ambiguous", id)
	}

	items, err := s.items(ctx, batch.ID)
	if err != nil {
		return Batch{}, err
	}
	batch.Items = items
	return batch, nil
}

// Prune deletes batches that started before cutoff and returns how many were
// removed. Items go with their batch through the foreign key cascade.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.exec(ctx, "DELETE FROM batches WHERE started_at < ?", cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune batches: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune batches: %w", err)
	}
	return n, nil
}

func (s *Store) items(ctx context.Context, batchID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, source, destination, status, error
         FROM batch_items WHERE batch_id = ? ORDER BY position`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list batch items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.Position, &item.Source, &item.Destination, &item.Status, &item.Error); err != nil {
			return nil, fmt.Errorf("scan batch item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (Batch, error) {
	var (
		b                 Batch
		status            string
		started, finished string
	)
	if err := row.Scan(&b.ID, &b.Operation, &status, &b.Message, &b.ErrorCode, &b.OutputDir,
		&b.FileCount, &b.OutputCount, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Batch{}, ErrNotFound
		}
		return Batch{}, fmt.Errorf("scan batch: %w", err)
	}
	b.Status = Status(status)
	b.StartedAt = parseTime(started)
	b.FinishedAt = parseTime(finished)
	return b, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func stripLikeWildcards(value string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(value)
}
