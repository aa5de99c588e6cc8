package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/revittco/pealink/internal/store"
)

func (d *DB) InsertRequestRecord(ctx context.Context, r *store.RequestRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := d.q.ExecContext(ctx, `
		INSERT INTO request_records
			(id, timestamp, command, script, status, error_message,
			 latency_ms, payloads, response_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, formatTime(r.Timestamp), r.Command, r.Script, r.Status,
		r.ErrorMessage, r.LatencyMs, r.Payloads, r.ResponseSize,
		formatTime(r.CreatedAt),
	)
	return mapConstraintError(err)
}

func (d *DB) QueryRequestRecords(
	ctx context.Context, f store.RequestFilter,
) ([]store.RequestRecord, int, error) {
	where, args := buildRequestWhere(f)

	var total int
	countQ := "SELECT COUNT(*) FROM request_records" + where
	if err := d.q.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	dataQ := `SELECT id, timestamp, command, script, status, error_message,
		latency_ms, payloads, response_size, created_at
		FROM request_records` + where +
		` ORDER BY timestamp DESC, rowid DESC LIMIT ? OFFSET ?`
	dataArgs := append(args, limit, f.Offset)

	rows, err := d.q.QueryContext(ctx, dataQ, dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []store.RequestRecord
	for rows.Next() {
		r, err := scanRequestRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	return out, total, rows.Err()
}

func (d *DB) GetRequestStats(
	ctx context.Context, after, before time.Time,
) (*store.RequestStats, error) {
	var s store.RequestStats
	err := d.q.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'success'),
			COUNT(*) FILTER (WHERE status = 'error'),
			COUNT(*) FILTER (WHERE status = 'abandoned'),
			COALESCE(AVG(latency_ms), 0),
			COALESCE(SUM(response_size), 0)
		FROM request_records
		WHERE timestamp >= ? AND timestamp <= ?`,
		formatTime(after), formatTime(before),
	).Scan(&s.TotalRequests, &s.SuccessCount, &s.ErrorCount, &s.AbandonedCount,
		&s.AvgLatencyMs, &s.BytesReceived)
	if err != nil {
		return nil, fmt.Errorf("request stats: %w", err)
	}
	return &s, nil
}

// PruneRequestRecords deletes records older than before.
func (d *DB) PruneRequestRecords(ctx context.Context, before time.Time) (int, error) {
	var n int64
	err := d.withTx(ctx, func(q queryable) error {
		res, err := q.ExecContext(ctx,
			`DELETE FROM request_records WHERE timestamp < ?`, formatTime(before))
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune request records: %w", err)
	}
	return int(n), nil
}

func buildRequestWhere(f store.RequestFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Command != nil {
		conds = append(conds, "command = ?")
		args = append(args, *f.Command)
	}
	if f.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, *f.Status)
	}
	if f.After != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, formatTime(*f.After))
	}
	if f.Before != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, formatTime(*f.Before))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanRequestRow(row rowScanner) (*store.RequestRecord, error) {
	var r store.RequestRecord
	var ts, createdAt string
	err := row.Scan(
		&r.ID, &ts, &r.Command, &r.Script, &r.Status, &r.ErrorMessage,
		&r.LatencyMs, &r.Payloads, &r.ResponseSize, &createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan request row: %w", err)
	}
	r.Timestamp = parseTime(ts)
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}
