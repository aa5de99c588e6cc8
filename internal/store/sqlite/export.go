package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/revittco/pealink/internal/store"
)

func (d *DB) CreateExport(ctx context.Context, e *store.Export) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.Size = len(e.Data)

	blob, encoding, err := d.blobs.encode(e.Data)
	if err != nil {
		return err
	}
	e.Sealed = encoding == encodingBrotliSealed

	_, err = d.q.ExecContext(ctx, `
		INSERT INTO exports
			(id, workflow, target, name, mime, width, height, size,
			 encoding, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Workflow, e.Target, e.Name, e.MIME, e.Width, e.Height,
		e.Size, encoding, blob, formatTime(e.CreatedAt),
	)
	return mapConstraintError(err)
}

func (d *DB) GetExport(ctx context.Context, id string) (*store.Export, error) {
	row := d.q.QueryRowContext(ctx, `
		SELECT id, workflow, target, name, mime, width, height, size,
			encoding, data, created_at
		FROM exports WHERE id = ?`, id)

	var e store.Export
	var encoding, createdAt string
	var blob []byte
	err := row.Scan(&e.ID, &e.Workflow, &e.Target, &e.Name, &e.MIME,
		&e.Width, &e.Height, &e.Size, &encoding, &blob, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan export: %w", err)
	}
	e.CreatedAt = parseTime(createdAt)
	e.Sealed = encoding == encodingBrotliSealed

	data, err := d.blobs.decode(blob, encoding)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", id, err)
	}
	e.Data = data
	return &e, nil
}

func (d *DB) ListExports(ctx context.Context, f store.ExportFilter) ([]store.Export, error) {
	var conds []string
	var args []any
	if f.Workflow != nil {
		conds = append(conds, "workflow = ?")
		args = append(args, *f.Workflow)
	}
	if f.Target != nil {
		conds = append(conds, "target = ?")
		args = append(args, *f.Target)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.q.QueryContext(ctx, `
		SELECT id, workflow, target, name, mime, width, height, size,
			encoding, created_at
		FROM exports`+where+`
		ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		append(args, limit, f.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Export
	for rows.Next() {
		var e store.Export
		var encoding, createdAt string
		if err := rows.Scan(&e.ID, &e.Workflow, &e.Target, &e.Name, &e.MIME,
			&e.Width, &e.Height, &e.Size, &encoding, &createdAt); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		e.Sealed = encoding == encodingBrotliSealed
		e.CreatedAt = parseTime(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (d *DB) DeleteExport(ctx context.Context, id string) error {
	res, err := d.q.ExecContext(ctx, `DELETE FROM exports WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}
