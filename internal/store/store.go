package store

import (
	"context"
	"time"
)

// Store is the composite interface for all data access.
type Store interface {
	RequestStore
	ExportStore
	Tx(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
	Close() error
}

// RequestStore manages the request journal.
type RequestStore interface {
	InsertRequestRecord(ctx context.Context, r *RequestRecord) error
	QueryRequestRecords(ctx context.Context, f RequestFilter) ([]RequestRecord, int, error)
	GetRequestStats(ctx context.Context, after, before time.Time) (*RequestStats, error)
	PruneRequestRecords(ctx context.Context, before time.Time) (int, error)
}

// ExportStore manages exported images. List results omit Data.
type ExportStore interface {
	CreateExport(ctx context.Context, e *Export) error
	GetExport(ctx context.Context, id string) (*Export, error)
	ListExports(ctx context.Context, f ExportFilter) ([]Export, error)
	DeleteExport(ctx context.Context, id string) error
}
