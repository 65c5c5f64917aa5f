// Package sheets defines the port every table backend implements. A table is
// a header row plus string cells, replaced as a whole on each write.
package sheets

import (
	"context"
	"errors"

	"budget/internal/table"
)

var (
	// ErrNotExist is returned by Read for a table that was never written.
	ErrNotExist = errors.New("table does not exist")
	// ErrUnreadableStorage marks a table that exists but cannot be decoded.
	ErrUnreadableStorage = errors.New("unreadable storage")
)

// Ports for table backends.
type (
	TableReader interface {
		Read(ctx context.Context, name string) (table.Table, error)
		Exists(ctx context.Context, name string) (bool, error)
	}

	TableWriter interface {
		Write(ctx context.Context, name string, t table.Table) error
	}

	// TableStore holds whole tables by name.
	TableStore interface {
		TableReader
		TableWriter
	}
)
