package store

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is the subset of *sql.DB / *sql.Tx the query layer depends on.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries exposes typed database operations. Handlers receive a Queries
// instance instead of reaching for a process-wide connection.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// User is an application account. The password is stored only as a salted
// one-way hash.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Produto is an inventory product. Imagem holds a relative path under the
// static directory ("uploads/<file>") when an image was uploaded.
type Produto struct {
	ID        int64
	Name      string
	Price     float64
	Imagem    sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}
