package store

import (
	"context"
	"database/sql"
	"time"
)

const produtoColumns = "id, name, price, imagem, created_at, updated_at"

func scanProduto(row interface{ Scan(...any) error }) (Produto, error) {
	var p Produto
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Imagem, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *Queries) queryProdutos(ctx context.Context, query string, args ...any) ([]Produto, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var produtos []Produto
	for rows.Next() {
		p, err := scanProduto(rows)
		if err != nil {
			return nil, err
		}
		produtos = append(produtos, p)
	}
	return produtos, rows.Err()
}

// GetProdutoByID fetches a product by primary key. Returns sql.ErrNoRows if absent.
func (q *Queries) GetProdutoByID(ctx context.Context, id int64) (Produto, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+produtoColumns+" FROM produtos WHERE id = ?", id)
	return scanProduto(row)
}

// ListProdutos returns all products ordered by descending id (most recent first).
func (q *Queries) ListProdutos(ctx context.Context) ([]Produto, error) {
	return q.queryProdutos(ctx, "SELECT "+produtoColumns+" FROM produtos ORDER BY id DESC")
}

// SearchProdutos returns products whose name contains the query string,
// case-insensitively, ordered by descending id. SQLite's LIKE is
// case-insensitive for ASCII by default.
func (q *Queries) SearchProdutos(ctx context.Context, query string) ([]Produto, error) {
	return q.queryProdutos(ctx,
		"SELECT "+produtoColumns+" FROM produtos WHERE name LIKE '%' || ? || '%' ORDER BY id DESC",
		query,
	)
}

// CreateProdutoParams holds the fields for CreateProduto.
type CreateProdutoParams struct {
	Name      string
	Price     float64
	Imagem    sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateProduto inserts a product and returns the stored row.
func (q *Queries) CreateProduto(ctx context.Context, arg CreateProdutoParams) (Produto, error) {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO produtos (name, price, imagem, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		arg.Name, arg.Price, arg.Imagem, arg.CreatedAt, arg.UpdatedAt,
	)
	if err != nil {
		return Produto{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Produto{}, err
	}
	return Produto{
		ID:        id,
		Name:      arg.Name,
		Price:     arg.Price,
		Imagem:    arg.Imagem,
		CreatedAt: arg.CreatedAt,
		UpdatedAt: arg.UpdatedAt,
	}, nil
}

// UpdateProdutoParams holds the fields for UpdateProduto.
type UpdateProdutoParams struct {
	Name      string
	Price     float64
	UpdatedAt time.Time
	ID        int64
}

// UpdateProduto updates name and price. The image path is updated separately
// via UpdateProdutoImagem, and only when a new file was uploaded.
func (q *Queries) UpdateProduto(ctx context.Context, arg UpdateProdutoParams) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE produtos SET name = ?, price = ?, updated_at = ? WHERE id = ?",
		arg.Name, arg.Price, arg.UpdatedAt, arg.ID,
	)
	return err
}

// UpdateProdutoImagemParams holds the fields for UpdateProdutoImagem.
type UpdateProdutoImagemParams struct {
	Imagem    sql.NullString
	UpdatedAt time.Time
	ID        int64
}

// UpdateProdutoImagem replaces the stored image path. The previous file on
// disk is intentionally left in place.
func (q *Queries) UpdateProdutoImagem(ctx context.Context, arg UpdateProdutoImagemParams) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE produtos SET imagem = ?, updated_at = ? WHERE id = ?",
		arg.Imagem, arg.UpdatedAt, arg.ID,
	)
	return err
}

// DeleteProduto removes a product by id. Any uploaded image file is retained
// on disk.
func (q *Queries) DeleteProduto(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM produtos WHERE id = ?", id)
	return err
}

// CountProdutos returns the total number of products.
func (q *Queries) CountProdutos(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM produtos").Scan(&n)
	return n, err
}
