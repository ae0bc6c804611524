package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "gestor-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func createProduto(t *testing.T, q *Queries, name string, price float64) Produto {
	t.Helper()
	now := time.Now()
	p, err := q.CreateProduto(context.Background(), CreateProdutoParams{
		Name:      name,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return p
}

func TestSeed_CreatesAdminOnce(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, db))

	q := New(db)
	admin, err := q.GetUserByUsername(ctx, DefaultAdminUsername)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	// Second run must not create a duplicate.
	require.NoError(t, Seed(ctx, db))
	n, err := q.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUsers_CRUD(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)
	now := time.Now()

	u, err := q.CreateUser(ctx, CreateUserParams{
		Username:     "bob",
		PasswordHash: "x",
		IsAdmin:      false,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	got, err := q.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	assert.False(t, got.IsAdmin)

	require.NoError(t, q.UpdateUser(ctx, UpdateUserParams{
		Username:  "bobby",
		IsAdmin:   true,
		UpdatedAt: time.Now(),
		ID:        u.ID,
	}))
	got, err = q.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "bobby", got.Username)
	assert.True(t, got.IsAdmin)

	require.NoError(t, q.UpdateUserPassword(ctx, UpdateUserPasswordParams{
		PasswordHash: "y",
		UpdatedAt:    time.Now(),
		ID:           u.ID,
	}))
	got, err = q.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "y", got.PasswordHash)

	require.NoError(t, q.DeleteUser(ctx, u.ID))
	_, err = q.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUsers_UsernameUnique(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)
	now := time.Now()

	_, err := q.CreateUser(ctx, CreateUserParams{Username: "alice", PasswordHash: "x", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	_, err = q.CreateUser(ctx, CreateUserParams{Username: "alice", PasswordHash: "x", CreatedAt: now, UpdatedAt: now})
	assert.Error(t, err, "duplicate username must violate the unique constraint")
}

func TestListUsers_AscendingID(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)
	now := time.Now()

	for _, name := range []string{"a", "b", "c"} {
		_, err := q.CreateUser(ctx, CreateUserParams{Username: name, PasswordHash: "x", CreatedAt: now, UpdatedAt: now})
		require.NoError(t, err)
	}

	users, err := q.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.True(t, users[0].ID < users[1].ID && users[1].ID < users[2].ID)
}

func TestListProdutos_DescendingID(t *testing.T) {
	db := testDB(t)
	q := New(db)

	first := createProduto(t, q, "Mouse", 49.9)
	second := createProduto(t, q, "Teclado", 120)
	third := createProduto(t, q, "Monitor", 899.5)

	produtos, err := q.ListProdutos(context.Background())
	require.NoError(t, err)
	require.Len(t, produtos, 3)
	assert.Equal(t, third.ID, produtos[0].ID)
	assert.Equal(t, second.ID, produtos[1].ID)
	assert.Equal(t, first.ID, produtos[2].ID)
}

func TestSearchProdutos_CaseInsensitiveSubstring(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	createProduto(t, q, "Widget Deluxe", 10)
	createProduto(t, q, "Gadget", 20)
	widget2 := createProduto(t, q, "Mini widget", 5)

	got, err := q.SearchProdutos(ctx, "WIDGET")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Descending id: the most recently created match comes first.
	assert.Equal(t, widget2.ID, got[0].ID)

	got, err = q.SearchProdutos(ctx, "nothing-like-this")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProdutos_UpdateAndImagem(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	p := createProduto(t, q, "Widget", 9.99)
	assert.False(t, p.Imagem.Valid)

	require.NoError(t, q.UpdateProduto(ctx, UpdateProdutoParams{
		Name:      "Widget v2",
		Price:     12.5,
		UpdatedAt: time.Now(),
		ID:        p.ID,
	}))

	require.NoError(t, q.UpdateProdutoImagem(ctx, UpdateProdutoImagemParams{
		Imagem:    sql.NullString{String: "uploads/abc123.png", Valid: true},
		UpdatedAt: time.Now(),
		ID:        p.ID,
	}))

	got, err := q.GetProdutoByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", got.Name)
	assert.Equal(t, 12.5, got.Price)
	assert.Equal(t, "uploads/abc123.png", got.Imagem.String)

	require.NoError(t, q.DeleteProduto(ctx, p.ID))
	_, err = q.GetProdutoByID(ctx, p.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
