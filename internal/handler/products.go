package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gestorhq/gestor-go/internal/render"
	"github.com/gestorhq/gestor-go/internal/service"
	"github.com/gestorhq/gestor-go/internal/store"
)

// ProductHandler handles product catalog routes.
type ProductHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	uploads  *service.UploadService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(db *sql.DB, renderer *render.Renderer, uploads *service.UploadService) *ProductHandler {
	return &ProductHandler{
		queries:  store.New(db),
		renderer: renderer,
		uploads:  uploads,
	}
}

// productListData is the template payload for the product listing page.
type productListData struct {
	Produtos []store.Produto
	Query    string
}

// productForm holds parsed and validated product form input.
type productForm struct {
	Name  string
	Price float64
}

// List renders the product listing, most recent first.
// GET /produtos
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	produtos, err := h.queries.ListProdutos(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list products", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "produtos", http.StatusOK, render.TemplateData{
		Title: "Produtos",
		User:  currentUser(r),
		Data:  productListData{Produtos: produtos},
	}); err != nil {
		logAndInternalError(w, "render error", "error", err)
	}
}

// Search renders products whose name contains the query string. An empty
// query behaves exactly like the full listing.
// GET /produtos/pesquisar?q=...
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var (
		produtos []store.Produto
		err      error
	)
	if query == "" {
		produtos, err = h.queries.ListProdutos(r.Context())
	} else {
		produtos, err = h.queries.SearchProdutos(r.Context(), query)
	}
	if err != nil {
		logAndInternalError(w, "failed to search products", "error", err, "query", query)
		return
	}

	if err := h.renderer.Render(w, r, "produtos", http.StatusOK, render.TemplateData{
		Title: "Produtos",
		User:  currentUser(r),
		Data:  productListData{Produtos: produtos, Query: query},
	}); err != nil {
		logAndInternalError(w, "render error", "error", err)
	}
}

// NewForm renders the product creation form.
// GET /produtos/criar
func (h *ProductHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "produto_form", http.StatusOK, render.TemplateData{
		Title: "Novo Produto",
		User:  currentUser(r),
		Data:  store.Produto{},
	}); err != nil {
		logAndInternalError(w, "render error", "error", err)
	}
}

// Create handles the product creation form submission.
// POST /produtos/criar
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseProductForm(w, r, RouteProdutosCriar)
	if !ok {
		return
	}

	imagem, ok := h.saveUploadedPhoto(w, r, RouteProdutosCriar)
	if !ok {
		return
	}

	now := time.Now()
	produto, err := h.queries.CreateProduto(r.Context(), store.CreateProdutoParams{
		Name:      form.Name,
		Price:     form.Price,
		Imagem:    imagem,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		logAndInternalError(w, "failed to create product", "error", err)
		return
	}

	slog.Info("product created", "produto_id", produto.ID, "name", produto.Name)

	flashSuccess(w, r, h.renderer, RouteProdutos, "Produto criado com sucesso.")
}

// EditForm renders the product edit form.
// GET /produtos/editar/{id}
func (h *ProductHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	produto, ok := h.requireProduto(w, r)
	if !ok {
		return
	}

	if err := h.renderer.Render(w, r, "produto_form", http.StatusOK, render.TemplateData{
		Title: "Editar Produto",
		User:  currentUser(r),
		Data:  produto,
	}); err != nil {
		logAndInternalError(w, "render error", "error", err)
	}
}

// Update handles the product edit form submission. The stored image path is
// only replaced when a new photo was uploaded.
// POST /produtos/editar/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	produto, ok := h.requireProduto(w, r)
	if !ok {
		return
	}

	editURL := "/produtos/editar/" + strconv.FormatInt(produto.ID, 10)

	form, ok := h.parseProductForm(w, r, editURL)
	if !ok {
		return
	}

	// Validate and store the photo before touching the row, so a rejected
	// upload leaves the product unchanged
	imagem, ok := h.saveUploadedPhoto(w, r, editURL)
	if !ok {
		return
	}

	if err := h.queries.UpdateProduto(r.Context(), store.UpdateProdutoParams{
		Name:      form.Name,
		Price:     form.Price,
		UpdatedAt: time.Now(),
		ID:        produto.ID,
	}); err != nil {
		logAndInternalError(w, "failed to update product", "error", err, "produto_id", produto.ID)
		return
	}

	if imagem.Valid {
		if err := h.queries.UpdateProdutoImagem(r.Context(), store.UpdateProdutoImagemParams{
			Imagem:    imagem,
			UpdatedAt: time.Now(),
			ID:        produto.ID,
		}); err != nil {
			logAndInternalError(w, "failed to update product image", "error", err, "produto_id", produto.ID)
			return
		}
	}

	slog.Info("product updated", "produto_id", produto.ID, "name", form.Name)

	flashSuccess(w, r, h.renderer, RouteProdutos, "Produto atualizado com sucesso.")
}

// Delete handles product deletion. Uploaded image files are retained on disk.
// POST /produtos/deletar/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	produto, ok := h.requireProduto(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteProduto(r.Context(), produto.ID); err != nil {
		logAndInternalError(w, "failed to delete product", "error", err, "produto_id", produto.ID)
		return
	}

	slog.Info("product deleted", "produto_id", produto.ID, "name", produto.Name)

	flashSuccess(w, r, h.renderer, RouteProdutos, "Produto deletado com sucesso.")
}

// requireProduto resolves the {id} route parameter to a product, rendering
// the not-found page when the id is malformed or no such product exists.
func (h *ProductHandler) requireProduto(w http.ResponseWriter, r *http.Request) (store.Produto, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		renderNotFound(w, r, h.renderer)
		return store.Produto{}, false
	}

	produto, err := h.queries.GetProdutoByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			renderNotFound(w, r, h.renderer)
		} else {
			logAndInternalError(w, "failed to get product", "error", err, "produto_id", id)
		}
		return store.Produto{}, false
	}

	return produto, true
}

// parseProductForm parses and validates the product form, flashing a
// validation message and redirecting on failure.
func (h *ProductHandler) parseProductForm(w http.ResponseWriter, r *http.Request, redirectURL string) (productForm, bool) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		flashError(w, r, h.renderer, redirectURL, "Dados do formulário inválidos.")
		return productForm{}, false
	}

	name := strings.TrimSpace(r.FormValue("nome"))
	if name == "" {
		flashError(w, r, h.renderer, redirectURL, "Informe o nome do produto.")
		return productForm{}, false
	}

	price, err := parsePrice(r.FormValue("preco"))
	if err != nil {
		flashError(w, r, h.renderer, redirectURL, "Preço inválido.")
		return productForm{}, false
	}

	return productForm{Name: name, Price: price}, true
}

// saveUploadedPhoto stores the optional "imagem" form file. A missing file is
// not an error; the returned NullString is simply invalid.
func (h *ProductHandler) saveUploadedPhoto(w http.ResponseWriter, r *http.Request, redirectURL string) (sql.NullString, bool) {
	file, header, err := r.FormFile("imagem")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return sql.NullString{}, true
		}
		flashError(w, r, h.renderer, redirectURL, "Falha ao ler o arquivo enviado.")
		return sql.NullString{}, false
	}
	defer func() { _ = file.Close() }()

	// Browsers submit an empty file part when no photo was chosen
	if header.Filename == "" || header.Size == 0 {
		return sql.NullString{}, true
	}

	relPath, err := h.uploads.SavePhoto(file, header)
	if err != nil {
		slog.Warn("photo upload rejected", "error", err, "filename", header.Filename)
		flashError(w, r, h.renderer, redirectURL, "Imagem inválida.")
		return sql.NullString{}, false
	}

	return sql.NullString{String: relPath, Valid: true}, true
}

// parsePrice parses a price accepting both decimal comma and decimal point.
func parsePrice(raw string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	price, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, err
	}
	if price < 0 {
		return 0, errors.New("negative price")
	}
	return price, nil
}
