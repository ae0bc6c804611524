package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gestorhq/gestor-go/internal/auth"
	"github.com/gestorhq/gestor-go/internal/render"
	"github.com/gestorhq/gestor-go/internal/store"
	"github.com/gestorhq/gestor-go/internal/util"
)

// UserHandler handles the admin-only user management routes.
type UserHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *sql.DB, renderer *render.Renderer) *UserHandler {
	return &UserHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// List renders all users in registration order.
// GET /usuarios
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.queries.ListUsers(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list users", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "users", http.StatusOK, render.TemplateData{
		Title: "Usuários",
		User:  currentUser(r),
		Data:  users,
	}); err != nil {
		logAndInternalError(w, "render error", "error", err)
	}
}

// NewForm renders the user creation form.
// GET /usuarios/criar
func (h *UserHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "user_form", http.StatusOK, render.TemplateData{
		Title: "Novo Usuário",
		User:  currentUser(r),
		Data:  store.User{},
	}); err != nil {
		logAndInternalError(w, "render error", "error", err)
	}
}

// Create handles the user creation form submission.
// POST /usuarios/criar
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteUsuariosCriar) {
		return
	}

	username := util.NormalizeUsername(r.FormValue("username"))
	password := r.FormValue("password")
	isAdmin := r.FormValue("is_admin") == "on"

	if username == "" || password == "" {
		flashError(w, r, h.renderer, RouteUsuariosCriar, "Informe usuário e senha.")
		return
	}

	if _, err := h.queries.GetUserByUsername(r.Context(), username); err == nil {
		flashError(w, r, h.renderer, RouteUsuariosCriar, "Usuário já existe.")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logAndInternalError(w, "failed to check username", "error", err)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		logAndInternalError(w, "failed to create user", "error", err)
		return
	}

	slog.Info("user created", "user_id", user.ID, "username", user.Username, "is_admin", user.IsAdmin)

	flashSuccess(w, r, h.renderer, RouteUsuarios, "Usuário criado com sucesso.")
}

// EditForm renders the user edit form.
// GET /usuarios/editar/{id}
func (h *UserHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if err := h.renderer.Render(w, r, "user_form", http.StatusOK, render.TemplateData{
		Title: "Editar Usuário",
		User:  currentUser(r),
		Data:  user,
	}); err != nil {
		logAndInternalError(w, "render error", "error", err)
	}
}

// Update handles the user edit form submission. The password is only changed
// when a new one was provided. Username uniqueness is re-checked when the
// username actually changed.
// POST /usuarios/editar/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	editURL := "/usuarios/editar/" + strconv.FormatInt(user.ID, 10)

	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	username := util.NormalizeUsername(r.FormValue("username"))
	password := r.FormValue("password")
	isAdmin := r.FormValue("is_admin") == "on"

	if username == "" {
		flashError(w, r, h.renderer, editURL, "Informe o nome de usuário.")
		return
	}

	if username != user.Username {
		if _, err := h.queries.GetUserByUsername(r.Context(), username); err == nil {
			flashError(w, r, h.renderer, editURL, "Usuário já existe.")
			return
		} else if !errors.Is(err, sql.ErrNoRows) {
			logAndInternalError(w, "failed to check username", "error", err)
			return
		}
	}

	if err := h.queries.UpdateUser(r.Context(), store.UpdateUserParams{
		Username:  username,
		IsAdmin:   isAdmin,
		UpdatedAt: time.Now(),
		ID:        user.ID,
	}); err != nil {
		logAndInternalError(w, "failed to update user", "error", err, "user_id", user.ID)
		return
	}

	if password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			logAndInternalError(w, "failed to hash password", "error", err)
			return
		}
		if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
			PasswordHash: hash,
			UpdatedAt:    time.Now(),
			ID:           user.ID,
		}); err != nil {
			logAndInternalError(w, "failed to update password", "error", err, "user_id", user.ID)
			return
		}
	}

	slog.Info("user updated", "user_id", user.ID, "username", username, "is_admin", isAdmin)

	flashSuccess(w, r, h.renderer, RouteUsuarios, "Usuário atualizado com sucesso.")
}

// Delete handles user deletion. The default admin account is protected and
// cannot be removed.
// POST /usuarios/deletar/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if user.Username == store.DefaultAdminUsername {
		flashError(w, r, h.renderer, RouteUsuarios, "Não é permitido deletar o admin.")
		return
	}

	if err := h.queries.DeleteUser(r.Context(), user.ID); err != nil {
		logAndInternalError(w, "failed to delete user", "error", err, "user_id", user.ID)
		return
	}

	slog.Info("user deleted", "user_id", user.ID, "username", user.Username)

	flashSuccess(w, r, h.renderer, RouteUsuarios, "Usuário deletado com sucesso.")
}

// requireUser resolves the {id} route parameter to a user, rendering the
// not-found page when the id is malformed or no such user exists.
func (h *UserHandler) requireUser(w http.ResponseWriter, r *http.Request) (store.User, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		renderNotFound(w, r, h.renderer)
		return store.User{}, false
	}

	user, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			renderNotFound(w, r, h.renderer)
		} else {
			logAndInternalError(w, "failed to get user", "error", err, "user_id", id)
		}
		return store.User{}, false
	}

	return user, true
}
