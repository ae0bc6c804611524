package handler

import (
	"net/http"

	"github.com/gestorhq/gestor-go/internal/middleware"
	"github.com/gestorhq/gestor-go/internal/store"
)

// currentUser returns the authenticated user from the request context, or
// nil for anonymous requests.
func currentUser(r *http.Request) *store.User {
	return middleware.GetUser(r)
}
