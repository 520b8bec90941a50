package operations

import (
	"errors"
	"net/http"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/tableside/services/waiter/internal/auth"
)

// require wraps routes that need permission.
func (h *Handler) require(permission auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !h.requirePermission(w, r, permission) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) requirePermission(w http.ResponseWriter, r *http.Request, permission auth.Permission) bool {
	status, err := h.preflight(r, permission)
	if err == nil {
		return true
	}

	h.log(r).Info("preflight failed", "permission", string(permission), "status", status, "error", err)
	apt.RespondError(w, status, http.StatusText(status))
	return false
}

func (h *Handler) preflight(r *http.Request, permission auth.Permission) (int, error) {
	if permission == "" {
		return http.StatusForbidden, errors.New("permission required")
	}

	session := sessionFrom(r)
	if session == nil || !session.Principal.IsAuthenticated() {
		return http.StatusUnauthorized, errors.New("missing session")
	}

	if !session.Principal.Can(permission) {
		return http.StatusForbidden, errors.New("permission denied")
	}

	return 0, nil
}
