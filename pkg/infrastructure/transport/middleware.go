package transport

import (
	"net/http"
	"strings"

	"ecommerce/pkg/domain/model"
)

type authedHandler func(w http.ResponseWriter, r *http.Request, user *model.User)

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// authenticated resolves the bearer token to a user before calling next.
func (h *Handler) authenticated(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, r, errMissingToken)
			return
		}
		user, err := h.Users.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r, user)
	})
}

// permitted additionally requires the user to hold resource.action.
func (h *Handler) permitted(resource model.Resource, action model.Action, next authedHandler) http.Handler {
	return h.authenticated(func(w http.ResponseWriter, r *http.Request, user *model.User) {
		if err := h.Permissions.Authorize(r.Context(), user, resource, action); err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r, user)
	})
}
