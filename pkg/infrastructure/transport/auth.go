package transport

import (
	"net/http"
	"time"

	"ecommerce/pkg/domain/model"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type meResponse struct {
	*model.User
	Permissions model.Permissions `json:"permissions"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var request credentialsRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.Users.RegisterNewUser(r.Context(), request.Name, request.Email, request.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, user)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var request credentialsRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := h.Users.Login(r.Context(), request.Email, request.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sessionResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request, _ *model.User) {
	if err := h.Users.Logout(r.Context(), bearerToken(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, "logged out")
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request, user *model.User) {
	permissions, err := h.Permissions.EffectivePermissions(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, meResponse{User: user, Permissions: permissions})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request, _ *model.User) {
	page := pageFromQuery(r)
	users, total, err := h.Users.ListUsers(r.Context(), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, users, page, total)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request, _ *model.User) {
	stats, err := h.Dashboard.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}
