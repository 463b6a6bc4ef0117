package transport

import (
	"net/http"

	"ecommerce/pkg/domain/model"
	"ecommerce/pkg/domain/service"
)

type roleRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Permissions model.Permissions `json:"permissions"`
	IsActive    *bool             `json:"isActive"`
}

func (p roleRequest) input() service.RoleInput {
	return service.RoleInput{
		Name:        p.Name,
		Description: p.Description,
		Permissions: p.Permissions,
		IsActive:    p.IsActive,
	}
}

type roleAssignmentRequest struct {
	UserID string `json:"userId"`
	RoleID string `json:"roleId"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request, _ *model.User) {
	roles, err := h.Permissions.ListRoles(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, roles)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request, _ *model.User) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	role, err := h.Permissions.GetRole(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, role)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request, _ *model.User) {
	var request roleRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	role, err := h.Permissions.CreateRole(r.Context(), request.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, role)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request, _ *model.User) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var request roleRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	role, err := h.Permissions.UpdateRole(r.Context(), id, request.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, role)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request, _ *model.User) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Permissions.DeleteRole(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, "role deleted")
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request, _ *model.User) {
	var request roleAssignmentRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := parseID(request.UserID, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	roleID, err := parseID(request.RoleID, "roleId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Permissions.AssignRole(r.Context(), userID, roleID); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, "role assigned")
}

func (h *Handler) unassignRole(w http.ResponseWriter, r *http.Request, _ *model.User) {
	var request roleAssignmentRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := parseID(request.UserID, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Permissions.UnassignRole(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, "role unassigned")
}

func (h *Handler) initializeRoles(w http.ResponseWriter, r *http.Request, _ *model.User) {
	roles, err := h.Permissions.EnsureSystemRoles(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, roles)
}
