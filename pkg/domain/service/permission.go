package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ecommerce/pkg/domain/model"
)

type RoleInput struct {
	Name        string
	Description string
	Permissions model.Permissions
	IsActive    *bool
}

type PermissionService interface {
	// HasPermission never fails: anything it cannot resolve counts as denied.
	HasPermission(ctx context.Context, user *model.User, resource model.Resource, action model.Action) bool
	// Authorize is HasPermission for request boundaries, returning
	// ErrPermissionDenied instead of false.
	Authorize(ctx context.Context, user *model.User, resource model.Resource, action model.Action) error
	EffectivePermissions(ctx context.Context, user *model.User) (model.Permissions, error)

	ListRoles(ctx context.Context) ([]model.Role, error)
	GetRole(ctx context.Context, roleID uuid.UUID) (*model.Role, error)
	CreateRole(ctx context.Context, input RoleInput) (*model.Role, error)
	UpdateRole(ctx context.Context, roleID uuid.UUID, input RoleInput) (*model.Role, error)
	DeleteRole(ctx context.Context, roleID uuid.UUID) error
	AssignRole(ctx context.Context, userID, roleID uuid.UUID) error
	UnassignRole(ctx context.Context, userID uuid.UUID) error
	EnsureSystemRoles(ctx context.Context) ([]model.Role, error)
}

func NewPermissionService(roles model.RoleRepository, users model.UserRepository, dispatcher EventDispatcher) PermissionService {
	return &permissionService{roles: roles, users: users, dispatcher: dispatcher}
}

type permissionService struct {
	roles      model.RoleRepository
	users      model.UserRepository
	dispatcher EventDispatcher
}

func (s *permissionService) HasPermission(ctx context.Context, user *model.User, resource model.Resource, action model.Action) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	role, err := s.resolveRole(ctx, user)
	if err != nil {
		if !errors.Is(err, model.ErrRoleNotFound) {
			log.WithError(err).WithField("userID", user.ID).Error("failed to resolve role")
		}
		return false
	}
	if role == nil || !role.IsActive {
		return false
	}
	return role.Permissions.Allows(resource, action)
}

func (s *permissionService) Authorize(ctx context.Context, user *model.User, resource model.Resource, action model.Action) error {
	if !model.IsGrantable(resource, action) {
		return model.NewValidationError("unknown permission", string(resource)+"."+string(action))
	}
	if !s.HasPermission(ctx, user, resource, action) {
		return model.ErrPermissionDenied
	}
	return nil
}

func (s *permissionService) EffectivePermissions(ctx context.Context, user *model.User) (model.Permissions, error) {
	if user.IsAdmin {
		return model.FullPermissions(), nil
	}
	role, err := s.resolveRole(ctx, user)
	if err != nil && !errors.Is(err, model.ErrRoleNotFound) {
		return nil, err
	}
	if role == nil || !role.IsActive {
		return model.Permissions{}.Complete(), nil
	}
	return role.Permissions.Complete(), nil
}

func (s *permissionService) ListRoles(ctx context.Context) ([]model.Role, error) {
	return s.roles.List(ctx)
}

func (s *permissionService) GetRole(ctx context.Context, roleID uuid.UUID) (*model.Role, error) {
	return s.roles.Find(ctx, roleID)
}

func (s *permissionService) CreateRole(ctx context.Context, input RoleInput) (*model.Role, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, model.NewValidationError("missing required fields", "name")
	}
	if err := input.Permissions.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.roles.FindByName(ctx, name); err == nil {
		return nil, model.ErrDuplicateRoleName
	} else if !errors.Is(err, model.ErrRoleNotFound) {
		return nil, err
	}

	roleID, err := s.roles.NextID()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	role := &model.Role{
		ID:          roleID,
		Name:        name,
		Description: input.Description,
		Permissions: input.Permissions.Complete(),
		IsActive:    input.IsActive == nil || *input.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *permissionService) UpdateRole(ctx context.Context, roleID uuid.UUID, input RoleInput) (*model.Role, error) {
	role, err := s.roles.Find(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, model.ErrSystemRoleProtected
	}

	if name := strings.TrimSpace(input.Name); name != "" && name != role.Name {
		if _, err := s.roles.FindByName(ctx, name); err == nil {
			return nil, model.ErrDuplicateRoleName
		} else if !errors.Is(err, model.ErrRoleNotFound) {
			return nil, err
		}
		role.Name = name
	}
	if input.Description != "" {
		role.Description = input.Description
	}
	if input.Permissions != nil {
		if err := input.Permissions.Validate(); err != nil {
			return nil, err
		}
		role.Permissions = input.Permissions.Complete()
	}
	if input.IsActive != nil {
		role.IsActive = *input.IsActive
	}
	role.UpdatedAt = time.Now().UTC()

	if err := s.roles.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *permissionService) DeleteRole(ctx context.Context, roleID uuid.UUID) error {
	role, err := s.roles.Find(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return model.ErrSystemRoleProtected
	}
	assigned, err := s.users.CountByRole(ctx, roleID)
	if err != nil {
		return err
	}
	if assigned > 0 {
		return model.ErrRoleInUse
	}
	return s.roles.Delete(ctx, roleID)
}

func (s *permissionService) AssignRole(ctx context.Context, userID, roleID uuid.UUID) error {
	role, err := s.roles.Find(ctx, roleID)
	if err != nil {
		return err
	}
	if !role.IsActive {
		return model.ErrInactiveRole
	}
	if _, err := s.users.Find(ctx, userID); err != nil {
		return err
	}
	if err := s.users.SetRole(ctx, userID, &roleID); err != nil {
		return err
	}
	_ = s.dispatcher.Dispatch(model.RoleAssigned{UserID: userID, RoleID: &roleID})
	return nil
}

func (s *permissionService) UnassignRole(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.users.Find(ctx, userID); err != nil {
		return err
	}
	if err := s.users.SetRole(ctx, userID, nil); err != nil {
		return err
	}
	_ = s.dispatcher.Dispatch(model.RoleAssigned{UserID: userID})
	return nil
}

// EnsureSystemRoles creates the built-in roles that do not exist yet. A
// concurrent creator losing the unique-name race is not an error. A custom
// role already holding a built-in name is turned into the built-in role.
func (s *permissionService) EnsureSystemRoles(ctx context.Context) ([]model.Role, error) {
	var ensured []model.Role
	for _, template := range model.SystemRoles() {
		existing, err := s.roles.FindByName(ctx, template.Name)
		if err == nil {
			role, err := s.promote(ctx, existing, template)
			if err != nil {
				return nil, err
			}
			ensured = append(ensured, *role)
			continue
		}
		if !errors.Is(err, model.ErrRoleNotFound) {
			return nil, err
		}

		role := template
		if role.ID, err = s.roles.NextID(); err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		role.CreatedAt, role.UpdatedAt = now, now

		if err := s.roles.Create(ctx, &role); err != nil {
			if !errors.Is(err, model.ErrDuplicateRoleName) {
				return nil, err
			}
			winner, err := s.roles.FindByName(ctx, template.Name)
			if err != nil {
				return nil, err
			}
			promoted, err := s.promote(ctx, winner, template)
			if err != nil {
				return nil, err
			}
			role = *promoted
		} else {
			log.WithField("role", role.Name).Info("created system role")
		}
		ensured = append(ensured, role)
	}
	return ensured, nil
}

// promote resets a non-system role to the template's permissions and locks it.
func (s *permissionService) promote(ctx context.Context, role *model.Role, template model.Role) (*model.Role, error) {
	if role.IsSystem {
		return role, nil
	}
	promoted := *role
	promoted.Description = template.Description
	promoted.Permissions = template.Permissions
	promoted.IsActive = true
	promoted.IsSystem = true
	promoted.UpdatedAt = time.Now().UTC()
	if err := s.roles.Update(ctx, &promoted); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"role": promoted.Name, "roleID": promoted.ID}).Warn("promoted existing role to system role")
	return &promoted, nil
}

// resolveRole loads the referenced role on demand; the user only carries its id.
func (s *permissionService) resolveRole(ctx context.Context, user *model.User) (*model.Role, error) {
	if user.RoleID == nil {
		return nil, nil
	}
	return s.roles.Find(ctx, *user.RoleID)
}
