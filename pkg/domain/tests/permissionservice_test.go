package tests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce/pkg/domain/model"
	"ecommerce/pkg/domain/service"
)

func setupPermissions(t *testing.T) (service.PermissionService, *mockRoleRepository, *mockUserRepository, *mockEventDispatcher) {
	t.Helper()
	roles := newMockRoleRepository()
	users := newMockUserRepository()
	dispatcher := &mockEventDispatcher{}
	return service.NewPermissionService(roles, users, dispatcher), roles, users, dispatcher
}

func addUser(t *testing.T, users *mockUserRepository, roleID *uuid.UUID) *model.User {
	t.Helper()
	user := &model.User{ID: uuid.New(), Name: "Staff", Email: uuid.NewString() + "@example.com", RoleID: roleID}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestPermissionsFailClosed(t *testing.T) {
	permissions, roles, users, _ := setupPermissions(t)
	missingRole := uuid.New()

	empty, err := permissions.CreateRole(context.Background(), service.RoleInput{Name: "Nothing"})
	require.NoError(t, err)

	inactive := false
	disabled, err := permissions.CreateRole(context.Background(), service.RoleInput{
		Name:        "Disabled",
		Permissions: model.FullPermissions(),
		IsActive:    &inactive,
	})
	require.NoError(t, err)

	subjects := map[string]*model.User{
		"nil user":      nil,
		"no role":       addUser(t, users, nil),
		"dangling role": addUser(t, users, &missingRole),
		"empty role":    addUser(t, users, &empty.ID),
		"inactive role": addUser(t, users, &disabled.ID),
	}
	for name, user := range subjects {
		t.Run(name, func(t *testing.T) {
			for _, resource := range model.Resources() {
				for _, action := range model.ActionsFor(resource) {
					assert.Falsef(t, permissions.HasPermission(context.Background(), user, resource, action),
						"%s.%s should be denied", resource, action)
				}
			}
		})
	}
	assert.NotZero(t, roles.finds)
}

func TestAdminFlagBypassesRoles(t *testing.T) {
	permissions, roles, _, _ := setupPermissions(t)
	admin := &model.User{ID: uuid.New(), IsAdmin: true}

	for _, resource := range model.Resources() {
		for _, action := range model.ActionsFor(resource) {
			assert.True(t, permissions.HasPermission(context.Background(), admin, resource, action))
		}
	}
	assert.Zero(t, roles.finds)

	effective, err := permissions.EffectivePermissions(context.Background(), admin)
	require.NoError(t, err)
	assert.True(t, effective.Allows(model.ResourceRoles, model.ActionDelete))
}

func TestModeratorRole(t *testing.T) {
	permissions, _, users, _ := setupPermissions(t)
	ensured, err := permissions.EnsureSystemRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, ensured, 2)

	var moderator model.Role
	for _, role := range ensured {
		if role.Name == model.ModeratorRoleName {
			moderator = role
		}
	}
	require.Equal(t, model.ModeratorRoleName, moderator.Name)
	user := addUser(t, users, &moderator.ID)

	assert.True(t, permissions.HasPermission(context.Background(), user, model.ResourceDashboard, model.ActionView))
	assert.False(t, permissions.HasPermission(context.Background(), user, model.ResourceOrders, model.ActionDelete))
	assert.NoError(t, permissions.Authorize(context.Background(), user, model.ResourceDashboard, model.ActionView))

	err = permissions.Authorize(context.Background(), user, model.ResourceOrders, model.ActionDelete)
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
	assert.ErrorIs(t, err, model.ErrForbidden)

	err = permissions.Authorize(context.Background(), user, model.ResourceDashboard, model.ActionDelete)
	assert.ErrorIs(t, err, model.ErrValidation)

	effective, err := permissions.EffectivePermissions(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, effective[model.ResourceOrders][model.ActionDelete])
	assert.True(t, effective[model.ResourceProducts][model.ActionCreate])
}

func TestRoleDeactivationRevokesAccess(t *testing.T) {
	permissions, _, users, _ := setupPermissions(t)
	role, err := permissions.CreateRole(context.Background(), service.RoleInput{
		Name: "Support",
		Permissions: model.Permissions{
			model.ResourceOrders: {model.ActionView: true},
		},
	})
	require.NoError(t, err)
	assert.True(t, role.IsActive)
	user := addUser(t, users, &role.ID)
	require.True(t, permissions.HasPermission(context.Background(), user, model.ResourceOrders, model.ActionView))

	inactive := false
	_, err = permissions.UpdateRole(context.Background(), role.ID, service.RoleInput{IsActive: &inactive})
	require.NoError(t, err)

	assert.False(t, permissions.HasPermission(context.Background(), user, model.ResourceOrders, model.ActionView))
}

func TestCreateRole(t *testing.T) {
	permissions, _, _, _ := setupPermissions(t)

	t.Run("Permissions are completed", func(t *testing.T) {
		role, err := permissions.CreateRole(context.Background(), service.RoleInput{
			Name:        "  Catalog  ",
			Permissions: model.Permissions{model.ResourceProducts: {model.ActionView: true}},
		})
		require.NoError(t, err)
		assert.Equal(t, "Catalog", role.Name)
		assert.False(t, role.IsSystem)
		assert.True(t, role.Permissions[model.ResourceProducts][model.ActionView])
		for _, resource := range model.Resources() {
			assert.Len(t, role.Permissions[resource], len(model.ActionsFor(resource)))
		}
	})

	t.Run("Name is required", func(t *testing.T) {
		_, err := permissions.CreateRole(context.Background(), service.RoleInput{Name: "  "})
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("Duplicate name", func(t *testing.T) {
		_, err := permissions.CreateRole(context.Background(), service.RoleInput{Name: "Catalog"})
		assert.ErrorIs(t, err, model.ErrDuplicateRoleName)
	})

	t.Run("Unknown permission keys", func(t *testing.T) {
		_, err := permissions.CreateRole(context.Background(), service.RoleInput{
			Name: "Weird",
			Permissions: model.Permissions{
				"spaceships":            {model.ActionView: true},
				model.ResourceDashboard: {model.ActionDelete: true},
			},
		})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.ElementsMatch(t, []string{"permissions.spaceships", "permissions.dashboard.delete"}, validationErr.Fields)
	})
}

func TestSystemRolesAreProtected(t *testing.T) {
	permissions, _, _, _ := setupPermissions(t)
	ensured, err := permissions.EnsureSystemRoles(context.Background())
	require.NoError(t, err)

	for _, role := range ensured {
		assert.True(t, role.IsSystem)

		_, err := permissions.UpdateRole(context.Background(), role.ID, service.RoleInput{Name: "Renamed"})
		assert.ErrorIs(t, err, model.ErrSystemRoleProtected)

		err = permissions.DeleteRole(context.Background(), role.ID)
		assert.ErrorIs(t, err, model.ErrSystemRoleProtected)
	}
}

func TestEnsureSystemRolesIsIdempotent(t *testing.T) {
	permissions, roles, _, _ := setupPermissions(t)

	first, err := permissions.EnsureSystemRoles(context.Background())
	require.NoError(t, err)
	second, err := permissions.EnsureSystemRoles(context.Background())
	require.NoError(t, err)

	all, err := roles.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestEnsureSystemRolesPromotesCustomRoleWithSameName(t *testing.T) {
	permissions, roles, _, _ := setupPermissions(t)
	custom, err := permissions.CreateRole(context.Background(), service.RoleInput{
		Name:        model.ModeratorRoleName,
		Permissions: model.FullPermissions(),
	})
	require.NoError(t, err)
	require.False(t, custom.IsSystem)

	ensured, err := permissions.EnsureSystemRoles(context.Background())
	require.NoError(t, err)

	var moderator model.Role
	for _, role := range ensured {
		if role.Name == model.ModeratorRoleName {
			moderator = role
		}
	}
	assert.Equal(t, custom.ID, moderator.ID)
	assert.True(t, moderator.IsSystem)
	assert.False(t, moderator.Permissions.Allows(model.ResourceOrders, model.ActionDelete))

	stored, err := roles.Find(context.Background(), custom.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSystem)

	_, err = permissions.UpdateRole(context.Background(), custom.ID, service.RoleInput{Name: "Renamed"})
	assert.ErrorIs(t, err, model.ErrSystemRoleProtected)
	assert.ErrorIs(t, permissions.DeleteRole(context.Background(), custom.ID), model.ErrSystemRoleProtected)
}

func TestDeleteRole(t *testing.T) {
	permissions, _, users, _ := setupPermissions(t)
	role, err := permissions.CreateRole(context.Background(), service.RoleInput{Name: "Temp"})
	require.NoError(t, err)
	user := addUser(t, users, &role.ID)

	err = permissions.DeleteRole(context.Background(), role.ID)
	assert.ErrorIs(t, err, model.ErrRoleInUse)

	require.NoError(t, permissions.UnassignRole(context.Background(), user.ID))
	require.NoError(t, permissions.DeleteRole(context.Background(), role.ID))

	_, err = permissions.GetRole(context.Background(), role.ID)
	assert.ErrorIs(t, err, model.ErrRoleNotFound)
}

func TestAssignRole(t *testing.T) {
	permissions, _, users, dispatcher := setupPermissions(t)
	role, err := permissions.CreateRole(context.Background(), service.RoleInput{Name: "Editor"})
	require.NoError(t, err)
	user := addUser(t, users, nil)

	require.NoError(t, permissions.AssignRole(context.Background(), user.ID, role.ID))
	stored, err := users.Find(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RoleID)
	assert.Equal(t, role.ID, *stored.RoleID)
	assert.Equal(t, []string{"RoleAssigned"}, dispatcher.types())

	t.Run("Unknown user", func(t *testing.T) {
		err := permissions.AssignRole(context.Background(), uuid.New(), role.ID)
		assert.ErrorIs(t, err, model.ErrUserNotFound)
	})

	t.Run("Unknown role", func(t *testing.T) {
		err := permissions.AssignRole(context.Background(), user.ID, uuid.New())
		assert.ErrorIs(t, err, model.ErrRoleNotFound)
	})

	t.Run("Inactive role", func(t *testing.T) {
		inactive := false
		disabled, err := permissions.CreateRole(context.Background(), service.RoleInput{Name: "Off", IsActive: &inactive})
		require.NoError(t, err)
		err = permissions.AssignRole(context.Background(), user.ID, disabled.ID)
		assert.ErrorIs(t, err, model.ErrInactiveRole)
	})
}
