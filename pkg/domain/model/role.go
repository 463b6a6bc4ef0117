package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRoleNotFound        = newError(ErrNotFound, "role not found")
	ErrDuplicateRoleName   = newError(ErrConflict, "role with this name already exists")
	ErrSystemRoleProtected = newError(ErrForbidden, "system roles cannot be modified")
	ErrRoleInUse           = newError(ErrConflict, "role is assigned to users")
	ErrInactiveRole        = newError(ErrValidation, "role is not active")
)

const (
	AdminRoleName     = "Admin"
	ModeratorRoleName = "Moderator"
)

type Resource string

const (
	ResourceProducts  Resource = "products"
	ResourceOrders    Resource = "orders"
	ResourceUsers     Resource = "users"
	ResourceEvents    Resource = "events"
	ResourceCoupons   Resource = "coupons"
	ResourceRoles     Resource = "roles"
	ResourceSettings  Resource = "settings"
	ResourceDashboard Resource = "dashboard"
	ResourceCustom    Resource = "custom"
)

type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var crudActions = []Action{ActionView, ActionCreate, ActionUpdate, ActionDelete}

var resources = []Resource{
	ResourceProducts,
	ResourceOrders,
	ResourceUsers,
	ResourceEvents,
	ResourceCoupons,
	ResourceRoles,
	ResourceSettings,
	ResourceDashboard,
	ResourceCustom,
}

// grantable is the closed resource × action table. Anything outside it is
// rejected when a role is created or updated.
var grantable = map[Resource][]Action{
	ResourceProducts:  crudActions,
	ResourceOrders:    crudActions,
	ResourceUsers:     crudActions,
	ResourceEvents:    crudActions,
	ResourceCoupons:   crudActions,
	ResourceRoles:     crudActions,
	ResourceSettings:  {ActionView, ActionUpdate},
	ResourceDashboard: {ActionView},
	ResourceCustom:    crudActions,
}

func Resources() []Resource {
	return append([]Resource(nil), resources...)
}

func ActionsFor(resource Resource) []Action {
	return append([]Action(nil), grantable[resource]...)
}

func IsGrantable(resource Resource, action Action) bool {
	for _, a := range grantable[resource] {
		if a == action {
			return true
		}
	}
	return false
}

// Permissions maps resource → action → granted.
type Permissions map[Resource]map[Action]bool

// Allows is nil-safe and fails closed on anything absent.
func (p Permissions) Allows(resource Resource, action Action) bool {
	return p[resource][action]
}

func (p Permissions) Validate() error {
	var invalid []string
	for resource, actions := range p {
		if _, ok := grantable[resource]; !ok {
			invalid = append(invalid, "permissions."+string(resource))
			continue
		}
		for action := range actions {
			if !IsGrantable(resource, action) {
				invalid = append(invalid, "permissions."+string(resource)+"."+string(action))
			}
		}
	}
	if len(invalid) > 0 {
		return NewValidationError("unknown permission", invalid...)
	}
	return nil
}

// Complete returns a copy with every grantable pair present, missing ones false.
func (p Permissions) Complete() Permissions {
	out := make(Permissions, len(grantable))
	for _, resource := range resources {
		actions := make(map[Action]bool, len(grantable[resource]))
		for _, action := range grantable[resource] {
			actions[action] = p.Allows(resource, action)
		}
		out[resource] = actions
	}
	return out
}

func FullPermissions() Permissions {
	p := make(Permissions, len(grantable))
	for resource, actions := range grantable {
		p[resource] = make(map[Action]bool, len(actions))
		for _, action := range actions {
			p[resource][action] = true
		}
	}
	return p
}

func ModeratorPermissions() Permissions {
	return Permissions{
		ResourceProducts:  {ActionView: true, ActionCreate: true, ActionUpdate: true},
		ResourceOrders:    {ActionView: true, ActionUpdate: true},
		ResourceUsers:     {ActionView: true},
		ResourceEvents:    {ActionView: true},
		ResourceCoupons:   {ActionView: true},
		ResourceDashboard: {ActionView: true},
	}.Complete()
}

type Role struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Permissions Permissions `json:"permissions"`
	IsActive    bool        `json:"isActive"`
	IsSystem    bool        `json:"isSystem"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// SystemRoles are the built-in roles ensured at startup.
func SystemRoles() []Role {
	return []Role{
		{
			Name:        AdminRoleName,
			Description: "Full access to every admin resource",
			Permissions: FullPermissions(),
			IsActive:    true,
			IsSystem:    true,
		},
		{
			Name:        ModeratorRoleName,
			Description: "Catalog and order operations without destructive actions",
			Permissions: ModeratorPermissions(),
			IsActive:    true,
			IsSystem:    true,
		},
	}
}

type RoleRepository interface {
	NextID() (uuid.UUID, error)
	Create(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	Find(ctx context.Context, id uuid.UUID) (*Role, error)
	FindByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]Role, error)
}
