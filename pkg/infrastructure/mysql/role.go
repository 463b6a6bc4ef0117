package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"ecommerce/pkg/domain/model"
)

const roleColumns = `role_id, name, description, permissions, is_active, is_system, created_at, updated_at`

type roleRow struct {
	ID          uuid.UUID                     `db:"role_id"`
	Name        string                        `db:"name"`
	Description string                        `db:"description"`
	Permissions jsonColumn[model.Permissions] `db:"permissions"`
	IsActive    bool                          `db:"is_active"`
	IsSystem    bool                          `db:"is_system"`
	CreatedAt   time.Time                     `db:"created_at"`
	UpdatedAt   time.Time                     `db:"updated_at"`
}

func (r roleRow) toModel() model.Role {
	return model.Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: r.Permissions.V,
		IsActive:    r.IsActive,
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func NewRoleRepository(db *sqlx.DB) model.RoleRepository {
	return &roleRepository{db: db}
}

type roleRepository struct {
	db *sqlx.DB
}

func (r *roleRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO role (`+roleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		role.ID, role.Name, role.Description, jsonColumn[model.Permissions]{V: role.Permissions},
		role.IsActive, role.IsSystem, role.CreatedAt, role.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return model.ErrDuplicateRoleName
	}
	return errors.Wrap(err, "insert role")
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE role SET name = ?, description = ?, permissions = ?, is_active = ?, is_system = ?, updated_at = ? WHERE role_id = ?`,
		role.Name, role.Description, jsonColumn[model.Permissions]{V: role.Permissions},
		role.IsActive, role.IsSystem, role.UpdatedAt, role.ID,
	)
	if isDuplicateEntry(err) {
		return model.ErrDuplicateRoleName
	}
	if err != nil {
		return errors.Wrap(err, "update role")
	}
	return expectAffected(result, func() error {
		_, err := r.Find(ctx, role.ID)
		return err
	})
}

func (r *roleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM role WHERE role_id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete role")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return model.ErrRoleNotFound
	}
	return nil
}

func (r *roleRepository) Find(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	return r.findBy(ctx, `role_id = ?`, id)
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	return r.findBy(ctx, `name = ?`, name)
}

func (r *roleRepository) List(ctx context.Context) ([]model.Role, error) {
	var rows []roleRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+roleColumns+` FROM role ORDER BY is_system DESC, name`); err != nil {
		return nil, errors.Wrap(err, "list roles")
	}
	roles := make([]model.Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, row.toModel())
	}
	return roles, nil
}

func (r *roleRepository) findBy(ctx context.Context, condition string, arg interface{}) (*model.Role, error) {
	var row roleRow
	err := r.db.GetContext(ctx, &row, `SELECT `+roleColumns+` FROM role WHERE `+condition, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRoleNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find role")
	}
	role := row.toModel()
	return &role, nil
}

// expectAffected tells "nothing changed" apart from "row is missing" for
// MySQL, which reports zero affected rows when an UPDATE writes equal values.
func expectAffected(result sql.Result, exists func() error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected > 0 {
		return nil
	}
	return exists()
}
