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

const userColumns = `user_id, name, email, password_hash, is_admin, role_id, created_at, updated_at`

type userRow struct {
	ID           uuid.UUID     `db:"user_id"`
	Name         string        `db:"name"`
	Email        string        `db:"email"`
	PasswordHash string        `db:"password_hash"`
	IsAdmin      bool          `db:"is_admin"`
	RoleID       uuid.NullUUID `db:"role_id"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

func (r userRow) toModel() model.User {
	user := model.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		IsAdmin:      r.IsAdmin,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.RoleID.Valid {
		roleID := r.RoleID.UUID
		user.RoleID = &roleID
	}
	return user
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func NewUserRepository(db *sqlx.DB) model.UserRepository {
	return &userRepository{db: db}
}

type userRepository struct {
	db *sqlx.DB
}

func (r *userRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.IsAdmin, nullUUID(user.RoleID),
		user.CreatedAt, user.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return model.ErrEmailTaken
	}
	return errors.Wrap(err, "insert user")
}

func (r *userRepository) Find(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.findBy(ctx, `user_id = ?`, id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findBy(ctx, `email = ?`, email)
}

func (r *userRepository) List(ctx context.Context, page model.Page) ([]model.User, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	var rows []userRow
	err = r.db.SelectContext(ctx, &rows,
		`SELECT `+userColumns+` FROM user ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list users")
	}
	users := make([]model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toModel())
	}
	return users, total, nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM user`)
	return count, errors.Wrap(err, "count users")
}

func (r *userRepository) CountByRole(ctx context.Context, roleID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM user WHERE role_id = ?`, roleID)
	return count, errors.Wrap(err, "count users by role")
}

func (r *userRepository) SetRole(ctx context.Context, userID uuid.UUID, roleID *uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE user SET role_id = ?, updated_at = ? WHERE user_id = ?`,
		nullUUID(roleID), time.Now().UTC(), userID,
	)
	if err != nil {
		return errors.Wrap(err, "set user role")
	}
	return expectAffected(result, func() error {
		_, err := r.Find(ctx, userID)
		return err
	})
}

func (r *userRepository) findBy(ctx context.Context, condition string, arg interface{}) (*model.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM user WHERE `+condition, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	user := row.toModel()
	return &user, nil
}

func NewSessionRepository(db *sqlx.DB) model.SessionRepository {
	return &sessionRepository{db: db}
}

type sessionRepository struct {
	db *sqlx.DB
}

type sessionRow struct {
	Token     string    `db:"token"`
	UserID    uuid.UUID `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		session.Token, session.UserID, session.CreatedAt, session.ExpiresAt,
	)
	return errors.Wrap(err, "insert session")
}

func (r *sessionRepository) Find(ctx context.Context, token string) (*model.Session, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row,
		`SELECT token, user_id, created_at, expires_at FROM session WHERE token = ?`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find session")
	}
	return &model.Session{
		Token:     row.Token,
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (r *sessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session WHERE token = ?`, token)
	return errors.Wrap(err, "delete session")
}
