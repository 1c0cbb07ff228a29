package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gocrm-io/gocrm-ce/internal/models"
)

// ErrDuplicate is returned when an insert or update violates a unique
// constraint. The service layer maps it onto the caller-facing conflict
// error.
var ErrDuplicate = errors.New("duplicate row")

// DBRoleRepository implements RoleRepository on PostgreSQL. Role names
// are unique case-insensitively (unique index on LOWER(name)).
type DBRoleRepository struct {
	db *sqlx.DB
}

func NewDBRoleRepository(db *sqlx.DB) *DBRoleRepository {
	return &DBRoleRepository{db: db}
}

func (r *DBRoleRepository) List(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.SelectContext(ctx, &roles, `
		SELECT id, name, description, permissions, create_time, change_time
		FROM roles
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (r *DBRoleRepository) GetByID(ctx context.Context, id int64) (*models.Role, error) {
	role := &models.Role{}
	err := r.db.GetContext(ctx, role, `
		SELECT id, name, description, permissions, create_time, change_time
		FROM roles
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return role, nil
}

func (r *DBRoleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	role := &models.Role{}
	err := r.db.GetContext(ctx, role, `
		SELECT id, name, description, permissions, create_time, change_time
		FROM roles
		WHERE LOWER(name) = LOWER($1)
	`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get role by name: %w", err)
	}
	return role, nil
}

func (r *DBRoleRepository) Create(ctx context.Context, role *models.Role) error {
	now := time.Now()
	role.CreateTime = now
	role.ChangeTime = now

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO roles (name, description, permissions, create_time, change_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, role.Name, role.Description, role.Permissions, role.CreateTime, role.ChangeTime).Scan(&role.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

func (r *DBRoleRepository) Update(ctx context.Context, role *models.Role) error {
	role.ChangeTime = time.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE roles
		SET name = $1, description = $2, permissions = $3, change_time = $4
		WHERE id = $5
	`, role.Name, role.Description, role.Permissions, role.ChangeTime, role.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DBRoleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DBRoleRepository) AssignmentCount(ctx context.Context, roleID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM agent_roles WHERE role_id = $1
	`, roleID)
	if err != nil {
		return 0, fmt.Errorf("failed to count role assignments: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

var _ RoleRepository = (*DBRoleRepository)(nil)
