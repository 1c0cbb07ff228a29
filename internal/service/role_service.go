package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocrm-io/gocrm-ce/internal/auth"
	"github.com/gocrm-io/gocrm-ce/internal/models"
	"github.com/gocrm-io/gocrm-ce/internal/repository"
)

// RoleService handles business logic for role management.
type RoleService struct {
	roles repository.RoleRepository
}

func NewRoleService(roles repository.RoleRepository) *RoleService {
	return &RoleService{roles: roles}
}

func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	return s.roles.List(ctx)
}

func (s *RoleService) Get(ctx context.Context, id int64) (*models.Role, error) {
	return s.roles.GetByID(ctx, id)
}

// Create adds a new role. Names are unique case-insensitively; a
// conflict is reported as ErrDuplicateRoleName.
func (s *RoleService) Create(ctx context.Context, role *models.Role) error {
	if role.Permissions == nil {
		role.Permissions = models.PermissionSet{}
	}

	// Pre-check for a friendlier error; the unique index still catches
	// concurrent creates.
	if _, err := s.roles.GetByName(ctx, role.Name); err == nil {
		return auth.ErrDuplicateRoleName
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if err := s.roles.Create(ctx, role); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return auth.ErrDuplicateRoleName
		}
		return err
	}
	return nil
}

func (s *RoleService) Update(ctx context.Context, role *models.Role) error {
	if role.Permissions == nil {
		role.Permissions = models.PermissionSet{}
	}
	if err := s.roles.Update(ctx, role); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return auth.ErrDuplicateRoleName
		}
		return err
	}
	return nil
}

// Delete removes a role, rejecting the delete with ErrRoleInUse while
// any agent still holds it.
func (s *RoleService) Delete(ctx context.Context, id int64) error {
	count, err := s.roles.AssignmentCount(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check role assignments: %w", err)
	}
	if count > 0 {
		return auth.ErrRoleInUse
	}
	return s.roles.Delete(ctx, id)
}
