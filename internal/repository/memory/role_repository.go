package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gocrm-io/gocrm-ce/internal/models"
	"github.com/gocrm-io/gocrm-ce/internal/repository"
)

// RoleRepository provides an in-memory implementation of
// repository.RoleRepository.
type RoleRepository struct {
	mu          sync.RWMutex
	roles       map[int64]*models.Role
	assignments map[int64]int // roleID -> assignment count
	nextID      int64
}

func NewRoleRepository() *RoleRepository {
	return &RoleRepository{
		roles:       make(map[int64]*models.Role),
		assignments: make(map[int64]int),
		nextID:      1,
	}
}

// SetAssignmentCount fixes the reported assignment count for a role.
func (r *RoleRepository) SetAssignmentCount(roleID int64, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments[roleID] = count
}

func (r *RoleRepository) List(_ context.Context) ([]models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (r *RoleRepository) GetByID(_ context.Context, id int64) (*models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (r *RoleRepository) GetByName(_ context.Context, name string) (*models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, role := range r.roles {
		if strings.EqualFold(role.Name, name) {
			cp := *role
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *RoleRepository) Create(_ context.Context, role *models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.roles {
		if strings.EqualFold(existing.Name, role.Name) {
			return repository.ErrDuplicate
		}
	}
	role.ID = r.nextID
	r.nextID++
	now := time.Now()
	role.CreateTime = now
	role.ChangeTime = now
	cp := *role
	r.roles[role.ID] = &cp
	return nil
}

func (r *RoleRepository) Update(_ context.Context, role *models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[role.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.roles {
		if id != role.ID && strings.EqualFold(existing.Name, role.Name) {
			return repository.ErrDuplicate
		}
	}
	role.ChangeTime = time.Now()
	cp := *role
	r.roles[role.ID] = &cp
	return nil
}

func (r *RoleRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.roles, id)
	delete(r.assignments, id)
	return nil
}

func (r *RoleRepository) AssignmentCount(_ context.Context, roleID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.assignments[roleID], nil
}

var _ repository.RoleRepository = (*RoleRepository)(nil)
