package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gocrm-io/gocrm-ce/internal/models"
	"github.com/gocrm-io/gocrm-ce/internal/repository"
)

// AgentRepository provides an in-memory implementation of
// repository.AgentRepository for tests and database-free wiring.
type AgentRepository struct {
	mu     sync.RWMutex
	agents map[int64]*models.Agent
	roles  map[int64][]int64 // agentID -> roleIDs
	grants map[int64][]models.PermissionGrant
	store  *RoleRepository
}

// NewAgentRepository creates an in-memory agent repository. roles may be
// nil when role lookups are not needed.
func NewAgentRepository(roles *RoleRepository) *AgentRepository {
	return &AgentRepository{
		agents: make(map[int64]*models.Agent),
		roles:  make(map[int64][]int64),
		grants: make(map[int64][]models.PermissionGrant),
		store:  roles,
	}
}

// Put inserts or replaces an agent row.
func (r *AgentRepository) Put(agent *models.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *agent
	r.agents[agent.ID] = &cp
}

func (r *AgentRepository) GetByID(_ context.Context, id int64) (*models.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *agent
	return &cp, nil
}

func (r *AgentRepository) GetByUsername(_ context.Context, username string) (*models.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, agent := range r.agents {
		if agent.Username == username {
			cp := *agent
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AgentRepository) ListRoles(ctx context.Context, agentID int64) ([]models.Role, error) {
	r.mu.RLock()
	roleIDs := append([]int64(nil), r.roles[agentID]...)
	r.mu.RUnlock()

	var roles []models.Role
	for _, id := range roleIDs {
		if r.store == nil {
			continue
		}
		role, err := r.store.GetByID(ctx, id)
		if err != nil {
			continue
		}
		roles = append(roles, *role)
	}
	return roles, nil
}

func (r *AgentRepository) ListGrants(_ context.Context, agentID int64) ([]models.PermissionGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.PermissionGrant(nil), r.grants[agentID]...), nil
}

func (r *AgentRepository) ReplaceGrants(_ context.Context, agentID int64, grants []models.PermissionGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants[agentID] = append([]models.PermissionGrant(nil), grants...)
	return nil
}

func (r *AgentRepository) SetRoles(_ context.Context, agentID int64, roleIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[agentID] = append([]int64(nil), roleIDs...)
	return nil
}

func (r *AgentRepository) UpdateLastLogin(_ context.Context, agentID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if agent, ok := r.agents[agentID]; ok {
		t := at
		agent.LastLogin = &t
	}
	return nil
}

var _ repository.AgentRepository = (*AgentRepository)(nil)
