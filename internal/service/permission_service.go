package service

import (
	"context"
	"fmt"

	"github.com/gocrm-io/gocrm-ce/internal/auth"
	"github.com/gocrm-io/gocrm-ce/internal/models"
	"github.com/gocrm-io/gocrm-ce/internal/repository"
)

// PermissionService exposes an agent's permission state to admins:
// individual grants, role-derived permissions and the merged set.
type PermissionService struct {
	agents   repository.AgentRepository
	resolver *auth.Resolver
	catalog  *auth.Catalog
}

func NewPermissionService(agents repository.AgentRepository, resolver *auth.Resolver, catalog *auth.Catalog) *PermissionService {
	return &PermissionService{agents: agents, resolver: resolver, catalog: catalog}
}

// AgentPermissions is the admin-facing view of one agent's permissions.
type AgentPermissions struct {
	AgentID  int64                    `json:"agent_id"`
	Roles    []models.Role            `json:"roles"`
	Grants   []models.PermissionGrant `json:"grants"`
	Resolved models.PermissionSet     `json:"resolved"`
}

// GetAgentPermissions returns the agent's grants, held roles and the
// resolved permission set.
func (s *PermissionService) GetAgentPermissions(ctx context.Context, agentID int64) (*AgentPermissions, error) {
	if _, err := s.agents.GetByID(ctx, agentID); err != nil {
		return nil, err
	}

	roles, err := s.agents.ListRoles(ctx, agentID)
	if err != nil {
		return nil, err
	}
	grants, err := s.agents.ListGrants(ctx, agentID)
	if err != nil {
		return nil, err
	}

	return &AgentPermissions{
		AgentID:  agentID,
		Roles:    roles,
		Grants:   grants,
		Resolved: s.resolver.Resolve(roles, grants),
	}, nil
}

// ReplaceGrants replaces all individual grants for an agent in one
// call. Unknown (module, permission) pairs are rejected before any row
// is touched.
func (s *PermissionService) ReplaceGrants(ctx context.Context, agentID int64, grants []models.PermissionGrant) error {
	if _, err := s.agents.GetByID(ctx, agentID); err != nil {
		return err
	}

	for _, g := range grants {
		if !s.catalog.IsValidPair(g.Module, g.Permission) {
			return fmt.Errorf("unknown permission %q for module %q", g.Permission, g.Module)
		}
	}

	normalized := make([]models.PermissionGrant, 0, len(grants))
	seen := make(map[string]bool, len(grants))
	for _, g := range grants {
		key := g.Module + ":" + g.Permission
		if seen[key] {
			continue
		}
		seen[key] = true
		normalized = append(normalized, models.PermissionGrant{
			AgentID:    agentID,
			Module:     g.Module,
			Permission: g.Permission,
		})
	}

	return s.agents.ReplaceGrants(ctx, agentID, normalized)
}

// SetRoles replaces the agent's role assignments wholesale.
func (s *PermissionService) SetRoles(ctx context.Context, agentID int64, roleIDs []int64) error {
	if _, err := s.agents.GetByID(ctx, agentID); err != nil {
		return err
	}
	return s.agents.SetRoles(ctx, agentID, roleIDs)
}
