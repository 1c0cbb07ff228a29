package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gocrm-io/gocrm-ce/internal/models"
	"github.com/gocrm-io/gocrm-ce/internal/repository"
)

// Service implements login, refresh and introspection against the agent
// store. It owns the full issuance pipeline: credential check, status
// gate, permission resolution and token minting.
type Service struct {
	agents   repository.AgentRepository
	tokens   *TokenManager
	resolver *Resolver
	hasher   *PasswordHasher
}

func NewService(agents repository.AgentRepository, tokens *TokenManager, resolver *Resolver) *Service {
	return &Service{
		agents:   agents,
		tokens:   tokens,
		resolver: resolver,
		hasher:   NewPasswordHasher(),
	}
}

// LoginResult carries everything the login handler needs to write the
// response: the agent row, held roles, the resolved permission set and
// the signed token.
type LoginResult struct {
	Agent       *models.Agent
	Roles       []models.Role
	Permissions models.PermissionSet
	Token       string
	ExpiresAt   time.Time
}

// Login authenticates username/password and issues a fresh credential.
// Unknown username, wrong password and a non-active account all return
// ErrInvalidCredentials so the endpoint cannot be used for enumeration.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	agent, err := s.agents.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !agent.IsActive() {
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.VerifyPassword(password, agent.Password) {
		return nil, ErrInvalidCredentials
	}

	result, err := s.issue(ctx, agent)
	if err != nil {
		return nil, err
	}

	if err := s.agents.UpdateLastLogin(ctx, agent.ID, time.Now()); err != nil {
		// Login tracking is non-critical.
		log.Printf("Failed to update last login for agent %d: %v", agent.ID, err)
	}

	return result, nil
}

// Refresh re-runs resolution against the agent's current role and grant
// rows and reissues a fresh token. This is the only way a live session
// picks up a permission change; already-issued tokens keep their stale
// set for the remainder of their 24-hour lifetime.
func (s *Service) Refresh(ctx context.Context, agentID int64) (*LoginResult, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	if !agent.IsActive() {
		return nil, ErrAgentNotActive
	}

	return s.issue(ctx, agent)
}

// ResolveFor returns the agent's current roles, grants and merged
// permission set without minting a token.
func (s *Service) ResolveFor(ctx context.Context, agentID int64) ([]models.Role, []models.PermissionGrant, models.PermissionSet, error) {
	return s.resolveRows(ctx, agentID)
}

func (s *Service) issue(ctx context.Context, agent *models.Agent) (*LoginResult, error) {
	roles, _, resolved, err := s.resolveRows(ctx, agent.ID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateAgentToken(agent, resolved)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Agent:       agent,
		Roles:       roles,
		Permissions: resolved,
		Token:       token,
		ExpiresAt:   time.Now().Add(s.tokens.TokenDuration()),
	}, nil
}

func (s *Service) resolveRows(ctx context.Context, agentID int64) ([]models.Role, []models.PermissionGrant, models.PermissionSet, error) {
	roles, err := s.agents.ListRoles(ctx, agentID)
	if err != nil {
		return nil, nil, nil, err
	}
	grants, err := s.agents.ListGrants(ctx, agentID)
	if err != nil {
		return nil, nil, nil, err
	}
	return roles, grants, s.resolver.Resolve(roles, grants), nil
}

// Summary builds the user-facing login/whoami object.
func Summary(agent *models.Agent, roles []models.Role, permissions models.PermissionSet) *models.AgentSummary {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return &models.AgentSummary{
		ID:          agent.ID,
		Username:    agent.Username,
		Email:       agent.Email,
		FullName:    agent.FullName,
		Roles:       names,
		Permissions: permissions,
	}
}
