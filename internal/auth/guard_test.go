package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gocrm-io/gocrm-ce/internal/models"
)

func agentPrincipal(perms models.PermissionSet) *models.Principal {
	return &models.Principal{
		ID:          1,
		Type:        models.PrincipalTypeAgent,
		Username:    "jdoe",
		Permissions: perms,
	}
}

func TestGuardNilPrincipal(t *testing.T) {
	guard := NewGuard()

	err := guard.Require(nil, ModuleLeads, PermViewAll)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGuardModuleGatePrecedence(t *testing.T) {
	guard := NewGuard()

	// view_all present but enable_disable missing: the module gate wins
	// and the specific permission is never consulted.
	p := agentPrincipal(models.PermissionSet{
		ModuleLeads: {PermViewAll},
	})

	err := guard.Require(p, ModuleLeads, PermViewAll)
	assert.ErrorIs(t, err, ErrModuleDisabled)
}

func TestGuardMissingPermission(t *testing.T) {
	guard := NewGuard()

	p := agentPrincipal(models.PermissionSet{
		ModuleLeads: {PermEnableDisable, PermViewAssigned},
	})

	err := guard.Require(p, ModuleLeads, PermDelete)
	assert.ErrorIs(t, err, ErrMissingPermission)
}

func TestGuardAllows(t *testing.T) {
	guard := NewGuard()

	p := agentPrincipal(models.PermissionSet{
		ModuleTickets: {PermEnableDisable, PermViewAll, PermEdit},
	})

	assert.NoError(t, guard.Require(p, ModuleTickets, PermEdit))
	// Asking for enable_disable itself only needs the module gate.
	assert.NoError(t, guard.Require(p, ModuleTickets, PermEnableDisable))
}

func TestGuardUnknownModule(t *testing.T) {
	guard := NewGuard()

	p := agentPrincipal(models.PermissionSet{
		ModuleLeads: {PermEnableDisable, PermViewAll},
	})

	err := guard.Require(p, ModuleVoIP, PermCall)
	assert.ErrorIs(t, err, ErrModuleDisabled)
}

func TestGuardUnrestrictedUserType(t *testing.T) {
	guard := NewGuard()

	p := &models.Principal{
		ID:          99,
		Type:        models.PrincipalTypeUser,
		Username:    "admin",
		Permissions: models.PermissionSet{},
	}

	assert.True(t, guard.IsUnrestricted(p))
	assert.NoError(t, guard.Require(p, ModuleVoIP, PermCall))
	assert.NoError(t, guard.Require(p, ModuleAdmin, PermManageRoles))
}

func TestGuardUnrestrictedAdminAgent(t *testing.T) {
	guard := NewGuard()

	p := agentPrincipal(models.PermissionSet{
		ModuleAdmin: {PermEnableDisable, PermSettings},
	})

	assert.True(t, guard.IsUnrestricted(p))
	// Admin agents bypass gates for every module.
	assert.NoError(t, guard.Require(p, ModuleWhatsApp, PermSend))
}

func TestGuardEmptyAdminSliceNotUnrestricted(t *testing.T) {
	guard := NewGuard()

	// The resolver seeds admin as an empty slice; presence of the key
	// alone must not grant anything.
	p := agentPrincipal(models.PermissionSet{
		ModuleAdmin: {},
		ModuleLeads: {PermEnableDisable, PermViewAll},
	})

	assert.False(t, guard.IsUnrestricted(p))
	assert.ErrorIs(t, guard.Require(p, ModuleTickets, PermViewAll), ErrModuleDisabled)
}
