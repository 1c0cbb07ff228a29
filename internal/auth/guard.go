package auth

import "github.com/gocrm-io/gocrm-ce/internal/models"

// Guard answers the binary allow/deny question for a (module,
// permission) pair. It does not rewrite queries or filter rows:
// "view only assigned" filtering stays in each feature handler, keyed by
// the principal's id.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// IsUnrestricted reports whether a principal bypasses module gates
// entirely: user-type principals (the generic admin login) and agents
// holding any admin-module permission.
func (g *Guard) IsUnrestricted(p *models.Principal) bool {
	if p == nil {
		return false
	}
	if p.Type == models.PrincipalTypeUser {
		return true
	}
	return len(p.Permissions[ModuleAdmin]) > 0
}

// Require checks that the principal may perform the given action.
// The module-level enable_disable permission acts as a kill switch: when
// absent the module is treated as disabled and the specific permission
// is never evaluated, so admins can hide a whole feature without
// auditing every sub-permission.
func (g *Guard) Require(p *models.Principal, module, permission string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if g.IsUnrestricted(p) {
		return nil
	}
	if !p.Permissions.Has(module, PermEnableDisable) {
		return ErrModuleDisabled
	}
	if permission != PermEnableDisable && !p.Permissions.Has(module, permission) {
		return ErrMissingPermission
	}
	return nil
}
