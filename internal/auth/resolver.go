package auth

import "github.com/gocrm-io/gocrm-ce/internal/models"

// Resolver merges an agent's role permissions, the code-level catalog
// defaults for each held role, and individual grants into a single
// permission set. It is pure: identical inputs always produce identical
// output, which is what makes permission drift between login and a later
// refresh detectable.
type Resolver struct {
	catalog *Catalog
}

func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve builds the merged permission set for one agent.
//
// Resolution is purely additive: the stored role JSON, the catalog entry
// keyed by each role's name, and every individual grant row are unioned
// in turn. A role name with no catalog entry contributes nothing from
// the catalog step. Zero roles and zero grants resolve to the seeded
// empty map, which is a valid terminal state.
func (r *Resolver) Resolve(roles []models.Role, grants []models.PermissionGrant) models.PermissionSet {
	resolved := make(models.PermissionSet, len(SeededModules))
	for _, module := range SeededModules {
		resolved[module] = []string{}
	}

	for _, role := range roles {
		resolved.Union(role.Permissions)
		if defaults, ok := r.catalog.RoleDefaults(role.Name); ok {
			resolved.Union(defaults)
		}
	}

	for _, grant := range grants {
		resolved.Add(grant.Module, grant.Permission)
	}

	return resolved
}
