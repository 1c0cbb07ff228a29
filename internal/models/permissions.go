package models

import "sort"

// PermissionSet maps a module name to the permission strings granted for
// it. On the wire this is a JSON object keyed by module name, valued by
// an array of permission literals. Slices are kept sorted and free of
// duplicates so that identical inputs always serialize identically.
type PermissionSet map[string][]string

// Has reports whether the set grants permission for a module.
func (ps PermissionSet) Has(module, permission string) bool {
	for _, p := range ps[module] {
		if p == permission {
			return true
		}
	}
	return false
}

// Add inserts a permission into a module's set, creating the module
// entry if absent and keeping the slice sorted and deduplicated.
func (ps PermissionSet) Add(module, permission string) {
	perms := ps[module]
	i := sort.SearchStrings(perms, permission)
	if i < len(perms) && perms[i] == permission {
		return
	}
	perms = append(perms, "")
	copy(perms[i+1:], perms[i:])
	perms[i] = permission
	ps[module] = perms
}

// Union merges every permission from other into the set.
func (ps PermissionSet) Union(other PermissionSet) {
	for module, perms := range other {
		for _, p := range perms {
			ps.Add(module, p)
		}
	}
}

// Clone returns a deep copy of the set.
func (ps PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(ps))
	for module, perms := range ps {
		cp := make([]string, len(perms))
		copy(cp, perms)
		out[module] = cp
	}
	return out
}

// PermissionGrant is an individual (agent, module, permission) override,
// always additive relative to role-derived permissions.
type PermissionGrant struct {
	AgentID    int64  `db:"agent_id" json:"agent_id"`
	Module     string `db:"module" json:"module"`
	Permission string `db:"permission" json:"permission"`
}
