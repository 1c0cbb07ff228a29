package auth

import (
	"strings"

	"github.com/gocrm-io/gocrm-ce/internal/models"
)

// Permission string literals shared across modules.
const (
	PermEnableDisable = "enable_disable"
	PermViewAll       = "view_all"
	PermViewAssigned  = "view_assigned"
	PermCreate        = "create"
	PermEdit          = "edit"
	PermDelete        = "delete"
	PermAssign        = "assign"
	PermExport        = "export"
	PermSend          = "send"
	PermCall          = "call"
	PermManageAgents  = "manage_agents"
	PermManageRoles   = "manage_roles"
	PermSettings      = "settings"
)

// Module names. ModuleWhatsApp, ModuleVoIP and ModuleAdmin are seeded
// into every resolved permission set so callers can index them without a
// presence check.
const (
	ModuleLeads    = "leads"
	ModuleContacts = "contacts"
	ModuleTickets  = "tickets"
	ModuleTasks    = "tasks"
	ModuleEmail    = "email"
	ModuleWhatsApp = "whatsapp"
	ModuleVoIP     = "voip"
	ModuleAdmin    = "admin"
)

// SeededModules are always present in a resolved permission set, even
// when empty.
var SeededModules = []string{ModuleWhatsApp, ModuleVoIP, ModuleAdmin}

// Catalog is the code-defined permission catalog: the default permission
// set shipped for each well-known role name, plus the enumeration of all
// valid (module, permission) pairs. It is built once and never mutated;
// role-name lookup is case-insensitive.
type Catalog struct {
	roleDefaults map[string]models.PermissionSet
	modulePerms  map[string][]string
}

// DefaultCatalog returns the catalog shipped with this release. Role
// rows in the store can lag behind newly shipped modules; these defaults
// act as a forward-compatible floor so legacy roles keep working without
// a data migration.
func DefaultCatalog() *Catalog {
	crud := []string{PermViewAll, PermCreate, PermEdit, PermDelete}
	return &Catalog{
		roleDefaults: map[string]models.PermissionSet{
			"super agent": {
				ModuleLeads:    append([]string{PermEnableDisable, PermAssign, PermExport}, crud...),
				ModuleContacts: append([]string{PermEnableDisable, PermExport}, crud...),
				ModuleTickets:  append([]string{PermEnableDisable, PermAssign}, crud...),
				ModuleTasks:    append([]string{PermEnableDisable, PermAssign}, crud...),
				ModuleEmail:    {PermEnableDisable, PermViewAll, PermSend},
				ModuleWhatsApp: {PermEnableDisable, PermViewAll, PermSend},
				ModuleVoIP:     {PermEnableDisable, PermViewAll, PermCall},
				ModuleAdmin:    {PermEnableDisable, PermManageAgents, PermManageRoles, PermSettings},
			},
			"senior": {
				ModuleLeads:    append([]string{PermEnableDisable, PermAssign}, crud...),
				ModuleContacts: append([]string{PermEnableDisable}, crud...),
				ModuleTickets:  append([]string{PermEnableDisable, PermAssign}, crud...),
				ModuleTasks:    {PermEnableDisable, PermViewAll, PermCreate, PermEdit},
				ModuleEmail:    {PermEnableDisable, PermViewAll, PermSend},
				ModuleWhatsApp: {PermEnableDisable, PermViewAll, PermSend},
				ModuleVoIP:     {PermEnableDisable, PermViewAll, PermCall},
			},
			"junior": {
				ModuleLeads:    {PermEnableDisable, PermViewAssigned, PermCreate, PermEdit},
				ModuleContacts: {PermEnableDisable, PermViewAssigned, PermCreate},
				ModuleTickets:  {PermEnableDisable, PermViewAssigned, PermCreate, PermEdit},
				ModuleTasks:    {PermEnableDisable, PermViewAssigned, PermCreate},
			},
			"support": {
				ModuleTickets:  {PermEnableDisable, PermViewAll, PermCreate, PermEdit},
				ModuleEmail:    {PermEnableDisable, PermViewAll, PermSend},
				ModuleWhatsApp: {PermEnableDisable, PermViewAll, PermSend},
			},
		},
		modulePerms: map[string][]string{
			ModuleLeads:    {PermEnableDisable, PermViewAll, PermViewAssigned, PermCreate, PermEdit, PermDelete, PermAssign, PermExport},
			ModuleContacts: {PermEnableDisable, PermViewAll, PermViewAssigned, PermCreate, PermEdit, PermDelete, PermExport},
			ModuleTickets:  {PermEnableDisable, PermViewAll, PermViewAssigned, PermCreate, PermEdit, PermDelete, PermAssign},
			ModuleTasks:    {PermEnableDisable, PermViewAll, PermViewAssigned, PermCreate, PermEdit, PermDelete, PermAssign},
			ModuleEmail:    {PermEnableDisable, PermViewAll, PermSend},
			ModuleWhatsApp: {PermEnableDisable, PermViewAll, PermSend},
			ModuleVoIP:     {PermEnableDisable, PermViewAll, PermCall},
			ModuleAdmin:    {PermEnableDisable, PermManageAgents, PermManageRoles, PermSettings},
		},
	}
}

// RoleDefaults returns the default permission set for a role name, or
// false when the catalog ships no entry for it. Lookup is
// case-insensitive. The returned set is a copy; callers may mutate it
// without affecting the catalog.
func (c *Catalog) RoleDefaults(roleName string) (models.PermissionSet, bool) {
	ps, ok := c.roleDefaults[strings.ToLower(strings.TrimSpace(roleName))]
	if !ok {
		return nil, false
	}
	return ps.Clone(), true
}

// Modules returns all module names known to the catalog.
func (c *Catalog) Modules() []string {
	out := make([]string, 0, len(c.modulePerms))
	for m := range c.modulePerms {
		out = append(out, m)
	}
	return out
}

// ModulePermissions returns the valid permission strings for a module.
func (c *Catalog) ModulePermissions(module string) []string {
	return c.modulePerms[module]
}

// IsValidPair reports whether (module, permission) is a known pair.
func (c *Catalog) IsValidPair(module, permission string) bool {
	for _, p := range c.modulePerms[module] {
		if p == permission {
			return true
		}
	}
	return false
}
