package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gocrm-io/gocrm-ce/internal/models"
	"github.com/gocrm-io/gocrm-ce/internal/repository"
)

// handleAgentPermissionsGet returns an agent's individual grants, held
// roles and the resolved permission set.
func (a *API) handleAgentPermissionsGet(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	perms, err := a.perms.GetAgentPermissions(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Agent not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch permissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "permissions": perms})
}

// handleAgentPermissionsReplace replaces all individual grants for an
// agent in one call.
func (a *API) handleAgentPermissionsReplace(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input struct {
		Grants []models.PermissionGrant `json:"grants"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid input: " + err.Error()})
		return
	}

	if err := a.perms.ReplaceGrants(c.Request.Context(), id, input.Grants); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Agent not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Permissions updated successfully"})
}

// handleAgentRolesReplace replaces the agent's role assignments.
func (a *API) handleAgentRolesReplace(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input struct {
		RoleIDs []int64 `json:"role_ids"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid input: " + err.Error()})
		return
	}

	if err := a.perms.SetRoles(c.Request.Context(), id, input.RoleIDs); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Agent not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to update roles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Roles updated successfully"})
}
