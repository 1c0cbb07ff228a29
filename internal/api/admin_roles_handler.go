package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gocrm-io/gocrm-ce/internal/auth"
	"github.com/gocrm-io/gocrm-ce/internal/models"
	"github.com/gocrm-io/gocrm-ce/internal/repository"
)

// handleRolesList returns all roles.
func (a *API) handleRolesList(c *gin.Context) {
	roles, err := a.roles.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch roles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "roles": roles})
}

// handleRoleCreate creates a new role.
func (a *API) handleRoleCreate(c *gin.Context) {
	var input struct {
		Name        string               `json:"name" binding:"required"`
		Description string               `json:"description"`
		Permissions models.PermissionSet `json:"permissions"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid input: " + err.Error()})
		return
	}

	role := &models.Role{
		Name:        input.Name,
		Description: input.Description,
		Permissions: input.Permissions,
	}

	if err := a.roles.Create(c.Request.Context(), role); err != nil {
		if errors.Is(err, auth.ErrDuplicateRoleName) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Role with this name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create role"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "role": role})
}

// handleRoleGet retrieves a single role by ID.
func (a *API) handleRoleGet(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	role, err := a.roles.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Role not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch role"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "role": role})
}

// handleRoleUpdate updates an existing role.
func (a *API) handleRoleUpdate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input struct {
		Name        string               `json:"name"`
		Description string               `json:"description"`
		Permissions models.PermissionSet `json:"permissions"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid input: " + err.Error()})
		return
	}

	role, err := a.roles.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Role not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch role"})
		return
	}

	if input.Name != "" {
		role.Name = input.Name
	}
	role.Description = input.Description
	if input.Permissions != nil {
		role.Permissions = input.Permissions
	}

	if err := a.roles.Update(c.Request.Context(), role); err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateRoleName):
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Role with this name already exists"})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Role not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to update role"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "role": role})
}

// handleRoleDelete deletes a role. The delete is rejected while any
// agent still holds the role.
func (a *API) handleRoleDelete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := a.roles.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, auth.ErrRoleInUse):
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Role is assigned to one or more agents"})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Role not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to delete role"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Role deleted successfully"})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid ID"})
		return 0, false
	}
	return id, true
}
