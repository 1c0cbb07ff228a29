package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gocrm-io/gocrm-ce/internal/auth"
	"github.com/gocrm-io/gocrm-ce/internal/middleware"
	"github.com/gocrm-io/gocrm-ce/internal/service"
)

// API bundles the handlers' dependencies.
type API struct {
	auth     *auth.Service
	issuer   *auth.Issuer
	limiter  *auth.LoginRateLimiter
	sessions *service.SessionService
	roles    *service.RoleService
	perms    *service.PermissionService
	mw       *middleware.AuthMiddleware
}

// Deps carries everything NewRouter needs.
type Deps struct {
	Auth     *auth.Service
	Issuer   *auth.Issuer
	Limiter  *auth.LoginRateLimiter
	Sessions *service.SessionService
	Roles    *service.RoleService
	Perms    *service.PermissionService
	AuthMW   *middleware.AuthMiddleware
}

// NewRouter assembles the gin engine with all routes.
func NewRouter(deps Deps) *gin.Engine {
	a := &API{
		auth:     deps.Auth,
		issuer:   deps.Issuer,
		limiter:  deps.Limiter,
		sessions: deps.Sessions,
		roles:    deps.Roles,
		perms:    deps.Perms,
		mw:       deps.AuthMW,
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", a.handleLogin)
		authGroup.POST("/logout", a.handleLogout)
		authGroup.POST("/refresh", a.mw.RequireAgent(middleware.WithStatusCheck(), middleware.WithoutSessionFallback()), a.handleRefresh)
		authGroup.GET("/whoami", a.mw.RequireAgent(), a.handleWhoami)
	}

	// Admin routes require the signed token and re-check agent status on
	// every request: the unsigned session cookie is never accepted here,
	// and a suspended agent's still-valid token must not reach them.
	admin := r.Group("/api/admin", a.mw.RequireAgent(middleware.WithStatusCheck(), middleware.WithoutSessionFallback()))
	{
		roles := admin.Group("/roles", a.mw.RequirePermission(auth.ModuleAdmin, auth.PermManageRoles))
		{
			roles.GET("", a.handleRolesList)
			roles.POST("", a.handleRoleCreate)
			roles.GET("/:id", a.handleRoleGet)
			roles.PUT("/:id", a.handleRoleUpdate)
			roles.DELETE("/:id", a.handleRoleDelete)
		}

		agents := admin.Group("/agents", a.mw.RequirePermission(auth.ModuleAdmin, auth.PermManageAgents))
		{
			agents.GET("/:id/permissions", a.handleAgentPermissionsGet)
			agents.PUT("/:id/permissions", a.handleAgentPermissionsReplace)
			agents.PUT("/:id/roles", a.handleAgentRolesReplace)
		}
	}

	return r
}
