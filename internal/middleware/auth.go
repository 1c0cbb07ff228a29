package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gocrm-io/gocrm-ce/internal/auth"
	"github.com/gocrm-io/gocrm-ce/internal/metrics"
	"github.com/gocrm-io/gocrm-ce/internal/models"
	"github.com/gocrm-io/gocrm-ce/internal/repository"
)

const principalKey = "principal"

// AuthMiddleware is the session verifier: it reconciles the two session
// mechanisms (agent token and legacy agent-session cookie) into one
// Principal so feature handlers never branch on session type.
type AuthMiddleware struct {
	tokens *auth.TokenManager
	agents repository.AgentRepository
	guard  *auth.Guard
}

func NewAuthMiddleware(tokens *auth.TokenManager, agents repository.AgentRepository) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		agents: agents,
		guard:  auth.NewGuard(),
	}
}

// VerifyOption configures per-route verification behavior.
type VerifyOption func(*verifyOptions)

type verifyOptions struct {
	statusCheck     bool
	sessionFallback bool
}

// WithStatusCheck re-fetches the agent row on every request and rejects
// non-active agents even when their credential is still valid.
// Stale-token defense for sensitive route groups. Applies to both the
// token path and the fallback session-cookie path.
func WithStatusCheck() VerifyOption {
	return func(o *verifyOptions) { o.statusCheck = true }
}

// WithoutSessionFallback restricts the route to the signed agent token.
// The client-readable agent-session cookie is unsigned, so privileged
// route groups must never accept it as the sole credential.
func WithoutSessionFallback() VerifyOption {
	return func(o *verifyOptions) { o.sessionFallback = false }
}

// RequireAgent authenticates the request and stores the Principal in the
// gin context. Resolution order: signed agent token (header, query,
// HTTP-only cookie), then the client-readable agent-session cookie.
func (m *AuthMiddleware) RequireAgent(opts ...VerifyOption) gin.HandlerFunc {
	options := &verifyOptions{sessionFallback: true}
	for _, opt := range opts {
		opt(options)
	}

	return func(c *gin.Context) {
		principal, err := m.verify(c, options)
		if err != nil {
			metrics.TokenVerifications.WithLabelValues(verifyResultLabel(err)).Inc()
			m.unauthorizedResponse(c, err)
			return
		}

		metrics.TokenVerifications.WithLabelValues("success").Inc()
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequirePermission runs the access guard for a (module, permission)
// pair. Must be chained after RequireAgent.
func (m *AuthMiddleware) RequirePermission(module, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := PrincipalFrom(c)
		if err := m.guard.Require(principal, module, permission); err != nil {
			switch {
			case errors.Is(err, auth.ErrUnauthenticated):
				metrics.GuardDenials.WithLabelValues("unauthenticated").Inc()
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authentication required"})
			case errors.Is(err, auth.ErrModuleDisabled):
				metrics.GuardDenials.WithLabelValues("module_disabled").Inc()
				c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Module is disabled"})
			default:
				metrics.GuardDenials.WithLabelValues("missing_permission").Inc()
				c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Insufficient permissions"})
			}
			c.Abort()
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the verified principal for the request, or nil
// when the request is unauthenticated.
func PrincipalFrom(c *gin.Context) *models.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	principal, ok := v.(*models.Principal)
	if !ok {
		return nil
	}
	return principal
}

func (m *AuthMiddleware) verify(c *gin.Context, options *verifyOptions) (*models.Principal, error) {
	token := m.extractToken(c)
	if token != "" {
		return m.verifyToken(c, token, options)
	}

	// Fallback session path: ordinary routes accept the client-readable
	// agent-session cookie directly. It is set by the issuer in the same
	// response as the HTTP-only cookie and is never the sole gate for
	// privileged admin actions; those routes opt out of this path
	// entirely via WithoutSessionFallback.
	if !options.sessionFallback {
		return nil, auth.ErrUnauthenticated
	}

	if cookie, err := c.Cookie(auth.CookieAgentSession); err == nil && cookie != "" {
		principal, err := decodeSessionCookie(cookie)
		if err != nil {
			return nil, err
		}
		if options.statusCheck {
			agent, err := m.agents.GetByID(c.Request.Context(), principal.ID)
			if err != nil || !agent.IsActive() {
				return nil, auth.ErrAgentNotActive
			}
		}
		return principal, nil
	}

	return nil, auth.ErrUnauthenticated
}

func (m *AuthMiddleware) verifyToken(c *gin.Context, token string, options *verifyOptions) (*models.Principal, error) {
	claims, err := m.tokens.ValidateToken(token)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}

	if claims.TokenType != auth.TokenTypeAgent {
		if claims.TokenType == auth.TokenTypeUser {
			// The generic admin-user login carries no permission map;
			// it is unrestricted by principal type.
			return &models.Principal{
				ID:          claims.AgentID,
				Type:        models.PrincipalTypeUser,
				Username:    claims.Username,
				Email:       claims.Email,
				Permissions: models.PermissionSet{},
			}, nil
		}
		return nil, auth.ErrWrongTokenType
	}

	if options.statusCheck {
		agent, err := m.agents.GetByID(c.Request.Context(), claims.AgentID)
		if err != nil || !agent.IsActive() {
			return nil, auth.ErrAgentNotActive
		}
	}

	permissions := claims.Permissions
	if permissions == nil {
		permissions = models.PermissionSet{}
	}

	return &models.Principal{
		ID:          claims.AgentID,
		Type:        models.PrincipalTypeAgent,
		Username:    claims.Username,
		Email:       claims.Email,
		Permissions: permissions,
	}, nil
}

// decodeSessionCookie parses the client-readable session cookie into a
// Principal. A cookie that is present but unparsable is treated exactly
// like a missing credential; the original cause is swallowed so internal
// state never leaks to the client.
func decodeSessionCookie(value string) (*models.Principal, error) {
	var summary models.AgentSummary
	if err := json.Unmarshal([]byte(value), &summary); err != nil {
		return nil, auth.ErrMalformedSession
	}
	if summary.ID == 0 {
		return nil, auth.ErrMalformedSession
	}

	permissions := summary.Permissions
	if permissions == nil {
		permissions = models.PermissionSet{}
	}

	return &models.Principal{
		ID:          summary.ID,
		Type:        models.PrincipalTypeAgent,
		Username:    summary.Username,
		Email:       summary.Email,
		Permissions: permissions,
	}, nil
}

func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	// Check Authorization header
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// Check query parameter (useful for WebSocket connections)
	if token := c.Query("token"); token != "" {
		return token
	}

	if cookie, err := c.Cookie(auth.CookieAgentToken); err == nil && cookie != "" {
		return cookie
	}

	return ""
}

func (m *AuthMiddleware) unauthorizedResponse(c *gin.Context, err error) {
	message := "Authentication required"
	switch {
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		message = "Invalid or expired token"
	case errors.Is(err, auth.ErrWrongTokenType):
		message = "Wrong credential type for this route"
	case errors.Is(err, auth.ErrAgentNotActive):
		message = "Account is not active"
	}

	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": message})
	c.Abort()
}

func verifyResultLabel(err error) string {
	switch {
	case errors.Is(err, auth.ErrAgentNotActive):
		return "agent_not_active"
	case errors.Is(err, auth.ErrWrongTokenType):
		return "wrong_token_type"
	case errors.Is(err, auth.ErrMalformedSession):
		return "malformed_session"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return "invalid_token"
	default:
		return "unauthenticated"
	}
}
