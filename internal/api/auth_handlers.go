package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gocrm-io/gocrm-ce/internal/auth"
	"github.com/gocrm-io/gocrm-ce/internal/metrics"
	"github.com/gocrm-io/gocrm-ce/internal/middleware"
	"github.com/gocrm-io/gocrm-ce/internal/models"
)

// handleLogin authenticates an agent and writes the cooperating login
// cookies: the signed HTTP-only token, the client-readable session
// object and the legacy session id, all in the same response.
func (a *API) handleLogin(c *gin.Context) {
	username, password := extractCredentials(c)
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "username and password required"})
		return
	}

	ip := c.ClientIP()
	if blocked, retryAfter := a.limiter.IsBlocked(ip, username); blocked {
		metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
		c.Header("Retry-After", retryAfter.Round(time.Second).String())
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "too many failed attempts"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	result, err := a.auth.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			a.limiter.RecordFailure(ip, username)
			metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid credentials"})
			return
		}
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "login failed"})
		return
	}

	a.limiter.RecordSuccess(ip, username)

	// Legacy session tracking is non-critical; login proceeds without it.
	sessionID := ""
	if a.sessions != nil {
		sessionID, err = a.sessions.CreateSession(ctx, result.Agent.ID, username, ip, c.Request.UserAgent())
		if err != nil {
			log.Printf("Failed to create session record: %v", err)
			sessionID = ""
		}
	}

	summary := auth.Summary(result.Agent, result.Roles, result.Permissions)
	if err := a.issuer.SetLoginCookies(c, result.Token, summary, sessionID); err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "login failed"})
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       summary,
	})
}

// handleLogout kills the legacy session record and clears every login
// cookie.
func (a *API) handleLogout(c *gin.Context) {
	if sessionID, err := c.Cookie(auth.CookieSessionID); err == nil && sessionID != "" && a.sessions != nil {
		if err := a.sessions.KillSession(c.Request.Context(), sessionID); err != nil {
			log.Printf("Failed to delete session record: %v", err)
		}
	}

	a.issuer.ClearCookies(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleRefresh re-resolves the agent's current roles and grants and
// reissues a fresh token plus cookies. This is the only way a live
// session picks up a permission change.
func (a *API) handleRefresh(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)
	if principal == nil || principal.Type != models.PrincipalTypeAgent {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "agent session required"})
		return
	}

	result, err := a.auth.Refresh(c.Request.Context(), principal.ID)
	if err != nil {
		if errors.Is(err, auth.ErrAgentNotActive) || errors.Is(err, auth.ErrUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "session no longer valid"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "refresh failed"})
		return
	}

	sessionID, _ := c.Cookie(auth.CookieSessionID)
	summary := auth.Summary(result.Agent, result.Roles, result.Permissions)
	if err := a.issuer.SetLoginCookies(c, result.Token, summary, sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "refresh failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       summary,
	})
}

// handleWhoami returns the verified principal so clients can rehydrate
// UI permission state on page load.
func (a *API) handleWhoami(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authentication required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "principal": principal})
}

// extractCredentials accepts both JSON and form bodies, with the same
// permissive field fallbacks the login form has always used.
func extractCredentials(c *gin.Context) (username, password string) {
	contentType := c.GetHeader("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var payload struct {
			Login    string `json:"login"`
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&payload); err == nil {
			username = payload.Username
			if username == "" {
				username = payload.Login
			}
			if username == "" {
				username = payload.Email
			}
			password = payload.Password
		}
		return username, password
	}

	username = c.PostForm("username")
	if username == "" {
		username = c.PostForm("login")
	}
	if username == "" {
		username = c.PostForm("email")
	}
	password = c.PostForm("password")
	return username, password
}
