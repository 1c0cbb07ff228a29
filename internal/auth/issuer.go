package auth

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gocrm-io/gocrm-ce/internal/models"
)

// Cookie names set on login. CookieAgentToken is the HTTP-only signed
// credential checked by server-side route guards. CookieAgentSession is
// a non-HTTP-only JSON user object read by client-side UI code to decide
// what to render. CookieSessionID is the legacy generic-session cookie
// consumed by older routes.
const (
	CookieAgentToken   = "agent_token"
	CookieAgentSession = "agent_session"
	CookieSessionID    = "session_id"
)

// Issuer writes the cooperating login cookies. All three share the same
// expiry and are set on the same response: a route must never observe
// the token cookie without the session cookie.
type Issuer struct {
	secure   bool
	domain   string
	lifetime time.Duration
}

func NewIssuer(secure bool, domain string, lifetime time.Duration) *Issuer {
	if lifetime <= 0 {
		lifetime = DefaultTokenDuration
	}
	return &Issuer{secure: secure, domain: domain, lifetime: lifetime}
}

// SetLoginCookies writes the signed token, the client-readable session
// object and the legacy session id to the response. sessionID may be
// empty when legacy session tracking is unavailable.
func (i *Issuer) SetLoginCookies(c *gin.Context, token string, summary *models.AgentSummary, sessionID string) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	maxAge := int(i.lifetime.Seconds())
	c.SetCookie(CookieAgentToken, token, maxAge, "/", i.domain, i.secure, true)
	c.SetCookie(CookieAgentSession, string(payload), maxAge, "/", i.domain, i.secure, false)
	if sessionID != "" {
		c.SetCookie(CookieSessionID, sessionID, maxAge, "/", i.domain, i.secure, true)
	}
	return nil
}

// ClearCookies expires every login cookie.
func (i *Issuer) ClearCookies(c *gin.Context) {
	c.SetCookie(CookieAgentToken, "", -1, "/", i.domain, i.secure, true)
	c.SetCookie(CookieAgentSession, "", -1, "/", i.domain, i.secure, false)
	c.SetCookie(CookieSessionID, "", -1, "/", i.domain, i.secure, true)
}
