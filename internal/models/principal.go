package models

// Principal types. Agents carry a resolved permission map in their
// token; user-type principals (the legacy generic admin login) carry
// none and are resolved by a database lookup instead.
const (
	PrincipalTypeAgent = "agent"
	PrincipalTypeUser  = "user"
)

// Principal is the verified identity and permission context attached to
// an incoming request. It is built once per request by the session
// verifier and never mutated afterwards.
type Principal struct {
	ID          int64         `json:"id"`
	Type        string        `json:"type"`
	Username    string        `json:"username"`
	Email       string        `json:"email"`
	Permissions PermissionSet `json:"permissions"`
}
