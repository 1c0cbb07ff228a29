package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Agent status values. Login is gated on StatusActive: a suspended or
// pending agent cannot authenticate even with a valid password.
const (
	AgentStatusActive    = "active"
	AgentStatusSuspended = "suspended"
	AgentStatusPending   = "pending"
)

// Agent represents a staff user of the CRM, as opposed to the generic
// admin-user login type.
type Agent struct {
	ID           int64      `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Password     string     `db:"password_hash" json:"-"`
	Email        string     `db:"email" json:"email"`
	FullName     string     `db:"full_name" json:"full_name"`
	PhoneNumber  string     `db:"phone_number" json:"phone_number"`
	Status       string     `db:"status" json:"status"`
	ProfileImage *string    `db:"profile_image" json:"profile_image,omitempty"`
	CompanyLogo  *string    `db:"company_logo" json:"company_logo,omitempty"`
	IMAPSettings *string    `db:"imap_settings" json:"imap_settings,omitempty"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreateTime   time.Time  `db:"create_time" json:"create_time"`
	ChangeTime   time.Time  `db:"change_time" json:"change_time"`
}

func (a *Agent) IsActive() bool {
	return a.Status == AgentStatusActive
}

func (a *Agent) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashedPassword)
	return nil
}

// AgentSummary is the user-facing shape returned by login and whoami.
type AgentSummary struct {
	ID          int64         `json:"id"`
	Username    string        `json:"username"`
	Email       string        `json:"email"`
	FullName    string        `json:"full_name"`
	Roles       []string      `json:"roles"`
	Permissions PermissionSet `json:"permissions"`
}
