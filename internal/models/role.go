package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Role represents a named permission bundle assignable to agents.
// Permissions is stored as a JSONB column.
type Role struct {
	ID          int64         `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Description string        `db:"description" json:"description"`
	Permissions PermissionSet `db:"permissions" json:"permissions"`
	CreateTime  time.Time     `db:"create_time" json:"create_time"`
	ChangeTime  time.Time     `db:"change_time" json:"change_time"`
}

// Value implements driver.Valuer so PermissionSet round-trips through a
// JSONB column.
func (ps PermissionSet) Value() (driver.Value, error) {
	if ps == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(ps)
}

// Scan implements sql.Scanner for JSONB permission columns.
func (ps *PermissionSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*ps = PermissionSet{}
		return nil
	case []byte:
		return json.Unmarshal(v, ps)
	case string:
		return json.Unmarshal([]byte(v), ps)
	default:
		return fmt.Errorf("cannot scan %T into PermissionSet", src)
	}
}
