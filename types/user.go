package types

import (
	"encoding/json"
	"strings"
	"time"
)

// User represents a faculty or office account in the system.
// Users are seeded once from a fixed bootstrap list and never modified.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"id" db:"id"`

	// Email is the user's email address and login name.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Role indicates the user's position within the quality-assurance
	// workflow. Role checks are advisory only.
	Role Role `json:"role" db:"role"`

	// Department is the academic department the user belongs to, if any.
	Department string `json:"department,omitempty" db:"department"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RecordID returns the user's identifier.
func (u User) RecordID() string { return u.ID }

// Role is the user's position within the quality-assurance office workflow.
type Role string

// Supported roles.
const (
	// RoleQAOffice is the quality-assurance office with full access.
	RoleQAOffice Role = "qa-office"

	// RoleDepartmentHead can assign and edit tasks within a department.
	RoleDepartmentHead Role = "department-head"

	// RoleStaff can view and update tasks assigned to them.
	RoleStaff Role = "staff"
)

// ParseRole normalizes a role name, accepting the legacy short names
// stored by earlier versions of the dashboard.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "qa-office", "qa_office", "iqac", "admin":
		return RoleQAOffice, true
	case "department-head", "department_head", "hod":
		return RoleDepartmentHead, true
	case "staff", "faculty":
		return RoleStaff, true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	switch r {
	case RoleQAOffice, RoleDepartmentHead, RoleStaff:
		return true
	default:
		return false
	}
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if parsed, ok := ParseRole(raw); ok {
		*r = parsed
		return nil
	}
	*r = Role(raw)
	return nil
}
