// Package auth implements the session token service and the access policy
// evaluator: every authenticated request flows through Verify, and every
// protected action through AuthorizeRole and, for row-scoped resources, the
// relationship predicates.
package auth

// Role is the closed set of principal kinds known to the system.
// Branching on Role should handle every constant below; there is no
// open-ended role registry.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

// AllRoles lists every valid Role.
var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleParent}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// RoleInfo is the API-facing description of a Role.
type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

// Roles is the catalog served to admin UIs.
var Roles = []RoleInfo{
	{Name: "Student", Value: RoleStudent},
	{Name: "Teacher", Value: RoleTeacher},
	{Name: "Parent", Value: RoleParent},
	{Name: "Admin", Value: RoleAdmin},
}

// Capability is an optional flag granted to a principal on top of their Role,
// eg. access to the debug impersonation panel.
type Capability string

const (
	CapImpersonate Capability = "impersonate"
)
