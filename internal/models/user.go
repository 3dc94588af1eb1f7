package models

// UserRole mirrors the role field carried on every user record imported
// from the legacy portal.
type UserRole string

const (
	RoleStudent   UserRole = "student"
	RoleCSA       UserRole = "csa"
	RoleHOD       UserRole = "hod"
	RolePlacement UserRole = "po"
)

// NotifiableStaffRoles lists the roles eligible to receive compliance alerts.
var NotifiableStaffRoles = []UserRole{RoleCSA, RoleHOD}

// Subject is a tracked student evaluated for activity and submission
// compliance. LastActive is kept as the raw RFC3339 text the legacy store
// exported; absent means the student never logged in.
type Subject struct {
	ID         string   `db:"id" json:"id"`
	FullName   string   `db:"full_name" json:"full_name"`
	Email      string   `db:"email" json:"email"`
	Role       UserRole `db:"role" json:"role"`
	BatchID    string   `db:"batch_id" json:"batch_id"`
	LastActive *string  `db:"last_active" json:"last_active,omitempty"`
}

// Staff is a notification recipient candidate.
type Staff struct {
	ID       string   `db:"id" json:"id"`
	FullName string   `db:"full_name" json:"full_name"`
	Email    string   `db:"email" json:"email"`
	Role     UserRole `db:"role" json:"role"`
}
