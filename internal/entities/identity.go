package entities

type Role string

const (
	RoleCandidate  Role = "candidate"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

type Identity struct {
	UserID string
	Role   Role
	Token  string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin || i.Role == RoleSuperAdmin
}
