package domain

type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleSalesperson Role = "SALESPERSON"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSalesperson
}

func (r Role) CanCreate() bool {
	return r == RoleAdmin || r == RoleSalesperson
}

func (r Role) CanEdit() bool {
	return r == RoleAdmin || r == RoleSalesperson
}

func (r Role) CanDeliver() bool {
	return r == RoleAdmin
}

func (r Role) CanDelete() bool {
	return r == RoleAdmin
}

// Identity is the authenticated caller, attributed in audit entries.
type Identity struct {
	UserID uint
	Name   string
	Role   Role
}
