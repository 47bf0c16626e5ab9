package defect

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleEngineer   Role = "engineer"
	RoleOperator   Role = "operator"
	RoleViewer     Role = "viewer"
)

// Capabilities is the set of mutations a role may perform. The zero
// value denies everything, which is what an unknown role resolves to.
type Capabilities struct {
	Raise  bool `yaml:"raise"`
	Edit   bool `yaml:"edit"`
	Close  bool `yaml:"close"`
	Reopen bool `yaml:"reopen"`
	Delete bool `yaml:"delete"`
}

// RoleTable maps a role string to its capabilities. Lookups never fail;
// a missing role simply has no capabilities.
type RoleTable map[Role]Capabilities

func DefaultRoleTable() RoleTable {
	return RoleTable{
		RoleAdmin:      {Raise: true, Edit: true, Close: true, Reopen: true, Delete: true},
		RoleSupervisor: {Raise: true, Edit: true, Close: true, Reopen: true},
		RoleEngineer:   {Raise: true, Edit: true, Close: true},
		RoleOperator:   {Raise: true},
		RoleViewer:     {},
	}
}

func (t RoleTable) CanRaise(role Role) bool  { return t[role].Raise }
func (t RoleTable) CanEdit(role Role) bool   { return t[role].Edit }
func (t RoleTable) CanClose(role Role) bool  { return t[role].Close }
func (t RoleTable) CanReopen(role Role) bool { return t[role].Reopen }
func (t RoleTable) CanDelete(role Role) bool { return t[role].Delete }
