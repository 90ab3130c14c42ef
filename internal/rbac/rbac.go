package rbac

type Role string
type Action string

const (
	RoleViewer Role = "viewer"
	RoleTech   Role = "tech"
	RoleLead   Role = "lead"
	RoleAdmin  Role = "admin"
)

const (
	ActionRead   Action = "read"
	ActionAppend Action = "append"
	ActionEdit   Action = "edit"
	ActionExport Action = "export"
	ActionAdmin  Action = "admin"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleLead:
		return action == ActionRead || action == ActionAppend || action == ActionEdit || action == ActionExport
	case RoleTech:
		return action == ActionRead || action == ActionAppend
	case RoleViewer:
		return action == ActionRead
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleViewer, RoleTech, RoleLead, RoleAdmin:
		return Role(role)
	default:
		return RoleViewer
	}
}
