package user

// Principal is the authenticated caller attached to a request after
// token introspection.
type Principal struct {
	UserID string
	Email  string
	Roles  []string
}

const RoleOperator = "league:operator"

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsOperator reports whether the caller may trigger administrative
// operations such as bulk assignment or forced calendar rebuilds.
func (p Principal) IsOperator() bool {
	return p.HasRole(RoleOperator)
}
