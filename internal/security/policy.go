package security

// AccessPolicy gates privileged actions by role membership.
type AccessPolicy struct {
	allowed map[string]struct{}
}

// NewAccessPolicy creates an AccessPolicy allowing members holding any of the given roles.
// With no roles configured the policy is open and authorizes everyone.
func NewAccessPolicy(roleIDs []string) *AccessPolicy {
	allowed := make(map[string]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		if id == "" {
			continue
		}
		allowed[id] = struct{}{}
	}
	return &AccessPolicy{allowed: allowed}
}

// Open reports whether the policy has no role restriction.
func (p *AccessPolicy) Open() bool {
	return len(p.allowed) == 0
}

// IsAuthorized reports whether a member with the given roles may proceed.
func (p *AccessPolicy) IsAuthorized(memberRoleIDs []string) bool {
	if p.Open() {
		return true
	}

	for _, id := range memberRoleIDs {
		if _, ok := p.allowed[id]; ok {
			return true
		}
	}
	return false
}
