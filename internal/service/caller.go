package service

// Roles recognized by the portal. The identity service is the source of truth;
// these constants only name what its tokens carry.
const (
	RoleStudent     = "student"
	RoleAdvisor     = "advisor"
	RoleCoordinator = "coordinator"
)

// Caller identifies the authenticated requester for one request. It is built
// by the auth middleware and passed explicitly into every core operation;
// ownership checks never consult ambient state.
type Caller struct {
	UserID   uint
	Name     string
	Role     string
	GroupIDs []uint
}

// IsStudent reports whether the caller holds the student role.
func (c Caller) IsStudent() bool { return c.Role == RoleStudent }

// IsAdvisor reports whether the caller holds the advisor role.
func (c Caller) IsAdvisor() bool { return c.Role == RoleAdvisor }

// IsCoordinator reports whether the caller holds the coordinator role.
func (c Caller) IsCoordinator() bool { return c.Role == RoleCoordinator }

// InGroup reports whether the caller is a member of the given group.
func (c Caller) InGroup(groupID uint) bool {
	for _, id := range c.GroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}
