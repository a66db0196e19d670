package domain

// ApprovalQuorumPolicy decides whether an application has gathered enough
// approvals to finalize. The rule is deliberately "someone already inside
// vouches for you": a single approval from an existing active member of the
// capability meets quorum. This is intentional business policy, not a
// placeholder for an N-of-M vote; there is no configuration surface for a
// numeric threshold.
//
// The policy is stateless and pure, keeping the aggregate ignorant of
// capability membership.
type ApprovalQuorumPolicy struct{}

// IsQuorumMet reports whether at least one approval comes from an active
// member of the capability.
func (ApprovalQuorumPolicy) IsQuorumMet(activeMembers []string, approvals []Approval) bool {
	members := make(map[string]struct{}, len(activeMembers))
	for _, member := range activeMembers {
		members[member] = struct{}{}
	}

	for _, approval := range approvals {
		if _, ok := members[approval.ApprovedBy]; ok {
			return true
		}
	}

	return false
}
