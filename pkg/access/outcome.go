package access

// Decision is the terminal outcome of a policy evaluation
type Decision int

const (
	// DecisionGranted means the subject passes the policy
	DecisionGranted Decision = iota
	// DecisionDeniedNotMember means the subject is not in the target guild
	DecisionDeniedNotMember
	// DecisionDeniedNoRole means the subject holds none of the required roles
	DecisionDeniedNoRole
	// DecisionUnauthorized means the bearer token itself is invalid or expired
	DecisionUnauthorized
	// DecisionTransientFailure means the gateway could not answer within the
	// retry budget; the caller may retry the whole request
	DecisionTransientFailure
)

func (d Decision) String() string {
	switch d {
	case DecisionGranted:
		return "granted"
	case DecisionDeniedNotMember:
		return "denied_not_member"
	case DecisionDeniedNoRole:
		return "denied_no_role"
	case DecisionUnauthorized:
		return "unauthorized"
	case DecisionTransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}

// Granted reports whether the decision allows access
func (d Decision) Granted() bool {
	return d == DecisionGranted
}

// Denied reports whether the decision is a definitive policy denial, as
// opposed to an authentication or availability problem
func (d Decision) Denied() bool {
	return d == DecisionDeniedNotMember || d == DecisionDeniedNoRole
}
