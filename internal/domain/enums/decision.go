package enums

// Decision is only meaningful once the owning record reaches StatusDone.
type Decision string

const (
	DecisionUnset    Decision = ""
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

func ParseDecision(value string) (Decision, bool) {
	switch Decision(value) {
	case DecisionApproved:
		return DecisionApproved, true
	case DecisionRejected:
		return DecisionRejected, true
	default:
		return DecisionUnset, false
	}
}
