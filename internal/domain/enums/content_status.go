package enums

// ContentStatus tracks a submission through its review lifecycle.
// StatusUnderReview is part of the stats contract but no workflow
// transition currently sets it.
type ContentStatus string

const (
	StatusPending     ContentStatus = "pending"
	StatusUnderReview ContentStatus = "under_review"
	StatusDone        ContentStatus = "done"
)
