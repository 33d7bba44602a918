package workflow

// ReviewStatus is the lifecycle status of a peer-review assignment.
type ReviewStatus string

const (
	ReviewPending    ReviewStatus = "pending"
	ReviewInProgress ReviewStatus = "in_progress"
	ReviewCompleted  ReviewStatus = "completed"
	ReviewDeclined   ReviewStatus = "declined"
)

var reviewTransitions = map[ReviewStatus][]ReviewStatus{
	ReviewPending:    {ReviewInProgress, ReviewCompleted, ReviewDeclined},
	ReviewInProgress: {ReviewCompleted, ReviewDeclined},
}

// ReviewStatuses returns every review assignment status.
func ReviewStatuses() []ReviewStatus {
	return []ReviewStatus{ReviewPending, ReviewInProgress, ReviewCompleted, ReviewDeclined}
}

// Valid reports whether s is a known review status.
func (s ReviewStatus) Valid() bool {
	for _, known := range ReviewStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the edge s -> to exists in the review
// assignment workflow.
func (s ReviewStatus) CanTransitionTo(to ReviewStatus) bool {
	for _, next := range reviewTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing transitions. Completed and
// declined assignments are immutable.
func (s ReviewStatus) Terminal() bool {
	return s.Valid() && len(reviewTransitions[s]) == 0
}

// Removable reports whether an assigner may delete the assignment. An
// assignment under way or already completed must stay on record.
func (s ReviewStatus) Removable() bool {
	return s == ReviewPending || s == ReviewDeclined
}

// Recommendation is the reviewer's verdict recorded on completion.
type Recommendation string

const (
	RecommendAccept         Recommendation = "accept"
	RecommendMinorRevisions Recommendation = "accept_with_minor_revisions"
	RecommendMajorRevisions Recommendation = "major_revisions_required"
	RecommendReject         Recommendation = "reject"
)

// Valid reports whether r is a known recommendation.
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendAccept, RecommendMinorRevisions, RecommendMajorRevisions, RecommendReject:
		return true
	}
	return false
}
