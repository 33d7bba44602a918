package workflow

// ApplicationStatus is the lifecycle status of a membership-grade application.
type ApplicationStatus string

const (
	ApplicationDraft       ApplicationStatus = "draft"
	ApplicationSubmitted   ApplicationStatus = "submitted"
	ApplicationUnderReview ApplicationStatus = "under_review"
	ApplicationApproved    ApplicationStatus = "approved"
	ApplicationRejected    ApplicationStatus = "rejected"
)

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationDraft:       {ApplicationSubmitted},
	ApplicationSubmitted:   {ApplicationUnderReview},
	ApplicationUnderReview: {ApplicationApproved, ApplicationRejected},
}

// ApplicationStatuses returns every application status, in lifecycle order.
func ApplicationStatuses() []ApplicationStatus {
	return []ApplicationStatus{
		ApplicationDraft,
		ApplicationSubmitted,
		ApplicationUnderReview,
		ApplicationApproved,
		ApplicationRejected,
	}
}

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	for _, known := range ApplicationStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the edge s -> to exists in the
// application workflow.
func (s ApplicationStatus) CanTransitionTo(to ApplicationStatus) bool {
	for _, next := range applicationTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s ApplicationStatus) Terminal() bool {
	return s.Valid() && len(applicationTransitions[s]) == 0
}

// Active reports whether s blocks a new application for the same target
// grade. Only a rejected application frees the slot.
func (s ApplicationStatus) Active() bool {
	switch s {
	case ApplicationDraft, ApplicationSubmitted, ApplicationUnderReview, ApplicationApproved:
		return true
	}
	return false
}

// ActiveApplicationStatuses returns the statuses for which Active is true,
// for use in storage IN-lists.
func ActiveApplicationStatuses() []ApplicationStatus {
	var active []ApplicationStatus
	for _, s := range ApplicationStatuses() {
		if s.Active() {
			active = append(active, s)
		}
	}
	return active
}
