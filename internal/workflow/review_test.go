package workflow

import "testing"

func TestReviewStatus_CanTransitionTo_Exhaustive(t *testing.T) {
	legal := map[ReviewStatus]map[ReviewStatus]bool{
		ReviewPending:    {ReviewInProgress: true, ReviewCompleted: true, ReviewDeclined: true},
		ReviewInProgress: {ReviewCompleted: true, ReviewDeclined: true},
		ReviewCompleted:  {},
		ReviewDeclined:   {},
	}

	for _, from := range ReviewStatuses() {
		for _, to := range ReviewStatuses() {
			got := from.CanTransitionTo(to)
			if got != legal[from][to] {
				t.Errorf("CanTransitionTo(%s, %s) = %v, expected %v", from, to, got, legal[from][to])
			}
		}
	}
}

func TestReviewStatus_TerminalStates(t *testing.T) {
	for _, s := range ReviewStatuses() {
		wantTerminal := s == ReviewCompleted || s == ReviewDeclined
		if s.Terminal() != wantTerminal {
			t.Errorf("Terminal(%s) = %v, expected %v", s, s.Terminal(), wantTerminal)
		}
	}
}

func TestReviewStatus_Removable(t *testing.T) {
	removable := map[ReviewStatus]bool{
		ReviewPending:  true,
		ReviewDeclined: true,
	}
	for _, s := range ReviewStatuses() {
		if s.Removable() != removable[s] {
			t.Errorf("Removable(%s) = %v, expected %v", s, s.Removable(), removable[s])
		}
	}
}

func TestRecommendation_Valid(t *testing.T) {
	valid := []Recommendation{
		RecommendAccept,
		RecommendMinorRevisions,
		RecommendMajorRevisions,
		RecommendReject,
	}
	for _, r := range valid {
		if !r.Valid() {
			t.Errorf("%s should be a valid recommendation", r)
		}
	}
	if Recommendation("").Valid() {
		t.Error("empty recommendation should not be valid")
	}
	if Recommendation("strong_accept").Valid() {
		t.Error("unknown recommendation should not be valid")
	}
}
