package workflow

import "testing"

func TestApplicationStatus_CanTransitionTo_Exhaustive(t *testing.T) {
	legal := map[ApplicationStatus]map[ApplicationStatus]bool{
		ApplicationDraft:       {ApplicationSubmitted: true},
		ApplicationSubmitted:   {ApplicationUnderReview: true},
		ApplicationUnderReview: {ApplicationApproved: true, ApplicationRejected: true},
		ApplicationApproved:    {},
		ApplicationRejected:    {},
	}

	for _, from := range ApplicationStatuses() {
		for _, to := range ApplicationStatuses() {
			got := from.CanTransitionTo(to)
			if got != legal[from][to] {
				t.Errorf("CanTransitionTo(%s, %s) = %v, expected %v", from, to, got, legal[from][to])
			}
		}
	}
}

func TestApplicationStatus_TerminalStates(t *testing.T) {
	for _, s := range ApplicationStatuses() {
		wantTerminal := s == ApplicationApproved || s == ApplicationRejected
		if s.Terminal() != wantTerminal {
			t.Errorf("Terminal(%s) = %v, expected %v", s, s.Terminal(), wantTerminal)
		}
	}
}

func TestApplicationStatus_Active(t *testing.T) {
	// Every status except rejected blocks a new application for the same
	// target grade.
	for _, s := range ApplicationStatuses() {
		wantActive := s != ApplicationRejected
		if s.Active() != wantActive {
			t.Errorf("Active(%s) = %v, expected %v", s, s.Active(), wantActive)
		}
	}
}

func TestActiveApplicationStatuses_MatchesActive(t *testing.T) {
	active := ActiveApplicationStatuses()

	inList := map[ApplicationStatus]bool{}
	for _, s := range active {
		inList[s] = true
	}
	for _, s := range ApplicationStatuses() {
		if inList[s] != s.Active() {
			t.Errorf("ActiveApplicationStatuses contains %s = %v, Active() = %v", s, inList[s], s.Active())
		}
	}
	if len(active) != len(inList) {
		t.Error("ActiveApplicationStatuses should not contain duplicates")
	}
}

func TestApplicationStatus_Valid(t *testing.T) {
	for _, s := range ApplicationStatuses() {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if ApplicationStatus("withdrawn").Valid() {
		t.Error("unknown application status should not be valid")
	}
}
