package workflow

import "testing"

// legalArticleEdges mirrors the editorial pipeline: every edge an article
// may take, and nothing else.
var legalArticleEdges = map[ArticleStatus][]ArticleStatus{
	ArticleDraft:             {ArticleSubmitted},
	ArticleSubmitted:         {ArticleInReview},
	ArticleInReview:          {ArticleRevisionRequested, ArticleAccepted},
	ArticleRevisionRequested: {ArticleResubmitted},
	ArticleResubmitted:       {ArticleInReview},
	ArticleAccepted:          {ArticleScheduled, ArticlePublished},
	ArticleScheduled:         {ArticlePublished},
	ArticlePublished:         {ArticleArchived, ArticleRetracted},
	ArticleArchived:          {},
	ArticleRetracted:         {},
}

func TestArticleStatus_CanTransitionTo_Exhaustive(t *testing.T) {
	for _, from := range ArticleStatuses() {
		legal := make(map[ArticleStatus]bool)
		for _, to := range legalArticleEdges[from] {
			legal[to] = true
		}

		for _, to := range ArticleStatuses() {
			got := from.CanTransitionTo(to)
			if got != legal[to] {
				t.Errorf("CanTransitionTo(%s, %s) = %v, expected %v", from, to, got, legal[to])
			}
		}
	}
}

func TestArticleStatus_CanTransitionTo_Deterministic(t *testing.T) {
	// The predicate is pure: repeated calls must agree.
	for i := 0; i < 3; i++ {
		if !ArticleDraft.CanTransitionTo(ArticleSubmitted) {
			t.Fatal("draft -> submitted should be legal on every call")
		}
		if ArticleDraft.CanTransitionTo(ArticlePublished) {
			t.Fatal("draft -> published should be illegal on every call")
		}
	}
}

func TestArticleStatus_NoChaining(t *testing.T) {
	// A path exists through intermediate states, but the engine never
	// chains transitions on the caller's behalf.
	cases := []struct {
		from, to ArticleStatus
	}{
		{ArticleDraft, ArticlePublished},
		{ArticleSubmitted, ArticleAccepted},
		{ArticleResubmitted, ArticlePublished},
		{ArticleAccepted, ArticleArchived},
	}
	for _, tc := range cases {
		if tc.from.CanTransitionTo(tc.to) {
			t.Errorf("%s -> %s should be illegal (no transition chaining)", tc.from, tc.to)
		}
	}
}

func TestArticleStatus_TerminalStates(t *testing.T) {
	for _, s := range ArticleStatuses() {
		wantTerminal := s == ArticleArchived || s == ArticleRetracted
		if s.Terminal() != wantTerminal {
			t.Errorf("Terminal(%s) = %v, expected %v", s, s.Terminal(), wantTerminal)
		}
	}

	// Terminal states have zero outgoing edges.
	for _, terminal := range []ArticleStatus{ArticleArchived, ArticleRetracted} {
		for _, to := range ArticleStatuses() {
			if terminal.CanTransitionTo(to) {
				t.Errorf("%s -> %s should be illegal: terminal states have no outgoing edges", terminal, to)
			}
		}
	}
}

func TestArticleStatus_SelfTransitionsIllegal(t *testing.T) {
	for _, s := range ArticleStatuses() {
		if s.CanTransitionTo(s) {
			t.Errorf("%s -> %s should be illegal", s, s)
		}
	}
}

func TestArticleStatus_UnknownStatus(t *testing.T) {
	bogus := ArticleStatus("in_limbo")
	if bogus.Valid() {
		t.Error("unknown status should not be valid")
	}
	if bogus.Terminal() {
		t.Error("unknown status should not be terminal")
	}
	for _, to := range ArticleStatuses() {
		if bogus.CanTransitionTo(to) {
			t.Errorf("unknown status should have no outgoing edge to %s", to)
		}
	}
}

func TestArticleStatus_Editable(t *testing.T) {
	editable := map[ArticleStatus]bool{
		ArticleDraft:             true,
		ArticleRevisionRequested: true,
		ArticleResubmitted:       true,
	}
	for _, s := range ArticleStatuses() {
		if s.Editable() != editable[s] {
			t.Errorf("Editable(%s) = %v, expected %v", s, s.Editable(), editable[s])
		}
	}
}

func TestArticleType_Valid(t *testing.T) {
	for _, typ := range []ArticleType{TypeResearch, TypeReview, TypeTutorial, TypePerspective, TypeNews} {
		if !typ.Valid() {
			t.Errorf("%s should be a valid article type", typ)
		}
	}
	if ArticleType("essay").Valid() {
		t.Error("unknown article type should not be valid")
	}
}
