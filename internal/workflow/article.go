// Package workflow defines the editorial state machines: article lifecycle,
// membership application lifecycle and peer-review assignment lifecycle.
// Every type here is a pure lookup over a colocated adjacency table; no
// package in the tree writes storage before consulting these predicates.
package workflow

// ArticleStatus is the editorial lifecycle status of an article.
type ArticleStatus string

const (
	ArticleDraft             ArticleStatus = "draft"
	ArticleSubmitted         ArticleStatus = "submitted"
	ArticleInReview          ArticleStatus = "in_review"
	ArticleRevisionRequested ArticleStatus = "revision_requested"
	ArticleResubmitted       ArticleStatus = "resubmitted"
	ArticleAccepted          ArticleStatus = "accepted"
	ArticleScheduled         ArticleStatus = "scheduled"
	ArticlePublished         ArticleStatus = "published"
	ArticleArchived          ArticleStatus = "archived"
	ArticleRetracted         ArticleStatus = "retracted"
)

// articleTransitions is the full adjacency table of the article workflow.
// Absence of an edge means the transition is illegal. Terminal states
// (archived, retracted) have no entry.
var articleTransitions = map[ArticleStatus][]ArticleStatus{
	ArticleDraft:             {ArticleSubmitted},
	ArticleSubmitted:         {ArticleInReview},
	ArticleInReview:          {ArticleRevisionRequested, ArticleAccepted},
	ArticleRevisionRequested: {ArticleResubmitted},
	ArticleResubmitted:       {ArticleInReview},
	ArticleAccepted:          {ArticleScheduled, ArticlePublished},
	ArticleScheduled:         {ArticlePublished},
	ArticlePublished:         {ArticleArchived, ArticleRetracted},
}

// ArticleStatuses returns every article status, in lifecycle order.
func ArticleStatuses() []ArticleStatus {
	return []ArticleStatus{
		ArticleDraft,
		ArticleSubmitted,
		ArticleInReview,
		ArticleRevisionRequested,
		ArticleResubmitted,
		ArticleAccepted,
		ArticleScheduled,
		ArticlePublished,
		ArticleArchived,
		ArticleRetracted,
	}
}

// Valid reports whether s is a known article status.
func (s ArticleStatus) Valid() bool {
	for _, known := range ArticleStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the edge s -> to exists in the article
// workflow. The check is exact: it never chains through intermediate states,
// so e.g. draft -> published is illegal even though a path exists.
func (s ArticleStatus) CanTransitionTo(to ArticleStatus) bool {
	for _, next := range articleTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s ArticleStatus) Terminal() bool {
	return s.Valid() && len(articleTransitions[s]) == 0
}

// Editable reports whether the author may still mutate article content.
func (s ArticleStatus) Editable() bool {
	switch s {
	case ArticleDraft, ArticleRevisionRequested, ArticleResubmitted:
		return true
	}
	return false
}

// ArticleType classifies the kind of article being submitted.
type ArticleType string

const (
	TypeResearch    ArticleType = "research"
	TypeReview      ArticleType = "review"
	TypeTutorial    ArticleType = "tutorial"
	TypePerspective ArticleType = "perspective"
	TypeNews        ArticleType = "news"
)

// Valid reports whether t is a known article type.
func (t ArticleType) Valid() bool {
	switch t {
	case TypeResearch, TypeReview, TypeTutorial, TypePerspective, TypeNews:
		return true
	}
	return false
}
