package models

import (
	"time"

	"github.com/openguild/guildpress/internal/workflow"
)

// ReviewAssignment represents one reviewer's assignment on one article.
// The partial unique index backs the one-non-declined-assignment rule at the
// storage level; the service pre-check only exists for a friendlier message.
// Assignments are hard-deleted on removal so a removed pending row does not
// keep occupying the index.
type ReviewAssignment struct {
	ID         uint                  `gorm:"primaryKey" json:"id"`
	ArticleID  uint                  `gorm:"uniqueIndex:idx_review_article_reviewer,where:status <> 'declined';not null" json:"article_id"`
	Article    *Article              `gorm:"foreignKey:ArticleID" json:"article,omitempty"`
	ReviewerID uint                  `gorm:"uniqueIndex:idx_review_article_reviewer,where:status <> 'declined';not null" json:"reviewer_id"`
	Reviewer   *User                 `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	AssignedBy uint                  `gorm:"not null" json:"assigned_by"`
	Status     workflow.ReviewStatus `gorm:"size:50;index;default:pending" json:"status"`
	// Recommendation is set only when the assignment completes.
	Recommendation workflow.Recommendation `gorm:"size:50" json:"recommendation,omitempty"`
	Summary        string                  `gorm:"type:text" json:"summary"` // visible to the article author
	// ConfidentialNotes is stripped for non-editorial readers before the
	// record leaves the service layer.
	ConfidentialNotes string         `gorm:"type:text" json:"confidential_notes,omitempty"`
	DueAt             *time.Time `json:"due_at"`
	SubmittedAt       *time.Time `json:"submitted_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (ReviewAssignment) TableName() string { return "review_assignments" }
