package models

import (
	"time"

	"github.com/openguild/guildpress/internal/workflow"
	"gorm.io/gorm"
)

// MembershipApplication represents a request to upgrade a member's grade.
// The partial unique index enforces one non-rejected application per
// applicant and target grade at the storage level.
type MembershipApplication struct {
	ID              uint                       `gorm:"primaryKey" json:"id"`
	ApplicantID     uint                       `gorm:"uniqueIndex:idx_application_applicant_grade,where:status <> 'rejected';not null" json:"applicant_id"`
	Applicant       *User                      `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
	TargetGrade     Grade                      `gorm:"size:50;uniqueIndex:idx_application_applicant_grade,where:status <> 'rejected';not null" json:"target_grade"` // senior, fellow
	Status          workflow.ApplicationStatus `gorm:"size:50;index;default:draft" json:"status"`
	Statement       string                     `gorm:"type:text" json:"statement"`
	Publications    string                     `gorm:"type:text" json:"publications"`   // supporting evidence
	ServiceRecord   string                     `gorm:"type:text" json:"service_record"` // supporting evidence
	YearsExperience int                        `json:"years_experience"`
	ReviewerID      *uint                      `json:"reviewer_id"` // admin who decided
	Reviewer        *User                      `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	DecisionNotes   string                     `gorm:"type:text" json:"decision_notes"`
	SubmittedAt     *time.Time                 `json:"submitted_at"`
	ReviewedAt      *time.Time                 `json:"reviewed_at"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
	DeletedAt       gorm.DeletedAt             `gorm:"index" json:"-"`
}

func (MembershipApplication) TableName() string { return "membership_applications" }
