package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openguild/guildpress/internal/models"
	"github.com/openguild/guildpress/internal/permissions"
	"github.com/openguild/guildpress/internal/workflow"
	"github.com/openguild/guildpress/pkg/response"
	"gorm.io/gorm"
)

type ApplicationService struct {
	db   *gorm.DB
	gate *permissions.Gate
}

func NewApplicationService(db *gorm.DB, gate *permissions.Gate) *ApplicationService {
	return &ApplicationService{db: db, gate: gate}
}

type ApplicationCreateRequest struct {
	TargetGrade     string `json:"target_grade" binding:"required"`
	Statement       string `json:"statement"`
	Publications    string `json:"publications"`
	ServiceRecord   string `json:"service_record"`
	YearsExperience int    `json:"years_experience"`
}

type ApplicationUpdateRequest struct {
	Statement       *string `json:"statement"`
	Publications    *string `json:"publications"`
	ServiceRecord   *string `json:"service_record"`
	YearsExperience *int    `json:"years_experience"`
}

type ApplicationDecisionRequest struct {
	Notes string `json:"notes"`
}

type ApplicationListRequest struct {
	Page        int    `form:"page" binding:"min=0"`
	PageSize    int    `form:"page_size" binding:"min=0,max=100"`
	Status      string `form:"status"`
	TargetGrade string `form:"target_grade"`
	ApplicantID uint   `form:"applicant_id"`
}

type ApplicationListResponse struct {
	Total    int64                          `json:"total"`
	Page     int                            `json:"page"`
	PageSize int                            `json:"page_size"`
	Items    []models.MembershipApplication `json:"items"`
}

// Create opens a draft application for a grade upgrade. The uniqueness
// preconditions are checked before the insert for a specific error message;
// the partial unique index on (applicant_id, target_grade) is the
// authoritative guard when two creations race.
func (s *ApplicationService) Create(actor Actor, req *ApplicationCreateRequest) (*models.MembershipApplication, error) {
	if !actor.Known() {
		return nil, response.NewUnauthorized("authentication required")
	}
	if !s.gate.HasPermission(actor.Roles, permissions.ApplicationCreate) {
		return nil, response.NewForbidden("missing permission " + string(permissions.ApplicationCreate))
	}

	target := models.Grade(req.TargetGrade)
	if !target.ValidTarget() {
		return nil, response.NewBadRequest(fmt.Sprintf(
			"invalid target grade %q: must be %q or %q", req.TargetGrade, models.GradeSenior, models.GradeFellow))
	}

	app := &models.MembershipApplication{
		ApplicantID:     actor.ID,
		TargetGrade:     target,
		Status:          workflow.ApplicationDraft,
		Statement:       req.Statement,
		Publications:    req.Publications,
		ServiceRecord:   req.ServiceRecord,
		YearsExperience: req.YearsExperience,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.checkNoConflictingApplication(tx, actor.ID, target); err != nil {
			return err
		}
		return tx.Create(app).Error
	})
	if err != nil {
		var appErr *response.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict(fmt.Sprintf(
				"an application for grade %q already exists", target))
		}
		return nil, response.NewServerError("failed to create application")
	}

	invalidate(MemberApplicationsKey(actor.ID))
	return app, nil
}

// checkNoConflictingApplication enforces the creation preconditions: no
// approved application anywhere, and no active application for the same
// target grade. The rejection names the specific conflicting condition.
func (s *ApplicationService) checkNoConflictingApplication(tx *gorm.DB, applicantID uint, target models.Grade) error {
	var approved int64
	if err := tx.Model(&models.MembershipApplication{}).
		Where("applicant_id = ? AND status = ?", applicantID, workflow.ApplicationApproved).
		Count(&approved).Error; err != nil {
		return err
	}
	if approved > 0 {
		return response.NewConflict("you already hold an approved application; your grade has been upgraded")
	}

	var existing models.MembershipApplication
	err := tx.Where("applicant_id = ? AND target_grade = ? AND status IN ?",
		applicantID, target, workflow.ActiveApplicationStatuses()).First(&existing).Error
	if err == nil {
		return response.NewConflict(fmt.Sprintf(
			"an application for grade %q already exists with status %q", target, existing.Status))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

// UpdateDraft edits the applicant's own draft.
func (s *ApplicationService) UpdateDraft(actor Actor, id uint, req *ApplicationUpdateRequest) (*models.MembershipApplication, error) {
	app, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != actor.ID {
		return nil, response.NewForbidden("not your resource")
	}
	if app.Status != workflow.ApplicationDraft {
		return nil, response.NewBadRequest(fmt.Sprintf(
			"application can only be edited in draft (current: %q)", app.Status))
	}

	updates := map[string]interface{}{}
	if req.Statement != nil {
		updates["statement"] = *req.Statement
	}
	if req.Publications != nil {
		updates["publications"] = *req.Publications
	}
	if req.ServiceRecord != nil {
		updates["service_record"] = *req.ServiceRecord
	}
	if req.YearsExperience != nil {
		updates["years_experience"] = *req.YearsExperience
	}
	if len(updates) == 0 {
		return app, nil
	}

	res := s.db.Model(&models.MembershipApplication{}).
		Where("id = ? AND status = ?", app.ID, workflow.ApplicationDraft).
		Updates(updates)
	if res.Error != nil {
		return nil, response.NewServerError("failed to update application")
	}
	if res.RowsAffected == 0 {
		return nil, response.NewConflict("application changed concurrently, expected status \"draft\"")
	}
	return s.getByID(id)
}

// Submit moves the applicant's own draft to submitted.
func (s *ApplicationService) Submit(actor Actor, id uint) (*models.MembershipApplication, error) {
	app, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != actor.ID {
		return nil, response.NewForbidden("not your resource")
	}
	if strings.TrimSpace(app.Statement) == "" {
		return nil, response.NewBadRequest("statement is required before submitting")
	}
	if !app.Status.CanTransitionTo(workflow.ApplicationSubmitted) {
		return nil, response.NewIllegalTransition(fmt.Sprintf(
			"cannot transition application from %q to %q", app.Status, workflow.ApplicationSubmitted))
	}

	now := time.Now()
	res := s.db.Model(&models.MembershipApplication{}).
		Where("id = ? AND status = ?", app.ID, app.Status).
		Updates(map[string]interface{}{
			"status":       workflow.ApplicationSubmitted,
			"submitted_at": now,
		})
	if res.Error != nil {
		return nil, response.NewServerError("failed to submit application")
	}
	if res.RowsAffected == 0 {
		return nil, response.NewConflict(fmt.Sprintf(
			"application status changed concurrently, expected %q", app.Status))
	}

	invalidate(MemberApplicationsKey(actor.ID), EditorQueueKey())
	return s.getByID(id)
}

// MoveToReview moves a submitted application under review.
func (s *ApplicationService) MoveToReview(actor Actor, id uint) (*models.MembershipApplication, error) {
	if !s.gate.HasPermission(actor.Roles, permissions.ApplicationReview) {
		return nil, response.NewForbidden("missing permission " + string(permissions.ApplicationReview))
	}

	app, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if !app.Status.CanTransitionTo(workflow.ApplicationUnderReview) {
		return nil, response.NewIllegalTransition(fmt.Sprintf(
			"cannot transition application from %q to %q", app.Status, workflow.ApplicationUnderReview))
	}

	res := s.db.Model(&models.MembershipApplication{}).
		Where("id = ? AND status = ?", app.ID, app.Status).
		Update("status", workflow.ApplicationUnderReview)
	if res.Error != nil {
		return nil, response.NewServerError("failed to update application")
	}
	if res.RowsAffected == 0 {
		return nil, response.NewConflict(fmt.Sprintf(
			"application status changed concurrently, expected %q", app.Status))
	}

	invalidate(MemberApplicationsKey(app.ApplicantID), EditorQueueKey())
	return s.getByID(id)
}

// Approve marks the application approved and upgrades the applicant's grade
// in one transaction. Either both writes commit or neither does.
func (s *ApplicationService) Approve(actor Actor, id uint, req *ApplicationDecisionRequest) (*models.MembershipApplication, error) {
	if !s.gate.HasPermission(actor.Roles, permissions.ApplicationDecide) {
		return nil, response.NewForbidden("missing permission " + string(permissions.ApplicationDecide))
	}

	app, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if !app.Status.CanTransitionTo(workflow.ApplicationApproved) {
		return nil, response.NewIllegalTransition(fmt.Sprintf(
			"cannot transition application from %q to %q", app.Status, workflow.ApplicationApproved))
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.MembershipApplication{}).
			Where("id = ? AND status = ?", app.ID, app.Status).
			Updates(map[string]interface{}{
				"status":         workflow.ApplicationApproved,
				"reviewer_id":    actor.ID,
				"reviewed_at":    now,
				"decision_notes": req.Notes,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return response.NewConflict(fmt.Sprintf(
				"application status changed concurrently, expected %q", app.Status))
		}

		grade := tx.Model(&models.User{}).
			Where("id = ?", app.ApplicantID).
			Update("grade", app.TargetGrade)
		if grade.Error != nil {
			return grade.Error
		}
		if grade.RowsAffected == 0 {
			return fmt.Errorf("applicant %d not found for grade upgrade", app.ApplicantID)
		}
		return nil
	})
	if err != nil {
		var appErr *response.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, response.NewServerError("failed to approve application")
	}

	invalidate(MemberApplicationsKey(app.ApplicantID), MemberDirectoryKey(), EditorQueueKey())

	uid := actor.ID
	LogInfo("Applications", "Approve",
		fmt.Sprintf("application %d approved, applicant %d upgraded to %s", app.ID, app.ApplicantID, app.TargetGrade),
		&uid, "", "", nil)

	return s.getByID(id)
}

// Reject records a rejection. Decision notes are mandatory and validated
// before any storage write.
func (s *ApplicationService) Reject(actor Actor, id uint, req *ApplicationDecisionRequest) (*models.MembershipApplication, error) {
	if !s.gate.HasPermission(actor.Roles, permissions.ApplicationDecide) {
		return nil, response.NewForbidden("missing permission " + string(permissions.ApplicationDecide))
	}
	if strings.TrimSpace(req.Notes) == "" {
		return nil, response.NewBadRequest("decision notes are required to reject an application")
	}

	app, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if !app.Status.CanTransitionTo(workflow.ApplicationRejected) {
		return nil, response.NewIllegalTransition(fmt.Sprintf(
			"cannot transition application from %q to %q", app.Status, workflow.ApplicationRejected))
	}

	now := time.Now()
	res := s.db.Model(&models.MembershipApplication{}).
		Where("id = ? AND status = ?", app.ID, app.Status).
		Updates(map[string]interface{}{
			"status":         workflow.ApplicationRejected,
			"reviewer_id":    actor.ID,
			"reviewed_at":    now,
			"decision_notes": req.Notes,
		})
	if res.Error != nil {
		return nil, response.NewServerError("failed to reject application")
	}
	if res.RowsAffected == 0 {
		return nil, response.NewConflict(fmt.Sprintf(
			"application status changed concurrently, expected %q", app.Status))
	}

	invalidate(MemberApplicationsKey(app.ApplicantID), EditorQueueKey())
	return s.getByID(id)
}

// GetByID returns an application visible to its applicant or to editorial
// staff.
func (s *ApplicationService) GetByID(actor Actor, id uint) (*models.MembershipApplication, error) {
	app, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != actor.ID && !s.gate.HasPermission(actor.Roles, permissions.ApplicationReview) {
		return nil, response.NewForbidden("not your resource")
	}
	return app, nil
}

// List returns paginated applications. Non-editorial actors only see their
// own.
func (s *ApplicationService) List(actor Actor, req *ApplicationListRequest) (*ApplicationListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.MembershipApplication{})
	if !s.gate.HasPermission(actor.Roles, permissions.ApplicationReview) {
		query = query.Where("applicant_id = ?", actor.ID)
	} else if req.ApplicantID != 0 {
		query = query.Where("applicant_id = ?", req.ApplicantID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.TargetGrade != "" {
		query = query.Where("target_grade = ?", req.TargetGrade)
	}

	var total int64
	query.Count(&total)

	var items []models.MembershipApplication
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Applicant").
		Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, response.NewServerError("failed to list applications")
	}

	return &ApplicationListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

func (s *ApplicationService) getByID(id uint) (*models.MembershipApplication, error) {
	var app models.MembershipApplication
	if err := s.db.First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("application not found")
		}
		return nil, response.NewServerError("failed to load application")
	}
	return &app, nil
}
