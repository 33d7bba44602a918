package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/us"

	"github.com/openguild/guildpress/internal/config"
	"github.com/openguild/guildpress/internal/models"
	"github.com/openguild/guildpress/internal/permissions"
	"github.com/openguild/guildpress/internal/workflow"
	"github.com/openguild/guildpress/pkg/response"
	"gorm.io/gorm"
)

type ReviewService struct {
	db       *gorm.DB
	gate     *permissions.Gate
	cfg      config.ReviewConfig
	calendar *cal.BusinessCalendar
}

func NewReviewService(db *gorm.DB, gate *permissions.Gate, cfg config.ReviewConfig) *ReviewService {
	if cfg.DueBusinessDays <= 0 {
		cfg.DueBusinessDays = 14
	}
	return &ReviewService{
		db:       db,
		gate:     gate,
		cfg:      cfg,
		calendar: businessCalendar(cfg.Region),
	}
}

// businessCalendar builds the holiday calendar for due-date calculation.
// Unknown regions fall back to plain weekday counting.
func businessCalendar(region string) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	switch region {
	case "US":
		c.AddHoliday(us.Holidays...)
	case "GB":
		c.AddHoliday(gb.Holidays...)
	}
	return c
}

// dueDate returns the timestamp the configured number of business days
// after from.
func (s *ReviewService) dueDate(from time.Time) time.Time {
	t := from
	for added := 0; added < s.cfg.DueBusinessDays; {
		t = t.AddDate(0, 0, 1)
		if s.calendar.IsWorkday(t) {
			added++
		}
	}
	return t
}

type ReviewSubmitRequest struct {
	Recommendation    string `json:"recommendation" binding:"required"`
	Summary           string `json:"summary" binding:"required"`
	ConfidentialNotes string `json:"confidential_notes"`
}

// Assign creates a review assignment. Eligibility (reviewer is not the
// author, reviewer holds no other non-declined assignment on the article)
// is checked before the insert for a specific error message; the partial
// unique index on (article_id, reviewer_id) is the authoritative guard when
// two editors assign concurrently.
func (s *ReviewService) Assign(actor Actor, articleID, reviewerID uint) (*models.ReviewAssignment, error) {
	if !actor.Known() {
		return nil, response.NewUnauthorized("authentication required")
	}
	if !s.gate.HasPermission(actor.Roles, permissions.ArticleAssignReviewer) {
		return nil, response.NewForbidden("missing permission " + string(permissions.ArticleAssignReviewer))
	}

	var article models.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("article not found")
		}
		return nil, response.NewServerError("failed to load article")
	}
	if article.Status != workflow.ArticleSubmitted && article.Status != workflow.ArticleInReview {
		return nil, response.NewBadRequest(fmt.Sprintf(
			"reviewers can only be assigned while an article is submitted or in review (current: %q)", article.Status))
	}

	var reviewer models.User
	if err := s.db.First(&reviewer, reviewerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("reviewer not found")
		}
		return nil, response.NewServerError("failed to load reviewer")
	}
	if !reviewer.IsActive {
		return nil, response.NewBadRequest("reviewer account is disabled")
	}

	due := s.dueDate(time.Now())
	assignment := &models.ReviewAssignment{
		ArticleID:  articleID,
		ReviewerID: reviewerID,
		AssignedBy: actor.ID,
		Status:     workflow.ReviewPending,
		DueAt:      &due,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkAssignmentEligibility(tx, &article, reviewerID); err != nil {
			return err
		}
		return tx.Create(assignment).Error
	})
	if err != nil {
		var appErr *response.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("reviewer already holds an assignment for this article")
		}
		return nil, response.NewServerError("failed to create review assignment")
	}

	invalidate(ArticleReviewsKey(articleID), EditorQueueKey())
	return assignment, nil
}

// checkAssignmentEligibility enforces the two assignment preconditions and
// names the one that failed.
func checkAssignmentEligibility(tx *gorm.DB, article *models.Article, reviewerID uint) error {
	if reviewerID == article.AuthorID {
		return response.NewBadRequest("reviewer cannot be the article's author")
	}

	var existing int64
	err := tx.Model(&models.ReviewAssignment{}).
		Where("article_id = ? AND reviewer_id = ? AND status <> ?",
			article.ID, reviewerID, workflow.ReviewDeclined).
		Count(&existing).Error
	if err != nil {
		return err
	}
	if existing > 0 {
		return response.NewBadRequest("reviewer already holds an assignment for this article")
	}
	return nil
}

// Start marks a pending assignment as in progress.
func (s *ReviewService) Start(actor Actor, id uint) (*models.ReviewAssignment, error) {
	assignment, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeReviewerAction(actor, assignment); err != nil {
		return nil, err
	}
	if !assignment.Status.CanTransitionTo(workflow.ReviewInProgress) {
		return nil, response.NewIllegalTransition(fmt.Sprintf(
			"cannot transition review from %q to %q", assignment.Status, workflow.ReviewInProgress))
	}

	res := s.db.Model(&models.ReviewAssignment{}).
		Where("id = ? AND status = ?", assignment.ID, workflow.ReviewPending).
		Update("status", workflow.ReviewInProgress)
	if res.Error != nil {
		return nil, response.NewServerError("failed to update review assignment")
	}
	if res.RowsAffected == 0 {
		return nil, response.NewConflict("review assignment changed concurrently, expected status \"pending\"")
	}
	return s.getByID(id)
}

// Submit completes an assignment with a recommendation. Completed records
// are immutable.
func (s *ReviewService) Submit(actor Actor, id uint, req *ReviewSubmitRequest) (*models.ReviewAssignment, error) {
	assignment, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeReviewerAction(actor, assignment); err != nil {
		return nil, err
	}

	if assignment.Status.Terminal() {
		return nil, response.NewIllegalTransition("review already submitted or declined")
	}
	if !assignment.Status.CanTransitionTo(workflow.ReviewCompleted) {
		return nil, response.NewIllegalTransition(fmt.Sprintf(
			"cannot transition review from %q to %q", assignment.Status, workflow.ReviewCompleted))
	}

	recommendation := workflow.Recommendation(req.Recommendation)
	if !recommendation.Valid() {
		return nil, response.NewBadRequest(fmt.Sprintf("invalid recommendation %q", req.Recommendation))
	}
	if strings.TrimSpace(req.Summary) == "" {
		return nil, response.NewBadRequest("summary is required to complete a review")
	}

	now := time.Now()
	res := s.db.Model(&models.ReviewAssignment{}).
		Where("id = ? AND status IN ?", assignment.ID,
			[]workflow.ReviewStatus{workflow.ReviewPending, workflow.ReviewInProgress}).
		Updates(map[string]interface{}{
			"status":             workflow.ReviewCompleted,
			"recommendation":     recommendation,
			"summary":            req.Summary,
			"confidential_notes": req.ConfidentialNotes,
			"submitted_at":       now,
		})
	if res.Error != nil {
		return nil, response.NewServerError("failed to submit review")
	}
	if res.RowsAffected == 0 {
		return nil, response.NewConflict(fmt.Sprintf(
			"review assignment changed concurrently, expected %q", assignment.Status))
	}

	invalidate(ArticleReviewsKey(assignment.ArticleID), EditorQueueKey())

	uid := actor.ID
	LogInfo("Reviews", "Submit",
		fmt.Sprintf("review %d completed with recommendation %s", assignment.ID, recommendation),
		&uid, "", "", nil)

	return s.getByID(id)
}

// Decline records that the reviewer declined. No summary or recommendation
// is required.
func (s *ReviewService) Decline(actor Actor, id uint) (*models.ReviewAssignment, error) {
	assignment, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeReviewerAction(actor, assignment); err != nil {
		return nil, err
	}

	if assignment.Status.Terminal() {
		return nil, response.NewIllegalTransition("review already submitted or declined")
	}

	now := time.Now()
	res := s.db.Model(&models.ReviewAssignment{}).
		Where("id = ? AND status IN ?", assignment.ID,
			[]workflow.ReviewStatus{workflow.ReviewPending, workflow.ReviewInProgress}).
		Updates(map[string]interface{}{
			"status":       workflow.ReviewDeclined,
			"submitted_at": now,
		})
	if res.Error != nil {
		return nil, response.NewServerError("failed to decline review")
	}
	if res.RowsAffected == 0 {
		return nil, response.NewConflict(fmt.Sprintf(
			"review assignment changed concurrently, expected %q", assignment.Status))
	}

	invalidate(ArticleReviewsKey(assignment.ArticleID), EditorQueueKey())
	return s.getByID(id)
}

// Remove deletes an assignment. Only assigners may remove, and only while
// the assignment is pending or declined.
func (s *ReviewService) Remove(actor Actor, id uint) error {
	if !s.gate.HasPermission(actor.Roles, permissions.ArticleAssignReviewer) {
		return response.NewForbidden("missing permission " + string(permissions.ArticleAssignReviewer))
	}

	assignment, err := s.getByID(id)
	if err != nil {
		return err
	}
	if !assignment.Status.Removable() {
		return response.NewBadRequest(fmt.Sprintf(
			"only pending or declined assignments can be removed (current: %q)", assignment.Status))
	}

	res := s.db.Where("id = ? AND status IN ?", assignment.ID,
		[]workflow.ReviewStatus{workflow.ReviewPending, workflow.ReviewDeclined}).
		Delete(&models.ReviewAssignment{})
	if res.Error != nil {
		return response.NewServerError("failed to remove review assignment")
	}
	if res.RowsAffected == 0 {
		return response.NewConflict(fmt.Sprintf(
			"review assignment changed concurrently, expected %q", assignment.Status))
	}

	invalidate(ArticleReviewsKey(assignment.ArticleID), EditorQueueKey())
	return nil
}

// ListByArticle returns assignments for an article, filtered by what the
// actor may see: editorial staff see everything, the article's author sees
// completed reviews without confidential notes, reviewers see their own.
func (s *ReviewService) ListByArticle(actor Actor, articleID uint) ([]models.ReviewAssignment, error) {
	var article models.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("article not found")
		}
		return nil, response.NewServerError("failed to load article")
	}

	var assignments []models.ReviewAssignment
	if err := s.db.Where("article_id = ?", articleID).
		Preload("Reviewer").
		Order("created_at ASC").
		Find(&assignments).Error; err != nil {
		return nil, response.NewServerError("failed to list review assignments")
	}

	if s.gate.HasPermission(actor.Roles, permissions.ReviewManage) {
		return assignments, nil
	}

	var visible []models.ReviewAssignment
	for _, a := range assignments {
		switch {
		case a.ReviewerID == actor.ID:
			visible = append(visible, a)
		case article.AuthorID == actor.ID && a.Status == workflow.ReviewCompleted:
			a.ConfidentialNotes = ""
			visible = append(visible, a)
		}
	}
	return visible, nil
}

// authorizeReviewerAction allows the assigned reviewer (with
// review:complete) or editorial staff (review:manage) to act on an
// assignment.
func (s *ReviewService) authorizeReviewerAction(actor Actor, assignment *models.ReviewAssignment) error {
	if !actor.Known() {
		return response.NewUnauthorized("authentication required")
	}
	if s.gate.HasPermission(actor.Roles, permissions.ReviewManage) {
		return nil
	}
	if actor.ID == assignment.ReviewerID && s.gate.HasPermission(actor.Roles, permissions.ReviewComplete) {
		return nil
	}
	return response.NewForbidden("not your resource")
}

func (s *ReviewService) getByID(id uint) (*models.ReviewAssignment, error) {
	var assignment models.ReviewAssignment
	if err := s.db.First(&assignment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("review assignment not found")
		}
		return nil, response.NewServerError("failed to load review assignment")
	}
	return &assignment, nil
}
