package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/openguild/guildpress/internal/config"
	"github.com/openguild/guildpress/internal/middleware"
	"github.com/openguild/guildpress/internal/permissions"
	"github.com/openguild/guildpress/internal/services"
	"github.com/openguild/guildpress/pkg/response"
	"gorm.io/gorm"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(db *gorm.DB, gate *permissions.Gate, cfg config.ReviewConfig) *ReviewHandler {
	return &ReviewHandler{
		reviewService: services.NewReviewService(db, gate, cfg),
	}
}

type assignRequest struct {
	ReviewerID uint `json:"reviewer_id" binding:"required"`
}

// Assign creates a review assignment on an article
// POST /api/articles/:id/reviews
func (h *ReviewHandler) Assign(c *gin.Context) {
	articleID, ok := pathID(c)
	if !ok {
		return
	}

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	assignment, err := h.reviewService.Assign(middleware.CurrentActor(c), articleID, req.ReviewerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// ListByArticle lists the assignments the actor may see on an article
// GET /api/articles/:id/reviews
func (h *ReviewHandler) ListByArticle(c *gin.Context) {
	articleID, ok := pathID(c)
	if !ok {
		return
	}

	assignments, err := h.reviewService.ListByArticle(middleware.CurrentActor(c), articleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, assignments)
}

// Start marks an assignment in progress
// POST /api/reviews/:id/start
func (h *ReviewHandler) Start(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	assignment, err := h.reviewService.Start(middleware.CurrentActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, assignment)
}

// Submit completes an assignment with a recommendation
// POST /api/reviews/:id/submit
func (h *ReviewHandler) Submit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.ReviewSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	assignment, err := h.reviewService.Submit(middleware.CurrentActor(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, assignment)
}

// Decline records that the reviewer declined
// POST /api/reviews/:id/decline
func (h *ReviewHandler) Decline(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	assignment, err := h.reviewService.Decline(middleware.CurrentActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, assignment)
}

// Remove deletes a pending or declined assignment
// DELETE /api/reviews/:id
func (h *ReviewHandler) Remove(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.reviewService.Remove(middleware.CurrentActor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "assignment removed"})
}
