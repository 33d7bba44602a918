package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/openguild/guildpress/internal/middleware"
	"github.com/openguild/guildpress/internal/permissions"
	"github.com/openguild/guildpress/internal/services"
	"github.com/openguild/guildpress/pkg/response"
	"gorm.io/gorm"
)

type ApplicationHandler struct {
	applicationService *services.ApplicationService
}

func NewApplicationHandler(db *gorm.DB, gate *permissions.Gate) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: services.NewApplicationService(db, gate),
	}
}

// Create opens a draft application
// POST /api/applications
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req services.ApplicationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	app, err := h.applicationService.Create(middleware.CurrentActor(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// Update edits a draft application
// PUT /api/applications/:id
func (h *ApplicationHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.ApplicationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	app, err := h.applicationService.UpdateDraft(middleware.CurrentActor(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, app)
}

// Submit moves a draft to submitted
// POST /api/applications/:id/submit
func (h *ApplicationHandler) Submit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	app, err := h.applicationService.Submit(middleware.CurrentActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, app)
}

// MoveToReview moves a submitted application under review
// POST /api/applications/:id/review
func (h *ApplicationHandler) MoveToReview(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	app, err := h.applicationService.MoveToReview(middleware.CurrentActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, app)
}

// Approve approves an application and upgrades the applicant's grade
// POST /api/applications/:id/approve
func (h *ApplicationHandler) Approve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.ApplicationDecisionRequest
	_ = c.ShouldBindJSON(&req)

	app, err := h.applicationService.Approve(middleware.CurrentActor(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, app)
}

// Reject rejects an application with mandatory notes
// POST /api/applications/:id/reject
func (h *ApplicationHandler) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.ApplicationDecisionRequest
	_ = c.ShouldBindJSON(&req)

	app, err := h.applicationService.Reject(middleware.CurrentActor(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, app)
}

// Get returns a single application
// GET /api/applications/:id
func (h *ApplicationHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	app, err := h.applicationService.GetByID(middleware.CurrentActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, app)
}

// List returns paginated applications
// GET /api/applications
func (h *ApplicationHandler) List(c *gin.Context) {
	var req services.ApplicationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.applicationService.List(middleware.CurrentActor(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
