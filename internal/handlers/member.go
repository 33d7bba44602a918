package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/openguild/guildpress/internal/middleware"
	"github.com/openguild/guildpress/internal/permissions"
	"github.com/openguild/guildpress/internal/services"
	"github.com/openguild/guildpress/pkg/response"
	"gorm.io/gorm"
)

type MemberHandler struct {
	memberService *services.MemberService
}

func NewMemberHandler(db *gorm.DB, gate *permissions.Gate) *MemberHandler {
	return &MemberHandler{
		memberService: services.NewMemberService(db, gate),
	}
}

// List returns the member directory
// GET /api/members
func (h *MemberHandler) List(c *gin.Context) {
	var req services.MemberListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.memberService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Get returns a member profile
// GET /api/members/:id
func (h *MemberHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := h.memberService.GetProfile(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateProfile edits profile fields
// PUT /api/members/:id
func (h *MemberHandler) UpdateProfile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.memberService.UpdateProfile(middleware.CurrentActor(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

type setRolesRequest struct {
	Roles []string `json:"roles" binding:"required"`
}

// SetRoles replaces a member's role list, admin only
// PUT /api/members/:id/roles
func (h *MemberHandler) SetRoles(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req setRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.memberService.SetRoles(middleware.CurrentActor(c), id, req.Roles)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive enables or disables an account, admin only
// PUT /api/members/:id/active
func (h *MemberHandler) SetActive(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.memberService.SetActive(middleware.CurrentActor(c), id, *req.Active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}
