package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openguild/guildpress/internal/models"
	"github.com/openguild/guildpress/internal/permissions"
	"github.com/openguild/guildpress/pkg/response"
	"gorm.io/gorm"
)

type MemberService struct {
	db   *gorm.DB
	gate *permissions.Gate
}

func NewMemberService(db *gorm.DB, gate *permissions.Gate) *MemberService {
	return &MemberService{db: db, gate: gate}
}

type MemberListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Grade    string `form:"grade"`
	Role     string `form:"role"`
	Search   string `form:"search"`
}

type MemberListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.User `json:"items"`
}

// List returns the member directory. Only active accounts are listed.
func (s *MemberService) List(req *MemberListRequest) (*MemberListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.User{}).Where("is_active = ?", true)
	if req.Grade != "" {
		query = query.Where("grade = ?", req.Grade)
	}
	if req.Role != "" {
		query = query.Where("roles LIKE ?", "%"+req.Role+"%")
	}
	if req.Search != "" {
		query = query.Where("username LIKE ? OR display_name LIKE ?",
			"%"+req.Search+"%", "%"+req.Search+"%")
	}

	var total int64
	query.Count(&total)

	var items []models.User
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).
		Order("username ASC").
		Find(&items).Error; err != nil {
		return nil, response.NewServerError("failed to list members")
	}

	return &MemberListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// GetProfile returns a single member's profile.
func (s *MemberService) GetProfile(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("member not found")
		}
		return nil, response.NewServerError("failed to load member")
	}
	return &user, nil
}

type ProfileUpdateRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Avatar      *string `json:"avatar"`
	Email       *string `json:"email"`
}

// UpdateProfile lets members edit their own profile fields. Roles and grade
// are never touched here.
func (s *MemberService) UpdateProfile(actor Actor, id uint, req *ProfileUpdateRequest) (*models.User, error) {
	if !actor.Known() {
		return nil, response.NewUnauthorized("authentication required")
	}
	if actor.ID != id && !s.gate.HasPermission(actor.Roles, permissions.MemberManage) {
		return nil, response.NewForbidden("not your resource")
	}

	user, err := s.GetProfile(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*req.DisplayName)
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Email != nil {
		updates["email"] = strings.TrimSpace(*req.Email)
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, response.NewServerError("failed to update profile")
	}

	invalidate(MemberDirectoryKey())
	return s.GetProfile(id)
}

// SetRoles replaces a member's role list. Admin only.
func (s *MemberService) SetRoles(actor Actor, id uint, roles []string) (*models.User, error) {
	if !s.gate.HasPermission(actor.Roles, permissions.MemberManage) {
		return nil, response.NewForbidden("missing permission " + string(permissions.MemberManage))
	}

	var parsed []permissions.Role
	for _, r := range roles {
		role := permissions.Role(strings.TrimSpace(r))
		if !role.Valid() {
			return nil, response.NewBadRequest(fmt.Sprintf("unknown role %q", r))
		}
		parsed = append(parsed, role)
	}
	if len(parsed) == 0 {
		return nil, response.NewBadRequest("at least one role is required")
	}

	user, err := s.GetProfile(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(user).Update("roles", permissions.FormatRoles(parsed)).Error; err != nil {
		return nil, response.NewServerError("failed to update roles")
	}

	uid := actor.ID
	LogInfo("Members", "SetRoles",
		fmt.Sprintf("member %d roles set to %s", id, permissions.FormatRoles(parsed)),
		&uid, "", "", nil)

	invalidate(MemberDirectoryKey())
	return s.GetProfile(id)
}

// SetActive enables or disables an account. Admin only.
func (s *MemberService) SetActive(actor Actor, id uint, active bool) (*models.User, error) {
	if !s.gate.HasPermission(actor.Roles, permissions.MemberManage) {
		return nil, response.NewForbidden("missing permission " + string(permissions.MemberManage))
	}
	if actor.ID == id && !active {
		return nil, response.NewBadRequest("cannot disable your own account")
	}

	user, err := s.GetProfile(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(user).Update("is_active", active).Error; err != nil {
		return nil, response.NewServerError("failed to update member")
	}

	invalidate(MemberDirectoryKey())
	return s.GetProfile(id)
}
