package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openguild/guildpress/internal/middleware"
	"github.com/openguild/guildpress/internal/permissions"
	"github.com/openguild/guildpress/internal/services"
	"github.com/openguild/guildpress/pkg/response"
	"gorm.io/gorm"
)

type ArticleHandler struct {
	articleService *services.ArticleService
}

func NewArticleHandler(db *gorm.DB, gate *permissions.Gate) *ArticleHandler {
	return &ArticleHandler{
		articleService: services.NewArticleService(db, gate),
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// Create creates a draft article
// POST /api/articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var req services.ArticleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	article, err := h.articleService.Create(middleware.CurrentActor(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, article)
}

// Update edits article content
// PUT /api/articles/:id
func (h *ArticleHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.ArticleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	article, err := h.articleService.Update(middleware.CurrentActor(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, article)
}

// Transition requests the next workflow status
// POST /api/articles/:id/transition
func (h *ArticleHandler) Transition(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.ArticleTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	article, err := h.articleService.Transition(middleware.CurrentActor(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, article)
}

// Get returns a single article
// GET /api/articles/:id
func (h *ArticleHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	article, err := h.articleService.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, article)
}

// GetPublished returns a published article by slug, no auth required
// GET /api/published/:slug
func (h *ArticleHandler) GetPublished(c *gin.Context) {
	article, err := h.articleService.GetPublishedBySlug(c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, article)
}

// List returns paginated articles
// GET /api/articles
func (h *ArticleHandler) List(c *gin.Context) {
	var req services.ArticleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.articleService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
