package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openguild/guildpress/internal/models"
	"github.com/openguild/guildpress/internal/permissions"
	"github.com/openguild/guildpress/internal/utils"
	"github.com/openguild/guildpress/internal/workflow"
	"github.com/openguild/guildpress/pkg/response"
	"gorm.io/gorm"
)

const maxAbstractLen = 2000

type ArticleService struct {
	db   *gorm.DB
	gate *permissions.Gate
}

func NewArticleService(db *gorm.DB, gate *permissions.Gate) *ArticleService {
	return &ArticleService{db: db, gate: gate}
}

type ArticleCreateRequest struct {
	Title    string   `json:"title" binding:"required"`
	Abstract string   `json:"abstract"`
	Content  string   `json:"content"`
	Type     string   `json:"type" binding:"required"`
	Tags     []string `json:"tags"`
}

type ArticleUpdateRequest struct {
	Title    *string   `json:"title"`
	Abstract *string   `json:"abstract"`
	Content  *string   `json:"content"`
	Type     *string   `json:"type"`
	Tags     *[]string `json:"tags"`
}

type ArticleTransitionRequest struct {
	To        string     `json:"to" binding:"required"`
	PublishAt *time.Time `json:"publish_at"` // required for accepted -> scheduled
}

type ArticleListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Status   string `form:"status"`
	Type     string `form:"type"`
	Tag      string `form:"tag"`
	AuthorID uint   `form:"author_id"`
	Search   string `form:"search"`
}

type ArticleListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Article `json:"items"`
}

// Create creates a new article in draft for the acting author.
func (s *ArticleService) Create(actor Actor, req *ArticleCreateRequest) (*models.Article, error) {
	if !actor.Known() {
		return nil, response.NewUnauthorized("authentication required")
	}
	if !s.gate.HasPermission(actor.Roles, permissions.ArticleCreate) {
		return nil, response.NewForbidden("missing permission " + string(permissions.ArticleCreate))
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, response.NewBadRequest("title is required")
	}
	articleType := workflow.ArticleType(req.Type)
	if !articleType.Valid() {
		return nil, response.NewBadRequest(fmt.Sprintf("invalid article type %q", req.Type))
	}
	if len(req.Abstract) > maxAbstractLen {
		return nil, response.NewBadRequest(fmt.Sprintf("abstract exceeds %d characters", maxAbstractLen))
	}

	article := &models.Article{
		Slug:     s.availableSlug(title),
		Title:    title,
		Abstract: req.Abstract,
		Content:  req.Content,
		Type:     articleType,
		Tags:     strings.Join(req.Tags, ","),
		Status:   workflow.ArticleDraft,
		AuthorID: actor.ID,
	}

	if err := s.db.Create(article).Error; err != nil {
		// A concurrent create can take the slug between the availability
		// check and the insert. The suffixed slug is unique, so one retry
		// suffices.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			article.ID = 0
			article.Slug = utils.UniqueSlug(title)
			err = s.db.Create(article).Error
		}
		if err != nil {
			return nil, response.NewServerError("failed to create article")
		}
	}
	return article, nil
}

// availableSlug derives a slug from the title, falling back to a suffixed
// one when the plain slug is taken.
func (s *ArticleService) availableSlug(title string) string {
	slug := utils.Slugify(title)
	if slug == "" {
		return utils.UniqueSlug(title)
	}

	var count int64
	s.db.Model(&models.Article{}).Where("slug = ?", slug).Count(&count)
	if count > 0 {
		return utils.UniqueSlug(title)
	}
	return slug
}

// Update mutates article content. Only legal while the status is editable,
// and only for the author (or an actor holding article:edit:any).
func (s *ArticleService) Update(actor Actor, id uint, req *ArticleUpdateRequest) (*models.Article, error) {
	article, err := s.getByID(id)
	if err != nil {
		return nil, err
	}

	if !s.gate.CanEditArticle(actor.Roles, actor.ID, article.AuthorID) {
		return nil, response.NewForbidden("not your resource")
	}
	if !article.Status.Editable() {
		return nil, response.NewBadRequest(fmt.Sprintf(
			"article content cannot be edited while status is %q", article.Status))
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, response.NewBadRequest("title is required")
		}
		updates["title"] = title
	}
	if req.Abstract != nil {
		if len(*req.Abstract) > maxAbstractLen {
			return nil, response.NewBadRequest(fmt.Sprintf("abstract exceeds %d characters", maxAbstractLen))
		}
		updates["abstract"] = *req.Abstract
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Type != nil {
		articleType := workflow.ArticleType(*req.Type)
		if !articleType.Valid() {
			return nil, response.NewBadRequest(fmt.Sprintf("invalid article type %q", *req.Type))
		}
		updates["type"] = articleType
	}
	if req.Tags != nil {
		updates["tags"] = strings.Join(*req.Tags, ",")
	}

	if len(updates) == 0 {
		return article, nil
	}

	// Guard on the observed status so a concurrent submit cannot let a
	// content edit slip into a non-editable state.
	res := s.db.Model(&models.Article{}).
		Where("id = ? AND status = ?", article.ID, article.Status).
		Updates(updates)
	if res.Error != nil {
		return nil, response.NewServerError("failed to update article")
	}
	if res.RowsAffected == 0 {
		return nil, response.NewConflict(fmt.Sprintf(
			"article changed concurrently, expected status %q", article.Status))
	}

	invalidate(ArticleViewKey(article.Slug))
	return s.getByID(id)
}

// Transition requests the exact next status for an article. Order of checks:
// permission gate, then transition legality, then the conditional storage
// write. A failed precondition at the write is a conflict, never a silent
// overwrite.
func (s *ArticleService) Transition(actor Actor, id uint, req *ArticleTransitionRequest) (*models.Article, error) {
	to := workflow.ArticleStatus(req.To)
	if !to.Valid() {
		return nil, response.NewBadRequest(fmt.Sprintf("unknown article status %q", req.To))
	}

	article, err := s.getByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeTransition(actor, article, to); err != nil {
		return nil, err
	}

	from := article.Status
	if !from.CanTransitionTo(to) {
		return nil, response.NewIllegalTransition(fmt.Sprintf(
			"cannot transition article from %q to %q", from, to))
	}

	now := time.Now()
	updates := map[string]interface{}{"status": to}
	switch to {
	case workflow.ArticleScheduled:
		if req.PublishAt == nil {
			return nil, response.NewBadRequest("publish_at is required to schedule an article")
		}
		if req.PublishAt.Before(now) {
			return nil, response.NewBadRequest("publish_at must be in the future")
		}
		updates["publish_at"] = *req.PublishAt
	case workflow.ArticlePublished:
		updates["published_at"] = now
	}

	// Compare-and-swap: the update only applies if the status is still the
	// one we validated against.
	res := s.db.Model(&models.Article{}).
		Where("id = ? AND status = ?", article.ID, from).
		Updates(updates)
	if res.Error != nil {
		return nil, response.NewServerError("failed to update article status")
	}
	if res.RowsAffected == 0 {
		return nil, response.NewConflict(fmt.Sprintf(
			"article status changed concurrently, expected %q", from))
	}

	s.invalidateForTransition(article, from, to)

	uid := actor.ID
	LogInfo("Articles", "Transition",
		fmt.Sprintf("article %d: %s -> %s", article.ID, from, to),
		&uid, "", "", nil)

	return s.getByID(id)
}

// authorizeTransition maps each target status to the capability (and
// ownership rule) it requires. Fails closed on unknown targets.
func (s *ArticleService) authorizeTransition(actor Actor, article *models.Article, to workflow.ArticleStatus) error {
	if !actor.Known() {
		return response.NewUnauthorized("authentication required")
	}

	var perm permissions.Permission
	authorOnly := false

	switch to {
	case workflow.ArticleSubmitted, workflow.ArticleResubmitted:
		perm, authorOnly = permissions.ArticleSubmit, true
	case workflow.ArticleInReview, workflow.ArticleRevisionRequested, workflow.ArticleAccepted:
		perm = permissions.ArticleReview
	case workflow.ArticleScheduled, workflow.ArticlePublished, workflow.ArticleArchived:
		perm = permissions.ArticlePublish
	case workflow.ArticleRetracted:
		perm = permissions.ArticleRetract
	default:
		return response.NewForbidden("transition not permitted")
	}

	if !s.gate.HasPermission(actor.Roles, perm) {
		return response.NewForbidden("missing permission " + string(perm))
	}
	if authorOnly && actor.ID != article.AuthorID {
		return response.NewForbidden("not your resource")
	}
	return nil
}

func (s *ArticleService) invalidateForTransition(article *models.Article, from, to workflow.ArticleStatus) {
	keys := []string{ArticleViewKey(article.Slug), EditorQueueKey()}
	if to == workflow.ArticlePublished || from == workflow.ArticlePublished {
		keys = append(keys, PublishedArticlesKey())
	}
	invalidate(keys...)
}

// GetByID returns an article with its author preloaded.
func (s *ArticleService) GetByID(id uint) (*models.Article, error) {
	var article models.Article
	if err := s.db.Preload("Author").First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("article not found")
		}
		return nil, response.NewServerError("failed to load article")
	}
	return &article, nil
}

// GetPublishedBySlug returns a published article for public reading.
func (s *ArticleService) GetPublishedBySlug(slug string) (*models.Article, error) {
	var article models.Article
	err := s.db.Preload("Author").
		Where("slug = ? AND status = ?", slug, workflow.ArticlePublished).
		First(&article).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("article not found")
		}
		return nil, response.NewServerError("failed to load article")
	}
	return &article, nil
}

// List returns paginated articles with optional filters.
func (s *ArticleService) List(req *ArticleListRequest) (*ArticleListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.Article{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}
	if req.Tag != "" {
		query = query.Where("tags LIKE ?", "%"+req.Tag+"%")
	}
	if req.AuthorID != 0 {
		query = query.Where("author_id = ?", req.AuthorID)
	}
	if req.Search != "" {
		query = query.Where("title LIKE ? OR abstract LIKE ?", "%"+req.Search+"%", "%"+req.Search+"%")
	}

	var total int64
	query.Count(&total)

	var items []models.Article
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Author").
		Offset(offset).Limit(req.PageSize).
		Order("updated_at DESC").
		Find(&items).Error; err != nil {
		return nil, response.NewServerError("failed to list articles")
	}

	return &ArticleListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// getByID is the internal fetch without preloads.
func (s *ArticleService) getByID(id uint) (*models.Article, error) {
	var article models.Article
	if err := s.db.First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("article not found")
		}
		return nil, response.NewServerError("failed to load article")
	}
	return &article, nil
}
