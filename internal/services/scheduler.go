package services

import (
	"fmt"
	"time"

	"github.com/openguild/guildpress/internal/models"
	"github.com/openguild/guildpress/internal/workflow"
	"github.com/openguild/guildpress/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const logRetentionDays = 90

// SchedulerService runs the background jobs: publishing scheduled articles
// when their publish time arrives, and pruning old system logs.
type SchedulerService struct {
	db            *gorm.DB
	systemLogs    *SystemLogService
	cronScheduler *cron.Cron
}

func NewSchedulerService(db *gorm.DB) *SchedulerService {
	return &SchedulerService{
		db:         db,
		systemLogs: NewSystemLogService(db),
	}
}

func (s *SchedulerService) Start() {
	s.cronScheduler = cron.New()

	if _, err := s.cronScheduler.AddFunc("@every 1m", s.PublishDueArticles); err != nil {
		logger.Errorf("[Scheduler] Failed to add publish job: %v", err)
	}
	if _, err := s.cronScheduler.AddFunc("@daily", s.cleanupLogs); err != nil {
		logger.Errorf("[Scheduler] Failed to add log cleanup job: %v", err)
	}

	s.cronScheduler.Start()
	logger.Infof("[Scheduler] Started")
}

func (s *SchedulerService) Stop() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

// PublishDueArticles promotes scheduled articles whose publish time has
// passed. Each row is updated with a status guard so a concurrent manual
// transition wins cleanly.
func (s *SchedulerService) PublishDueArticles() {
	now := time.Now()

	var due []models.Article
	err := s.db.Where("status = ? AND publish_at IS NOT NULL AND publish_at <= ?",
		workflow.ArticleScheduled, now).
		Find(&due).Error
	if err != nil {
		logger.Errorf("[Scheduler] Failed to query scheduled articles: %v", err)
		return
	}

	for _, article := range due {
		res := s.db.Model(&models.Article{}).
			Where("id = ? AND status = ?", article.ID, workflow.ArticleScheduled).
			Updates(map[string]interface{}{
				"status":       workflow.ArticlePublished,
				"published_at": now,
			})
		if res.Error != nil {
			logger.Errorf("[Scheduler] Failed to publish article %d: %v", article.ID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}

		invalidate(ArticleViewKey(article.Slug), PublishedArticlesKey(), EditorQueueKey())
		LogInfo("Articles", "ScheduledPublish",
			fmt.Sprintf("article %d published on schedule", article.ID),
			nil, "", "", nil)
	}
}

func (s *SchedulerService) cleanupLogs() {
	if _, err := s.systemLogs.CleanupOldLogs(logRetentionDays); err != nil {
		logger.Errorf("[Scheduler] Log cleanup failed: %v", err)
	}
}
