package services

import (
	"testing"
	"time"

	"github.com/openguild/guildpress/internal/models"
	"github.com/openguild/guildpress/internal/workflow"
)

func TestPublishDueArticles(t *testing.T) {
	db := setupTestDB(t)
	installRecorder(t)
	svc := NewSchedulerService(db)

	author := createTestUser(t, db, "author", "member")

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	due := &models.Article{
		Slug:      "due-now",
		Title:     "Due Now",
		Type:      workflow.TypeResearch,
		Status:    workflow.ArticleScheduled,
		AuthorID:  author.ID,
		PublishAt: &past,
	}
	notYet := &models.Article{
		Slug:      "not-yet",
		Title:     "Not Yet",
		Type:      workflow.TypeResearch,
		Status:    workflow.ArticleScheduled,
		AuthorID:  author.ID,
		PublishAt: &future,
	}
	if err := db.Create(due).Error; err != nil {
		t.Fatalf("seed due article: %v", err)
	}
	if err := db.Create(notYet).Error; err != nil {
		t.Fatalf("seed future article: %v", err)
	}

	svc.PublishDueArticles()

	var reloaded models.Article
	if err := db.First(&reloaded, due.ID).Error; err != nil {
		t.Fatalf("reload due article: %v", err)
	}
	if reloaded.Status != workflow.ArticlePublished {
		t.Errorf("due article Status = %q, expected %q", reloaded.Status, workflow.ArticlePublished)
	}
	if reloaded.PublishedAt == nil {
		t.Error("PublishedAt should be set")
	}

	var reloadedFuture models.Article
	if err := db.First(&reloadedFuture, notYet.ID).Error; err != nil {
		t.Fatalf("reload future article: %v", err)
	}
	if reloadedFuture.Status != workflow.ArticleScheduled {
		t.Errorf("future article Status = %q, expected %q", reloadedFuture.Status, workflow.ArticleScheduled)
	}
}

func TestPublishDueArticles_SkipsManuallyMovedArticles(t *testing.T) {
	db := setupTestDB(t)
	installRecorder(t)
	svc := NewSchedulerService(db)

	author := createTestUser(t, db, "author", "member")

	past := time.Now().Add(-time.Minute)
	article := &models.Article{
		Slug:      "already-moved",
		Title:     "Already Moved",
		Type:      workflow.TypeResearch,
		Status:    workflow.ArticlePublished,
		AuthorID:  author.ID,
		PublishAt: &past,
	}
	if err := db.Create(article).Error; err != nil {
		t.Fatalf("seed article: %v", err)
	}

	// Status filter excludes anything no longer scheduled.
	svc.PublishDueArticles()

	var reloaded models.Article
	if err := db.First(&reloaded, article.ID).Error; err != nil {
		t.Fatalf("reload article: %v", err)
	}
	if reloaded.Status != workflow.ArticlePublished {
		t.Errorf("Status = %q, expected unchanged %q", reloaded.Status, workflow.ArticlePublished)
	}
}
