package models

import (
	"time"

	"github.com/openguild/guildpress/internal/workflow"
	"gorm.io/gorm"
)

// Article represents a submission moving through the editorial pipeline
type Article struct {
	ID          uint                   `gorm:"primaryKey" json:"id"`
	Slug        string                 `gorm:"uniqueIndex;size:250;not null" json:"slug"`
	Title       string                 `gorm:"size:250;not null" json:"title"`
	Abstract    string                 `gorm:"type:text" json:"abstract"`
	Content     string                 `gorm:"type:text" json:"content"`
	Type        workflow.ArticleType   `gorm:"size:50;not null" json:"type"` // research, review, tutorial, perspective, news
	Tags        string                 `gorm:"size:500" json:"tags"`         // comma-separated topic tags
	Status      workflow.ArticleStatus `gorm:"size:50;index;default:draft" json:"status"`
	AuthorID    uint                   `gorm:"index;not null" json:"author_id"`
	Author      *User                  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	PublishAt   *time.Time             `json:"publish_at"`   // set when scheduled
	PublishedAt *time.Time             `json:"published_at"` // set on publication
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	DeletedAt   gorm.DeletedAt         `gorm:"index" json:"-"`
}

func (Article) TableName() string { return "articles" }
