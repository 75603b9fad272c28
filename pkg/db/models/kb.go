package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"gorm.io/gorm"
)

type KBCategory struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Description *string   `gorm:"column:description" json:"description,omitempty"`
	SortOrder   int       `gorm:"column:sort_order;not null" json:"sort_order"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (KBCategory) TableName() string { return "kb_categories" }

func (c *KBCategory) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

type KBArticle struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID  *uuid.UUID          `gorm:"column:category_id;type:uuid" json:"category_id,omitempty"`
	AuthorID    uuid.UUID           `gorm:"column:author_id;type:uuid;not null" json:"author_id"`
	Title       string              `gorm:"column:title;not null" json:"title"`
	Slug        string              `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Summary     *string             `gorm:"column:summary" json:"summary,omitempty"`
	Body        string              `gorm:"column:body;not null" json:"body"`
	Tags        pq.StringArray      `gorm:"column:tags;type:text[]" json:"tags"`
	Status      enums.ArticleStatus `gorm:"column:status;type:text;not null" json:"status"`
	PublishedAt *time.Time          `gorm:"column:published_at" json:"published_at,omitempty"`
	ViewCount   int64               `gorm:"column:view_count;not null" json:"view_count"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (KBArticle) TableName() string { return "kb_articles" }

func (a *KBArticle) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	if a.Status == "" {
		a.Status = enums.ArticleStatusDraft
	}
	return nil
}
