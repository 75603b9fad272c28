package enums

import "fmt"

// ArticleStatus is the publication state of a knowledge base article.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
	ArticleStatusArchived  ArticleStatus = "archived"
)

var validArticleStatuses = []ArticleStatus{
	ArticleStatusDraft,
	ArticleStatusPublished,
	ArticleStatusArchived,
}

// IsValid reports whether the value is a known ArticleStatus.
func (s ArticleStatus) IsValid() bool {
	for _, candidate := range validArticleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseArticleStatus converts raw input into an ArticleStatus.
func ParseArticleStatus(value string) (ArticleStatus, error) {
	for _, candidate := range validArticleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid article status %q", value)
}
