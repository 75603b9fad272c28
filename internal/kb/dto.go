package kb

import (
	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"github.com/rentwise/rentwise-backend/pkg/pagination"
)

type CategoryInput struct {
	Name        string
	Slug        *string
	Description *string
	SortOrder   int
}

type CategoryPatch struct {
	Name        *string
	Slug        *string
	Description *string
	SortOrder   *int
}

// ArticleInput creates an article; status defaults to draft.
type ArticleInput struct {
	CategoryID *uuid.UUID
	Title      string
	Slug       *string
	Summary    *string
	Body       string
	Tags       []string
	Status     *enums.ArticleStatus
}

type ArticlePatch struct {
	CategoryID    *uuid.UUID
	ClearCategory bool
	Title         *string
	Slug          *string
	Summary       *string
	Body          *string
	Tags          *[]string
	Status        *enums.ArticleStatus
}

// ArticleFilters narrows the article list. Status is honored for staff only.
type ArticleFilters struct {
	CategoryID *uuid.UUID
	Tag        string
	Query      string
	Status     *enums.ArticleStatus
}

type ListArticlesInput struct {
	Filters    ArticleFilters
	Pagination pagination.Params
}
