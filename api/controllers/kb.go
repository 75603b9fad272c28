package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/api/middleware"
	"github.com/rentwise/rentwise-backend/api/responses"
	"github.com/rentwise/rentwise-backend/api/validators"
	"github.com/rentwise/rentwise-backend/internal/kb"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"github.com/rentwise/rentwise-backend/pkg/logger"
	"github.com/rentwise/rentwise-backend/pkg/types"
)

type kbCategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,max=120"`
	Description *string `json:"description,omitempty"`
	SortOrder   int     `json:"sort_order"`
}

type kbCategoryPatchRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,max=120"`
	Description *string `json:"description,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
}

type articleRequest struct {
	CategoryID *uuid.UUID           `json:"category_id,omitempty"`
	Title      string               `json:"title" validate:"required,max=200"`
	Slug       *string              `json:"slug,omitempty" validate:"omitempty,max=220"`
	Summary    *string              `json:"summary,omitempty" validate:"omitempty,max=500"`
	Body       string               `json:"body"`
	Tags       []string             `json:"tags,omitempty"`
	Status     *enums.ArticleStatus `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
}

// A null category_id detaches the article from its category.
type articlePatchRequest struct {
	CategoryID types.NullableUUID   `json:"category_id,omitempty"`
	Title      *string              `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Slug       *string              `json:"slug,omitempty" validate:"omitempty,max=220"`
	Summary    *string              `json:"summary,omitempty" validate:"omitempty,max=500"`
	Body       *string              `json:"body,omitempty"`
	Tags       *[]string            `json:"tags,omitempty"`
	Status     *enums.ArticleStatus `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
}

func (req articlePatchRequest) toPatch() kb.ArticlePatch {
	patch := kb.ArticlePatch{
		Title:   req.Title,
		Slug:    req.Slug,
		Summary: req.Summary,
		Body:    req.Body,
		Tags:    req.Tags,
		Status:  req.Status,
	}
	patch.ClearCategory = req.CategoryID.IsNull()
	if !patch.ClearCategory {
		patch.CategoryID = req.CategoryID.Value
	}
	return patch
}

func KBListCategories(svc kb.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("knowledge base"))
			return
		}
		cats, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cats)
	}
}

func KBCreateCategory(svc kb.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("knowledge base"))
			return
		}
		var body kbCategoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cat, err := svc.CreateCategory(r.Context(), kb.CategoryInput{
			Name:        body.Name,
			Slug:        body.Slug,
			Description: body.Description,
			SortOrder:   body.SortOrder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, cat)
	}
}

func KBUpdateCategory(svc kb.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("knowledge base"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body kbCategoryPatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cat, err := svc.UpdateCategory(r.Context(), id, kb.CategoryPatch{
			Name:        body.Name,
			Slug:        body.Slug,
			Description: body.Description,
			SortOrder:   body.SortOrder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cat)
	}
}

func KBDeleteCategory(svc kb.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("knowledge base"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCategory(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// KBListArticles shows published articles to the public; staff may filter by status.
func KBListArticles(svc kb.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("knowledge base"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := parseQueryEnum(r, "status", enums.ParseArticleStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListArticles(r.Context(), middleware.IsStaffContext(r.Context()), kb.ListArticlesInput{
			Filters: kb.ArticleFilters{
				CategoryID: categoryID,
				Tag:        validators.ParseQueryString(r, "tag", 60),
				Query:      validators.ParseQueryString(r, "q", 100),
				Status:     status,
			},
			Pagination: page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func KBGetArticle(svc kb.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("knowledge base"))
			return
		}
		article, err := svc.GetArticle(r.Context(), middleware.IsStaffContext(r.Context()), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, article)
	}
}

func KBCreateArticle(svc kb.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("knowledge base"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body articleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.CreateArticle(r.Context(), actor, kb.ArticleInput{
			CategoryID: body.CategoryID,
			Title:      body.Title,
			Slug:       body.Slug,
			Summary:    body.Summary,
			Body:       body.Body,
			Tags:       body.Tags,
			Status:     body.Status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, article)
	}
}

func KBUpdateArticle(svc kb.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("knowledge base"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body articlePatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.UpdateArticle(r.Context(), id, body.toPatch())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, article)
	}
}

func KBDeleteArticle(svc kb.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("knowledge base"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteArticle(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
