package kb

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/auth"
	"github.com/rentwise/rentwise-backend/pkg/db/dbtest"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB, auth.Actor) {
	t.Helper()
	client := dbtest.Client(t)
	conn := client.DB()
	svc, err := NewService(NewRepository(conn), client)
	require.NoError(t, err)
	author := dbtest.MustUser(t, conn, enums.RoleStaff)
	return svc, conn, auth.Actor{UserID: author.ID, Role: enums.RoleStaff}
}

func statusPtr(s enums.ArticleStatus) *enums.ArticleStatus { return &s }

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)
	_, err = NewService(NewRepository(dbtest.Open(t)), nil)
	require.Error(t, err)
}

func TestNormalizeTags(t *testing.T) {
	tags, err := NormalizeTags([]string{"Setup", " setup ", "Battery Life", "", "!!"})
	require.NoError(t, err)
	require.Equal(t, []string{"setup", "battery-life"}, []string(tags))

	empty, err := NormalizeTags(nil)
	require.NoError(t, err)
	require.NotNil(t, empty)

	many := make([]string, MaxTags+1)
	for i := range many {
		many[i] = uuid.NewString()
	}
	_, err = NormalizeTags(many)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateArticleStampsPublishedAtOnce(t *testing.T) {
	svc, _, actor := newTestService(t)
	ctx := context.Background()

	draft, err := svc.CreateArticle(ctx, actor, ArticleInput{Title: "Cleaning a Tent", Body: "Brush it."})
	require.NoError(t, err)
	require.Equal(t, "cleaning-a-tent", draft.Slug)
	require.Equal(t, enums.ArticleStatusDraft, draft.Status)
	require.Nil(t, draft.PublishedAt)
	require.Equal(t, actor.UserID, draft.AuthorID)

	published, err := svc.UpdateArticle(ctx, draft.ID, ArticlePatch{Status: statusPtr(enums.ArticleStatusPublished)})
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	first := *published.PublishedAt

	body := "Brush it gently."
	again, err := svc.UpdateArticle(ctx, draft.ID, ArticlePatch{Body: &body})
	require.NoError(t, err)
	require.True(t, first.Equal(*again.PublishedAt))

	_, err = svc.CreateArticle(ctx, actor, ArticleInput{Title: "cleaning a tent!", Body: "dup"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	_, err = svc.CreateArticle(ctx, actor, ArticleInput{Title: "x", Status: statusPtr("live")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPublicReadsSeePublishedOnlyAndCountViews(t *testing.T) {
	svc, _, actor := newTestService(t)
	ctx := context.Background()

	pub, err := svc.CreateArticle(ctx, actor, ArticleInput{
		Title:  "Charging Batteries",
		Body:   "Plug it in overnight.",
		Tags:   []string{"Battery", "power"},
		Status: statusPtr(enums.ArticleStatusPublished),
	})
	require.NoError(t, err)
	draft, err := svc.CreateArticle(ctx, actor, ArticleInput{Title: "Unreleased", Body: "soon", Tags: []string{"battery"}})
	require.NoError(t, err)

	public, err := svc.ListArticles(ctx, false, ListArticlesInput{})
	require.NoError(t, err)
	require.EqualValues(t, 1, public.Total)
	require.Equal(t, pub.ID, public.Items[0].ID)

	// status filters are ignored for the public
	public, err = svc.ListArticles(ctx, false, ListArticlesInput{Filters: ArticleFilters{Status: statusPtr(enums.ArticleStatusDraft)}})
	require.NoError(t, err)
	require.EqualValues(t, 1, public.Total)

	staff, err := svc.ListArticles(ctx, true, ListArticlesInput{Filters: ArticleFilters{Tag: "Battery"}})
	require.NoError(t, err)
	require.EqualValues(t, 2, staff.Total)

	byQuery, err := svc.ListArticles(ctx, false, ListArticlesInput{Filters: ArticleFilters{Query: "OVERNIGHT"}})
	require.NoError(t, err)
	require.EqualValues(t, 1, byQuery.Total)

	got, err := svc.GetArticle(ctx, false, "charging-batteries")
	require.NoError(t, err)
	require.EqualValues(t, 1, got.ViewCount)
	got, err = svc.GetArticle(ctx, false, "Charging-Batteries")
	require.NoError(t, err)
	require.EqualValues(t, 2, got.ViewCount)

	_, err = svc.GetArticle(ctx, false, draft.Slug)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.GetArticle(ctx, false, draft.ID.String())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	viaID, err := svc.GetArticle(ctx, true, draft.ID.String())
	require.NoError(t, err)
	require.Equal(t, draft.Slug, viaID.Slug)
	require.Zero(t, viaID.ViewCount)
}

func TestDeleteCategoryDetachesArticles(t *testing.T) {
	svc, _, actor := newTestService(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CategoryInput{Name: "Getting Started"})
	require.NoError(t, err)
	require.Equal(t, "getting-started", cat.Slug)

	article, err := svc.CreateArticle(ctx, actor, ArticleInput{CategoryID: &cat.ID, Title: "First Steps", Body: "..."})
	require.NoError(t, err)

	inCat, err := svc.ListArticles(ctx, true, ListArticlesInput{Filters: ArticleFilters{CategoryID: &cat.ID}})
	require.NoError(t, err)
	require.EqualValues(t, 1, inCat.Total)

	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))
	err = svc.DeleteCategory(ctx, cat.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	got, err := svc.GetArticle(ctx, true, article.ID.String())
	require.NoError(t, err)
	require.Nil(t, got.CategoryID)

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Empty(t, cats)
}

func TestUpdateCategoryAndArticleValidation(t *testing.T) {
	svc, _, actor := newTestService(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CategoryInput{Name: "Tips"})
	require.NoError(t, err)

	blank := "  "
	_, err = svc.UpdateCategory(ctx, cat.ID, CategoryPatch{Name: &blank})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	order := 5
	slug := "Pro Tips"
	updated, err := svc.UpdateCategory(ctx, cat.ID, CategoryPatch{Slug: &slug, SortOrder: &order})
	require.NoError(t, err)
	require.Equal(t, "pro-tips", updated.Slug)
	require.Equal(t, 5, updated.SortOrder)

	_, err = svc.UpdateCategory(ctx, uuid.New(), CategoryPatch{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	article, err := svc.CreateArticle(ctx, actor, ArticleInput{CategoryID: &cat.ID, Title: "Packing", Tags: []string{"a"}})
	require.NoError(t, err)

	tags := []string{}
	cleared, err := svc.UpdateArticle(ctx, article.ID, ArticlePatch{ClearCategory: true, Tags: &tags})
	require.NoError(t, err)
	require.Nil(t, cleared.CategoryID)
	require.Empty(t, cleared.Tags)

	require.NoError(t, svc.DeleteArticle(ctx, article.ID))
	err = svc.DeleteArticle(ctx, article.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
