package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newshub/pkg/domain"
)

// setupTestDB creates repositories backed by an in-memory database
func setupTestDB(t *testing.T) *Repositories {
	t.Helper()

	cfg := Config{
		DSN:             ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: 30 * time.Second,
	}

	repos, err := NewRepositories(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, repos.Close())
	})
	return repos
}

// saveDraft persists a single draft through the batch path, returning the article id
func saveDraft(t *testing.T, repos *Repositories, draft domain.ArticleDraft) int64 {
	t.Helper()

	var id int64
	err := repos.InBatch(context.Background(), func(b *Batch) error {
		categoryID, err := b.GetOrCreateTaxonomy(context.Background(), KindCategory, draft.CategoryName)
		require.NoError(t, err)
		sourceID, err := b.GetOrCreateTaxonomy(context.Background(), KindSource, draft.SourceName)
		require.NoError(t, err)
		authorID, err := b.GetOrCreateTaxonomy(context.Background(), KindAuthor, draft.AuthorName)
		require.NoError(t, err)

		id, err = b.CreateArticle(context.Background(), draft, categoryID, sourceID, authorID)
		return err
	})
	require.NoError(t, err)
	return id
}

func makeDraft(externalID, title, category, source, author string, published time.Time) domain.ArticleDraft {
	return domain.ArticleDraft{
		ExternalID:   externalID,
		Title:        title,
		Description:  "description of " + title,
		Content:      "content of " + title,
		URL:          "https://example.com/" + externalID,
		Published:    &published,
		SourceName:   source,
		CategoryName: category,
		AuthorName:   author,
	}
}

func TestRepositories_Integration(t *testing.T) {
	repos := setupTestDB(t)
	require.NoError(t, repos.Ping(context.Background()))

	published := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	id := saveDraft(t, repos, makeDraft("g_1", "First Article", "Tech", "BBC", "Jane Doe", published))
	require.NotZero(t, id)

	article, err := repos.Article.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "First Article", article.Title)
	assert.Equal(t, "g_1", article.ExternalID)
	assert.Equal(t, "Tech", article.Category.Name)
	assert.Equal(t, "tech", article.Category.Slug)
	assert.Equal(t, "BBC", article.Source.Name)
	assert.Equal(t, "bbc", article.Source.Slug)
	assert.Equal(t, "jane-doe", article.Author.Slug)
	require.NotNil(t, article.Published)
	assert.Equal(t, published, article.Published.UTC())
}

func TestArticleRepository_GetByID_NotFound(t *testing.T) {
	repos := setupTestDB(t)

	_, err := repos.Article.GetByID(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBatch_ArticleExists(t *testing.T) {
	repos := setupTestDB(t)
	saveDraft(t, repos, makeDraft("g_1", "A", "Tech", "BBC", "X", time.Now()))

	err := repos.InBatch(context.Background(), func(b *Batch) error {
		exists, err := b.ArticleExists(context.Background(), "g_1")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = b.ArticleExists(context.Background(), "g_2")
		require.NoError(t, err)
		assert.False(t, exists)
		return nil
	})
	require.NoError(t, err)
}

func TestBatch_GetOrCreateTaxonomy_Idempotent(t *testing.T) {
	repos := setupTestDB(t)

	var firstID, secondID, otherID int64
	err := repos.InBatch(context.Background(), func(b *Batch) error {
		var err error
		firstID, err = b.GetOrCreateTaxonomy(context.Background(), KindSource, "Tech Crunch")
		require.NoError(t, err)
		// same display name resolves to the same row, not a new one
		secondID, err = b.GetOrCreateTaxonomy(context.Background(), KindSource, "Tech Crunch")
		require.NoError(t, err)
		otherID, err = b.GetOrCreateTaxonomy(context.Background(), KindSource, "BBC")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, firstID, secondID)
	assert.NotEqual(t, firstID, otherID)

	sources, err := repos.Taxonomy.List(context.Background(), KindSource, "", 10)
	require.NoError(t, err)
	assert.Len(t, sources, 2)
}

func TestBatch_GetOrCreateTaxonomy_KindsIndependent(t *testing.T) {
	repos := setupTestDB(t)

	err := repos.InBatch(context.Background(), func(b *Batch) error {
		catID, err := b.GetOrCreateTaxonomy(context.Background(), KindCategory, "General")
		require.NoError(t, err)
		srcID, err := b.GetOrCreateTaxonomy(context.Background(), KindSource, "General")
		require.NoError(t, err)
		// same slug in different tables is fine, ids are per table
		assert.Equal(t, catID, srcID, "fresh tables both start at id 1")
		return nil
	})
	require.NoError(t, err)

	categories, err := repos.Taxonomy.List(context.Background(), KindCategory, "", 10)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "general", categories[0].Slug)
}

func TestBatch_RollsBackOnError(t *testing.T) {
	repos := setupTestDB(t)

	err := repos.InBatch(context.Background(), func(b *Batch) error {
		_, err := b.GetOrCreateTaxonomy(context.Background(), KindCategory, "Doomed")
		require.NoError(t, err)
		return fmt.Errorf("forced failure")
	})
	require.Error(t, err)

	categories, err := repos.Taxonomy.List(context.Background(), KindCategory, "", 10)
	require.NoError(t, err)
	assert.Empty(t, categories, "rolled back batch leaves no rows")
}

func TestTaxonomyRepository_List(t *testing.T) {
	repos := setupTestDB(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	saveDraft(t, repos, makeDraft("a_1", "One", "Tech", "BBC", "X", base))
	saveDraft(t, repos, makeDraft("a_2", "Two", "Tech", "BBC", "Y", base))
	saveDraft(t, repos, makeDraft("a_3", "Three", "Science", "CNN", "X", base))

	t.Run("counts and order", func(t *testing.T) {
		categories, err := repos.Taxonomy.List(context.Background(), KindCategory, "", 10)
		require.NoError(t, err)
		require.Len(t, categories, 2)
		// name-ordered: Science before Tech
		assert.Equal(t, "Science", categories[0].Name)
		assert.Equal(t, 1, categories[0].Count)
		assert.Equal(t, "Tech", categories[1].Name)
		assert.Equal(t, 2, categories[1].Count)
	})

	t.Run("name search", func(t *testing.T) {
		sources, err := repos.Taxonomy.List(context.Background(), KindSource, "bb", 10)
		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.Equal(t, "BBC", sources[0].Name)
	})

	t.Run("limit", func(t *testing.T) {
		authors, err := repos.Taxonomy.List(context.Background(), KindAuthor, "", 1)
		require.NoError(t, err)
		assert.Len(t, authors, 1)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := repos.Taxonomy.List(context.Background(), TaxonomyKind("bogus"), "", 10)
		assert.Error(t, err)
	})
}

func TestArticleRepository_Related(t *testing.T) {
	repos := setupTestDB(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mainID := saveDraft(t, repos, makeDraft("m_1", "Main", "Tech", "BBC", "X", base))
	relIDs := make([]int64, 4)
	for i := range relIDs {
		relIDs[i] = saveDraft(t, repos, makeDraft(fmt.Sprintf("r_%d", i), fmt.Sprintf("Rel %d", i),
			"Tech", "BBC", "X", base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, repos.Article.AddRelated(context.Background(), mainID, relIDs[i]))
	}

	related, err := repos.Article.GetRelated(context.Background(), mainID, 3)
	require.NoError(t, err)
	assert.Len(t, related, 3, "related list capped")
	assert.Equal(t, "Rel 3", related[0].Title, "newest first")
}

func TestPreferenceRepository_Upsert(t *testing.T) {
	repos := setupTestDB(t)

	_, err := repos.Preference.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)

	prefs := domain.Preferences{Categories: []string{"science"}, Language: "en", Theme: "dark"}
	require.NoError(t, repos.Preference.Upsert(context.Background(), 42, prefs))

	stored, err := repos.Preference.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.EqualValues(t, 42, stored.UserID)
	assert.Equal(t, []string{"science"}, stored.Preferences.Categories)
	assert.Equal(t, "dark", stored.Preferences.Theme)

	// second save replaces, never duplicates
	prefs.Categories = []string{"tech", "world"}
	require.NoError(t, repos.Preference.Upsert(context.Background(), 42, prefs))

	stored, err = repos.Preference.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, []string{"tech", "world"}, stored.Preferences.Categories)

	var count int
	require.NoError(t, repos.DB.Get(&count, "SELECT COUNT(*) FROM user_preferences WHERE user_id = 42"))
	assert.Equal(t, 1, count)
}
