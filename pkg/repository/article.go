package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"newshub/pkg/domain"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// ArticleRepository handles article-related database operations
type ArticleRepository struct {
	db *sqlx.DB
}

// articleSQL represents an article row with joined taxonomy for SQL operations
type articleSQL struct {
	ID          int64      `db:"id"`
	ExternalID  string     `db:"external_id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Content     string     `db:"content"`
	URL         string     `db:"url"`
	ImageURL    string     `db:"image_url"`
	Published   *time.Time `db:"published_at"`
	CategoryID  int64      `db:"category_id"`
	SourceID    int64      `db:"source_id"`
	AuthorID    int64      `db:"author_id"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`

	// joined taxonomy, populated by queries
	CategoryName string `db:"category_name"`
	CategorySlug string `db:"category_slug"`
	SourceName   string `db:"source_name"`
	SourceSlug   string `db:"source_slug"`
	AuthorName   string `db:"author_name"`
	AuthorSlug   string `db:"author_slug"`
}

const articleSelect = `
	SELECT a.*,
	       c.name AS category_name, c.slug AS category_slug,
	       s.name AS source_name, s.slug AS source_slug,
	       au.name AS author_name, au.slug AS author_slug
	FROM articles a
	JOIN categories c ON c.id = a.category_id
	JOIN sources s ON s.id = a.source_id
	JOIN authors au ON au.id = a.author_id
`

// NewArticleRepository creates a new article repository
func NewArticleRepository(database *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: database}
}

// GetByID retrieves a single article with its taxonomy
func (r *ArticleRepository) GetByID(ctx context.Context, id int64) (*domain.Article, error) {
	var row articleSQL
	err := r.db.GetContext(ctx, &row, articleSelect+" WHERE a.id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	article := toDomainArticle(&row)
	return &article, nil
}

// GetRelated retrieves up to limit articles related to the given one
func (r *ArticleRepository) GetRelated(ctx context.Context, id int64, limit int) ([]domain.Article, error) {
	query := articleSelect + `
		JOIN article_related ar ON ar.related_id = a.id
		WHERE ar.article_id = ?
		ORDER BY a.published_at DESC
		LIMIT ?
	`
	var rows []articleSQL
	if err := r.db.SelectContext(ctx, &rows, query, id, limit); err != nil {
		return nil, fmt.Errorf("get related articles: %w", err)
	}

	articles := make([]domain.Article, len(rows))
	for i, row := range rows {
		articles[i] = toDomainArticle(&row)
	}
	return articles, nil
}

// AddRelated links two articles; the association is created out of band of
// ingestion and read by detail views only
func (r *ArticleRepository) AddRelated(ctx context.Context, articleID, relatedID int64) error {
	query := "INSERT OR IGNORE INTO article_related (article_id, related_id) VALUES (?, ?)"
	if _, err := r.db.ExecContext(ctx, query, articleID, relatedID); err != nil {
		return fmt.Errorf("add related article: %w", err)
	}
	return nil
}

// List retrieves one page of articles matching the filter, with the total
// count for pagination metadata
func (r *ArticleRepository) List(ctx context.Context, f domain.ArticleFilter) (domain.Page, error) {
	f.Normalize()
	where, args := buildArticleWhere(f)

	var total int
	countQuery := "SELECT COUNT(*) FROM articles a" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return domain.Page{}, fmt.Errorf("count articles: %w", err)
	}

	query := articleSelect + where + orderClause(f) + " LIMIT ? OFFSET ?"
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)

	var rows []articleSQL
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return domain.Page{}, fmt.Errorf("list articles: %w", err)
	}

	items := make([]domain.Article, len(rows))
	for i, row := range rows {
		items[i] = toDomainArticle(&row)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + f.PerPage - 1) / f.PerPage
	}

	return domain.Page{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		PerPage:    f.PerPage,
		TotalPages: totalPages,
	}, nil
}

// buildArticleWhere translates the filter into a WHERE clause. Taxonomy
// filters are existential subqueries matching slug or display name,
// OR within a field and AND across fields.
func buildArticleWhere(f domain.ArticleFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		clauses = append(clauses, "(a.title LIKE ? OR a.description LIKE ? OR a.content LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}

	taxonomy := func(table, fk string, labels []string) {
		if len(labels) == 0 {
			return
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(labels)), ",")
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s t WHERE t.id = a.%s AND (t.slug IN (%s) OR t.name IN (%s)))",
			table, fk, placeholders, placeholders))
		for _, label := range labels {
			args = append(args, label)
		}
		for _, label := range labels {
			args = append(args, label)
		}
	}
	taxonomy("categories", "category_id", f.Categories)
	taxonomy("sources", "source_id", f.Sources)
	taxonomy("authors", "author_id", f.Authors)

	if f.DateFrom != nil {
		clauses = append(clauses, "date(a.published_at) >= date(?)")
		args = append(args, f.DateFrom.UTC().Format("2006-01-02"))
	}
	if f.DateTo != nil {
		clauses = append(clauses, "date(a.published_at) <= date(?)")
		args = append(args, f.DateTo.UTC().Format("2006-01-02"))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// orderClause renders the requested sort as a single ORDER BY over a
// whitelisted column
func orderClause(f domain.ArticleFilter) string {
	column := "published_at"
	switch f.SortField {
	case domain.SortTitle:
		column = "title"
	case domain.SortCreated:
		column = "created_at"
	case domain.SortUpdated:
		column = "updated_at"
	case domain.SortPublished:
	}
	direction := "ASC"
	if f.SortDesc {
		direction = "DESC"
	}
	return fmt.Sprintf(" ORDER BY a.%s %s", column, direction)
}

// toDomainArticle converts articleSQL to domain.Article
func toDomainArticle(row *articleSQL) domain.Article {
	return domain.Article{
		ID:          row.ID,
		ExternalID:  row.ExternalID,
		Title:       row.Title,
		Description: row.Description,
		Content:     row.Content,
		URL:         row.URL,
		ImageURL:    row.ImageURL,
		Published:   row.Published,
		Category:    domain.Taxonomy{ID: row.CategoryID, Name: row.CategoryName, Slug: row.CategorySlug},
		Source:      domain.Taxonomy{ID: row.SourceID, Name: row.SourceName, Slug: row.SourceSlug},
		Author:      domain.Taxonomy{ID: row.AuthorID, Name: row.AuthorName, Slug: row.AuthorSlug},
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
