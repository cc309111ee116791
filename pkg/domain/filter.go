package domain

import (
	"crypto/md5" //nolint:gosec // cache key fingerprint, not security
	"fmt"
	"strings"
	"time"
)

// SortField is an allowed article sort column
type SortField string

// allowed sort fields, anything else falls back to SortPublished
const (
	SortTitle     SortField = "title"
	SortPublished SortField = "published_at"
	SortCreated   SortField = "created_at"
	SortUpdated   SortField = "updated_at"
)

// ArticleFilter describes a filtered, sorted, paginated article query.
// Taxonomy lists are OR-combined within a field and AND-combined across fields.
type ArticleFilter struct {
	Query      string
	Categories []string
	Sources    []string
	Authors    []string
	DateFrom   *time.Time // inclusive, by published date
	DateTo     *time.Time
	SortField  SortField
	SortDesc   bool
	Page       int
	PerPage    int
}

// NewArticleFilter returns a filter with default sort and pagination
func NewArticleFilter() ArticleFilter {
	return ArticleFilter{SortField: SortPublished, SortDesc: true, Page: 1, PerPage: 15}
}

// ParseSortField maps a sort string to an allowed field, leading '-' stripped.
// Unknown fields default to published_at.
func ParseSortField(sort string) SortField {
	switch SortField(strings.TrimPrefix(sort, "-")) {
	case SortTitle:
		return SortTitle
	case SortCreated:
		return SortCreated
	case SortUpdated:
		return SortUpdated
	default:
		return SortPublished
	}
}

// ApplySort sets sort field and direction from a single sort string,
// where a leading '-' denotes descending, e.g. "-published_at"
func (f *ArticleFilter) ApplySort(sort string) {
	f.SortField = ParseSortField(sort)
	f.SortDesc = strings.HasPrefix(sort, "-")
}

// SortString renders the filter's sort as the wire form, e.g. "-published_at"
func (f *ArticleFilter) SortString() string {
	if f.SortDesc {
		return "-" + string(f.SortField)
	}
	return string(f.SortField)
}

// Normalize clamps pagination to valid bounds and fills sort defaults
func (f *ArticleFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 15
	}
	if f.PerPage > 100 {
		f.PerPage = 100
	}
	if f.SortField == "" {
		f.SortField = SortPublished
		f.SortDesc = true
	}
}

// CacheKey returns a deterministic fingerprint of all filter fields,
// stable across calls with equal filters. Every field gets a tagged slot
// so an absent value can never collide with a present one, and list
// entries are length-prefixed so separator characters inside labels can't
// forge another list's serialization.
func (f *ArticleFilter) CacheKey() string {
	var sb strings.Builder
	writeList := func(tag string, values []string) {
		sb.WriteString("|" + tag + "=")
		for _, v := range values {
			fmt.Fprintf(&sb, "%d:%s,", len(v), v)
		}
	}

	sb.WriteString("q=" + f.Query)
	writeList("cat", f.Categories)
	writeList("src", f.Sources)
	writeList("auth", f.Authors)
	sb.WriteString("|from=" + dateOrEmpty(f.DateFrom))
	sb.WriteString("|to=" + dateOrEmpty(f.DateTo))
	fmt.Fprintf(&sb, "|sort=%s|page=%d|per=%d", f.SortString(), f.Page, f.PerPage)
	return fmt.Sprintf("%x", md5.Sum([]byte(sb.String()))) //nolint:gosec // fingerprint only
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
