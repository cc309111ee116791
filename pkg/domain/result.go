package domain

// SourceResult is the per-provider outcome of one ingestion run
type SourceResult struct {
	Source  string `json:"source"`
	Fetched int    `json:"fetched"`
	Saved   int    `json:"saved"`
	Error   string `json:"error,omitempty"`
}

// IngestResult aggregates all provider outcomes of one ingestion run
type IngestResult struct {
	TotalArticles int            `json:"total_articles"`
	Sources       []SourceResult `json:"sources"`
}

// TotalSaved sums newly inserted articles across all sources
func (r IngestResult) TotalSaved() int {
	total := 0
	for _, s := range r.Sources {
		total += s.Saved
	}
	return total
}
