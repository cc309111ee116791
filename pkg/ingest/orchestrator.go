package ingest

import (
	"context"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"newshub/pkg/domain"
	"newshub/pkg/provider"
)

// Saver persists one provider's batch of drafts, returning how many were new
type Saver interface {
	Save(ctx context.Context, drafts []domain.ArticleDraft) (int, error)
}

// Orchestrator runs the ingestion cycle: fetch from every registered
// provider concurrently, then persist batch by batch. A failing provider
// never affects the others; its error lands in the per-source report.
type Orchestrator struct {
	providers  []provider.Provider
	saver      Saver
	maxWorkers int
}

// NewOrchestrator creates an orchestrator over the given providers.
// Providers report in registration order regardless of fetch timing.
func NewOrchestrator(providers []provider.Provider, saver Saver, maxWorkers int) *Orchestrator {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Orchestrator{providers: providers, saver: saver, maxWorkers: maxWorkers}
}

// Run executes one ingestion cycle. With dryRun set the fetch and
// normalization happen as usual but nothing is persisted and no cache is
// touched, so the report shows what would have been fetched.
func (o *Orchestrator) Run(ctx context.Context, dryRun bool) domain.IngestResult {
	started := time.Now()
	lgr.Printf("[INFO] ingesting from %d providers, dry_run=%v", len(o.providers), dryRun)

	results := make([]domain.SourceResult, len(o.providers))
	batches := make([][]domain.ArticleDraft, len(o.providers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxWorkers)
	for i, p := range o.providers {
		g.Go(func() error {
			drafts, err := p.FetchNews(gctx)
			results[i] = domain.SourceResult{Source: p.Name(), Fetched: len(drafts)}
			if err != nil {
				lgr.Printf("[WARN] fetch from %s failed: %v", p.Name(), err)
				results[i].Error = err.Error()
				return nil
			}
			batches[i] = drafts
			return nil
		})
	}
	_ = g.Wait() // fetch errors are reported per source, never propagated

	total := 0
	for i := range o.providers {
		total += results[i].Fetched
		if dryRun || len(batches[i]) == 0 {
			continue
		}
		saved, err := o.saver.Save(ctx, batches[i])
		if err != nil {
			lgr.Printf("[ERROR] failed to persist batch from %s: %v", results[i].Source, err)
			results[i].Error = err.Error()
			continue
		}
		results[i].Saved = saved
	}

	result := domain.IngestResult{TotalArticles: total, Sources: results}
	lgr.Printf("[INFO] ingestion completed in %v: %d fetched, %d saved",
		time.Since(started).Round(time.Millisecond), total, result.TotalSaved())
	return result
}
