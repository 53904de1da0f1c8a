package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/sitegraph/internal/config"
	"github.com/nao1215/sitegraph/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchProcessor runs one pipeline per site with bounded concurrency.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each site, so per-site
	// settings apply in batch mode too.
	pipelineFactory func(site string) *Pipeline

	kind        model.RunKind
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of sites processed at once.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor producing runs of kind.
func NewBatchProcessor(kind model.RunKind, pipelineFactory func(site string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		kind:            kind,
		concurrency:     config.DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch runs every site and returns the runs in input order.
// A site failure is recorded in its run and does not stop the others;
// the returned error is only set when ctx ends.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sites []string) ([]*model.Run, error) {
	runs := make([]*model.Run, len(sites))
	err := bp.ProcessBatchWithCallback(ctx, sites, func(run *model.Run, index int) {
		runs[index] = run
	})
	return runs, err
}

// ProcessBatchWithCallback runs every site and calls callback with each
// finished run and its index. The callback is called from the goroutine
// that ran the site.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sites []string,
	callback func(run *model.Run, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_sites", len(sites),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, site := range sites {
		g.Go(func() error {
			run := model.NewRun(bp.kind, site)
			if err := gctx.Err(); err != nil {
				run.Canceled = true
				run.Fail(err)
				run.Finish()
				callback(run, i)
				return err
			}

			bp.logger.Info("processing site", "site", site, "index", i+1, "total", len(sites))
			if err := bp.pipelineFactory(site).Execute(gctx, run); err != nil {
				bp.logger.Warn("site failed", "site", site, "error", err)
			} else {
				bp.logger.Info("site completed", "site", site)
			}
			callback(run, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch processing complete",
		"total_sites", len(sites),
		"elapsed", time.Since(startTime),
	)
	if err == nil {
		err = ctx.Err()
	}
	return err
}
