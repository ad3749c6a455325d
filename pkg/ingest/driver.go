package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/logger"
	"github.com/cinegraph/backend/pkg/source"
	"github.com/cinegraph/backend/pkg/store"

	"golang.org/x/sync/errgroup"
)

// Embedder computes a vector embedding for a piece of text. It is an
// optional enrichment capability: when configured, the driver attaches a
// plot embedding to each movie node before merging.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float64, error)
}

// Driver drains a row source and merges each row into the graph store. Rows
// are processed sequentially by default; ParallelRows enables a bounded pool
// of concurrent row units. Either way each row's own merge sequence stays
// strictly ordered inside its unit of work.
//
// A Driver should be created using NewDriver.
type Driver struct {
	source   source.RowSource
	store    store.GraphStore
	embedder Embedder
	parallel int
}

// NewDriverParams defines the configuration for creating a Driver.
//
// Source and Store are required. Embedder is optional; when nil, no
// embeddings are computed. ParallelRows values below 2 select sequential
// processing.
type NewDriverParams struct {
	Source       source.RowSource
	Store        store.GraphStore
	Embedder     Embedder
	ParallelRows int
}

func NewDriver(params NewDriverParams) (*Driver, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("row source is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("graph store is required")
	}
	parallel := params.ParallelRows
	if parallel < 1 {
		parallel = 1
	}
	return &Driver{
		source:   params.Source,
		store:    params.Store,
		embedder: params.Embedder,
		parallel: parallel,
	}, nil
}

// IngestRow extracts and merges a single row as one atomic unit of work.
func (d *Driver) IngestRow(ctx context.Context, row common.Row) error {
	ops, err := ExtractRow(row)
	if err != nil {
		return err
	}
	d.attachPlotEmbedding(ctx, row, ops)
	return mergeRow(ctx, d.store, ops)
}

// attachPlotEmbedding adds a plotEmbedding property to the row's movie node
// operation. Embedding failures downgrade to a warning: enrichment must
// never cost the row.
func (d *Driver) attachPlotEmbedding(ctx context.Context, row common.Row, ops []common.Operation) {
	if d.embedder == nil {
		return
	}
	plot, _ := NullableString(row.Plot).(string)
	if plot == "" {
		return
	}
	vec, err := d.embedder.EmbedText(ctx, plot)
	if err != nil {
		logger.Warn("[Ingest] Failed to embed plot, continuing without", "tconst", row.TitleID, "err", err)
		return
	}
	for _, op := range ops {
		if op.Node != nil && op.Node.Type == common.NodeMovie && op.Node.ID == row.TitleID {
			op.Node.Props["plotEmbedding"] = vec
			return
		}
	}
}

// IngestForParticipant fetches every joined row for the given participant
// name and merges them. A row that fails extraction or its unit of work is
// counted in RowsFailed and the batch continues; only a store connectivity
// failure, a row source failure, or cancellation aborts the run. On abort
// the summary reflects the rows finished so far.
func (d *Driver) IngestForParticipant(ctx context.Context, name string) (common.Summary, error) {
	summary := common.Summary{}

	rows, err := d.source.RowsForParticipant(ctx, name)
	if err != nil {
		return summary, fmt.Errorf("failed to fetch rows for %q: %w", name, err)
	}
	summary.RowsFound = len(rows)

	logger.Info("[Ingest] Processing", "participant", name, "rows_found", len(rows))

	if d.parallel > 1 {
		err = d.ingestParallel(ctx, rows, &summary)
	} else {
		err = d.ingestSequential(ctx, rows, &summary)
	}
	if err != nil {
		return summary, err
	}

	logger.Info("[Ingest] Batch completed",
		"participant", name,
		"rows_found", summary.RowsFound,
		"rows_ingested", summary.RowsIngested,
		"rows_failed", summary.RowsFailed,
	)
	return summary, nil
}

func (d *Driver) ingestSequential(ctx context.Context, rows []common.Row, summary *common.Summary) error {
	for _, row := range rows {
		// Cancellation is honored between rows only: the current unit of
		// work always commits or discards as a whole.
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.IngestRow(ctx, row); err != nil {
			if abortErr := classifyRowError(row, err); abortErr != nil {
				return abortErr
			}
			summary.RowsFailed++
			continue
		}
		summary.RowsIngested++
	}
	return nil
}

func (d *Driver) ingestParallel(ctx context.Context, rows []common.Row, summary *common.Summary) error {
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(d.parallel)
	mu := sync.Mutex{}

	for _, row := range rows {
		r := row
		eg.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}
			if err := d.IngestRow(gCtx, r); err != nil {
				if abortErr := classifyRowError(r, err); abortErr != nil {
					return abortErr
				}
				mu.Lock()
				summary.RowsFailed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			summary.RowsIngested++
			mu.Unlock()
			return nil
		})
	}
	return eg.Wait()
}

// classifyRowError decides whether a failed row aborts the batch. It returns
// nil for per-row failures, which are logged and counted, and the error
// itself for store unavailability and cancellation.
func classifyRowError(row common.Row, err error) error {
	if errors.Is(err, store.ErrUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	logger.Warn("[Ingest] Row failed, continuing batch",
		"tconst", row.TitleID,
		"nconst", row.PersonID,
		"err", err,
	)
	return nil
}
