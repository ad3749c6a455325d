package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinegraph/backend/internal/storage"
	"github.com/cinegraph/backend/internal/util"
	"github.com/cinegraph/backend/pkg/embed"
	"github.com/cinegraph/backend/pkg/ingest"
	"github.com/cinegraph/backend/pkg/logger"
	"github.com/cinegraph/backend/pkg/logger/console"
	"github.com/cinegraph/backend/pkg/source"
	sourcepgx "github.com/cinegraph/backend/pkg/source/pgx"
	sourcetsv "github.com/cinegraph/backend/pkg/source/tsv"
	neostore "github.com/cinegraph/backend/pkg/store/neo4j"
)

// Command ingest runs one ingestion batch directly, without going through the
// API server and worker. Useful for one-off loads and local development.
func main() {
	name := flag.String("name", "", "participant primary name to ingest")
	srcKind := flag.String("source", "pg", "row source: pg or tsv")
	file := flag.String("file", "", "path to a TSV dump (source=tsv)")
	s3Key := flag.String("s3", "", "S3 object key of a TSV dump (source=tsv)")
	parallel := flag.Int("parallel", 1, "max concurrent row units")
	reset := flag.Bool("reset", false, "delete the whole graph before ingesting")
	flag.Parse()

	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleBackend := console.NewBackend(console.NewBackendParams{
		Debug: debug,
	})
	logger.Init(consoleBackend)

	if *name == "" {
		logger.Fatal("Missing required flag -name")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rowSource, cleanup, err := buildSource(ctx, *srcKind, *file, *s3Key)
	if err != nil {
		logger.Fatal("Could not create row source", "err", err)
	}
	defer cleanup()

	graphStore, err := neostore.NewStore(ctx, neostore.NewStoreParams{
		URI:            util.GetEnv("NEO4J_URI"),
		Username:       util.GetEnv("NEO4J_USER"),
		Password:       util.GetEnv("NEO4J_PASSWORD"),
		Database:       util.GetEnv("NEO4J_DATABASE"),
		MaxPoolSize:    util.GetEnvInt("NEO4J_MAX_POOL_SIZE", 50),
		ConnectTimeout: time.Duration(util.GetEnvInt("NEO4J_CONNECT_TIMEOUT_SECONDS", 10)) * time.Second,
	})
	if err != nil {
		logger.Fatal("Unable to connect to graph store", "err", err)
	}
	defer graphStore.Close(ctx)

	if *reset {
		if err := graphStore.DeleteAll(ctx); err != nil {
			logger.Fatal("Failed to reset graph", "err", err)
		}
	}

	var embedder ingest.Embedder
	if model := util.GetEnv("AI_EMBED_MODEL"); model != "" {
		client, err := embed.NewClient(embed.NewClientParams{
			Model:          model,
			BaseURL:        util.GetEnv("AI_EMBED_URL"),
			APIKey:         util.GetEnv("AI_EMBED_KEY"),
			TimeoutMinutes: util.GetEnvInt("AI_EMBED_TIMEOUT_MINUTES", 1),
		})
		if err != nil {
			logger.Fatal("Could not create embedding client", "err", err)
		}
		embedder = client
	}

	driver, err := ingest.NewDriver(ingest.NewDriverParams{
		Source:       rowSource,
		Store:        graphStore,
		Embedder:     embedder,
		ParallelRows: *parallel,
	})
	if err != nil {
		logger.Fatal("Could not create ingestion driver", "err", err)
	}

	summary, err := driver.IngestForParticipant(ctx, *name)
	if err != nil {
		logger.Fatal("Ingestion aborted",
			"rows_found", summary.RowsFound,
			"rows_ingested", summary.RowsIngested,
			"rows_failed", summary.RowsFailed,
			"err", err,
		)
	}

	fmt.Printf("rows_found=%d rows_ingested=%d rows_failed=%d\n",
		summary.RowsFound, summary.RowsIngested, summary.RowsFailed)
}

func buildSource(ctx context.Context, kind, file, s3Key string) (source.RowSource, func(), error) {
	noop := func() {}

	switch kind {
	case "pg":
		pgConn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
		if err != nil {
			return nil, noop, fmt.Errorf("unable to connect to database: %w", err)
		}
		return sourcepgx.NewRowSource(pgConn), pgConn.Close, nil

	case "tsv":
		var reader io.ReadCloser
		switch {
		case s3Key != "":
			client := storage.NewS3Client(ctx)
			if client == nil {
				return nil, noop, fmt.Errorf("S3 client is not configured")
			}
			r, err := storage.OpenDump(ctx, client, s3Key)
			if err != nil {
				return nil, noop, err
			}
			reader = r
		case file != "":
			f, err := os.Open(file)
			if err != nil {
				return nil, noop, fmt.Errorf("failed to open dump file: %w", err)
			}
			reader = f
		default:
			return nil, noop, fmt.Errorf("source=tsv needs -file or -s3")
		}
		defer reader.Close()

		src, err := sourcetsv.NewRowSource(reader)
		if err != nil {
			return nil, noop, err
		}
		return src, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown source kind %q", kind)
	}
}
