package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinegraph/backend/internal/jobs"
	"github.com/cinegraph/backend/internal/queue"
	"github.com/cinegraph/backend/internal/util"
	"github.com/cinegraph/backend/pkg/embed"
	"github.com/cinegraph/backend/pkg/ingest"
	"github.com/cinegraph/backend/pkg/leaselock"
	"github.com/cinegraph/backend/pkg/logger"
	"github.com/cinegraph/backend/pkg/logger/console"
	sourcepgx "github.com/cinegraph/backend/pkg/source/pgx"
	neostore "github.com/cinegraph/backend/pkg/store/neo4j"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleBackend := console.NewBackend(console.NewBackendParams{
		Debug: debug,
	})
	logger.Init(consoleBackend)

	// Init pgx pool for the relational source
	pgConn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	rowSource := sourcepgx.NewRowSource(pgConn)
	jobStore := jobs.NewStore(pgConn)
	locks := leaselock.New(pgConn)

	// Init graph store
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

	// Optional embedding capability
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
		ParallelRows: util.GetEnvInt("INGEST_PARALLEL_ROWS", 1),
	})
	if err != nil {
		logger.Fatal("Could not create ingestion driver", "err", err)
	}

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	// One message at a time; each ingest job is a full batch run.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.IngestQueue,
		queue.IngestQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.IngestQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.IngestQueue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.IngestQueue)
				return
			}

			startTime := time.Now()
			logger.Info("Received message", "queue", queue.IngestQueue)

			summary, processingErr := queue.ProcessIngestMessage(ctx, driver, jobStore, locks, string(msg.Body))

			if processingErr != nil {
				logger.Error("Error processing message", "queue", queue.IngestQueue, "err", processingErr)
				handleProcessingError(consumerCh, msg, queue.IngestQueue)
			} else {
				if err := msg.Ack(false); err != nil {
					logger.Error("Failed to ack message", "err", err)
				}
				logger.Info("Message processed successfully",
					"queue", queue.IngestQueue,
					"rows_found", summary.RowsFound,
					"rows_ingested", summary.RowsIngested,
					"rows_failed", summary.RowsFailed,
				)
			}

			logger.Info("Processing time", "duration", time.Since(startTime).Round(time.Millisecond).String())
			logger.Info("Waiting for next message")
		}
	}
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// After 10 retries the message goes to the dead-letter queue.
	if retries >= 10 {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = retries + 1

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
