package queue

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/cinegraph/backend/internal/util"
	"github.com/cinegraph/backend/pkg/logger"
)

// IngestQueue carries ingestion jobs from the API server to the worker.
const IngestQueue = "ingest_queue"

func Init() *amqp091.Connection {
	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	host := util.GetEnv("RABBITMQ_HOST")
	port := util.GetEnv("RABBITMQ_PORT")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	// The broker may still be booting; give it a few tries.
	var conn *amqp091.Connection
	err := util.RetryErr(5, func() error {
		var dialErr error
		conn, dialErr = amqp091.Dial(connURL)
		if dialErr != nil {
			time.Sleep(2 * time.Second)
		}
		return dialErr
	})
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares the ingest queue plus its retry and dead-letter
// companions. The retry queue bounces messages back after a short TTL.
func SetupQueues(ch *amqp091.Channel) error {
	_, err := ch.QueueDeclare(
		IngestQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("QueueDeclare %s failed: %w", IngestQueue, err)
	}

	_, err = ch.QueueDeclare(
		IngestQueue+"_dlq",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("QueueDeclare %s_dlq failed: %w", IngestQueue, err)
	}

	_, err = ch.QueueDeclare(
		IngestQueue+"_retry",
		true,
		false,
		false,
		false,
		amqp091.Table{
			"x-message-ttl":             int32(10000),
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": IngestQueue,
		},
	)
	if err != nil {
		return fmt.Errorf("QueueDeclare %s_retry failed: %w", IngestQueue, err)
	}

	return nil
}

// Publish sends one persistent message to the named queue.
func Publish(ch *amqp091.Channel, queueName string, data []byte) error {
	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		"",
		queueName,
		false,
		false,
		publishing,
	)
}
