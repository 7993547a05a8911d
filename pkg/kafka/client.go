// Package kafka provides the message-queue plumbing for background jobs.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mustafamaahir/Meeting-Minutes/internal/config"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/database"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/tasks"
)

// TaskProcessor defines the interface for any service that can process a
// cleanup task. This decouples the consumer from the concrete worker.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.VectorCleanupTask) error
}

// Producer enqueues cleanup tasks. Services depend on this interface so
// tests can capture produced tasks.
type Producer interface {
	ProduceCleanupTask(task tasks.VectorCleanupTask) error
}

var producer *kafka.Writer

// InitProducer initializes the Kafka producer.
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("kafka producer initialized")
}

// CleanupProducer publishes cleanup tasks through the global producer.
type CleanupProducer struct{}

// NewProducer returns a Producer backed by the initialized global writer.
func NewProducer() *CleanupProducer {
	return &CleanupProducer{}
}

// ProduceCleanupTask sends one vector-cleanup task to Kafka.
func (p *CleanupProducer) ProduceCleanupTask(task tasks.VectorCleanupTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}

	return producer.WriteMessages(context.Background(),
		kafka.Message{
			Value: taskBytes,
		},
	)
}

// StartConsumer runs a Kafka consumer that feeds cleanup tasks to the
// processor. Offsets are committed manually: a failing task is retried
// until its Redis attempt counter reaches three, then committed away.
func StartConsumer(cfg config.KafkaConfig, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("kafka consumer started, listening on topic '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(context.Background())
		if err != nil {
			log.Error("failed to fetch kafka message", err)
			break
		}

		log.Infof("received kafka message: offset %d", m.Offset)

		var task tasks.VectorCleanupTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("failed to parse kafka message: %v, value: %s", err, string(m.Value))
			// A malformed message would block the partition forever, commit it away.
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("failed to commit malformed message: %v", err)
			}
			continue
		}

		log.Infof("processing cleanup task: task_id=%s, meeting_db_id=%d", task.TaskID, task.MeetingDBID)
		if err := processor.Process(context.Background(), task); err != nil {
			log.Errorf("cleanup task failed: task_id=%s, error: %v", task.TaskID, err)
			attemptsKey := fmt.Sprintf("cleanup:attempts:%s", task.TaskID)
			attempts, incErr := database.RDB.Incr(context.Background(), attemptsKey).Result()
			if incErr == nil {
				_ = database.RDB.Expire(context.Background(), attemptsKey, 24*time.Hour).Err()
			}
			if incErr != nil {
				// With Redis down we cannot count attempts, leave the offset
				// uncommitted so Kafka redelivers.
				continue
			}
			if attempts >= 3 {
				log.Errorf("cleanup task failed three times, committing offset: task_id=%s", task.TaskID)
				if err := r.CommitMessages(context.Background(), m); err != nil {
					log.Errorf("failed to commit kafka offset: %v", err)
				}
			}
		} else {
			log.Infof("cleanup task done: task_id=%s", task.TaskID)
			_ = database.RDB.Del(context.Background(), fmt.Sprintf("cleanup:attempts:%s", task.TaskID)).Err()
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("failed to commit kafka offset: %v", err)
			}
		}
	}

	if err := r.Close(); err != nil {
		log.Fatalf("failed to close kafka consumer: %v", err)
	}
}
