package produce

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	CleanupQueue      = "thumbnail.cleanup"
	CleanupRoutingKey = "thumbnail.cleanup"
)

// CleanupMessage carries blob keys whose metadata rows are already gone.
// The cleanup consumer deletes each one and logs the destructive delete,
// which keeps cascade deletions (image removed, height removed)
// auditable instead of hiding them behind a foreign-key cascade.
type CleanupMessage struct {
	StoragePaths []string `json:"storage_paths"`
	Reason       string   `json:"reason"`
	Timestamp    int64    `json:"timestamp"`
}

// CleanupProduceService publishes blob deletion jobs.
type CleanupProduceService struct {
	channel *amqp.Channel
}

func InitCleanupProduceService(channel *amqp.Channel) *CleanupProduceService {
	service := &CleanupProduceService{
		channel: channel,
	}

	err := channel.ExchangeDeclare(
		ThumbnailExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare Thumbnail exchange: " + err.Error())
	}

	_, err = channel.QueueDeclare(
		CleanupQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		panic("Failed to declare Cleanup queue: " + err.Error())
	}

	err = channel.QueueBind(
		CleanupQueue,
		CleanupRoutingKey,
		ThumbnailExchange,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to bind Cleanup queue: " + err.Error())
	}

	return service
}

// PublishCleanup enqueues deletion of orphaned blobs.
func (s *CleanupProduceService) PublishCleanup(ctx context.Context, msg CleanupMessage) error {
	msg.Timestamp = time.Now().Unix()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		ThumbnailExchange,
		CleanupRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}
