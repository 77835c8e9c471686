package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pixvault/pix-image-service/infra"
	"github.com/pixvault/pix-image-service/infra/produce"
	"github.com/pixvault/pix-image-service/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

// CleanupConsumer deletes orphaned blobs after their metadata rows are
// gone. Every destructive delete is logged with its reason so cascade
// deletions stay auditable.
type CleanupConsumer struct {
	channel    *amqp.Channel
	infra      *infra.Infra
	repository *repository.Repository
}

// NewCleanupConsumer creates a new CleanupConsumer instance
func NewCleanupConsumer(channel *amqp.Channel, infra *infra.Infra, repo *repository.Repository) *CleanupConsumer {
	return &CleanupConsumer{
		channel:    channel,
		infra:      infra,
		repository: repo,
	}
}

// Start begins consuming blob cleanup messages
func (c *CleanupConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.CleanupQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register cleanup consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Cleanup Consumer] Started listening for blob cleanup jobs on queue: %s", produce.CleanupQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Cleanup Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Cleanup Consumer] Channel closed")
					return
				}
				c.handleCleanup(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *CleanupConsumer) handleCleanup(ctx context.Context, msg amqp.Delivery) {
	c.infra.Logger.InfoWithContextf(ctx, "[Cleanup Consumer] Received message: %s", string(msg.Body))

	var payload produce.CleanupMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Cleanup Consumer] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	maxRetries := 3
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = c.deleteBlobs(ctx, payload)
		if lastErr == nil {
			_ = msg.Ack(false)
			return
		}

		c.infra.Logger.ErrorWithContextf(ctx, lastErr, "[Cleanup Consumer] Attempt %d/%d failed: %v", attempt, maxRetries, lastErr)

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}

	// After max retries, reject and requeue
	c.infra.Logger.ErrorWithContextf(ctx, lastErr, "[Cleanup Consumer] Failed after %d attempts, requeueing message", maxRetries)
	_ = msg.Nack(false, true)
}

func (c *CleanupConsumer) deleteBlobs(ctx context.Context, payload produce.CleanupMessage) error {
	for _, storagePath := range payload.StoragePaths {
		if err := c.infra.Minio.DeleteObject(ctx, storagePath); err != nil {
			return fmt.Errorf("failed to delete blob '%s': %w", storagePath, err)
		}
		c.infra.Logger.InfoWithContextf(ctx, "[Cleanup Consumer] Deleted blob '%s' (reason: %s)", storagePath, payload.Reason)
	}
	return nil
}
