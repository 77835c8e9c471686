package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/entity"
	"github.com/pixvault/pix-image-service/fanout"
	"github.com/pixvault/pix-image-service/infra"
	"github.com/pixvault/pix-image-service/infra/produce"
	"github.com/pixvault/pix-image-service/processor"
	"github.com/pixvault/pix-image-service/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"
)

// ThumbnailConsumer drives the fan-out engine from the three trigger
// queues: image created, height created, and per-user repair.
type ThumbnailConsumer struct {
	channel    *amqp.Channel
	infra      *infra.Infra
	repository *repository.Repository
	engine     *fanout.Engine
}

// NewThumbnailConsumer creates a new ThumbnailConsumer instance
func NewThumbnailConsumer(channel *amqp.Channel, infra *infra.Infra, repo *repository.Repository) *ThumbnailConsumer {
	engine := fanout.NewEngine(
		&sourceStore{repo: repo},
		&artifactStore{repo: repo, minio: infra.Minio},
		&blobFetcher{minio: infra.Minio},
		processor.NewResizer(),
		infra.Logger,
	)

	return &ThumbnailConsumer{
		channel:    channel,
		infra:      infra,
		repository: repo,
		engine:     engine,
	}
}

// Start begins consuming fan-out trigger messages
func (c *ThumbnailConsumer) Start(ctx context.Context) error {
	if err := c.startImageCreatedConsumer(ctx); err != nil {
		return fmt.Errorf("failed to start image created consumer: %w", err)
	}

	if err := c.startHeightCreatedConsumer(ctx); err != nil {
		return fmt.Errorf("failed to start height created consumer: %w", err)
	}

	if err := c.startRepairConsumer(ctx); err != nil {
		return fmt.Errorf("failed to start repair consumer: %w", err)
	}

	return nil
}

func (c *ThumbnailConsumer) startImageCreatedConsumer(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.ImageCreatedQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register image created consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer] Started listening for image created jobs on queue: %s", produce.ImageCreatedQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer - Image Created] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Thumbnail Consumer - Image Created] Channel closed")
					return
				}
				c.handleImageCreated(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *ThumbnailConsumer) handleImageCreated(ctx context.Context, msg amqp.Delivery) {
	c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer - Image Created] Received message: %s", string(msg.Body))

	var payload produce.ImageCreatedMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail Consumer - Image Created] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	c.runJob(ctx, msg, "Image Created", func() (fanout.Report, error) {
		return c.engine.ProcessNewImage(ctx, payload.ImageID)
	})
}

func (c *ThumbnailConsumer) startHeightCreatedConsumer(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.HeightCreatedQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register height created consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer] Started listening for height created jobs on queue: %s", produce.HeightCreatedQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer - Height Created] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Thumbnail Consumer - Height Created] Channel closed")
					return
				}
				c.handleHeightCreated(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *ThumbnailConsumer) handleHeightCreated(ctx context.Context, msg amqp.Delivery) {
	c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer - Height Created] Received message: %s", string(msg.Body))

	var payload produce.HeightCreatedMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail Consumer - Height Created] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	c.runJob(ctx, msg, "Height Created", func() (fanout.Report, error) {
		return c.engine.ProcessNewHeight(ctx, payload.HeightID)
	})
}

func (c *ThumbnailConsumer) startRepairConsumer(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.RepairQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register repair consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer] Started listening for repair jobs on queue: %s", produce.RepairQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer - Repair] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Thumbnail Consumer - Repair] Channel closed")
					return
				}
				c.handleRepair(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *ThumbnailConsumer) handleRepair(ctx context.Context, msg amqp.Delivery) {
	c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer - Repair] Received message: %s", string(msg.Body))

	var payload produce.RepairUserMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail Consumer - Repair] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	c.runJob(ctx, msg, "Repair", func() (fanout.Report, error) {
		return c.engine.RepairUser(ctx, payload.UserID)
	})
}

// runJob executes one fan-out job with retries. Empty-scope errors are
// configuration states, not transient faults: retrying cannot fix them,
// so the message is acked after logging. Everything else retries up to
// maxRetries before requeueing.
func (c *ThumbnailConsumer) runJob(ctx context.Context, msg amqp.Delivery, label string, job func() (fanout.Report, error)) {
	maxRetries := 3
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		report, err := job()
		if err == nil {
			c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer - %s] Job finished: created=%d skipped=%d failed=%d",
				label, report.Created, report.Skipped, report.Failed)
			_ = msg.Ack(false)
			return
		}

		if errors.Is(err, fanout.ErrMisconfiguredTiers) || errors.Is(err, fanout.ErrNoImages) {
			c.infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail Consumer - %s] Job aborted on empty scope: %v", label, err)
			_ = msg.Ack(false)
			return
		}

		// The trigger's subject no longer exists, e.g. the image was
		// deleted before the job ran. Requeueing would loop forever.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.infra.Logger.WarningWithContextf(ctx, "[Thumbnail Consumer - %s] Job subject is gone, dropping message: %v", label, err)
			_ = msg.Ack(false)
			return
		}

		lastErr = err
		c.infra.Logger.ErrorWithContextf(ctx, lastErr, "[Thumbnail Consumer - %s] Attempt %d/%d failed: %v", label, attempt, maxRetries, lastErr)

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}

	// After max retries, reject and requeue
	c.infra.Logger.ErrorWithContextf(ctx, lastErr, "[Thumbnail Consumer - %s] Failed after %d attempts, requeueing message", label, maxRetries)
	_ = msg.Nack(false, true)
}

// sourceStore adapts the repository layer to the engine's read surface.
type sourceStore struct {
	repo *repository.Repository
}

func (s *sourceStore) GetImage(_ context.Context, id uuid.UUID) (*entity.UploadedImage, error) {
	return s.repo.ImageRepo.FindByID(id)
}

func (s *sourceStore) ListImages(_ context.Context) ([]entity.UploadedImage, error) {
	return s.repo.ImageRepo.FindAll()
}

func (s *sourceStore) ListImagesByOwner(_ context.Context, ownerID uuid.UUID) ([]entity.UploadedImage, error) {
	return s.repo.ImageRepo.FindByOwnerID(ownerID)
}

func (s *sourceStore) GetHeight(_ context.Context, id uuid.UUID) (*entity.ThumbnailHeight, error) {
	return s.repo.HeightRepo.FindByID(id)
}

func (s *sourceStore) ListHeights(_ context.Context) ([]entity.ThumbnailHeight, error) {
	return s.repo.HeightRepo.FindAll()
}

// artifactStore persists thumbnails as blob plus metadata row. The blob
// goes first: a blob without a row is re-created on the next sweep, a
// row without a blob would serve 404s forever.
type artifactStore struct {
	repo  *repository.Repository
	minio *infra.MinioClient
}

func (s *artifactStore) Exists(_ context.Context, imageID, heightID uuid.UUID) (bool, error) {
	return s.repo.ThumbnailRepo.ExistsByImageAndHeight(imageID, heightID)
}

func (s *artifactStore) Save(ctx context.Context, artifact fanout.Artifact) error {
	if err := s.minio.PutObject(ctx, artifact.StoragePath, artifact.Data, "image/jpeg"); err != nil {
		return fmt.Errorf("failed to upload thumbnail blob: %w", err)
	}

	thumbnail := &entity.Thumbnail{
		ID:            uuid.New(),
		ParentImageID: artifact.ParentImageID,
		HeightID:      artifact.HeightID,
		OwnerID:       artifact.OwnerID,
		StoragePath:   artifact.StoragePath,
		Width:         artifact.Width,
	}

	// Both racers write the same deterministic blob key, so losing the
	// row insert leaves the winner's blob intact.
	return s.repo.ThumbnailRepo.Create(thumbnail)
}

type blobFetcher struct {
	minio *infra.MinioClient
}

func (f *blobFetcher) Fetch(ctx context.Context, storagePath string) ([]byte, error) {
	return f.minio.GetObject(ctx, storagePath)
}
