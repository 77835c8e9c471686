package produce

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ThumbnailExchange = "thumbnail.exchange"

	// One queue per fan-out entry point. Routing keys match queue names.
	ImageCreatedQueue       = "thumbnail.image.created"
	ImageCreatedRoutingKey  = "thumbnail.image.created"
	HeightCreatedQueue      = "thumbnail.height.created"
	HeightCreatedRoutingKey = "thumbnail.height.created"
	RepairQueue             = "thumbnail.repair"
	RepairRoutingKey        = "thumbnail.repair"
)

// ImageCreatedMessage triggers fan-out of one new image across all
// defined heights.
type ImageCreatedMessage struct {
	ImageID   uuid.UUID `json:"image_id"`
	Timestamp int64     `json:"timestamp"`
}

// HeightCreatedMessage triggers fan-out of one new height across all
// existing images.
type HeightCreatedMessage struct {
	HeightID  uuid.UUID `json:"height_id"`
	Timestamp int64     `json:"timestamp"`
}

// RepairUserMessage triggers a full existence sweep over one user's
// images. Fired by the read path when an entitled thumbnail is missing;
// safe to publish redundantly since the job is idempotent.
type RepairUserMessage struct {
	UserID    uuid.UUID `json:"user_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// ThumbnailProduceService publishes fan-out trigger messages.
type ThumbnailProduceService struct {
	channel *amqp.Channel
}

func InitThumbnailProduceService(channel *amqp.Channel) *ThumbnailProduceService {
	service := &ThumbnailProduceService{
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

	queues := []struct {
		name       string
		routingKey string
	}{
		{ImageCreatedQueue, ImageCreatedRoutingKey},
		{HeightCreatedQueue, HeightCreatedRoutingKey},
		{RepairQueue, RepairRoutingKey},
	}

	for _, q := range queues {
		_, err = channel.QueueDeclare(
			q.name,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			panic("Failed to declare queue " + q.name + ": " + err.Error())
		}

		err = channel.QueueBind(
			q.name,
			q.routingKey,
			ThumbnailExchange,
			false,
			nil,
		)
		if err != nil {
			panic("Failed to bind queue " + q.name + ": " + err.Error())
		}
	}

	return service
}

func (s *ThumbnailProduceService) publish(ctx context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		ThumbnailExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}

// PublishImageCreated enqueues fan-out for a newly uploaded image.
func (s *ThumbnailProduceService) PublishImageCreated(ctx context.Context, msg ImageCreatedMessage) error {
	msg.Timestamp = time.Now().Unix()
	return s.publish(ctx, ImageCreatedRoutingKey, msg)
}

// PublishHeightCreated enqueues fan-out for a newly defined height.
func (s *ThumbnailProduceService) PublishHeightCreated(ctx context.Context, msg HeightCreatedMessage) error {
	msg.Timestamp = time.Now().Unix()
	return s.publish(ctx, HeightCreatedRoutingKey, msg)
}

// PublishRepairUser enqueues an existence sweep for one user.
func (s *ThumbnailProduceService) PublishRepairUser(ctx context.Context, msg RepairUserMessage) error {
	msg.Timestamp = time.Now().Unix()
	return s.publish(ctx, RepairRoutingKey, msg)
}
