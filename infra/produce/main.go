package produce

import amqp "github.com/rabbitmq/amqp091-go"

type Produce struct {
	ThumbnailService *ThumbnailProduceService
	CleanupService   *CleanupProduceService
}

var produceInstance *Produce

func InitProduce(channel *amqp.Channel) *Produce {
	if produceInstance != nil {
		return produceInstance
	}

	thumbnailService := InitThumbnailProduceService(channel)
	if thumbnailService == nil {
		panic("Failed to initialize Thumbnail produce service")
	}

	cleanupService := InitCleanupProduceService(channel)
	if cleanupService == nil {
		panic("Failed to initialize Cleanup produce service")
	}

	produceInstance = &Produce{
		ThumbnailService: thumbnailService,
		CleanupService:   cleanupService,
	}

	return produceInstance
}
