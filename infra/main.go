package infra

import (
	"github.com/pixvault/pix-image-service/config"
	"github.com/pixvault/pix-image-service/infra/produce"
)

type Infra struct {
	Postgres  *PostgresClient
	Minio     *MinioClient
	RabbitMQ  *RabbitMQClient
	Redis     *RedisClient
	Telemetry *TelemetryClient
	Logger    *LoggerClient
	Produce   *produce.Produce
}

var infraInstance *Infra

func InitInfra(cfg *config.Config) *Infra {
	if infraInstance != nil {
		return infraInstance
	}

	telemetry := InitTelemetryClient(cfg.EnvConfig)

	logger := InitLoggerClient(cfg.EnvConfig, telemetry)
	if logger == nil {
		panic("Failed to initialize Logger service")
	}

	postgres := InitPostgresClient(cfg.EnvConfig)
	if postgres == nil {
		panic("Failed to initialize Postgres service")
	}

	minio := InitMinioClient(cfg.EnvConfig)
	if minio == nil {
		panic("Failed to initialize MinIO service")
	}

	rabbitMQ := InitRabbitMQClient(cfg.EnvConfig)
	if rabbitMQ == nil {
		panic("Failed to initialize RabbitMQ service")
	}

	redis := InitRedisClient(cfg.EnvConfig)
	if redis == nil {
		panic("Failed to initialize Redis service")
	}

	produceService := produce.InitProduce(rabbitMQ.Channel)
	if produceService == nil {
		panic("Failed to initialize Produce service")
	}

	infraInstance = &Infra{
		Postgres:  postgres,
		Minio:     minio,
		RabbitMQ:  rabbitMQ,
		Redis:     redis,
		Telemetry: telemetry,
		Logger:    logger,
		Produce:   produceService,
	}

	return infraInstance
}

func GetClient() *Infra {
	if infraInstance == nil {
		panic("Infra not initialized. Call InitInfra() first.")
	}
	return infraInstance
}
