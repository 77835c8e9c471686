package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/pixvault/pix-image-service/fanout"
	"github.com/pixvault/pix-image-service/infra"
	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"
)

type fakeAcknowledger struct {
	acks     int
	nacks    int
	requeued bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acks++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacks++
	a.requeued = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.nacks++
	a.requeued = requeue
	return nil
}

func newTestConsumer() *ThumbnailConsumer {
	logger := infra.NewLoggerClient(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return &ThumbnailConsumer{infra: &infra.Infra{Logger: logger}}
}

func TestRunJob(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		jobErr   error
		wantAck  bool
		wantNack bool
	}{
		{"successful job is acked", nil, true, false},
		{"empty height scope is acked without retry", fanout.ErrMisconfiguredTiers, true, false},
		{"empty image scope is acked without retry", fanout.ErrNoImages, true, false},
		{
			"subject deleted before the job ran is dropped, not requeued",
			fmt.Errorf("failed to load image %s: %w", uuid.New(), gorm.ErrRecordNotFound),
			true,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer := newTestConsumer()
			ack := &fakeAcknowledger{}
			msg := amqp.Delivery{Acknowledger: ack, DeliveryTag: 1}

			consumer.runJob(ctx, msg, "Image Created", func() (fanout.Report, error) {
				if tt.jobErr != nil {
					return fanout.Report{}, tt.jobErr
				}
				return fanout.Report{Created: 1}, nil
			})

			if gotAck := ack.acks > 0; gotAck != tt.wantAck {
				t.Errorf("acked = %v, want %v", gotAck, tt.wantAck)
			}
			if gotNack := ack.nacks > 0; gotNack != tt.wantNack {
				t.Errorf("nacked = %v, want %v", gotNack, tt.wantNack)
			}
		})
	}
}
