package mqtt

import (
	"context"
	"encoding/json"

	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/logger"
	"github.com/harkveil/harkveil/internal/triage"
)

// Publisher sends one alert per emergency record of a triage report.
type Publisher struct {
	client Client
	topic  string
	log    logger.Logger
}

// NewPublisher wraps a connected or connectable client.
func NewPublisher(c Client, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{client: c, topic: topic, log: GetLogger()}
}

// Topic returns the alert topic.
func (p *Publisher) Topic() string {
	return p.topic
}

// PublishReport publishes the report's records in order. A failed record
// does not stop the rest; all failures are returned joined.
func (p *Publisher) PublishReport(ctx context.Context, sessionID string, report triage.Report) error {
	if len(report.Records) == 0 {
		return nil
	}

	if !p.client.IsConnected() {
		if err := p.client.Connect(ctx); err != nil {
			return err
		}
	}

	var errs []error
	for i := range report.Records {
		rec := &report.Records[i]
		dto := NewAlertDTO(sessionID, report.Operator, rec)
		dto.SetAudioPath("/api/v1/clips/" + rec.ClipID)

		payload, err := json.Marshal(dto)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := p.client.Publish(ctx, p.topic, payload); err != nil {
			p.log.Warn("alert publish failed", logger.ClipID(rec.ClipID), logger.Error(err))
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.New(errors.Join(errs...)).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("failed", len(errs)).
			Context("records", len(report.Records)).
			Build()
	}

	p.log.Info("alerts published", logger.Int("count", len(report.Records)), logger.String("topic", p.topic))
	return nil
}

// Close disconnects the underlying client.
func (p *Publisher) Close() {
	p.client.Disconnect()
}
