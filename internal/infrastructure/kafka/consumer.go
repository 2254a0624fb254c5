package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/avekens/threadlens/internal/infrastructure/mail"
	"github.com/segmentio/kafka-go"
)

const EmailTopic = "emails"

// EmailConsumer drains the email topic and hands each message to the
// mailer. Delivery is at-least-once; a duplicate email is harmless.
type EmailConsumer struct {
	reader *kafka.Reader
	mailer mail.Mailer
}

func NewEmailConsumer(brokers []string, groupID string, mailer mail.Mailer) *EmailConsumer {
	return &EmailConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    EmailTopic,
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		}),
		mailer: mailer,
	}
}

func (c *EmailConsumer) Consume(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("failed to read Kafka message", "topic", EmailTopic, "error", err)
			continue
		}

		var email mail.Message
		if err := json.Unmarshal(msg.Value, &email); err != nil {
			slog.Error("failed to unmarshal email event", "error", err)
			continue
		}

		if err := c.mailer.Send(ctx, email); err != nil {
			slog.Error("failed to send email", "recipients", email.Recipients, "template", email.Template, "error", err)
			continue
		}
		slog.Info("email sent", "recipients", email.Recipients, "template", email.Template)
	}
}

func (c *EmailConsumer) Close() error {
	return c.reader.Close()
}
