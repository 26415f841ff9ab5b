// Package audit publishes one event per completed assessment to a Kafka
// topic when brokers are configured. The stream is observational: publish
// failures are logged and never affect the assessment response.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event is the audit record for one assessment.
type Event struct {
	Method   string    `json:"method"` // assess | enhanced_assess
	Score    float64   `json:"score"`
	Category string    `json:"category"`
	Fallback bool      `json:"fallback"`
	Ts       time.Time `json:"ts"`
}

// Publisher writes audit events. A nil Publisher is valid and publishes
// nothing, so callers never branch on whether auditing is enabled.
type Publisher struct {
	w   *kafka.Writer
	log *slog.Logger
}

// New builds a publisher for the given brokers and topic. Returns nil when
// brokers is empty, disabling auditing.
func New(brokers []string, topic string, log *slog.Logger) *Publisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	log.Info("audit publisher enabled", "topic", topic, "brokers", brokers)
	return &Publisher{w: w, log: log}
}

// Publish writes the event, bounding the attempt to a short deadline so a
// slow broker cannot stall the request path.
func (p *Publisher) Publish(ctx context.Context, e Event) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		p.log.Warn("audit event encode failed", "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Method),
		Value: payload,
		Time:  e.Ts,
	}); err != nil {
		p.log.Warn("audit publish failed", "err", err)
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.w.Close()
}
