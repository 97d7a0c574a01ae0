package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"educorp_backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Type string

const (
	EnrollmentCreated     Type = "enrollment.created"
	EnrollmentRemoved     Type = "enrollment.removed"
	LessonCompleted       Type = "lesson.completed"
	AssessmentScored      Type = "assessment.scored"
	LearningStyleAssigned Type = "learning_style.assigned"
	UserCreated           Type = "user.created"
	UserDeleted           Type = "user.deleted"
	CourseCreated         Type = "course.created"
	CourseDeleted         Type = "course.deleted"
)

type Event struct {
	ID         string                 `json:"id"`
	Type       Type                   `json:"type"`
	OccurredAt time.Time              `json:"occurredAt"`
	Data       map[string]interface{} `json:"data"`
}

func New(t Type, data map[string]interface{}) *Event {
	return &Event{
		ID:         uuid.New().String(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e *Event) error
	Close() error
}

// Emit publishes e and logs a failure instead of returning it.
func Emit(ctx context.Context, p Publisher, t Type, data map[string]interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, New(t, data)); err != nil {
		logger.Log.Warn("Failed to publish event", zap.String("type", string(t)), zap.Error(err))
	}
}

type RabbitPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	mu       sync.Mutex
}

func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Log.Info("Event publisher initialized", zap.String("exchange", exchange))
	return &RabbitPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, e *Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// amqp channels are not safe for concurrent publishes
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange,     // exchange
		string(e.Type), // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    e.ID,
			Timestamp:    e.OccurredAt,
			Body:         body,
			Headers: amqp091.Table{
				"event_type": string(e.Type),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			logger.Log.Warn("Error closing RabbitMQ channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}
	return nil
}

// RecordingPublisher keeps events in memory for tests.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (r *RecordingPublisher) Publish(ctx context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *RecordingPublisher) Close() error {
	return nil
}

// Types lists the recorded event types in publish order.
func (r *RecordingPublisher) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, e *Event) error { return nil }
func (NoopPublisher) Close() error                                 { return nil }
