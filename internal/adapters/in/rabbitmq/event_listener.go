package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/serenityspa/medsoft-availability-generator/internal/config"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/in"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/out"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/services/availability_service"
	"github.com/serenityspa/medsoft-availability-generator/internal/utils"
)

type EventResource string

const (
	EventResourceAppointment EventResource = "appointment"
	EventResourceSlots       EventResource = "slots"
)

type EventAction string

const (
	EventActionCreated    EventAction = "created"
	EventActionCancelled  EventAction = "cancelled"
	EventActionPrecompute EventAction = "precompute"
)

// EventRoutingKey - разобранный routing key сообщения.
// Пример: medsoft.appointment.created, medsoft.slots.precompute
type EventRoutingKey struct {
	Source   string
	Resource EventResource
	Action   EventAction
}

// AppointmentEventMessage - тело события о записи. Нулевые поля
// трактуются как маска "любое значение" при инвалидации.
type AppointmentEventMessage struct {
	LocationID int    `json:"locationId"`
	ServiceID  int    `json:"serviceId"`
	Date       string `json:"date"`
}

// EventListener слушает события МедСофт и держит кэш слотов в актуальном
// состоянии: создание или отмена записи инвалидирует затронутые ключи,
// событие slots.precompute запускает батч-проход.
type EventListener struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	precompute in.PrecomputeUseCase
	cfg        *config.Config
	logger     out.LoggerPort
}

func NewEventListener(precompute in.PrecomputeUseCase, cfg *config.Config, logger out.LoggerPort) (*EventListener, error) {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("rabbitmq.disabled", out.LogFields{
			"message": "RabbitMQ is disabled, listener will not be started",
		})
		return nil, nil
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Error("rabbitmq.connect.failed", out.LogFields{
			"error": err.Error(),
			"url":   cfg.RabbitMQ.URL,
		})
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		logger.Error("rabbitmq.channel.failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	return &EventListener{
		conn:       conn,
		channel:    channel,
		precompute: precompute,
		cfg:        cfg,
		logger:     logger.WithModule("EventListener"),
	}, nil
}

func (l *EventListener) Start(ctx context.Context) error {
	queue, err := l.channel.QueueDeclare(
		l.cfg.RabbitMQ.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	for _, bind := range []string{"*.appointment.*", "*.slots.precompute"} {
		err = l.channel.QueueBind(
			queue.Name,
			bind,
			l.cfg.RabbitMQ.Exchange,
			false,
			nil,
		)
		if err != nil {
			return err
		}
	}

	msgs, err := l.channel.Consume(
		queue.Name,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				if err := l.processMessage(ctx, msg); err != nil {
					l.logger.Warn("rabbitmq.message.failed", out.LogFields{
						"routingKey": msg.RoutingKey,
						"error":      err.Error(),
					})
					msg.Nack(false, true) // requeue message
					continue
				}
				msg.Ack(false)
			}
		}
	}()

	l.logger.Info("rabbitmq.queue.started", out.LogFields{
		"queue":    queue.Name,
		"exchange": l.cfg.RabbitMQ.Exchange,
	})

	return nil
}

func (l *EventListener) Stop() error {
	if l == nil || l.channel == nil {
		return nil
	}

	if err := l.channel.Close(); err != nil {
		return err
	}
	return l.conn.Close()
}

func (l *EventListener) processMessage(ctx context.Context, msg amqp.Delivery) error {
	key, err := parseEventRoutingKey(msg.RoutingKey)
	if err != nil {
		// Нераспознанный ключ реквеить бессмысленно
		l.logger.Warn("rabbitmq.routing_key.unknown", out.LogFields{
			"routingKey": msg.RoutingKey,
		})
		return nil
	}

	switch key.Resource {
	case EventResourceAppointment:
		return l.processAppointmentEvent(ctx, key, msg)
	case EventResourceSlots:
		return l.processSlotsEvent(ctx, key)
	default:
		return nil
	}
}

// Запись создана или отменена: слоты дня пересчитаются при следующем
// прекомпьюте, до тех пор кэш по затронутому ключу не должен врать.
func (l *EventListener) processAppointmentEvent(ctx context.Context, key EventRoutingKey, msg amqp.Delivery) error {
	if key.Action != EventActionCreated && key.Action != EventActionCancelled {
		return nil
	}

	var event AppointmentEventMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return err
	}

	var day time.Time
	if event.Date != "" {
		parsed, err := utils.ParseDay(event.Date, l.cfg.ClinicLocation())
		if err != nil {
			return err
		}
		day = parsed
	}

	l.logger.Info("appointment.event.invalidate", out.LogFields{
		"action":     string(key.Action),
		"locationId": event.LocationID,
		"serviceId":  event.ServiceID,
		"date":       event.Date,
	})

	return l.precompute.InvalidateSlots(ctx, event.LocationID, event.ServiceID, day)
}

func (l *EventListener) processSlotsEvent(ctx context.Context, key EventRoutingKey) error {
	if key.Action != EventActionPrecompute {
		return nil
	}

	report, err := l.precompute.Precompute(ctx)
	if err != nil {
		// Параллельный запуск не повод реквеить сообщение
		if errors.Is(err, availability_service.ErrPrecomputeRunning) {
			l.logger.Info("slots.precompute.skipped", out.LogFields{
				"reason": "already running",
			})
			return nil
		}
		return err
	}

	l.logger.Info("slots.precompute.finished", out.LogFields{
		"runId":    report.RunID.String(),
		"computed": report.Computed,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
		"elapsed":  report.Elapsed,
	})

	return nil
}

func parseEventRoutingKey(routingKey string) (EventRoutingKey, error) {
	parts := strings.Split(routingKey, ".")
	if len(parts) < 3 {
		return EventRoutingKey{}, fmt.Errorf("invalid routing key: %s", routingKey)
	}

	return EventRoutingKey{
		Source:   parts[0],
		Resource: EventResource(parts[1]),
		Action:   EventAction(parts[2]),
	}, nil
}
