package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/urbanbelagavi/commerce-api/internal/model"
	"github.com/urbanbelagavi/commerce-api/internal/service"
)

const (
	PaymentQueueName = "payments"
	dlxExchange      = "payments.dlx"
	dlqQueueName     = "payments.dlq"
	idempotencyTTL   = 24 * time.Hour
)

// PaymentWorker consumes gateway payment confirmations and attaches them to
// orders. Redis keys make redelivered messages a no-op.
type PaymentWorker struct {
	channel     *amqp.Channel
	orderSvc    *service.OrderService
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewPaymentWorker(
	ch *amqp.Channel,
	orderSvc *service.OrderService,
	redisClient *redis.Client,
	log *slog.Logger,
) *PaymentWorker {
	return &PaymentWorker{
		channel:     ch,
		orderSvc:    orderSvc,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, PaymentQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(PaymentQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": PaymentQueueName,
	}); err != nil {
		return fmt.Errorf("declare payment queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *PaymentWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(PaymentQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("payment worker started")
	return nil
}

func (w *PaymentWorker) Stop() { close(w.done) }

func (w *PaymentWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var pm model.PaymentMessage
	if err := json.Unmarshal(msg.Body, &pm); err != nil {
		w.log.Error("unmarshal payment message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", pm.OrderID, "payment_id", pm.PaymentID)

	idempotencyKey := "payment_attached:" + pm.OrderID.String()
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("payment already attached, skipping")
		_ = msg.Ack(false)
		return
	}

	if _, err := w.orderSvc.AttachPayment(ctx, pm.OrderID, pm.PaymentID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) || errors.Is(err, service.ErrInvalidTransition) {
			log.Error("payment not attachable", "error", err)
			_ = msg.Nack(false, false) // -> DLQ
			return
		}
		log.Error("attach payment failed", "error", err)
		_ = msg.Nack(false, true)
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("payment attached, order confirmed")
}
