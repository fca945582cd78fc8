package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/urbanbelagavi/commerce-api/internal/dto"
	"github.com/urbanbelagavi/commerce-api/internal/model"
	"github.com/urbanbelagavi/commerce-api/internal/worker"
)

// PaymentHandler accepts gateway callbacks and hands them to the payment
// queue; the worker applies them to orders.
type PaymentHandler struct {
	amqpCh *amqp.Channel
}

func NewPaymentHandler(amqpCh *amqp.Channel) *PaymentHandler {
	return &PaymentHandler{amqpCh: amqpCh}
}

func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req dto.PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, _ := json.Marshal(model.PaymentMessage{OrderID: req.OrderID, PaymentID: req.PaymentID})
	err := h.amqpCh.PublishWithContext(c.Request.Context(), "", worker.PaymentQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         msg,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment queue unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
