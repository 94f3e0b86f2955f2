package rabbitmq_test

import (
	"testing"

	"jooba/pkg/rabbitmq"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

func TestLogProductEvent(t *testing.T) {
	msg := amqp.Delivery{
		Body: []byte(`{"event":"product.created","data":{"product_id":"p1","owner_uid":"u1"}}`),
	}
	assert.NoError(t, rabbitmq.LogProductEvent(msg))

	// A payload that does not decode is an error, so the delivery gets
	// nacked and requeued instead of silently acked.
	bad := amqp.Delivery{Body: []byte("not json")}
	assert.Error(t, rabbitmq.LogProductEvent(bad))
}

func TestClientNilSafety(t *testing.T) {
	// A nil client refuses to publish or consume instead of panicking;
	// the product service relies on this when no broker is configured.
	var c *rabbitmq.Client
	err := c.PublishProductEvent("product.created", map[string]any{"product_id": "p1"})
	assert.Error(t, err)
	assert.Error(t, c.ConsumeProductEvents(rabbitmq.LogProductEvent))
}
