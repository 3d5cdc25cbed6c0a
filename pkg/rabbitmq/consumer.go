package rabbitmq

import (
	"context"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IConsumer defines a blocking subscription loop with an injectable handler.
type IConsumer interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler func(topic string, message mqtt.Message) error)
}

// Consumer subscribes to a single topic filter and dispatches messages to
// the handler. Handler errors are logged, never propagated: one bad payload
// must not stop the stream.
type Consumer struct {
	client  mqtt.Client
	handler func(topic string, message mqtt.Message) error
	topic   string
}

// NewConsumer creates a Consumer for topic using the shared MQTT client.
func NewConsumer(client mqtt.Client, topic string, handler func(topic string, message mqtt.Message) error) *Consumer {
	return &Consumer{
		client:  client,
		topic:   topic,
		handler: handler,
	}
}

func (c *Consumer) SetHandler(handler func(topic string, message mqtt.Message) error) {
	c.handler = handler
}

// qosFor picks QoS 1 for sensor readings so an active session does not miss
// samples across a broker hiccup; everything else stays at-most-once.
func qosFor(topic string) byte {
	if strings.HasPrefix(strings.TrimSpace(topic), "sensor/reading") {
		return 1
	}
	return 0
}

// ConsumeMessage subscribes and blocks until the context is cancelled.
func (c *Consumer) ConsumeMessage(ctx context.Context) {
	token := c.client.Subscribe(
		c.topic,
		qosFor(c.topic),
		func(client mqtt.Client, message mqtt.Message) {
			if c.handler == nil {
				log.Printf("no handler set for topic %s", c.topic)
				return
			}
			if err := c.handler(message.Topic(), message); err != nil {
				log.Printf("error handling message on %s: %v", message.Topic(), err)
			}
		},
	)

	if token.Wait() && token.Error() != nil {
		log.Printf("error subscribing to topic %s: %v", c.topic, token.Error())
		return
	}

	log.Printf("subscribed to topic %s", c.topic)

	<-ctx.Done()

	unsubToken := c.client.Unsubscribe(c.topic)
	unsubToken.Wait()
}
