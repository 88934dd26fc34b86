// Package events publishes storefront domain events to RabbitMQ.
package events

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange           = "storefront.events"
	OrderCompletedRoutingKey = "storefront.order.completed.v1"
	Producer                 = "storefront-go"
)

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
