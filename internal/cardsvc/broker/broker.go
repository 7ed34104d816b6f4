package broker

import (
	"encoding/json"
	"time"

	"github.com/avvvet/card-services/internal/cardsvc/models"
	"github.com/avvvet/card-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const Topic = "card.service"

// Publisher is the subset of *nats.Conn the broker needs.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// Broker publishes card service events. A Broker without a connection
// drops every event.
type Broker struct {
	Conn       Publisher
	InstanceId string
}

func NewBroker(nc *nats.Conn, instanceId string) *Broker {
	b := &Broker{InstanceId: instanceId}
	if nc != nil {
		b.Conn = nc
	}
	return b
}

func (b *Broker) PublishCardIssued(card models.Card) {
	b.publishEvent("card.issued", comm.CardIssued{
		UserId: card.UserID,
		CardId: card.Identifier.String(),
		Token:  card.Token,
	})
}

func (b *Broker) PublishCardFailed(card models.Card, stage string) {
	b.publishEvent("card.failed", comm.CardFailed{
		UserId: card.UserID,
		CardId: card.Identifier.String(),
		Token:  card.Token,
		Stage:  stage,
	})
}

func (b *Broker) PublishSubscriberJoined(sub models.Subscriber) {
	b.publishEvent("subscriber.joined", comm.SubscriberJoined{
		UserId:    sub.UserID,
		UserName:  sub.Username,
		FirstName: sub.FirstName,
		LastName:  sub.LastName,
	})
}

func (b *Broker) publishEvent(eventType string, v interface{}) {
	if b == nil || b.Conn == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("error [%s] unable to marshal event data: %s", eventType, err)
		return
	}

	msg := &comm.Event{
		Type:       eventType,
		Data:       data,
		InstanceId: b.InstanceId,
		Timestamp:  time.Now().UTC(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	b.Publish(Topic, payload)
}

// Publish sends payload on topic and logs failures.
func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
