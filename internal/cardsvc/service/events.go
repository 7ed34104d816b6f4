package service

import "github.com/avvvet/card-services/internal/cardsvc/models"

// EventPublisher announces issuance outcomes and new subscribers. Publishing
// is fire-and-forget; implementations log their own failures.
type EventPublisher interface {
	PublishCardIssued(card models.Card)
	PublishCardFailed(card models.Card, reason string)
	PublishSubscriberJoined(sub models.Subscriber)
}

type nopPublisher struct{}

func (nopPublisher) PublishCardIssued(models.Card)             {}
func (nopPublisher) PublishCardFailed(models.Card, string)     {}
func (nopPublisher) PublishSubscriberJoined(models.Subscriber) {}
