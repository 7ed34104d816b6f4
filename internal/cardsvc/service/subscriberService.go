package service

import (
	"context"

	"github.com/avvvet/card-services/internal/cardsvc/models"
	"github.com/avvvet/card-services/internal/cardsvc/store"
	log "github.com/sirupsen/logrus"
)

// SubscriberService records first contacts and lists them for admins
type SubscriberService struct {
	store  store.SubscriberStore
	events EventPublisher
	admins map[int64]struct{}
}

func NewSubscriberService(s store.SubscriberStore, events EventPublisher, adminIDs []int64) *SubscriberService {
	if events == nil {
		events = nopPublisher{}
	}
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &SubscriberService{store: s, events: events, admins: admins}
}

func (s *SubscriberService) IsAdmin(userID int64) bool {
	_, ok := s.admins[userID]
	return ok
}

// Register stores sub on first contact. Repeat contacts change nothing.
func (s *SubscriberService) Register(ctx context.Context, sub models.Subscriber) error {
	created, err := s.store.Upsert(ctx, sub)
	if err != nil {
		return err
	}

	if created {
		log.WithField("user_id", sub.UserID).Info("new subscriber registered")
		s.events.PublishSubscriberJoined(sub)
	}
	return nil
}

// List returns all subscribers if requesterID is an admin, otherwise
// models.ErrUnauthorized without touching the store.
func (s *SubscriberService) List(ctx context.Context, requesterID int64) ([]models.Subscriber, error) {
	if !s.IsAdmin(requesterID) {
		log.WithField("user_id", requesterID).Warn("non-admin attempted to list subscribers")
		return nil, models.ErrUnauthorized
	}
	return s.store.List(ctx)
}
