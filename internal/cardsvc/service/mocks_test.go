package service

import (
	"context"
	"sync"

	"github.com/avvvet/card-services/internal/cardsvc/models"
)

// memStore is an in-memory SubscriberStore
type memStore struct {
	mu        sync.Mutex
	subs      []models.Subscriber
	upsertErr error
	listErr   error
	listCalls int
}

func (m *memStore) Migrate(ctx context.Context) error { return nil }

func (m *memStore) Upsert(ctx context.Context, sub models.Subscriber) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.upsertErr != nil {
		return false, m.upsertErr
	}
	for _, s := range m.subs {
		if s.UserID == sub.UserID {
			return false, nil
		}
	}
	sub.ID = int64(len(m.subs) + 1)
	m.subs = append(m.subs, sub)
	return true, nil
}

func (m *memStore) List(ctx context.Context) ([]models.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.Subscriber{}, m.subs...), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	issued []models.Card
	failed []string
	joined []models.Subscriber
}

func (p *recordingPublisher) PublishCardIssued(card models.Card) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued = append(p.issued, card)
}

func (p *recordingPublisher) PublishCardFailed(card models.Card, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, reason)
}

func (p *recordingPublisher) PublishSubscriberJoined(sub models.Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.joined = append(p.joined, sub)
}

type encoderFunc func(ctx context.Context, payload, token string) (string, error)

func (f encoderFunc) Encode(ctx context.Context, payload, token string) (string, error) {
	return f(ctx, payload, token)
}

type composerFunc func(ctx context.Context, barcodePath, cardNumber, outputPath string) (string, error)

func (f composerFunc) Compose(ctx context.Context, barcodePath, cardNumber, outputPath string) (string, error) {
	return f(ctx, barcodePath, cardNumber, outputPath)
}
