package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/avvvet/card-services/internal/cardsvc/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultIssuanceTimeout = 30 * time.Second

type BarcodeEncoder interface {
	Encode(ctx context.Context, payload, token string) (string, error)
}

type CardComposer interface {
	Compose(ctx context.Context, barcodePath, cardNumber, outputPath string) (string, error)
}

// DeliverFunc hands a finished card file to the requester. The file is
// removed as soon as it returns.
type DeliverFunc func(ctx context.Context, cardPath string) error

type IssuanceOptions struct {
	WorkDir         string
	IdentifierWidth int
	Timeout         time.Duration
}

// IssuanceService turns a user into a delivered membership card. Each
// issuance gets its own token, and every artifact path carries it, so
// concurrent issuances never share files.
type IssuanceService struct {
	subscribers *SubscriberService
	encoder     BarcodeEncoder
	composer    CardComposer
	events      EventPublisher

	workDir  string
	idWidth  int
	timeout  time.Duration
	newToken func() string
}

func NewIssuanceService(subscribers *SubscriberService, encoder BarcodeEncoder, composer CardComposer,
	events EventPublisher, opts IssuanceOptions) *IssuanceService {
	if events == nil {
		events = nopPublisher{}
	}
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	if opts.IdentifierWidth <= 0 {
		opts.IdentifierWidth = DefaultIdentifierWidth
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultIssuanceTimeout
	}

	return &IssuanceService{
		subscribers: subscribers,
		encoder:     encoder,
		composer:    composer,
		events:      events,
		workDir:     opts.WorkDir,
		idWidth:     opts.IdentifierWidth,
		timeout:     opts.Timeout,
		newToken:    func() string { return uuid.NewString() },
	}
}

// OutputPath is the card file for the issuance identified by token.
func (s *IssuanceService) OutputPath(token string) string {
	return filepath.Join(s.workDir, "output_card_"+token+".png")
}

// Issue registers sub, builds its card and passes it to deliver. Whatever
// the outcome, no artifact of this issuance is left on disk when Issue
// returns. Registration failures are logged and do not stop the card.
func (s *IssuanceService) Issue(ctx context.Context, sub models.Subscriber, deliver DeliverFunc) (models.Card, error) {
	card := models.Card{
		Identifier: DeriveIdentifier(sub.UserID, s.idWidth),
		UserID:     sub.UserID,
		Token:      s.newToken(),
	}
	logger := log.WithFields(log.Fields{
		"user_id": card.UserID,
		"card_id": card.Identifier,
		"token":   card.Token,
	})

	if err := s.subscribers.Register(ctx, sub); err != nil {
		logger.Errorf("unable to register subscriber: %s", err)
	}

	out, err := s.produce(ctx, card)
	defer removeArtifacts(logger, out.barcodePath, s.OutputPath(card.Token))
	if err != nil {
		return s.fail(logger, card, "produce", err)
	}

	if err := deliver(ctx, out.cardPath); err != nil {
		return s.fail(logger, card, "deliver", errors.Wrap(err, "deliver card"))
	}

	logger.Info("card issued")
	s.events.PublishCardIssued(card)
	return card, nil
}

func (s *IssuanceService) fail(logger *log.Entry, card models.Card, stage string, err error) (models.Card, error) {
	logger.WithField("stage", stage).Errorf("card issuance failed: %+v", err)
	s.events.PublishCardFailed(card, stage)
	return card, err
}

type artifacts struct {
	barcodePath string
	cardPath    string
	err         error
}

// produce encodes and composes within the issuance timeout. When the
// timeout wins, the stages keep running in the background and their files
// are removed once they finish.
func (s *IssuanceService) produce(ctx context.Context, card models.Card) (artifacts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan artifacts, 1)
	go func() {
		var a artifacts
		payload := card.Identifier.String()
		a.barcodePath, a.err = s.encoder.Encode(ctx, payload, card.Token)
		if a.err == nil {
			a.cardPath, a.err = s.composer.Compose(ctx, a.barcodePath, payload, s.OutputPath(card.Token))
		}
		done <- a
	}()

	select {
	case a := <-done:
		return a, a.err
	case <-ctx.Done():
		err := ctx.Err()
		go func() {
			a := <-done
			removeArtifacts(log.WithField("token", card.Token), a.barcodePath, a.cardPath)
		}()
		if errors.Is(err, context.DeadlineExceeded) {
			return artifacts{}, &models.Error{Kind: models.ErrIssuanceTimeout, Op: "issue card", Err: err}
		}
		return artifacts{}, errors.Wrap(err, "issue card")
	}
}

func removeArtifacts(logger *log.Entry, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Warnf("unable to remove artifact %s: %s", p, err)
		}
	}
}
