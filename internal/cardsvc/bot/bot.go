package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/avvvet/card-services/internal/cardsvc/models"
	"github.com/avvvet/card-services/internal/cardsvc/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	WelcomeText   = "Welcome! Use /get_card to get your membership card."
	CardErrorText = "Sorry, there was an error generating your card. Please try again."
	RefusalText   = "Sorry, only administrators can list subscribers."
	ListErrorText = "Sorry, the subscriber list is not available right now."
	EmptyListText = "No subscribers yet."
	HelpText      = "Use /get_card to get your membership card."

	// maxMessageLen is Telegram's limit for one text message.
	maxMessageLen = 4096
)

// Sender is the part of *tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot maps Telegram commands onto the card services.
type Bot struct {
	sender      Sender
	issuer      *service.IssuanceService
	subscribers *service.SubscriberService
	wg          sync.WaitGroup
}

func NewBot(sender Sender, issuer *service.IssuanceService, subscribers *service.SubscriberService) *Bot {
	return &Bot{
		sender:      sender,
		issuer:      issuer,
		subscribers: subscribers,
	}
}

// Run handles each update on its own goroutine until ctx is done or
// updates is closed, then waits for in-flight handlers.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.HandleUpdate(ctx, u)
			}(update)
		}
	}
}

// HandleUpdate dispatches one command message and sends its reply.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}

	user := subscriberFrom(msg.From)
	chatID := msg.Chat.ID

	var reply models.Reply
	switch msg.Command() {
	case "start":
		reply = b.OnStart(ctx, user)
	case "get_card":
		reply = b.OnGetCard(ctx, chatID, user)
	case "subscribers":
		reply = b.OnListSubscribers(ctx, user)
	default:
		reply = models.TextReply(HelpText)
	}

	b.sendReply(chatID, reply)
}

// OnStart records first contact and greets the user.
func (b *Bot) OnStart(ctx context.Context, user models.Subscriber) models.Reply {
	if err := b.subscribers.Register(ctx, user); err != nil {
		log.WithField("user_id", user.UserID).Errorf("unable to register subscriber: %s", err)
	}
	return models.TextReply(WelcomeText)
}

// OnGetCard issues a card and sends it as a photo to chatID. Failures get
// one generic message; details stay in the log.
func (b *Bot) OnGetCard(ctx context.Context, chatID int64, user models.Subscriber) models.Reply {
	_, err := b.issuer.Issue(ctx, user, func(ctx context.Context, cardPath string) error {
		_, err := b.sender.Send(tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(cardPath)))
		return err
	})
	if err != nil {
		return models.TextReply(CardErrorText)
	}
	return models.Reply{}
}

// OnListSubscribers replies with the numbered subscriber list for admins
// and a refusal for everyone else.
func (b *Bot) OnListSubscribers(ctx context.Context, user models.Subscriber) models.Reply {
	subs, err := b.subscribers.List(ctx, user.UserID)
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return models.TextReply(RefusalText)
	case err != nil:
		log.WithField("user_id", user.UserID).Errorf("unable to list subscribers: %s", err)
		return models.TextReply(ListErrorText)
	case len(subs) == 0:
		return models.TextReply(EmptyListText)
	}

	lines := make([]string, 0, len(subs)+1)
	lines = append(lines, fmt.Sprintf("Subscribers (%d):", len(subs)))
	for _, s := range subs {
		lines = append(lines, fmt.Sprintf("%d. %s", s.ID, s.DisplayName()))
	}
	return models.TextReply(chunkLines(lines, maxMessageLen)...)
}

func (b *Bot) sendReply(chatID int64, reply models.Reply) {
	if reply.Empty() {
		return
	}
	for _, text := range reply.Texts {
		if _, err := b.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			log.WithField("chat_id", chatID).Errorf("unable to send reply: %s", err)
			return
		}
	}
}

func subscriberFrom(u *tgbotapi.User) models.Subscriber {
	return models.Subscriber{
		UserID:    u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// chunkLines joins lines with newlines into messages of at most limit
// bytes. A single line longer than limit is cut at a rune boundary.
func chunkLines(lines []string, limit int) []string {
	var (
		chunks []string
		cur    strings.Builder
	)
	for _, line := range lines {
		line = truncate(line, limit)
		if cur.Len() > 0 && cur.Len()+1+len(line) > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
