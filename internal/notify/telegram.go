package notify

import (
	"fmt"
	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobmatch/internal/events"
	"github.com/maxaizer/jobmatch/internal/logger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type apiInterface interface {
	Send(chattable botApi.Chattable) (botApi.Message, error)
}

// TelegramNotifier tells the admin chat about every processed application.
type TelegramNotifier struct {
	api    apiInterface
	chatID int64
	bus    EventBus.Bus
}

func NewTelegramNotifier(token string, chatID int64, bus EventBus.Bus) (*TelegramNotifier, error) {

	api, err := botApi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "authorize telegram bot")
	}
	log.Infof("Authorized on account %s", api.Self.UserName)

	if err = botApi.SetLogger(log.StandardLogger()); err != nil {
		return nil, err
	}

	return newTelegramNotifier(api, chatID, bus)
}

func newTelegramNotifier(api apiInterface, chatID int64, bus EventBus.Bus) (*TelegramNotifier, error) {
	if bus == nil {
		return nil, errors.New("bus is nil")
	}

	n := &TelegramNotifier{api: api, chatID: chatID, bus: bus}
	if err := bus.SubscribeAsync(events.ApplicationScoredTopic, n.onApplicationScored, false); err != nil {
		return nil, err
	}
	return n, nil
}

// Stop waits for notifications that are still being sent.
func (n *TelegramNotifier) Stop() {
	n.bus.WaitAsync()
}

func (n *TelegramNotifier) onApplicationScored(event events.ApplicationScored) {
	msg := botApi.NewMessage(n.chatID, formatApplicationScored(event))
	if _, err := n.api.Send(msg); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeNotifier).
			Errorf("error occured while sending message: %v", err)
	}
}

func formatApplicationScored(event events.ApplicationScored) string {
	score := "not scored"
	if event.Score.Known() {
		score = fmt.Sprintf("%d/100", event.Score.Value())
	}
	return fmt.Sprintf("New application to \"%v\"\ncandidate: %v\nmatch score: %v",
		event.JobTitle, event.CandidateID, score)
}
