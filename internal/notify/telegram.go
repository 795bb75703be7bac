package notify

import (
	"errors"
	"fmt"
	"log"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botSender is the slice of the bot API the notifier uses. Factored out so
// tests can script throttling responses.
type botSender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram sends messages to a fixed chat and, when configured, mirrors them
// to an announcement channel. A 429 from the API carries a retry-after
// duration; the send sleeps exactly that long and retries once. Any other
// failure is logged and reported, never retried.
type Telegram struct {
	bot       botSender
	chatID    int64
	channelID int64

	sleep func(time.Duration)
}

func NewTelegram(token string, chatID, channelID int64) (*Telegram, error) {
	bot, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	log.Printf("notify: telegram authorized as %s", bot.Self.UserName)
	return &Telegram{bot: bot, chatID: chatID, channelID: channelID, sleep: time.Sleep}, nil
}

func (t *Telegram) Send(msg string) error {
	err := t.sendTo(t.chatID, msg)
	if t.channelID != 0 {
		if chErr := t.sendTo(t.channelID, msg); chErr != nil && err == nil {
			err = chErr
		}
	}
	return err
}

// sendTo delivers one message to one recipient with the single bounded
// throttling retry.
func (t *Telegram) sendTo(chatID int64, msg string) error {
	_, err := t.bot.Send(tgbot.NewMessage(chatID, msg))
	if err == nil {
		return nil
	}

	if wait, ok := retryAfter(err); ok {
		log.Printf("notify: telegram throttled, retrying once in %s", wait)
		t.sleep(wait)
		if _, err = t.bot.Send(tgbot.NewMessage(chatID, msg)); err == nil {
			return nil
		}
	}
	return fmt.Errorf("telegram send: %w", err)
}

// retryAfter extracts the server-specified delay from a throttling error.
func retryAfter(err error) (time.Duration, bool) {
	var tgErr *tgbot.Error
	if !errors.As(err, &tgErr) {
		return 0, false
	}
	if tgErr.RetryAfter <= 0 {
		return 0, false
	}
	return time.Duration(tgErr.RetryAfter) * time.Second, true
}
