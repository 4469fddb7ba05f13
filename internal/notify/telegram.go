// Package notify pushes owner-facing Telegram messages when bookings
// change. The app is single tenant, so there is exactly one recipient chat.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"villabook/internal/config"
	"villabook/internal/models"
)

// Sender is the subset of the bot API the notifier needs; tests swap in a
// fake.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	bot    Sender
	chatID int64
	logger *zerolog.Logger
}

// NewTelegramNotifier dials the bot API with the configured token.
func NewTelegramNotifier(cfg config.TelegramConfig, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	bot.Debug = cfg.Debug

	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifier connected")
	return &TelegramNotifier{bot: bot, chatID: cfg.OwnerChatID, logger: logger}, nil
}

// NewTelegramNotifierWithSender wires a prebuilt sender, used by tests.
func NewTelegramNotifierWithSender(sender Sender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: sender, chatID: chatID, logger: logger}
}

func (n *TelegramNotifier) BookingCreated(booking *models.Booking) {
	text := fmt.Sprintf(
		"Новая бронь\n%s, %s\nГость: %s\nЦена: %.2f",
		booking.Date.Format("2006-01-02"),
		slotLabel(booking.BookingType),
		booking.ClientName,
		booking.Price,
	)
	if booking.IsFree {
		text += " (бесплатно)"
	}
	n.send(text)
}

func (n *TelegramNotifier) BookingDeleted(booking *models.Booking) {
	text := fmt.Sprintf(
		"Бронь отменена\n%s, %s\nГость: %s",
		booking.Date.Format("2006-01-02"),
		slotLabel(booking.BookingType),
		booking.ClientName,
	)
	n.send(text)
}

func (n *TelegramNotifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Msg("telegram send error")
	}
}

func slotLabel(t models.SlotType) string {
	switch t {
	case models.SlotMorning:
		return "утро"
	case models.SlotEvening:
		return "вечер"
	case models.SlotFull:
		return "весь день"
	}
	return string(t)
}
