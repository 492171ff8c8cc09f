package gateway

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramGateway struct {
	Bot       *tgbotapi.BotAPI
	Responder Responder

	convs  *conversations
	ctx    context.Context
	cancel context.CancelFunc
}

func NewTelegramGateway(token string, r Responder) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	ctx, cancel := context.WithCancel(context.Background())
	return &TelegramGateway{
		Bot:       bot,
		Responder: r,
		convs:     newConversations(),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

func (tg *TelegramGateway) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil || update.Message.Text == "" {
			continue
		}

		log.Printf("[%s] %s", update.Message.From.UserName, update.Message.Text)

		chatID := fmt.Sprintf("%d", update.Message.Chat.ID)
		go func(text string) {
			err := converse(tg.ctx, tg.Responder, tg.convs, chatID, text, TelegramStyle, func(chunk string) error {
				return tg.Send(chatID, chunk)
			})
			if err != nil {
				log.Printf("Error replying on telegram chat %s: %v", chatID, err)
			}
		}(update.Message.Text)
	}
	return nil
}

func (tg *TelegramGateway) Send(chatID string, text string) error {
	var id int64
	fmt.Sscanf(chatID, "%d", &id)
	if id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}

	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := tg.Bot.Send(msg); err == nil {
		return nil
	}
	// Model output is not always valid Markdown.
	msg.ParseMode = ""
	_, err := tg.Bot.Send(msg)
	return err
}

func (tg *TelegramGateway) Stop() error {
	tg.cancel()
	tg.Bot.StopReceivingUpdates()
	return nil
}
