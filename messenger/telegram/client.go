package telegram

import (
	"context"
	"fmt"

	"github.com/EPecherkin/ai-rm/config"
	"github.com/EPecherkin/ai-rm/deps"
	"github.com/EPecherkin/ai-rm/logger"
	"github.com/EPecherkin/ai-rm/messenger/base"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

const (
	TIMEOUT = 60
	OFFSET  = 0
)

// Bot is the part of *tgbotapi.BotAPI the client uses.
type Bot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Client struct {
	tgbot   Bot
	updates chan base.Update

	deps deps.Deps
}

func CreateClient(deps deps.Deps) (base.Client, error) {
	deps.Logger = deps.Logger.With(logger.CALLER, "telegram client")
	deps.Logger.Debug("Creating telegram client")
	token := config.TelegramToken()
	tgbot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot client: %w", errors.WithStack(err))
	}
	deps.Logger.Info("Authorized on account " + tgbot.Self.UserName)

	if config.LogLevel() == "debug" {
		tgbot.Debug = true
	}

	return NewClient(tgbot, deps), nil
}

func NewClient(tgbot Bot, deps deps.Deps) *Client {
	return &Client{tgbot: tgbot, updates: make(chan base.Update), deps: deps}
}

func (client *Client) Updates() <-chan base.Update {
	return client.updates
}

// GoTalk long-polls telegram until ctx is done, then closes Updates.
func (client *Client) GoTalk(ctx context.Context) {
	client.deps.Logger.Debug("Running client")
	defer func() {
		if err := recover(); err != nil {
			client.deps.Logger.With(logger.ERROR, err).Error("panic in GoTalk")
		}
		close(client.updates)
	}()

	client.deps.Logger.With("timeout", TIMEOUT).With("offset", OFFSET).Info("listening for updates")
	updateConfig := tgbotapi.NewUpdate(OFFSET)
	updateConfig.Timeout = TIMEOUT
	updates := client.tgbot.GetUpdatesChan(updateConfig)
	defer client.tgbot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			client.deps.Logger.Debug("telegram client context closed")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			client.receive(ctx, update)
		}
	}
}
