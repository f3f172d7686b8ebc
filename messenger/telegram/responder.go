package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// Deliver sends text to the chat as a plain message.
func (client *Client) Deliver(ctx context.Context, chatKey string, text string) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	chatID, err := strconv.ParseInt(chatKey, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing chat key %q: %w", chatKey, errors.WithStack(err))
	}
	if _, err := client.tgbot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("sending message: %w", errors.WithStack(err))
	}
	client.deps.Logger.Debug("sent message to user")
	return nil
}
