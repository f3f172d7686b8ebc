package telegram

import (
	"context"
	"strconv"

	"github.com/EPecherkin/ai-rm/logger"
	"github.com/EPecherkin/ai-rm/messenger/base"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const UNSUPPORTED_CONTENT = "Sorry, I can only read text messages."

// receive turns a telegram update into a base.Update and hands it over.
// Non-text content is answered directly and reported as not forwarded.
func (client *Client) receive(ctx context.Context, update tgbotapi.Update) bool {
	tMessage := update.Message
	if tMessage == nil {
		client.deps.Logger.With(logger.TELEGRAM_UPDATE_ID, update.UpdateID).Debug("skipping update without message")
		return false
	}
	lgr := client.deps.Logger.
		With(logger.TELEGRAM_UPDATE_ID, update.UpdateID).
		With(logger.TELEGRAM_CHAT_ID, tMessage.Chat.ID)
	chatKey := strconv.FormatInt(tMessage.Chat.ID, 10)

	var out base.Update
	switch {
	case tMessage.IsCommand():
		out = base.Update{ChatKey: chatKey, Command: tMessage.Command(), Text: tMessage.CommandArguments()}
	case tMessage.Text != "":
		out = base.Update{ChatKey: chatKey, Text: tMessage.Text}
	default:
		lgr.Warn("received unusual content")
		if err := client.Deliver(ctx, chatKey, UNSUPPORTED_CONTENT); err != nil {
			lgr.With(logger.ERROR, err).Error("Failed to answer unusual content")
		}
		return false
	}

	lgr.Debug("bot received update")
	select {
	case client.updates <- out:
		return true
	case <-ctx.Done():
		return false
	}
}
