package messenger

import (
	"github.com/EPecherkin/ai-rm/messenger/base"
	"github.com/EPecherkin/ai-rm/messenger/telegram"
)

type Client interface {
	base.Client
}

var CreateTelegramClient = telegram.CreateClient
