package base

import (
	"context"
)

// Update is one incoming chat message, already stripped of messenger
// specifics. Command is set for slash commands, without the slash.
type Update struct {
	ChatKey string
	Text    string
	Command string
}

type Client interface {
	GoTalk(ctx context.Context)
	Updates() <-chan Update
	Deliver(ctx context.Context, chatKey string, text string) error
}
