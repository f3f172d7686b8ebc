package chatter

import (
	"github.com/EPecherkin/ai-rm/llm/base"
)

// Store is the ordered conversation of one session. It only grows, except
// for Clear on reset. Callers hold the session lock.
type Store struct {
	messages []base.Message
}

func (store *Store) Append(role base.Role, content string) {
	store.messages = append(store.messages, base.Message{Role: role, Content: content})
}

// Messages returns a copy, safe to use after the lock is released.
func (store *Store) Messages() []base.Message {
	out := make([]base.Message, len(store.messages))
	copy(out, store.messages)
	return out
}

func (store *Store) Len() int {
	return len(store.messages)
}

func (store *Store) Clear() {
	store.messages = nil
}
