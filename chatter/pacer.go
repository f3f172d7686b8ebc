package chatter

import (
	"time"
)

// Pacer produces the artificial pauses of the chat UI.
type Pacer interface {
	After(d time.Duration) <-chan time.Time
}

type RealPacer struct{}

func (RealPacer) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// InstantPacer fires at once. Used when pacing is off and in tests.
type InstantPacer struct{}

func (InstantPacer) After(time.Duration) <-chan time.Time {
	c := make(chan time.Time, 1)
	c <- time.Now()
	return c
}

// Event is one item of the timed opening script. An event without text is a
// bare pause.
type Event struct {
	Delay time.Duration
	Epoch int
	Text  string
}
