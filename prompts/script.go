package prompts

import (
	"time"
)

// Duration decodes "1.5s"-style strings from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Script holds the fixed lines a session says on its own.
type Script struct {
	StartDelay     Duration   `toml:"start_delay"`
	ThinkDelay     Duration   `toml:"think_delay"`
	SettleDelay    Duration   `toml:"settle_delay"`
	ApologyFailure string     `toml:"apology_failure"`
	ApologyEmpty   string     `toml:"apology_empty"`
	Notice         string     `toml:"notice"`
	Hold           string     `toml:"hold"`
	Greetings      []Greeting `toml:"greetings"`
}

type Greeting struct {
	Delay Duration `toml:"delay"`
	Text  string   `toml:"text"`
}
