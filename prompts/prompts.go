package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

//go:embed data/profile.toml
var profileData string

//go:embed data/script.toml
var scriptData string

const ASSISTANT_INSTRUCTIONS = `You are an AI Relationship Manager for DanamonBank in Indonesia. You have access to customer profile data and should act as a professional, friendly banking advisor. Your role is to:

1) Understand customer needs through conversation
2) Recommend relevant banking products 
3) Explain product features and benefits
4) Handle objections and concerns
5) Provide personalized financial advice

Always use the customer's name (Budi/Pak Budi) and reference their actual data when making recommendations. Speak in a professional but warm tone, and always aim to help the customer achieve their financial goals. Use Indonesian Rupiah (IDR) for all amounts and be culturally appropriate for Indonesian banking customers.`

func LoadProfile() (*Profile, error) {
	var profile Profile
	if _, err := toml.Decode(profileData, &profile); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", errors.WithStack(err))
	}
	return &profile, nil
}

func LoadScript() (*Script, error) {
	var script Script
	if _, err := toml.Decode(scriptData, &script); err != nil {
		return nil, fmt.Errorf("decoding script: %w", errors.WithStack(err))
	}
	if len(script.Greetings) == 0 {
		return nil, errors.New("script has no greetings")
	}
	return &script, nil
}

// SystemPrompt renders the persona instructions followed by the profile and
// catalog as indented JSON.
func SystemPrompt(profile *Profile) (string, error) {
	customer, err := json.MarshalIndent(profile.Customer, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling customer: %w", errors.WithStack(err))
	}
	products, err := json.MarshalIndent(profile.Products, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling products: %w", errors.WithStack(err))
	}
	return ASSISTANT_INSTRUCTIONS + "\n\nCustomer Profile: " + string(customer) + "\nAvailable Bank Products: " + string(products), nil
}

// Load returns the system prompt and the script in one go.
func Load() (string, *Script, error) {
	profile, err := LoadProfile()
	if err != nil {
		return "", nil, err
	}
	systemPrompt, err := SystemPrompt(profile)
	if err != nil {
		return "", nil, err
	}
	script, err := LoadScript()
	if err != nil {
		return "", nil, err
	}
	return systemPrompt, script, nil
}
