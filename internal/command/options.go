package command

import (
	"strings"

	"github.com/bagcord/bagcord-discord"
	"github.com/bagcord/bagcord-discord/internal/security"
)

// stringOption returns the trimmed option value, or an empty string when it is absent.
func stringOption(input *discord.InteractionInput, name string) string {
	value, _ := input.StringOption(name)
	return strings.TrimSpace(value)
}

// addressOption returns the named option when it is a valid address and a ValidationError with message otherwise.
func addressOption(input *discord.InteractionInput, name string, message string) (string, error) {
	address := stringOption(input, name)
	if !security.IsValidAddress(address) {
		return "", &ValidationError{Message: message}
	}
	return address, nil
}

func mintOption(input *discord.InteractionInput) (string, error) {
	return addressOption(input, "mint", "Invalid Solana address format")
}

func walletOption(input *discord.InteractionInput) (string, error) {
	return addressOption(input, "wallet", "Invalid wallet address format")
}
