package security

import "github.com/mr-tron/base58"

const (
	minAddressLength = 32
	maxAddressLength = 44
)

// IsValidAddress reports whether the given string looks like a base58 account
// identifier: 32 to 44 characters drawn from the base58 alphabet.
func IsValidAddress(address string) bool {
	if len(address) < minAddressLength || len(address) > maxAddressLength {
		return false
	}

	// Decode fails on any character outside the alphabet (0, O, I, l, etc.).
	_, err := base58.Decode(address)
	return err == nil
}

// TruncateAddress shortens an address for display, keeping chars characters on each side.
func TruncateAddress(address string, chars int) string {
	if address == "" {
		return "N/A"
	}
	if len(address) <= chars*2+3 {
		return address
	}
	return address[:chars] + "..." + address[len(address)-chars:]
}
