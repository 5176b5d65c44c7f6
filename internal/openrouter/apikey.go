package openrouter

import (
	"errors"
	"regexp"
	"strings"
)

var ErrMissingAPIKey = errors.New("missing OpenRouter API key: add it in Settings or set OPENROUTER_API_KEY")

// Masked keys echoed back by a settings form, e.g. "••••••••" or "****".
var placeholderKeyPattern = regexp.MustCompile(`^[•*●·∙◦\s]+$`)

// ResolveAPIKey prefers the key sent with the request and falls back to the
// deployment key when the request key is empty, masked or garbled.
func ResolveAPIKey(requestKey, defaultKey string) (string, error) {
	if usableKey(requestKey) {
		return strings.TrimSpace(requestKey), nil
	}
	if usableKey(defaultKey) {
		return strings.TrimSpace(defaultKey), nil
	}
	return "", ErrMissingAPIKey
}

func usableKey(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" || placeholderKeyPattern.MatchString(key) {
		return false
	}
	for _, r := range key {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}
