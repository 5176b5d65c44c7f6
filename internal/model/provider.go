package model

import "strings"

type ModelProvider string

const (
	ModelProviderAuto       = ModelProvider("auto")
	ModelProviderOpenRouter = ModelProvider("openrouter")
	ModelProviderCodex      = ModelProvider("codex")
)

func ParseModelProvider(s string) ModelProvider {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openrouter":
		return ModelProviderOpenRouter
	case "codex":
		return ModelProviderCodex
	default:
		return ModelProviderAuto
	}
}

// Pinned reports whether requests for this provider must not leave the backend.
func (p ModelProvider) Pinned() bool {
	return ParseModelProvider(string(p)) == ModelProviderCodex
}
