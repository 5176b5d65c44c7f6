package relay

import (
	"net/url"
	"strings"

	"github.com/iamvkosarev/ai-ide-gateway/config"
)

// Resolver turns backend configuration into the ordered list of base URLs a
// request is relayed to.
type Resolver struct {
	configuredURL     string
	primaryLocalURL   string
	secondaryLocalURL string
	restricted        bool
}

func NewResolver(cfg config.Backend) *Resolver {
	return &Resolver{
		configuredURL:     cfg.URL,
		primaryLocalURL:   cfg.PrimaryLocalURL,
		secondaryLocalURL: cfg.SecondaryLocalURL,
		restricted:        cfg.Restricted,
	}
}

func (r *Resolver) Candidates() []string {
	return ResolveCandidates(r.configuredURL, r.primaryLocalURL, r.secondaryLocalURL)
}

// Route returns the candidates and whether relaying must be skipped because
// the first candidate cannot be reached from this deployment.
func (r *Resolver) Route() ([]string, bool) {
	candidates := r.Candidates()
	if len(candidates) == 0 {
		return candidates, true
	}
	return candidates, r.IsBlocked(candidates[0])
}

func (r *Resolver) IsBlocked(rawURL string) bool {
	return r.restricted && IsLoopback(rawURL)
}

func ResolveCandidates(configuredURL, primaryLocalURL, secondaryLocalURL string) []string {
	configured := normalizeBaseURL(configuredURL)
	secondary := normalizeBaseURL(secondaryLocalURL)
	if configured == "" {
		candidates := make([]string, 0, 2)
		if primary := normalizeBaseURL(primaryLocalURL); primary != "" {
			candidates = append(candidates, primary)
		}
		if secondary != "" && (len(candidates) == 0 || candidates[0] != secondary) {
			candidates = append(candidates, secondary)
		}
		return candidates
	}

	candidates := []string{configured}
	if secondary != "" && IsLoopback(configured) && configured != secondary {
		candidates = append(candidates, secondary)
	}
	return candidates
}

// IsLoopback reports whether the URL points at localhost or 127.0.0.1, with or
// without a port. A missing scheme is tolerated.
func IsLoopback(rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return false
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(parsed.Hostname()) {
	case "localhost", "127.0.0.1":
		return true
	default:
		return false
	}
}

func normalizeBaseURL(rawURL string) string {
	return strings.TrimRight(strings.TrimSpace(rawURL), "/")
}
