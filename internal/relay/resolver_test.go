package relay

import (
	"reflect"
	"testing"

	"github.com/iamvkosarev/ai-ide-gateway/config"
)

const (
	primaryLocal   = "http://127.0.0.1:8000"
	secondaryLocal = "http://localhost:8000"
)

func TestResolveCandidates(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		want       []string
	}{
		{"no configured url", "", []string{primaryLocal, secondaryLocal}},
		{"whitespace only", "   ", []string{primaryLocal, secondaryLocal}},
		{"remote url", "https://api.example.com/", []string{"https://api.example.com"}},
		{"loopback adds secondary", "http://127.0.0.1:9000", []string{"http://127.0.0.1:9000", secondaryLocal}},
		{"loopback equal to secondary", "http://localhost:8000/", []string{secondaryLocal}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCandidates(tt.configured, primaryLocal, secondaryLocal)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestIsLoopback(t *testing.T) {
	loopback := []string{"http://localhost", "http://localhost:8000", "https://127.0.0.1:443/api", "localhost:3000", "HTTP://LOCALHOST"}
	for _, u := range loopback {
		if !IsLoopback(u) {
			t.Errorf("Expected %q to be loopback", u)
		}
	}

	remote := []string{"", "https://api.example.com", "http://10.0.0.1:8000", "http://localhost.example.com"}
	for _, u := range remote {
		if IsLoopback(u) {
			t.Errorf("Expected %q not to be loopback", u)
		}
	}
}

func TestRouteBlockedInRestrictedDeployment(t *testing.T) {
	for _, configured := range []string{"", "http://localhost:8000", "http://127.0.0.1:9999"} {
		r := NewResolver(config.Backend{
			URL:               configured,
			Restricted:        true,
			PrimaryLocalURL:   primaryLocal,
			SecondaryLocalURL: secondaryLocal,
		})
		if _, blocked := r.Route(); !blocked {
			t.Errorf("Expected %q to be blocked in a restricted deployment", configured)
		}
	}
}

func TestRouteNotBlocked(t *testing.T) {
	restrictedRemote := NewResolver(config.Backend{URL: "https://api.example.com", Restricted: true})
	if _, blocked := restrictedRemote.Route(); blocked {
		t.Error("Expected remote backend to be reachable from restricted deployment")
	}

	local := NewResolver(config.Backend{PrimaryLocalURL: primaryLocal, SecondaryLocalURL: secondaryLocal})
	candidates, blocked := local.Route()
	if blocked {
		t.Error("Expected loopback to be allowed outside restricted deployments")
	}
	if len(candidates) != 2 {
		t.Errorf("Expected 2 candidates, got %v", candidates)
	}
}
