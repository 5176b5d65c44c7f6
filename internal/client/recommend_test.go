package client

import (
	"context"
	"errors"
	"testing"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

type fakeRecommender struct {
	recommendation model.Recommendation
	err            error
}

func (f fakeRecommender) Recommend(context.Context, model.RecommendRequest) (model.Recommendation, error) {
	return f.recommendation, f.err
}

func TestRecommendPrefersRemote(t *testing.T) {
	remoteID := "openai/gpt-4o"
	remote := fakeRecommender{recommendation: model.Recommendation{Recommended: &remoteID, Reason: "remote"}}

	got := Recommend(context.Background(), remote, model.RecommendRequest{Message: "hi", Candidates: []string{"a"}})

	if got.Reason != "remote" {
		t.Errorf("Expected remote answer, got %+v", got)
	}
}

func TestRecommendFallsBackLocally(t *testing.T) {
	req := model.RecommendRequest{
		Message:    "help me debug this code",
		Candidates: []string{"gpt-5.2-codex", "openai/gpt-4o-mini"},
	}
	for name, remote := range map[string]Recommender{
		"error": fakeRecommender{err: errors.New("unreachable")},
		"empty": fakeRecommender{},
		"nil":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			got := Recommend(context.Background(), remote, req)
			if got.Recommended == nil || *got.Recommended != "gpt-5.2-codex" {
				t.Errorf("Expected local coding pick, got %+v", got)
			}
		})
	}
}
