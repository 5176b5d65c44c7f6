package client

import (
	"context"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	"github.com/iamvkosarev/ai-ide-gateway/internal/recommend"
)

type Recommender interface {
	Recommend(ctx context.Context, req model.RecommendRequest) (model.Recommendation, error)
}

// Recommend asks the gateway and falls back to the local heuristic when the
// call fails or returns nothing.
func Recommend(ctx context.Context, remote Recommender, req model.RecommendRequest) model.Recommendation {
	if remote != nil {
		recommendation, err := remote.Recommend(ctx, req)
		if err == nil && recommendation.Reason != "" {
			return recommendation
		}
	}
	return recommend.Recommend(req.Message, req.Candidates)
}
