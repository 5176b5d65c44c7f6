package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	"github.com/iamvkosarev/ai-ide-gateway/internal/recommend"
	"github.com/iamvkosarev/ai-ide-gateway/internal/relay"
)

const (
	RecommendSourceRemote = "remote"
	RecommendSourceLocal  = "local"
)

type RecommendUsecase struct {
	RelayDeps
}

func NewRecommendUsecase(deps RelayDeps) *RecommendUsecase {
	deps = deps.component("recommend")
	return &RecommendUsecase{RelayDeps: deps}
}

// Recommend asks the backend first and answers locally on any failure. The
// result is always usable.
func (r *RecommendUsecase) Recommend(ctx context.Context, req model.RecommendRequest) model.Recommendation {
	result, err := r.remote(ctx, req)
	if err != nil {
		r.Log.Debug().Err(err).Msg("remote recommendation unavailable, using local heuristic")
		r.Metrics.RecordRecommendation(RecommendSourceLocal)
		return recommend.Recommend(req.Message, req.Candidates)
	}
	r.Metrics.RecordRecommendation(RecommendSourceRemote)
	return result
}

func (r *RecommendUsecase) remote(ctx context.Context, req model.RecommendRequest) (model.Recommendation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return model.Recommendation{}, fmt.Errorf("failed to marshal recommend request: %w", err)
	}
	resp, err := r.forward(
		ctx, relay.Request{
			Path:        PathRecommend,
			Method:      http.MethodPost,
			ContentType: contentTypeJSON,
			Body:        body,
		},
	)
	if err != nil {
		return model.Recommendation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Recommendation{}, fmt.Errorf("backend answered %d", resp.StatusCode)
	}
	var result model.Recommendation
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.Recommendation{}, fmt.Errorf("failed to decode recommendation: %w", err)
	}
	if result.Reason == "" {
		return model.Recommendation{}, errors.New("backend recommendation has no reason")
	}
	return result, nil
}
