package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	"github.com/iamvkosarev/ai-ide-gateway/internal/relay"
)

const downloadBlockedMessage = "Project download is served by the backend, " +
	"which this deployment cannot reach. Run the backend locally to export files."

type DownloadRequest struct {
	VFS map[string]string `json:"vfs"`
}

type DownloadUsecase struct {
	RelayDeps
}

func NewDownloadUsecase(deps RelayDeps) *DownloadUsecase {
	deps = deps.component("download")
	return &DownloadUsecase{RelayDeps: deps}
}

func (d *DownloadUsecase) Download(ctx context.Context, req DownloadRequest) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal download request: %w", err)
	}
	resp, err := d.forward(
		ctx, relay.Request{
			Path:        PathDownload,
			Method:      http.MethodPost,
			ContentType: contentTypeJSON,
			Body:        body,
		},
	)
	if errors.Is(err, errBlocked) {
		return payload(http.StatusInternalServerError, model.ErrorBody{Error: downloadBlockedMessage}), nil
	}
	if err != nil {
		return nil, err
	}
	return relayed(resp), nil
}
