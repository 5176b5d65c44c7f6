package openrouter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

const ModelCacheTTL = 5 * time.Minute

// Catalogue lists OpenRouter models and caches the result for ModelCacheTTL.
type Catalogue struct {
	client *Client
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	fetchedAt time.Time
	models    []model.ModelInfo
}

func NewCatalogue(client *Client) *Catalogue {
	return &Catalogue{
		client: client,
		ttl:    ModelCacheTTL,
		now:    time.Now,
	}
}

func (c *Catalogue) List(ctx context.Context, apiKey string) ([]model.ModelInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.models) > 0 && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.models, nil
	}

	key, err := ResolveAPIKey(apiKey, c.client.cfg.APIKey)
	if err != nil {
		return nil, err
	}
	list, err := c.client.openAIClient(key).ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list OpenRouter models: %w", err)
	}

	models := make([]model.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, model.ModelInfo{ID: m.ID, Name: m.ID})
	}
	c.models = models
	c.fetchedAt = c.now()
	return models, nil
}
