package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sourcegraph/conc"

	"github.com/iamvkosarev/ai-ide-gateway/internal/archive"
	"github.com/iamvkosarev/ai-ide-gateway/internal/logger"
	"github.com/iamvkosarev/ai-ide-gateway/internal/metrics"
	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	"github.com/iamvkosarev/ai-ide-gateway/internal/openrouter"
	"github.com/iamvkosarev/ai-ide-gateway/internal/recommend"
	"github.com/iamvkosarev/ai-ide-gateway/internal/usecase"
)

type CodexAuth interface {
	Status(ctx context.Context) model.CodexStatus
	Start(ctx context.Context) model.DeviceAuthStart
	Disconnect() model.DisconnectResult
	Models() model.ModelList
}

type ChatStreamer interface {
	Stream(ctx context.Context, req model.ChatRequest, frames chan<- []byte)
}

type ModelCatalogue interface {
	List(ctx context.Context, apiKey string) ([]model.ModelInfo, error)
}

type BackendDeps struct {
	Chat      ChatStreamer
	Codex     CodexAuth
	Catalogue ModelCatalogue
	Log       *logger.Logger
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
}

type Backend struct {
	BackendDeps
}

func NewBackendRouter(deps BackendDeps) *gin.Engine {
	b := &Backend{BackendDeps: deps}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(deps.Log, deps.Metrics), CORS())

	api := r.Group("/api")
	api.GET("/health", health)
	api.POST("/chat", b.chat)
	api.POST("/code/download", b.download)
	api.GET("/codex/status", b.codexStatus)
	api.GET("/codex/device-auth/start", b.codexStart)
	api.POST("/codex/device-auth/start", b.codexStart)
	api.POST("/codex/disconnect", b.codexDisconnect)
	api.GET("/models/codex", b.codexModels)
	api.GET("/models/openrouter", b.openRouterModels)
	api.POST("/models/recommend", b.recommend)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

// chat streams frames from the chat usecase. A producer fills the channel and
// the request goroutine writes each frame as soon as it arrives.
func (b *Backend) chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(c, model.ErrEmptyMessage)
		return
	}
	if err := req.ValidateAttachments(); err != nil {
		writeError(c, err)
		return
	}

	b.Metrics.StreamStarted()
	defer b.Metrics.StreamFinished()

	setSSEHeaders(c)
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	frames := make(chan []byte)

	wg := conc.NewWaitGroup()
	wg.Go(
		func() {
			b.Chat.Stream(ctx, req, frames)
		},
	)
	for frame := range frames {
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", frame); err != nil {
			cancel()
			break
		}
		c.Writer.Flush()
	}
	cancel()
	for range frames {
		// unblock the producer after a client disconnect
	}
	wg.Wait()
}

func (b *Backend) download(c *gin.Context) {
	var req usecase.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	var buf bytes.Buffer
	if err := archive.WriteZip(&buf, req.VFS, time.Now()); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, archive.Filename))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

func (b *Backend) codexStatus(c *gin.Context) {
	c.JSON(http.StatusOK, b.Codex.Status(c.Request.Context()))
}

func (b *Backend) codexStart(c *gin.Context) {
	result := b.Codex.Start(c.Request.Context())
	if result.RetryAfterSeconds != nil {
		c.Header("Retry-After", fmt.Sprint(*result.RetryAfterSeconds))
		c.JSON(http.StatusTooManyRequests, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (b *Backend) codexDisconnect(c *gin.Context) {
	c.JSON(http.StatusOK, b.Codex.Disconnect())
}

func (b *Backend) codexModels(c *gin.Context) {
	c.JSON(http.StatusOK, b.Codex.Models())
}

func (b *Backend) openRouterModels(c *gin.Context) {
	models, err := b.Catalogue.List(c.Request.Context(), c.Query("api_key"))
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, openrouter.ErrMissingAPIKey) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, model.ModelList{Models: []model.ModelInfo{}, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.ModelList{Models: models})
}

func (b *Backend) recommend(c *gin.Context) {
	var req model.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, recommend.Recommend(req.Message, req.Candidates))
}
