package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iamvkosarev/ai-ide-gateway/internal/logger"
	"github.com/iamvkosarev/ai-ide-gateway/internal/metrics"
	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	"github.com/iamvkosarev/ai-ide-gateway/internal/usecase"
)

type ChatService interface {
	Chat(ctx context.Context, req model.ChatRequest) (*usecase.Response, error)
}

type CodexService interface {
	Status(ctx context.Context) (*usecase.Response, error)
	Start(ctx context.Context) (*usecase.Response, error)
	Disconnect(ctx context.Context) (*usecase.Response, error)
}

type ModelsService interface {
	OpenRouter(ctx context.Context, apiKey string) (*usecase.Response, error)
	Codex(ctx context.Context) (*usecase.Response, error)
}

type DownloadService interface {
	Download(ctx context.Context, req usecase.DownloadRequest) (*usecase.Response, error)
}

type RecommendService interface {
	Recommend(ctx context.Context, req model.RecommendRequest) model.Recommendation
}

type GatewayDeps struct {
	Chat      ChatService
	Codex     CodexService
	Models    ModelsService
	Download  DownloadService
	Recommend RecommendService
	Log       *logger.Logger
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
}

type Gateway struct {
	GatewayDeps
}

func NewGatewayRouter(deps GatewayDeps) *gin.Engine {
	g := &Gateway{GatewayDeps: deps}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(deps.Log, deps.Metrics), CORS())

	api := r.Group("/api")
	api.GET("/health", health)
	api.POST("/chat", g.chat)
	api.POST("/code/download", g.download)
	api.GET("/codex/status", g.relay(g.Codex.Status))
	api.GET("/codex/device-auth/start", g.relay(g.Codex.Start))
	api.POST("/codex/device-auth/start", g.relay(g.Codex.Start))
	api.POST("/codex/disconnect", g.relay(g.Codex.Disconnect))
	api.GET("/models/codex", g.relay(g.Models.Codex))
	api.GET("/models/openrouter", g.openRouterModels)
	api.POST("/models/recommend", g.recommend)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

func (g *Gateway) chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	g.Metrics.StreamStarted()
	defer g.Metrics.StreamFinished()

	resp, err := g.Chat.Chat(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeStream(c, resp)
}

func (g *Gateway) download(c *gin.Context) {
	var req usecase.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	resp, err := g.Download.Download(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeResponse(c, resp)
}

func (g *Gateway) openRouterModels(c *gin.Context) {
	resp, err := g.Models.OpenRouter(c.Request.Context(), c.Query("api_key"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeResponse(c, resp)
}

func (g *Gateway) recommend(c *gin.Context) {
	var req model.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, g.Recommend.Recommend(c.Request.Context(), req))
}

func (g *Gateway) relay(call func(ctx context.Context) (*usecase.Response, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := call(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		writeResponse(c, resp)
	}
}
