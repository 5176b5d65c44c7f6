package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/redis/go-redis/v9"

	"github.com/iamvkosarev/ai-ide-gateway/config"
	"github.com/iamvkosarev/ai-ide-gateway/internal/client"
	"github.com/iamvkosarev/ai-ide-gateway/internal/logger"
	in_memory "github.com/iamvkosarev/ai-ide-gateway/internal/storage/in-memory"
	key_value "github.com/iamvkosarev/ai-ide-gateway/internal/storage/key-value"
	"github.com/iamvkosarev/ai-ide-gateway/pkg/local"
)

// RunChat starts the terminal chat against the gateway. State lives in Redis
// when an endpoint is configured and in memory otherwise.
func RunChat(cfg *config.Config, language local.Language, in io.Reader, out io.Writer) error {
	log := logger.New(
		logger.Config{
			Level:   cfg.Log.Level,
			Pretty:  cfg.Log.Pretty,
			Output:  os.Stderr,
			Service: "chat",
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var states client.StateStorage
	var sessions client.SessionStorage
	if cfg.Redis.Endpoint != "" {
		rdb := redis.NewClient(
			&redis.Options{
				Addr: cfg.Redis.Endpoint,
			},
		)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		states = key_value.NewStateStorage(rdb, cfg.Redis.KeyPrefix)
		sessions = key_value.NewSessionStorage(rdb, cfg.Redis.KeyPrefix)
	} else {
		log.Info().Msg("no redis endpoint configured, chat state is kept in memory")
		states = in_memory.NewStateStorage()
		sessions = in_memory.NewSessionStorage()
	}

	state := client.NewAppState(states, sessions)
	if err := state.Load(ctx); err != nil {
		return fmt.Errorf("failed to load chat state: %w", err)
	}

	repl, err := client.NewREPL(
		client.REPLDeps{
			API:   client.NewAPI(cfg.Client.GatewayURL, nil),
			State: state,
			Out:   out,
			Log:   log,
		},
		cfg.Client, language,
	)
	if err != nil {
		return err
	}
	return repl.Run(ctx, in)
}
