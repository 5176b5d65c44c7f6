package main

import (
	"errors"
	"flag"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/iamvkosarev/ai-ide-gateway/config"
	"github.com/iamvkosarev/ai-ide-gateway/internal/app"
	"github.com/iamvkosarev/ai-ide-gateway/pkg/local"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	gatewayURL := flag.String("gateway", "", "gateway base URL, overrides GATEWAY_URL")
	language := flag.String("lang", os.Getenv("CHAT_LANG"), "interface language: en or ru")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *gatewayURL != "" {
		cfg.Client.GatewayURL = *gatewayURL
	}
	if err := app.RunChat(cfg, local.ParseLanguage(*language), os.Stdin, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("chat stopped")
	}
}
