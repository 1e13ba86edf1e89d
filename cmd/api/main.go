package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/AzrielTheHellrazor/Flicks/internal/chain"
	"github.com/AzrielTheHellrazor/Flicks/internal/frame"
	"github.com/AzrielTheHellrazor/Flicks/internal/http/handlers"
	"github.com/AzrielTheHellrazor/Flicks/internal/http/httpapi"
	"github.com/AzrielTheHellrazor/Flicks/internal/infra"
	"github.com/AzrielTheHellrazor/Flicks/internal/ledger"
	"github.com/AzrielTheHellrazor/Flicks/internal/providers/openai"
	"github.com/AzrielTheHellrazor/Flicks/internal/stylist"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// Payment ledger. Postgres when DATABASE_URL is set, otherwise an
	// in-process ledger that still blocks reuse within one run of the server.
	var led ledger.Ledger
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		led = ledger.NewPostgres(pool)
		logger.Info().Msg("payment ledger backed by postgres")
	} else {
		led = ledger.NewMemory()
		logger.Warn().Msg("DATABASE_URL not set, payment ledger is in-memory")
	}

	rpc, err := chain.NewRPCClient(chain.RPCOptions{URL: cfg.ChainRPCURL})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid chain rpc url")
	}
	receipts := chain.NewRPCReceiptWaiter(rpc)

	ai := openai.NewClient(openai.Options{
		APIKey:     cfg.OpenAIAPIKey,
		ChatModel:  cfg.OpenAIModel,
		ImageModel: cfg.ImageModel,
		BaseURL:    cfg.OpenAIBaseURL,
	})
	st := stylist.New(stylist.Options{Chat: ai, Logger: logger})
	verifier := frame.NewHubVerifier(cfg.FarcasterHubURL, nil)

	app := handlers.NewApp(cfg, logger, st, ai, led, receipts, verifier)
	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("network", string(cfg.Network)).
			Int64("chain_id", cfg.ChainID).
			Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
