package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ffm-services/sperrmuell-kalender/internal/commands"
	"github.com/ffm-services/sperrmuell-kalender/internal/config"
	"github.com/ffm-services/sperrmuell-kalender/internal/fes"
	"github.com/ffm-services/sperrmuell-kalender/internal/logging"
	"github.com/ffm-services/sperrmuell-kalender/internal/scrape"
	"github.com/ffm-services/sperrmuell-kalender/internal/store"
	"github.com/ffm-services/sperrmuell-kalender/internal/web"
)

func main() {
	// Check for subcommands
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		commands.HashPassword(os.Args[2:])
		return
	}

	port := flag.Int("port", 0, "Port to listen on (overrides SPERRMUELL_HTTP_PORT)")
	dataDir := flag.String("data-dir", "", "Data directory (overrides SPERRMUELL_DATA_DIR)")
	discover := flag.Bool("discover", false, "Discover booking URL parameters from the public page at startup")
	flag.Parse()

	// .env is optional, environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.HTTPPort = *port
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	logger := logging.Setup(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.DBPath())
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath()).Msg("failed to open schedule store")
	}
	defer st.Close()

	client := fes.New(cfg, logger)

	if *discover {
		apiURL, err := client.DiscoverBookingParams(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("booking parameter discovery failed, using configured URL")
		} else {
			client.SetAPIURL(apiURL)
			logger.Info().Str("url", apiURL).Msg("discovered booking API URL")
		}
	}

	auth, err := web.LoadAuth(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load auth credentials")
	}

	scraper := scrape.New(client, st, cfg, logger)
	runner := scrape.NewRunner(scraper, cfg.ScrapeInterval, logger)
	go func() {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("scrape runner exited")
		}
	}()

	handler := web.NewHandler(st, client, runner, auth, cfg, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	logger.Info().
		Int("port", cfg.HTTPPort).
		Str("data_dir", cfg.DataDir).
		Str("environment", cfg.Environment).
		Msg("Sperrmüll-Kalender started")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("Sperrmüll-Kalender stopped")
}
