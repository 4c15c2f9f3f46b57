// Command expenso runs the Expenso API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/pemba1s1/Expenso-sub000/internal/config"
	"github.com/pemba1s1/Expenso-sub000/internal/db"
	"github.com/pemba1s1/Expenso-sub000/internal/http"
	"github.com/pemba1s1/Expenso-sub000/internal/llm"
	"github.com/pemba1s1/Expenso-sub000/internal/logging"
	"github.com/pemba1s1/Expenso-sub000/internal/mail"
	"github.com/pemba1s1/Expenso-sub000/internal/oauth"
	"github.com/pemba1s1/Expenso-sub000/internal/ratelimit"
	"github.com/pemba1s1/Expenso-sub000/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("expenso: %v", err)
	}
}

func run(configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return fmt.Errorf("load config: %w", errLoad)
	}
	logging.Setup(cfg.Log)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return fmt.Errorf("open database: %w", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return fmt.Errorf("migrate database: %w", errMigrate)
	}

	store, errStore := storage.NewLocalStore(cfg.Storage.Dir, cfg.Server.APIBaseURL)
	if errStore != nil {
		return fmt.Errorf("init storage: %w", errStore)
	}

	var llmClient llm.Client
	if cfg.LLM.APIKey != "" {
		client, errLLM := llm.New(llm.Config{
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
		})
		if errLLM != nil {
			return fmt.Errorf("init llm client: %w", errLLM)
		}
		llmClient = client
	} else {
		log.Warn("llm api key not configured, receipt extraction and insights are disabled")
	}

	var limiter *ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = ratelimit.New(rdb, 0, 0)
	} else {
		log.Warn("redis not configured, rate limiting is disabled")
	}

	router := http.NewRouter(http.Options{
		DB:         conn,
		JWT:        cfg.JWT,
		WebBaseURL: cfg.Server.WebBaseURL,
		OAuth:      oauth.NewGoogle(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.GoogleRedirectURL),
		LLM:        llmClient,
		Store:      store,
		Mailer:     mail.New(cfg.SMTP),
		Limiter:    limiter,
	})

	server := &nethttp.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case errServe := <-errCh:
		if errServe != nil && !errors.Is(errServe, nethttp.ErrServerClosed) {
			return fmt.Errorf("serve: %w", errServe)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return fmt.Errorf("shutdown: %w", errShutdown)
		}
	}
	return nil
}
