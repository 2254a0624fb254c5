package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avekens/threadlens/internal/api"
	"github.com/avekens/threadlens/internal/config"
	"github.com/avekens/threadlens/internal/handler"
	"github.com/avekens/threadlens/internal/infrastructure/auth"
	"github.com/avekens/threadlens/internal/infrastructure/kafka"
	"github.com/avekens/threadlens/internal/infrastructure/mail"
	"github.com/avekens/threadlens/internal/infrastructure/oauth"
	"github.com/avekens/threadlens/internal/infrastructure/redis"
	"github.com/avekens/threadlens/internal/observability"
	core "github.com/avekens/threadlens/internal/repository/postgres"
	service "github.com/avekens/threadlens/internal/services"
	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()

	shutdown, _ := observability.Setup("threadlens-auth")
	defer shutdown(context.Background())

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer db.Close()

	userRepo := core.NewPostgresUserRepository(db)
	redisClient := redis.NewClient(cfg.RedisAddr, cfg.StoreTimeout)
	defer redisClient.Close()

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	codec := auth.NewCodec(cfg.JWTSecret)
	issuer := auth.NewIssuer(codec, redisClient, userRepo, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	revoker := auth.NewRevoker(redisClient)
	cooldown := auth.NewCooldown(redisClient, cfg.MailCooldown)
	links := auth.NewLinkTokenizer(cfg.LinkTokenSecret, cfg.LinkTokenTTL)
	stash := auth.NewStateStash(redisClient)
	google := oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.BaseURL+"/api/1.0/auth/google/callback")

	svc := service.NewAuthService(userRepo, redisClient, issuer, revoker, cooldown, links, stash, producer, google)

	accessGuard := auth.NewAccessGuard(codec, redisClient, userRepo, handler.WriteError)
	refreshGuard := auth.NewRefreshGuard(codec, redisClient, userRepo, handler.WriteError)

	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFromName)
	emailConsumer := kafka.NewEmailConsumer(cfg.KafkaBrokers, "threadlens-mailer", mailer)
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	go emailConsumer.Consume(consumerCtx)
	defer emailConsumer.Close()
	defer cancelConsumer()

	router := api.SetupRouter(handler.NewHandler(svc), accessGuard, refreshGuard)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}
	go func() {
		log.Printf("Starting server on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
