package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-member-api/internal/config"
	"github.com/go-member-api/internal/infrastructure/dynamo"
	"github.com/go-member-api/internal/infrastructure/google"
	jwtinfra "github.com/go-member-api/internal/infrastructure/jwt"
	redisinfra "github.com/go-member-api/internal/infrastructure/redis"
	"github.com/go-member-api/internal/infrastructure/smtp"
	transporthttp "github.com/go-member-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("dynamodb: %v", err)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	redisClient, err := redisinfra.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	signer, err := jwtinfra.NewSigner(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}

	if cfg.GoogleClientID == "" {
		log.Println("WARN: GOOGLE_CLIENT_ID is empty, Google sign-in will reject every token")
	}

	deps := &transporthttp.Deps{
		MemberRepo: dynamo.NewMemberRepo(dynamoClient, cfg.DynamoTables.Members, cfg.DynamoTables.MemberEmails),
		CodeStore:  redisinfra.NewStore(redisClient),
		Mailer:     smtp.NewMailer(cfg),
		Signer:     signer,
		Google:     google.NewVerifier(cfg.GoogleClientID),
	}

	router := transporthttp.NewRouter(ctx, cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
