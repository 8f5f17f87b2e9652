// Server wires the workflow core: config, telemetry, Postgres, the token
// authority with its grant sweeper, the realtime hub, the Kafka mail
// enqueuer, the notification dispatcher, and the convention and onboarding
// services. It serves a health endpoint and shuts the stack down on SIGTERM.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/config"
	conventionrepo "github.com/enayetsyl/gtc-deploy-sub000/internal/convention/repository"
	conventionservice "github.com/enayetsyl/gtc-deploy-sub000/internal/convention/service"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/db"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/files"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/mail"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/notification"
	notifrepo "github.com/enayetsyl/gtc-deploy-sub000/internal/notification/repository"
	onboardingrepo "github.com/enayetsyl/gtc-deploy-sub000/internal/onboarding/repository"
	onboardingservice "github.com/enayetsyl/gtc-deploy-sub000/internal/onboarding/service"
	pointrepo "github.com/enayetsyl/gtc-deploy-sub000/internal/point/repository"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/realtime"
	sectorrepo "github.com/enayetsyl/gtc-deploy-sub000/internal/sector/repository"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/security"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/server"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/telemetry/otel"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/token"
	userrepo "github.com/enayetsyl/gtc-deploy-sub000/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "gtc-server", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	if cfg.DatabaseURL == "" {
		log.Fatal("server: DATABASE_URL is required")
	}
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}

	grants := token.NewPostgresStore(database)
	go grants.RunSweeper(ctx, token.SweepInterval, log.Printf)
	authority := token.NewAuthority(privateKey, publicKey, cfg.JWTIssuer, grants, cfg.AccessTTL(), cfg.RefreshTTL())

	blobs, err := files.NewDiskStore(cfg.FilesDir)
	if err != nil {
		log.Fatalf("files: %v", err)
	}

	hub := realtime.NewHub()
	enqueuer, err := mail.NewKafkaEnqueuer(cfg.KafkaBrokersList(), cfg.MailKafkaTopic)
	if err != nil {
		log.Fatalf("mail: %v", err)
	}
	if enqueuer == nil {
		log.Println("server: KAFKA_BROKERS unset, email delivery disabled")
	}
	defer enqueuer.Close()

	users := userrepo.NewPostgresRepository(database)
	sectors := sectorrepo.NewPostgresRepository(database)
	points := pointrepo.NewPostgresRepository(database)
	notifications := notifrepo.NewPostgresRepository(database)
	conventions := conventionrepo.NewPostgresRepository(database)
	onboardings := onboardingrepo.NewPostgresRepository(database, points, users)

	dispatcher := notification.NewFanOut(notifications, users, hub, enqueuer)
	hasher := security.NewHasher(cfg.BcryptCost)
	conventionSvc := conventionservice.NewService(conventions, users, blobs, dispatcher)
	onboardingSvc := onboardingservice.NewService(
		onboardings, points, sectors, users, blobs, dispatcher, enqueuer, authority,
		hasher, onboardingservice.Links{BaseURL: cfg.PublicBaseURL},
	)

	api := server.New(authority, users, hasher, conventionSvc, onboardingSvc, dispatcher, notifications, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := database.PingContext(ctx); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/api/", api.Routes())
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("server stopped")
}
