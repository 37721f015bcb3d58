package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	auditlog "podnotes/backend/internal/audit"
	auditrepo "podnotes/backend/internal/audit/repository"
	authservice "podnotes/backend/internal/auth/service"
	"podnotes/backend/internal/config"
	"podnotes/backend/internal/db"
	membershiprepo "podnotes/backend/internal/membership/repository"
	membershipservice "podnotes/backend/internal/membership/service"
	noterepo "podnotes/backend/internal/note/repository"
	noteservice "podnotes/backend/internal/note/service"
	podrepo "podnotes/backend/internal/pod/repository"
	podservice "podnotes/backend/internal/pod/service"
	"podnotes/backend/internal/realtime"
	"podnotes/backend/internal/security"
	"podnotes/backend/internal/server"
	sessionrepo "podnotes/backend/internal/session/repository"
	"podnotes/backend/internal/storage"
	"podnotes/backend/internal/telemetry/otel"
	userrepo "podnotes/backend/internal/user/repository"
	userservice "podnotes/backend/internal/user/service"
)

const serviceName = "podnotes-api"

func main() {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, false)
	if err != nil {
		log.WithError(err).Fatal("telemetry")
	}
	providers.SetGlobal()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("database")
	}
	defer database.Close()

	priv, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.WithError(err).Fatal("JWT_PRIVATE_KEY")
	}
	pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.WithError(err).Fatal("JWT_PUBLIC_KEY")
	}
	tokens := security.NewTokenProvider(priv, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	avatars, err := storage.NewFilesystemStore(cfg.AvatarDir, cfg.AvatarBaseURL)
	if err != nil {
		log.WithError(err).Fatal("avatar storage")
	}

	users := userrepo.NewPostgresRepository(database)
	sessions := sessionrepo.NewPostgresRepository(database)
	pods := podrepo.NewPostgresRepository(database)
	memberships := membershiprepo.NewPostgresRepository(database)
	notes := noterepo.NewPostgresRepository(database)
	activityRepo := auditrepo.NewPostgresRepository(database)

	activity := auditlog.NewLogger(activityRepo, log)
	broker := realtime.NewBroker()

	deps := server.Deps{
		Tokens:       tokens,
		Roles:        memberships,
		Broker:       broker,
		Auth:         authservice.NewAuthService(users, sessions, hasher, tokens, activity, cfg.RefreshTTL()),
		Pods:         podservice.NewService(pods, memberships, activity),
		Memberships:  membershipservice.NewService(memberships, users, broker, activity),
		Notes:        noteservice.NewService(notes, memberships, broker, activity),
		Users:        userservice.NewService(users, avatars),
		ActivityRepo: activityRepo,
		DB:           database,
		StaticDir:    avatars.Root(),
		ServiceName:  serviceName,
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("telemetry shutdown")
	}
	log.Info("http server stopped")
}
