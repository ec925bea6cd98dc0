package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/blogposts/blog/application"
	"github.com/dfryer1193/blogposts/blog/domain"
	"github.com/dfryer1193/blogposts/blog/persistence"
	"github.com/dfryer1193/blogposts/internal/auth"
	"github.com/dfryer1193/blogposts/internal/middleware"
	"github.com/dfryer1193/blogposts/internal/rest"
	"github.com/dfryer1193/blogposts/shared/config"
	"github.com/dfryer1193/blogposts/shared/db/sqlite"
)

func openDatabase(cfg *config.Config) (*sqlite.SQLiteDB, error) {
	dbCfg := sqlite.NewSQLiteConfig()
	if cfg.Database.Path != "" {
		dbCfg.Path = cfg.Database.Path
	}

	database := sqlite.NewSQLiteDB(dbCfg)
	if err := database.Connect(); err != nil {
		return nil, err
	}
	return database, nil
}

func newTokens(cfg *config.Config) *auth.Tokens {
	return auth.NewTokens(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
}

func runServer(cfg *config.Config) error {
	database, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	postRepo := persistence.NewPostRepository(database.DB())
	markdownRenderer := application.NewMarkdownRenderer(cfg.Blog.BaseURL)
	postService := application.NewPostService(database.DB(), postRepo, markdownRenderer, time.Now)

	if cfg.Env != config.EnvDev {
		gin.SetMode(gin.ReleaseMode)
	}

	router := rest.NewRouter(rest.Dependencies{
		Posts:    postService,
		Tokens:   newTokens(cfg),
		DB:       database.DB(),
		Metrics:  middleware.NewMetrics(prometheus.DefaultRegisterer),
		Gatherer: prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

func runMigrate(cfg *config.Config) error {
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	log.Info().Str("path", cfg.Database.Path).Msg("Migrations applied")
	return database.Close()
}

func runCreateUser(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: create-user <name> <email>")
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	now := time.Now().UTC()
	user := &domain.User{Name: args[0], Email: args[1], CreatedAt: now, UpdatedAt: now}
	if err := persistence.NewUserRepository(database.DB()).CreateUser(context.Background(), user); err != nil {
		return err
	}

	log.Info().Int64("userID", user.ID).Str("email", user.Email).Msg("User created")
	fmt.Println(user.ID)
	return nil
}

func runIssueToken(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: issue-token <user id>")
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if _, err := persistence.NewUserRepository(database.DB()).GetUser(context.Background(), userID); err != nil {
		return err
	}

	token, err := newTokens(cfg).Issue(userID)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
