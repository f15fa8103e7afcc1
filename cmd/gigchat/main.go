package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ageniuscoder/gigchat/internal/auth"
	"github.com/ageniuscoder/gigchat/internal/chat"
	"github.com/ageniuscoder/gigchat/internal/config"
	"github.com/ageniuscoder/gigchat/internal/logger"
	"github.com/ageniuscoder/gigchat/internal/metrics"
	"github.com/ageniuscoder/gigchat/internal/presence"
	"github.com/ageniuscoder/gigchat/internal/server"
	"github.com/ageniuscoder/gigchat/internal/storage"
	"github.com/ageniuscoder/gigchat/internal/storage/postgres"
	"github.com/ageniuscoder/gigchat/internal/storage/sqlite"
)

func main() {
	migrate := flag.Bool("migrate", false, "run migrations and exits")
	seed := flag.String("seed", "", "load a JSON fixture into the database and exit")
	token := flag.String("token", "", "print a bearer token for the given user id and exit")
	flag.Parse()

	//config part
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Error Loading Env file: %v", err)
	}
	cfg := config.MustLoad()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	lg := logger.New(cfg.LogLevel)
	slog.SetDefault(lg)

	if *token != "" {
		tok, err := auth.NewToken(cfg.JWTSecret, *token, cfg.JWTTTLMin)
		if err != nil {
			log.Fatalf("Token: %v", err)
		}
		fmt.Println(tok)
		return
	}

	//database handling
	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Error loading to database: %v", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := st.Migrate(ctx); err != nil {
		log.Fatalf("Migration failed %v", err)
	}
	if *migrate {
		slog.Info("Migration Completed")
		return
	}
	if *seed != "" {
		if err := loadSeed(ctx, st, *seed); err != nil {
			log.Fatalf("Seed failed: %v", err)
		}
		slog.Info("Seed Completed", "file", *seed)
		return
	}

	typing, closeTyping, err := typingStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Typing store: %v", err)
	}
	defer closeTyping()

	m := metrics.New()
	hub := chat.NewHub(st, m, lg)
	go hub.Run(ctx)

	if lg.Enabled(ctx, slog.LevelDebug) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: server.NewRouter(server.Deps{
			Store:     st,
			Hub:       hub,
			Typing:    typing,
			Metrics:   m,
			JWTSecret: cfg.JWTSecret,
			Log:       lg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	slog.Info("gigchat listening", "addr", cfg.Addr, "db", cfg.DBDriver, "redis", cfg.RedisURL != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server: %v", err)
	}
}

func openStore(cfg config.Config) (*storage.Store, error) {
	if cfg.DBDriver == "postgres" {
		return postgres.New(cfg.PostgresDsn)
	}
	return sqlite.New(cfg.SQLITEDsn)
}

func loadSeed(ctx context.Context, st *storage.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	fx, err := storage.DecodeFixture(f)
	if err != nil {
		return err
	}
	return st.Seed(ctx, fx)
}

func typingStore(ctx context.Context, cfg config.Config) (presence.Store, func(), error) {
	if cfg.RedisURL == "" {
		return presence.NewMemoryStore(cfg.TypingTTL), func() {}, nil
	}
	rdb, err := presence.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return presence.NewRedisStore(rdb, cfg.TypingTTL), func() { rdb.Close() }, nil
}
