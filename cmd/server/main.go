package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/sport_shop/internal/cache"
	"github.com/Skotchmaster/sport_shop/internal/events"
	"github.com/Skotchmaster/sport_shop/internal/httpserver"
	"github.com/Skotchmaster/sport_shop/internal/metrics"
	"github.com/Skotchmaster/sport_shop/internal/models"
	"github.com/Skotchmaster/sport_shop/internal/repo"
	"github.com/Skotchmaster/sport_shop/internal/search"
	"github.com/Skotchmaster/sport_shop/internal/service/auth"
	"github.com/Skotchmaster/sport_shop/internal/service/catalog"
	"github.com/Skotchmaster/sport_shop/internal/service/order"
	"github.com/Skotchmaster/sport_shop/pkg/config"
	pkgdb "github.com/Skotchmaster/sport_shop/pkg/db"
	"github.com/Skotchmaster/sport_shop/pkg/logging"
	authmw "github.com/Skotchmaster/sport_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/sport_shop/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/sport_shop/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	if err := cfg.Require(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewProducer(cfg.KafkaBrokers)
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var searcher catalog.Searcher
	if cfg.ESURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		es, err := search.NewClient(ctx, search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		cancel()
		if err != nil {
			logger.Warn("search_disabled", "reason", "elasticsearch unavailable", "error", err)
		} else {
			searcher = search.New(es, cfg.ESIndex)
		}
	}

	var pc cache.ProductCache = cache.Nop{}
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			logger.Warn("cache_disabled", "reason", "redis unavailable", "error", err)
		} else {
			pc = cache.NewRedis(rdb)
			defer rdb.Close()
		}
	}

	m := metrics.New()
	store := repo.New(db)

	authSvc := auth.New(store, cfg.JWTAccessSecret, cfg.JWTRefreshSecret, pub)
	catalogSvc := catalog.New(store, pub, pc, searcher, m)
	orderSvc := order.New(store, pub, pc, m)
	orderSvc.AllowBackorder = cfg.AllowBackorder

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(m.Middleware())
	e.Use(echomw.CORS())
	e.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RateLimitRPS),
		Burst:     cfg.RateLimitRPS * 2,
		ExpiresIn: 3 * time.Minute,
	})))
	if cfg.CSRFEnabled {
		e.Use(csrf.Middleware(csrf.DefaultConfig()))
	}

	httpserver.Register(e, &httpserver.Deps{
		Users:   &httpserver.UsersHTTP{Svc: authSvc},
		Catalog: &httpserver.CatalogHTTP{Svc: catalogSvc},
		Orders:  &httpserver.OrderHTTP{Svc: orderSvc},
		Auth:    authmw.NewAutoRefreshMiddleware(cfg.JWTAccessSecret, authSvc),
		Metrics: m.Handler(),
		Ready: func(c echo.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(c.Request().Context())
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := pub.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("server_stopped")
}
