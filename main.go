package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salesbackend/cache"
	"salesbackend/config"
	"salesbackend/controllers"
	"salesbackend/middleware"
	"salesbackend/routes"
	"salesbackend/services"
	"salesbackend/store"
	"salesbackend/utils"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}()

	c := openCache(ctx, cfg)

	var photos utils.PhotoStorage
	if cfg.S3Enabled() {
		s3, err := utils.NewS3PhotoStorage(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL, cfg.S3UseSSL)
		if err != nil {
			log.Fatalf("photo storage: %v", err)
		}
		photos = s3
	} else {
		log.Printf("S3_ENDPOINT/S3_BUCKET not set, photo uploads disabled")
	}

	var mailer utils.Mailer = utils.LogMailer{}
	if cfg.SMTPEnabled() {
		mailer = utils.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := middleware.NewHTTPMetrics(registry)
	salesMetrics := services.NewMetrics(registry)

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	authService := services.NewAuthService(st, tokens, 0)
	inventoryService := services.NewInventoryService(st, c, photos)
	salesService := services.NewSalesService(st, c, salesMetrics, cfg.SummaryWindowDays)
	profileService := services.NewProfileService(st, c)

	location, err := time.LoadLocation(cfg.CronTimezone)
	if err != nil {
		log.Printf("Unknown CRON_TIMEZONE %q, using UTC: %v", cfg.CronTimezone, err)
		location = time.UTC
	}
	scheduler, err := utils.StartScheduler(location, st, mailer, cfg.LowStockThreshold)
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	defer scheduler.Stop()

	gin.SetMode(gin.ReleaseMode)
	log.Printf("Running in %s mode", gin.Mode())

	r, err := routes.NewRouter(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("TRUSTED_PROXIES: %v", err)
	}
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(httpMetrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	routes.InitializeRoutes(r, routes.Dependencies{
		Tokens:            tokens,
		Auth:              controllers.NewAuthController(authService),
		Products:          controllers.NewProductController(inventoryService),
		Sales:             controllers.NewSalesController(salesService),
		Profile:           controllers.NewProfileController(profileService),
		MetricsHandler:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		MetricsAllowedIPs: cfg.MetricsAllowedIPs,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Listening on %s (store=%s)", srv.Addr, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	switch cfg.StoreBackend {
	case "mongo", "mongodb":
		db, err := config.ConnectDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		m := store.NewMongo(db)
		if err := m.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		if err := m.DetectTransactions(ctx); err != nil {
			return nil, err
		}
		if !m.Transactional() {
			log.Printf("MongoDB is standalone; sale commits use compensating updates")
		}
		return m.Store(), nil
	case "firestore":
		client, err := config.ConnectFirestore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store.NewFirestoreStore(client), nil
	case "memory":
		log.Printf("Using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

// openCache falls back to the in-process cache when Redis is not configured
// or unreachable.
func openCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.RedisURL == "" {
		return cache.NewMemory(cfg.CacheTTL)
	}
	rdb, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Printf("Redis unavailable, using in-memory cache: %v", err)
		return cache.NewMemory(cfg.CacheTTL)
	}
	return cache.NewRedis(rdb, cfg.CacheTTL)
}
