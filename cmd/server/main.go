package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/api"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/auth"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/billing"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/config"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/db"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/httpx"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/market"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/realtime"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	var (
		addr    = flag.String("addr", "", "server listen address (default :$PORT)")
		cfgPath = flag.String("config", os.Getenv("CONFIG_FILE"), "JSON config file")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr == "" {
		*addr = ":" + cfg.Server.Port
	}

	var st store.Store = store.Unconfigured{}
	if cfg.Database.URL != "" {
		sqlDB, dialect, err := db.Open(cfg.Database.URL)
		if err != nil {
			log.Fatalf("database init failed: %v", err)
		}
		defer sqlDB.Close()
		log.Printf("database ready (%s)", dialect)
		st = store.NewSQLStore(sqlDB)
	} else {
		log.Println("warning: DATABASE_URL not set; watchlist and alert routes will answer 503")
	}

	httpClient := httpx.New(cfg.RequestTimeout())

	var quotes api.QuoteProvider = market.NewAdapter(market.WithHTTPClient(httpClient))
	if cfg.Quotes.CacheTTLSec > 0 {
		quotes = &market.Cached{
			P:        quotes,
			TTL:      time.Duration(cfg.Quotes.CacheTTLSec) * time.Second,
			MaxItems: cfg.Quotes.CacheMaxItems,
		}
	}

	options := []api.Option{
		api.WithVersion(cfg.Server.Version),
		api.WithBaseURL(cfg.Server.BaseURL),
		api.WithBilling(billing.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, billing.WithHTTPClient(httpClient))),
	}
	if v := newVerifier(cfg, httpClient); v != nil {
		options = append(options, api.WithVerifier(v))
	} else {
		log.Println("warning: Supabase auth not configured; user routes trust the userId parameter")
	}

	hub := realtime.NewHub()
	apiServer := api.NewServer(st, quotes, hub, options...)

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Database.URL != "" {
		go apiServer.StartPolling(ctx, cfg.PollInterval())
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("oryn alert hub %s listening on %s", cfg.Server.Version, *addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

// newVerifier asks Supabase about every token unless AUTH_MODE=local opts
// into signature-only checks, and puts a Redis cache in front when Redis is
// reachable.
func newVerifier(cfg config.Config, client auth.HTTPClient) auth.Verifier {
	var v auth.Verifier
	switch {
	case cfg.LocalJWT():
		v = auth.NewJWTVerifier(cfg.Supabase.JWTSecret)
	case cfg.Supabase.URL != "" && cfg.SupabaseKey() != "":
		v = auth.NewSupabaseVerifier(cfg.Supabase.URL, cfg.SupabaseKey(), client)
	default:
		return nil
	}

	if cfg.Auth.CacheTTLSec <= 0 || cfg.Redis.Host == "" {
		return v
	}
	rdb, err := db.NewRedis(db.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Printf("warning: auth cache disabled: %v", err)
		return v
	}
	return auth.NewCachedVerifier(v, auth.NewRedisTokenCache(rdb), time.Duration(cfg.Auth.CacheTTLSec)*time.Second)
}
