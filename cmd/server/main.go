package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/mail"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

func main() {
	cfg := config.Load(".env")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Errorw("server_exit", "error", err)
		os.Exit(1)
	}
}

// adapters holds the optional integrations. A nil field means the integration is off.
type adapters struct {
	cache       service.Cache
	idempotency service.IdempotencyStore
	events      service.Publisher
	index       service.ProductIndex
	store       service.ObjectStore
	mailer      service.Mailer
	stripe      service.StripeGateway
	paypal      service.PayPalGateway
	identity    *identity.Verifier

	closers []func() error
}

func run(cfg config.Config, logger *zap.SugaredLogger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := logging.IntoContext(context.Background(), logger)

	gdb, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	r := &repo.GormRepo{DB: gdb}
	if cfg.AutoMigrate {
		if err := r.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Infow("migrations_applied")
	}

	ad, err := connectAdapters(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range ad.closers {
			if err := c(); err != nil {
				logger.Warnw("adapter_close_failed", "error", err)
			}
		}
	}()

	verifier, err := tokens.NewVerifier(cfg.AuthJWTSecret, cfg.AuthJWTPublicKey)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     corsOrigins(cfg.CORSOrigins),
		AllowCredentials: len(cfg.CORSOrigins) > 0,
		ExposeHeaders:    []string{"X-CSRF-Token"},
	}))
	e.Use(csrf.Middleware(csrf.Config{
		SessionCookie:  middleware.SessionCookie,
		Secure:         cfg.CookieSecure,
		AllowedOrigins: append([]string{cfg.StoreURL}, cfg.CORSOrigins...),
		SkipPrefixes:   []string{"/api/v1/webhooks/", "/health/"},
	}))
	e.Use(echomw.BodyLimit("12M"))

	httpserver.Register(e, buildDeps(cfg, r, ad, verifier))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("http_server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Infow("shutting_down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("server_shutdown_failed", "error", err)
	}
	logger.Infow("shutdown_complete")
	return nil
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func connectAdapters(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (*adapters, error) {
	ad := &adapters{}

	if cfg.RedisURL != "" {
		rdb, err := cache.Open(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		ad.cache = cache.NewRedis(rdb, cfg.ServiceName+":cache:")
		ad.idempotency = cache.NewRedisIdempotency(rdb, cfg.ServiceName+":webhook:")
		ad.closers = append(ad.closers, rdb.Close)
		logger.Infow("cache_backend", "kind", "redis")
	} else {
		mem := cache.NewMemory(cache.DefaultSweepInterval)
		seen := cache.NewMemoryIdempotency(cache.DefaultSweepInterval)
		ad.cache = mem
		ad.idempotency = seen
		ad.closers = append(ad.closers, mem.Close, seen.Close)
		logger.Infow("cache_backend", "kind", "memory")
	}

	if len(cfg.KafkaBrokers) > 0 {
		prod := mykafka.NewProducer(cfg.KafkaBrokers, logger)
		ad.events = prod
		ad.closers = append(ad.closers, prod.Close)
	} else {
		ad.events = mykafka.NopPublisher{}
		logger.Infow("kafka_disabled")
	}

	if cfg.ESURL != "" {
		es, err := search.NewClient(search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			return nil, fmt.Errorf("elasticsearch client: %w", err)
		}
		idx := search.NewProductIndex(es, cfg.ESProductIndex)
		if err := idx.Ping(ctx); err != nil {
			logger.Warnw("elasticsearch_unreachable", "error", err)
		}
		ad.index = idx
	}

	storeCfg := storage.Config{
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		PublicURL:    cfg.S3PublicURL,
		UsePathStyle: cfg.S3UsePathStyle,
	}
	if storeCfg.Validate() == nil {
		store, err := storage.NewS3Store(ctx, storeCfg)
		if err != nil {
			return nil, err
		}
		ad.store = store
	} else {
		logger.Infow("image_storage_disabled")
	}

	if cfg.ResendAPIKey != "" {
		mailer, err := mail.NewResendClient(cfg.ResendAPIKey, cfg.ResendBaseURL, nil)
		if err != nil {
			return nil, err
		}
		ad.mailer = mailer
	}

	stripeCfg := payment.StripeConfig{SecretKey: cfg.StripeSecretKey, WebhookSecret: cfg.StripeWebhookSecret}
	if err := stripeCfg.Validate(); err == nil {
		ad.stripe = payment.NewStripeClient(stripeCfg)
	} else {
		logger.Infow("stripe_disabled", "reason", err.Error())
	}

	paypalCfg := payment.PayPalConfig{ClientID: cfg.PayPalClientID, ClientSecret: cfg.PayPalClientSecret, BaseURL: cfg.PayPalBaseURL}
	if err := paypalCfg.Validate(); err == nil {
		pp, err := payment.NewPayPalClient(paypalCfg, nil)
		if err != nil {
			return nil, err
		}
		ad.paypal = pp
	} else {
		logger.Infow("paypal_disabled", "reason", err.Error())
	}

	if cfg.AuthWebhookSecret != "" {
		v, err := identity.NewVerifier(cfg.AuthWebhookSecret)
		if err != nil {
			return nil, fmt.Errorf("identity webhook: %w", err)
		}
		ad.identity = v
	}

	return ad, nil
}

func buildDeps(cfg config.Config, r *repo.GormRepo, ad *adapters, verifier *tokens.Verifier) *httpserver.Deps {
	media := &service.MediaService{Store: ad.store}
	orders := &service.OrderService{Repo: r, Cache: ad.cache, Events: ad.events}
	coupons := &service.CouponService{Repo: r}
	users := &service.UserService{Repo: r, Events: ad.events, AdminIDs: cfg.AdminUserIDs}

	return &httpserver.Deps{
		Repo:    r,
		Session: middleware.NewSessionMiddleware(verifier, users.ResolveRole),

		Category: &httpserver.CategoryHTTP{Svc: &service.CategoryService{
			Repo: r, Cache: ad.cache, Events: ad.events, CacheTTL: cfg.CacheTTL,
		}},
		Catalog: &httpserver.CatalogHTTP{Svc: &service.CatalogService{
			Repo: r, Cache: ad.cache, Events: ad.events, Index: ad.index, Media: media, CacheTTL: cfg.CacheTTL,
		}},
		Lookup:   &httpserver.LookupHTTP{Svc: &service.LookupService{Repo: r, Cache: ad.cache}},
		Media:    &httpserver.MediaHTTP{Svc: media},
		Cart:     &httpserver.CartHTTP{Svc: &service.CartService{Repo: r}},
		Favorite: &httpserver.FavoriteHTTP{Svc: &service.FavoriteService{Repo: r}},
		Coupon:   &httpserver.CouponHTTP{Svc: coupons},
		Checkout: &httpserver.CheckoutHTTP{Svc: &service.CheckoutService{
			Repo: r, Orders: orders, Coupons: coupons,
			Stripe: ad.stripe, PayPal: ad.paypal,
			StoreURL: cfg.StoreURL, Currency: cfg.Currency,
		}},
		Order: &httpserver.OrderHTTP{Svc: orders},
		Webhook: &httpserver.WebhookHTTP{Svc: &service.WebhookService{
			Stripe: ad.stripe, Identity: ad.identity, Idempotency: ad.idempotency,
			Orders: orders, Users: users,
		}},
		User: &httpserver.UserHTTP{Svc: users},
		Newsletter: &httpserver.NewsletterHTTP{Svc: &service.NewsletterService{
			Repo: r, Mailer: ad.mailer, From: cfg.NewsletterFrom, StoreName: cfg.ServiceName,
		}},
		Dashboard: &httpserver.DashboardHTTP{Svc: &service.DashboardService{
			Repo: r, Cache: ad.cache, CacheTTL: cfg.CacheTTL,
		}},
	}
}
