// Package app wires the application together and runs the HTTP server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/resumedesk/server/internal/domain/discount"
	"github.com/resumedesk/server/internal/domain/engage"
	"github.com/resumedesk/server/internal/domain/order"
	"github.com/resumedesk/server/internal/domain/payment"
	"github.com/resumedesk/server/internal/domain/referral"
	"github.com/resumedesk/server/internal/handler"
	"github.com/resumedesk/server/internal/notify"
	"github.com/resumedesk/server/internal/repository"
	"github.com/resumedesk/server/internal/stripecheckout"
	"github.com/resumedesk/server/internal/upload"
	"github.com/resumedesk/server/pkg/health"
	"github.com/resumedesk/server/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, _ *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health probes.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.SetReady(true)

	// Repositories.
	catalogRepo := repository.NewCatalogRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	discountRepo := repository.NewDiscountRepository(pool)
	referralRepo := repository.NewReferralRepository(pool)
	engageRepo := repository.NewEngageRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)

	// Upload storage.
	files, err := upload.NewStore(cfg.UploadDir)
	if err != nil {
		return errors.Wrap(err, "open upload store")
	}

	// Email. Without an SMTP host, sends are logged and dropped.
	var sender notify.Sender
	if cfg.SMTP.Host != "" {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		lg.Warn("No SMTP host configured, outgoing email is disabled")
		sender = notify.NewLogSender(lg)
	}
	notifier := notify.New(sender, notify.Config{
		AdminEmail: cfg.AdminEmail,
		SiteURL:    cfg.BaseURL,
	})

	// Domain services.
	orderSvc := order.NewService(catalogRepo, orderRepo, files, notifier, lg.Named("order"))
	discountEngine := discount.NewEngine(discountRepo, orderRepo)
	referralSvc := referral.NewService(referralRepo, notifier, lg.Named("referral"))
	engageSvc := engage.NewService(engageRepo, notifier, lg.Named("engage"))
	paymentSvc := payment.NewService(
		orderRepo, catalogRepo,
		stripecheckout.New(cfg.StripeSecretKey),
		notifier, cfg.BaseURL, lg.Named("payment"),
	)

	auth, err := handler.NewAdminAuth(adminRepo, cfg.SessionSecret)
	if err != nil {
		return errors.Wrap(err, "create admin auth")
	}

	h := handler.New(
		catalogRepo, orderSvc, paymentSvc, discountEngine,
		referralSvc, engageSvc, files, auth,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				Origins:          cfg.CORS.Origins,
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAgeSeconds:    86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
