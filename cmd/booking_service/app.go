package bookingservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"unipool/internal/general/config"
	"unipool/internal/general/jwt"
	"unipool/internal/general/logger"
	"unipool/internal/general/postgres"
	"unipool/internal/general/rabbitmq"
	"unipool/internal/general/redis"
	"unipool/internal/general/websocket"
	adminhandler "unipool/internal/software/adminboard/handler"
	adminservice "unipool/internal/software/adminboard/service"
	bookinghandler "unipool/internal/software/booking/handler"
	bookingservice "unipool/internal/software/booking/service"
	notifhandler "unipool/internal/software/notification/handler"
	notifservice "unipool/internal/software/notification/service"
	ratinghandler "unipool/internal/software/rating/handler"
	ratingservice "unipool/internal/software/rating/service"
	ridehandler "unipool/internal/software/ride/handler"
	rideservice "unipool/internal/software/ride/service"
	safetyhandler "unipool/internal/software/safety/handler"
	safetyservice "unipool/internal/software/safety/service"
)

// Run wires the booking service and blocks until ctx is cancelled.
func Run(ctx context.Context, maxConcurrent int) error {
	// set up a new logger with a static request ID for startup logs
	logger := logger.New("booking-service")
	ctx = logger.WithRequestID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile("config/config.yaml")
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	// set up a Postgres connection pool
	pool, err := postgres.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	// connect to RabbitMQ
	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	// set up the RabbitMQ publisher
	pub := &rabbitmq.MQPublisher{Client: rmq}

	// set up the Redis availability cache; the service degrades to
	// database reads when Redis is down, so a failed ping is not fatal
	cache := redis.NewCache(cfg)
	if err := cache.Ping(ctx); err != nil {
		logger.Error(ctx, "redis_unavailable", "Redis unreachable, running without availability cache", err, nil)
		cache = nil
	} else {
		defer cache.Close()
	}

	// set up the JWT manager
	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, 2*time.Hour)

	// set up the necessary repos
	uow := postgres.NewUnitOfWork(pool)
	userRepo := postgres.NewUserRepo()
	rideRepo := postgres.NewRideRepo()
	bookingRepo := postgres.NewBookingRepo()
	ratingRepo := postgres.NewRatingRepo()
	notifRepo := postgres.NewNotificationRepo()
	incidentRepo := postgres.NewIncidentRepo()
	adminRepo := postgres.NewAdminRepo()

	// set up the websocket gateway for in-app delivery
	gateway := websocket.NewGateway(logger, jwtManager)

	// services wired in dependency order
	notifSvc := notifservice.NewNotificationService(logger, cfg, uow, notifRepo, userRepo, pub, gateway)
	ratingSvc := ratingservice.NewRatingService(logger, uow, ratingRepo, userRepo, rideRepo, bookingRepo, notifSvc)
	safetySvc := safetyservice.NewSafetyService(logger, cfg, uow, userRepo, rideRepo, bookingRepo, incidentRepo, ratingSvc, notifSvc)
	bookingSvc := bookingservice.NewBookingService(logger, uow, rideRepo, bookingRepo, userRepo, ratingSvc, notifSvc, pub, cache)
	rideSvc := rideservice.NewRideService(logger, uow, rideRepo, bookingRepo, safetySvc, notifSvc, pub)
	adminSvc := adminservice.NewAdminService(logger, uow, adminRepo)

	// set up the HTTP handlers and their routes
	mux := http.NewServeMux()
	bookinghandler.NewBookingHTTPHandler(bookingSvc, logger, jwtManager).RegisterRoutes(mux)
	ridehandler.NewRideHTTPHandler(rideSvc, logger, jwtManager).RegisterRoutes(mux)
	ratinghandler.NewRatingHTTPHandler(ratingSvc, logger, jwtManager).RegisterRoutes(mux)
	safetyhandler.NewSafetyHTTPHandler(safetySvc, logger, jwtManager).RegisterRoutes(mux)
	notifhandler.NewNotificationHTTPHandler(notifSvc, logger, jwtManager, gateway).RegisterRoutes(mux)
	adminhandler.NewAdminHTTPHandler(adminSvc, logger, jwtManager).RegisterRoutes(mux)

	// concurrency limiter (global) — blocks when capacity is full
	limitedHandler := withConcurrencyLimit(maxConcurrent, mux)

	// set up the server configurations
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.BookingServicePort),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Booking Service started on port %d", cfg.Services.BookingServicePort),
		map[string]any{"port": cfg.Services.BookingServicePort, "max_concurrent": maxConcurrent},
	)

	// start the server in a background goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// wait for context cancellation or server error
	select {
	case <-ctx.Done():
		// graceful HTTP shutdown on context cancel
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		// server returned a terminal error at startup or during run
		if err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.Services.BookingServicePort})
			return err
		}
		return nil
	}

	return nil
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
