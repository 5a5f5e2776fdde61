package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/slotwise/slotwise/internal/app"
	"github.com/slotwise/slotwise/internal/booking"
	"github.com/slotwise/slotwise/internal/clock"
	"github.com/slotwise/slotwise/internal/handlers"
	"github.com/slotwise/slotwise/internal/merchant"
	"github.com/slotwise/slotwise/internal/outbox"
	"github.com/slotwise/slotwise/internal/payment"
	"github.com/slotwise/slotwise/internal/schedule"
	"github.com/slotwise/slotwise/internal/user"
	"github.com/slotwise/slotwise/libs/config"
	"github.com/slotwise/slotwise/libs/db"
	"github.com/slotwise/slotwise/libs/httpx"
	"github.com/slotwise/slotwise/libs/kafkax"
	"github.com/slotwise/slotwise/libs/otelx"
	"github.com/slotwise/slotwise/libs/runtime"
)

func main() {
	config.Load()

	service := config.String("SERVICE_NAME", "slotwise")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, config.String("MIGRATIONS_PATH", "migrations"), logger)
	if err != nil {
		logger.Error("migrator init failed", "err", err)
		panic(err)
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Error("migrations failed", "err", err)
		panic(err)
	}
	_ = migrator.Close()

	stripeKey, err := config.RequiredString("STRIPE_SECRET_KEY")
	if err != nil {
		panic(err)
	}

	clk := clock.System{}
	windowStore := schedule.NewStore(pool, clk)
	users := user.NewRepository(pool)
	merchants := merchant.NewDirectory(pool)
	bookingRepo := booking.NewRepository(pool, clk)
	paymentRepo := payment.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	engine := booking.NewEngine(windowStore, users, bookingRepo, clk, logger)
	gateway := payment.NewStripeGateway(stripeKey, logger)
	orchestrator := payment.NewOrchestrator(
		pool, engine, merchants, paymentRepo, bookingRepo, outboxRepo, gateway, logger,
	)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	scheduleHandler := handlers.NewScheduleHandler(windowStore, logger)
	bookingHandler := handlers.NewBookingHandler(orchestrator, bookingRepo, paymentRepo, logger)
	webhookHandler := handlers.NewGatewayWebhookHandler(
		merchants, config.String("GATEWAY_WEBHOOK_SECRET", ""), logger,
	)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if brokers := config.String("KAFKA_BROKERS", ""); brokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	var rdb *redis.Client
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		defer func() { _ = rdb.Close() }()
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	mux := runtime.NewBaseMuxWithReady(readyChecks...)

	mux.HandleFunc("/api/v1/schedules", scheduleHandler.Windows)
	mux.HandleFunc("/api/v1/schedules/update", scheduleHandler.Update)
	mux.HandleFunc("/api/v1/schedules/delete", scheduleHandler.Delete)
	mux.HandleFunc("/api/v1/bookings/get", bookingHandler.Get)
	mux.HandleFunc("/api/v1/bookings/notes", bookingHandler.UpdateNotes)
	mux.HandleFunc("/api/v1/gateway/webhook", webhookHandler.Notify)

	// The booking endpoint moves money; it alone sits behind the rate limiter.
	bookings := http.Handler(http.HandlerFunc(bookingHandler.Bookings))
	if rdb != nil {
		limiter := httpx.NewRedisRateLimiter(rdb,
			config.Int("BOOKING_RATE_LIMIT", 30),
			config.Duration("BOOKING_RATE_WINDOW", time.Minute),
			"bookings",
		)
		bookings = limiter.Middleware(logger, true)(bookings)
	}
	mux.Handle("/api/v1/bookings", bookings)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(30*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, service)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
