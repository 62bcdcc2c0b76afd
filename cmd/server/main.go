package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/reugn/go-quartz/quartz"

	"invoicebot/internal/busday"
	"invoicebot/internal/invoice/recorder"
	"invoicebot/internal/invoice/service"
	"invoicebot/internal/invoice/session"
	"invoicebot/internal/platform/config"
	"invoicebot/internal/platform/httpserver"
	"invoicebot/internal/platform/logger"
	"invoicebot/internal/platform/metrics"
	platformredis "invoicebot/internal/platform/redis"
	"invoicebot/internal/transport/discord"
	httptransport "invoicebot/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps
// the server lifecycle small. Business logic lives in the service packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	calc := busday.New(
		busday.NewHTTPSource(cfg.HolidayBaseURL, cfg.HolidayTimeout),
		busday.WithLogger(log),
		busday.WithFetchObserver(m.IncHolidayFetch),
	)

	rec := recorder.New(cfg.RecorderURL, cfg.Behavior.RecorderTimeout,
		recorder.WithLogger(log),
		recorder.WithMetrics(m),
	)

	svcOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
	}
	var redisClient *platformredis.Client
	switch cfg.SessionBackend {
	case "memory":
		svcOpts = append(svcOpts, service.WithSessionStore(session.NewMemoryStore(), cfg.SessionTTL))
	case "redis":
		var err error
		redisClient, err = platformredis.New(cfg.Redis)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		if redisClient == nil {
			log.Error("SESSION_BACKEND=redis requires REDIS_URL")
			os.Exit(1)
		}
		svcOpts = append(svcOpts, service.WithSessionStore(session.NewRedisStore(redisClient.Client), cfg.SessionTTL))
	}

	svc, err := service.New(calc, rec, svcOpts...)
	if err != nil {
		log.Error("service construction failed", "error", err)
		os.Exit(1)
	}

	handler, err := discord.NewHandler(svc, log, cfg.DiscordPublicKey, cfg.Behavior,
		discord.WithMetrics(m),
	)
	if err != nil {
		log.Error("handler construction failed", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(handler, log)
	srv := httpserver.New(cfg.Addr, router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startCalendarPrefetch(ctx, log, calc)

	log.Info("starting invoicebot", "addr", cfg.Addr, "session_backend", cfg.SessionBackend)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

// startCalendarPrefetch warms the holiday cache for the current and next
// year at startup and re-warms daily, so the fail-open window after a
// restart or a year rollover stays small. Lookups never depend on it.
func startCalendarPrefetch(ctx context.Context, log *slog.Logger, calc *busday.Calculator) {
	prefetch := func(ctx context.Context) (bool, error) {
		year := time.Now().Year()
		calc.Prefetch(ctx, year, year+1)
		return true, nil
	}

	sched := quartz.NewStdScheduler()
	sched.Start(ctx)

	job := quartz.NewFunctionJobWithDesc("holiday calendar prefetch", prefetch)
	if err := sched.ScheduleJob(ctx, job, quartz.NewSimpleTrigger(24*time.Hour)); err != nil {
		log.Warn("calendar prefetch scheduling failed", "error", err)
	}

	go prefetch(ctx)
}
