package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	customerhandler "coverbase/internal/customer/handler"
	customerservice "coverbase/internal/customer/service"
	customerstore "coverbase/internal/customer/store"
	httpapi "coverbase/internal/http"
	"coverbase/internal/outbox"
	"coverbase/internal/platform/config"
	"coverbase/internal/platform/httpserver"
	"coverbase/internal/platform/logger"
	"coverbase/internal/platform/metrics"
	platformredis "coverbase/internal/platform/redis"
	policycache "coverbase/internal/policy/cache"
	policyhandler "coverbase/internal/policy/handler"
	policyservice "coverbase/internal/policy/service"
	policystore "coverbase/internal/policy/store"
	quotehandler "coverbase/internal/quote/handler"
	quoteservice "coverbase/internal/quote/service"
	quotestore "coverbase/internal/quote/store"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	txRunner := newPostgresTx(db)

	customers := customerstore.NewPostgres(db)
	quotes := quotestore.NewPostgres(db)
	policies := policystore.NewPostgres(db)
	outboxStore := outbox.NewPostgres(db)

	var policyCache policyservice.Cache
	redisClient, err := platformredis.New(ctx, cfg.RedisAddr)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		policyCache = policycache.New(redisClient.Client, log)
		log.Info("policy cache enabled", "addr", cfg.RedisAddr)
	}

	policySvc := policyservice.NewService(policies, outboxStore, txRunner, policyCache, log, m)
	customerSvc := customerservice.NewService(customers, log, m)
	quoteSvc := quoteservice.NewService(quotes, customers, policySvc, txRunner, cfg.StrictQuoteTransitions, log, m)

	router := httpapi.NewRouter(httpapi.Handlers{
		Customer: customerhandler.New(customerSvc, log),
		Quote:    quotehandler.New(quoteSvc, log),
		Policy:   policyhandler.New(policySvc, cfg.StrictCursors, log),
	}, m)
	srv := httpserver.New(cfg.Addr, router)

	var worker *outbox.Worker
	if cfg.KafkaBrokers != "" {
		publisher, err := outbox.NewKafkaPublisher(ctx, strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		worker = outbox.NewWorker(outboxStore, publisher, log, m, config.OutboxPollInterval)
		log.Info("outbox publisher enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if worker != nil {
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
