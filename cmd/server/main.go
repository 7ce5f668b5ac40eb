package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/outreach/internal/config"
	"github.com/dmitrymomot/outreach/internal/handlers"
	"github.com/dmitrymomot/outreach/internal/outreach"
	"github.com/dmitrymomot/outreach/internal/repository"
	"github.com/dmitrymomot/outreach/internal/server"
	"github.com/dmitrymomot/outreach/middlewares"
	"github.com/dmitrymomot/outreach/pkg/cache"
	"github.com/dmitrymomot/outreach/pkg/db"
	"github.com/dmitrymomot/outreach/pkg/job"
	"github.com/dmitrymomot/outreach/pkg/lock"
	"github.com/dmitrymomot/outreach/pkg/logger"
	"github.com/dmitrymomot/outreach/pkg/mailer"
	"github.com/dmitrymomot/outreach/pkg/mailer/resend"
	"github.com/dmitrymomot/outreach/pkg/oauth"
	"github.com/dmitrymomot/outreach/pkg/redis"
	"github.com/dmitrymomot/outreach/pkg/storage"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "outreach:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, flush := logger.New(cfg.Log, middlewares.RequestIDExtractor(), middlewares.UserIDExtractor())
	defer flush()

	pool, err := db.Open(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, repository.Migrations(), cfg.DB.MigrationsTable, log); err != nil {
		return err
	}
	if err := job.Migrate(ctx, pool); err != nil {
		return err
	}

	rdb, err := redis.Open(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := outreach.NewMetrics(reg)

	repo := repository.New(pool)
	body := mailer.NewBodyRenderer()

	relay, err := resend.New(cfg.Relay)
	if err != nil {
		return fmt.Errorf("relay: %w", err)
	}

	mailboxes, err := oauthMailboxes(cfg, log)
	if err != nil {
		return err
	}

	stats := outreach.NewStatsService(repo, cache.NewRedis[outreach.Stats](rdb, "outreach:stats:", cfg.StatsCacheTTL), cfg.StatsCacheTTL, log)
	selector := outreach.NewSelector(repo, mailboxes, outreach.NewSenderChannel(outreach.ChannelRelay, relay, body), body, log, metrics)
	svcOpts := []outreach.Option{
		outreach.WithMetrics(metrics),
		outreach.WithStatsInvalidator(stats),
		outreach.WithLockTTL(cfg.SendLockTTL),
	}
	if cfg.Reports.Configured() {
		objects, err := storage.New(cfg.Reports)
		if err != nil {
			return fmt.Errorf("report storage: %w", err)
		}
		svcOpts = append(svcOpts, outreach.WithReportArchive(outreach.NewStorageArchive(objects, objects.URLExpiry())))
	}
	svc := outreach.NewService(repo, selector,
		outreach.NewDispatcher(cfg.SendPacing, cfg.DeliveryTimeout, log, metrics),
		lock.NewRedis(rdb, "outreach:lock:"),
		log,
		svcOpts...,
	)

	jobs, err := job.NewManager(pool, log, cfg.JobWorkers,
		outreach.NewCompletionSweep(repo, cfg.CompletionSweepSchedule, log, metrics))
	if err != nil {
		return err
	}

	var jwtOpts []middlewares.JWTOption
	if cfg.JWTIssuer != "" {
		jwtOpts = append(jwtOpts, middlewares.WithJWTIssuer(cfg.JWTIssuer))
	}
	auth := middlewares.JWT([]byte(cfg.JWTSecret), jwtOpts...)

	srv := server.New(
		server.WithLogger(log),
		server.WithWriteTimeout(cfg.HTTPWriteTimeout),
		server.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Logger(log),
			middlewares.Metrics(reg),
			middlewares.Recover(recoverOptions(cfg)...),
		),
		server.WithHandlers(
			handlers.NewCampaignHandler(repo, stats, auth),
			handlers.NewSendHandler(svc, auth),
			handlers.NewMailboxHandler(repo, auth),
		),
		server.WithReadinessCheck("postgres", db.Healthcheck(pool)),
		server.WithReadinessCheck("redis", redis.Healthcheck(rdb)),
		server.WithReadinessCheck("jobs", job.Healthcheck(jobs)),
		server.WithMount("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
	)

	return srv.Run(ctx, cfg.HTTPAddr,
		server.WithShutdownTimeout(cfg.ShutdownTimeout),
		server.WithStartupHook(func(ctx context.Context) error {
			// River stops on Stop below, not when the signal context ends.
			return jobs.Start(context.WithoutCancel(ctx))
		}),
		server.WithShutdownHook(jobs.Stop),
	)
}

func recoverOptions(cfg *config.Config) []middlewares.RecoverOption {
	if cfg.PanicStackSize == 0 {
		return []middlewares.RecoverOption{middlewares.WithRecoverDisablePrintStack()}
	}
	return []middlewares.RecoverOption{middlewares.WithRecoverStackSize(cfg.PanicStackSize)}
}

// oauthMailboxes enables the mailbox platforms whose OAuth clients are
// configured. Users of an unconfigured platform fall back to the relay.
func oauthMailboxes(cfg *config.Config, log *slog.Logger) (outreach.OAuthMailboxes, error) {
	var m outreach.OAuthMailboxes
	if cfg.Google.Configured() {
		p, err := oauth.NewGoogleProvider(cfg.Google)
		if err != nil {
			return m, fmt.Errorf("google oauth: %w", err)
		}
		m.Google = p
	} else {
		log.Warn("google mailboxes disabled: oauth client not configured")
	}
	if cfg.Microsoft.Configured() {
		p, err := oauth.NewMicrosoftProvider(cfg.Microsoft)
		if err != nil {
			return m, fmt.Errorf("microsoft oauth: %w", err)
		}
		m.Microsoft = p
	} else {
		log.Warn("microsoft mailboxes disabled: oauth client not configured")
	}
	return m, nil
}
