package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/EugeneVC/web-monitor/internal/config"
	"github.com/EugeneVC/web-monitor/internal/domain"
	"github.com/EugeneVC/web-monitor/internal/httpapi"
	"github.com/EugeneVC/web-monitor/internal/logging"
	"github.com/EugeneVC/web-monitor/internal/metrics"
	"github.com/EugeneVC/web-monitor/internal/probe"
	"github.com/EugeneVC/web-monitor/internal/repo"
	"github.com/EugeneVC/web-monitor/internal/repo/file"
	"github.com/EugeneVC/web-monitor/internal/repo/memory"
	"github.com/EugeneVC/web-monitor/internal/repo/postgres"
	rds "github.com/EugeneVC/web-monitor/internal/repo/redis"
	"github.com/EugeneVC/web-monitor/internal/scheduler"
)

func main() {
	cfgPath := flag.String("config", "web_monitor.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.Log.Dir, cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("monitor_exit", zap.Error(err))
		_ = logger.Sync()
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	buffer := memory.NewRecentBuffer(cfg.Monitor.BufferSize)
	sinks := repo.Multi{buffer}

	recordLog, err := file.Open(cfg.Logger.Filename)
	if err != nil {
		return err
	}
	defer recordLog.Close()
	sinks = append(sinks, recordLog)
	logger.Info("record_log_opened", zap.String("path", recordLog.Path()))

	var (
		archive httpapi.RecordFinder
		shared  = map[string]httpapi.RecentLister{}
	)

	if cfg.Database.URL != "" {
		pg, err := postgres.New(ctx, cfg.Database.URL, logger)
		if err != nil {
			logger.Warn("postgres_sink_disabled", zap.Error(err))
		} else {
			defer pg.Close()
			sinks = append(sinks, pg)
			archive = pg
		}
	}
	if cfg.Redis.Addr != "" {
		rs, err := rds.New(ctx, cfg.Redis.Addr, cfg.Redis.Key, cfg.Redis.MaxLen)
		if err != nil {
			logger.Warn("redis_sink_disabled", zap.Error(err))
		} else {
			defer rs.Close()
			sinks = append(sinks, rs)
			shared["redis"] = rs
		}
	}

	sites, siteErrs := cfg.MonitoredSites()
	for _, e := range multierr.Errors(siteErrs) {
		logger.Error("site_skipped", zap.Error(e))
	}

	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)
	factory := probe.DefaultFactory()

	var (
		loops     []*scheduler.Loop
		monitored []domain.Site
	)
	for _, s := range sites {
		task, err := factory.Create(s)
		if err != nil {
			logger.Error("site_skipped", zap.String("name", s.Name), zap.Error(err))
			continue
		}
		loops = append(loops, scheduler.NewLoop(logger, task, sinks, collector))
		monitored = append(monitored, s)
	}
	if len(loops) == 0 {
		return errors.New("no valid sites configured")
	}

	if cfg.Dashboard.Addr != "" {
		proxies, err := cfg.Dashboard.TrustedProxyPrefixes()
		if err != nil {
			return err
		}
		api := httpapi.NewServer(logger, buffer, monitored, collector.Handler())
		api.Archive = archive
		api.Sources = shared
		srv := &http.Server{
			Addr: cfg.Dashboard.Addr,
			Handler: api.Router(httpapi.Options{
				APIKeys:        cfg.Dashboard.PublicAPIKeys,
				AllowedOrigins: cfg.Dashboard.AllowedOrigins,
				TrustedProxies: proxies,
				RPM:            cfg.Dashboard.RPM,
				Burst:          cfg.Dashboard.Burst,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("api_listen", zap.String("addr", cfg.Dashboard.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("api_listen_error", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("monitor_started", zap.Int("sites", len(loops)), zap.Int("sinks", len(sinks)))
	scheduler.NewFleet(loops...).Run(ctx)
	logger.Info("monitor_stopped")
	return nil
}
