package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/darion/resultfetch/internal/batch"
	"github.com/darion/resultfetch/internal/broker"
	"github.com/darion/resultfetch/internal/cache"
	"github.com/darion/resultfetch/internal/fetcher"
	"github.com/darion/resultfetch/internal/model"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Consume fetch tasks from kafka and publish results until interrupted.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		mustSetup()
		runWatch(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(ctx context.Context) {
	pool, err := fetcher.NewPool(cfg, log)
	if err != nil {
		log.Error("failed to set up the fetch pool.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	recordCache := cache.New(cfg.CacheSettings, log)
	if recordCache != nil {
		defer recordCache.Close()
	}

	var metrics *batch.Metrics
	var metricsSrv *http.Server
	if cfg.MetricsSettings.Enabled {
		metrics = batch.NewMetrics()
		metricsSrv = serveMetrics(metrics)
	}

	opts := []batch.Option{}
	if recordCache != nil {
		opts = append(opts, batch.WithCache(recordCache))
	}
	if metrics != nil {
		opts = append(opts, batch.WithMetrics(metrics))
	}
	collector, err := batch.New(cfg, pool, log, opts...)
	if err != nil {
		log.Error("failed to set up the collector.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("starting watch mode.", slog.String("env", cfg.Env),
		slog.String("mechanism", cfg.PortalSettings.Mechanism))

	taskChan := make(chan *model.FetchTask, 100)
	resultChan := make(chan *model.FetchResult, 100)

	kafkaWg := &sync.WaitGroup{}
	kafkaWg.Add(1)
	go broker.NewKafkaConsumer(ctx, kafkaWg, taskChan, log, cfg.KafkaSettings.Consumer)

	kafkaWg.Add(1)
	go broker.NewKafkaProducer(kafkaWg, resultChan, log, cfg.KafkaSettings.Producer)

	// Graceful shutdown.
	// 1. Stop Kafka Consumer by system call. Close taskChan
	// 2. Wait till all workers processed all messages from taskChan. Close resultChan
	// 3. Wait till Producer process all messages from resultChan and write to kafka
	// 4. Stop the metrics server. Close pool and cache connections
	if err := collector.Stream(ctx, taskChan, resultChan); err != nil {
		log.Error("watch mode failed.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("stopping watch mode...")
	close(resultChan)
	log.Info("close resultChan.")
	kafkaWg.Wait()

	if metricsSrv != nil {
		stopMetrics(metricsSrv)
	}
}

func stopMetrics(srv *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop the metrics server.", slog.String("err", err.Error()))
	}
}

func serveMetrics(m *batch.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: ":" + cfg.MetricsSettings.Port, Handler: mux}

	go func() {
		log.Info("metrics server listening.", slog.String("port", cfg.MetricsSettings.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed.", slog.String("err", err.Error()))
		}
	}()

	return srv
}
