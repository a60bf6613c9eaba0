package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsgo_config "github.com/aws/aws-sdk-go-v2/config" // Alias để tránh trùng tên
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/getsentry/sentry-go"

	"parking_finder/internal/api"
	"parking_finder/internal/api/handler"
	"parking_finder/internal/config"
	"parking_finder/internal/domain"
	"parking_finder/internal/geolocate"
	"parking_finder/internal/logger"
	"parking_finder/internal/metrics"
	"parking_finder/internal/preference"
	"parking_finder/internal/presentation"
	"parking_finder/internal/queue"
	"parking_finder/internal/repository/memory"
	"parking_finder/internal/service"
	"parking_finder/internal/source"
	"parking_finder/internal/viewmodel"
)

func main() {
	// 1. Load Configuration
	log := logger.Setup()
	cfg := config.Load()
	log.Info("config_loaded", "data_source", cfg.DataSource, "port", cfg.ServerPort)

	metrics.Register()
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			log.Warn("sentry_init_failed", "err", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// 2. AWS SDK config, chỉ khi cần S3 hoặc SQS
	var awsSDKCfg *aws.Config
	if cfg.DataSource == "s3" || cfg.SQSReloadQueueURL != "" {
		c, err := awsgo_config.LoadDefaultConfig(context.TODO(), awsgo_config.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Error("aws_config_failed", "err", err)
			os.Exit(1)
		}
		awsSDKCfg = &c
		log.Info("aws_config_loaded", "region", cfg.AWSRegion)
	}

	// 3. Data source
	src, closeSource, err := openSource(cfg, awsSDKCfg)
	if err != nil {
		log.Error("data_source_failed", "source", cfg.DataSource, "err", err)
		os.Exit(1)
	}
	defer closeSource()

	// 4. Store, view model and presentation
	store := service.NewSpotStore(memory.NewSpotRepository(), src)
	builder := viewmodel.NewBuilder(cfg.CurrencyLabel, cfg.FallbackImage)
	webSocketManager := handler.NewWebSocketManager()
	presenter := presentation.NewSync(store, builder, cfg.FeaturedCount, webSocketManager, metrics.FrameTarget{})

	// 5. Geolocation
	var provider geolocate.Provider
	if cfg.GeoIPDBPath != "" {
		geoip, err := geolocate.OpenGeoIP(cfg.GeoIPDBPath)
		if err != nil {
			log.Warn("geoip_open_failed", "path", cfg.GeoIPDBPath, "err", err)
		} else {
			defer geoip.Close()
			provider = geoip
		}
	}
	resolver := geolocate.NewResolver(provider, cfg.GeolocationTimeout,
		domain.Coordinates{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng})

	// 6. Theme preference
	var prefs preference.Store = preference.NewMemoryStore()
	if rdb := preference.OpenRedis(cfg.RedisHost, cfg.RedisPort, cfg.RedisPass, cfg.RedisDB); rdb != nil {
		defer rdb.Close()
		prefs = preference.NewRedisStore(rdb)
	}

	// 7. Services
	finder := service.NewFinderService(store, presenter, builder, resolver, webSocketManager)
	themes := service.NewThemeService(prefs)

	bgCtx, cancelBackground := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		webSocketManager.Start(bgCtx)
	}()

	if _, err := finder.Load(bgCtx); err != nil {
		log.Error("initial_load_failed", "err", err)
	}
	// bản đồ mở ở vị trí mặc định cho đến khi client gửi vị trí thật
	if err := store.SetUserLocation(bgCtx, resolver.Default()); err == nil {
		if _, err := presenter.Refresh(bgCtx, presentation.ReasonInitial); err != nil {
			log.Error("initial_refresh_failed", "err", err)
		}
	}

	go presenter.Rotate(bgCtx, cfg.SlideshowInterval)

	// 8. SQS reload consumer
	if cfg.SQSReloadQueueURL == "" {
		log.Info("sqs_consumer_disabled", "reason", "SQS_RELOAD_QUEUE_URL not set")
	} else {
		consumer := queue.NewSQSConsumer(sqs.NewFromConfig(*awsSDKCfg), cfg.SQSReloadQueueURL, finder.HandleReloadEvent)
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Start(bgCtx)
		}()
	}

	// 9. Setup HTTP Router
	router := api.SetupRouter(finder, presenter, themes, webSocketManager)

	// 10. Start HTTP Server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Info("server_listening", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server_listen_failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("server_shutting_down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server_forced_shutdown", "err", err)
	}
	cancelBackground()

	c := make(chan struct{})
	go func() {
		defer close(c)
		wg.Wait()
	}()
	select {
	case <-c:
	case <-time.After(5 * time.Second):
		log.Warn("background_workers_timeout")
	}

	log.Info("server_stopped")
}

func openSource(cfg *config.Config, awsCfg *aws.Config) (source.Source, func(), error) {
	noop := func() {}
	switch cfg.DataSource {
	case "file":
		return source.NewFileSource(cfg.DataFile), noop, nil
	case "http":
		return source.NewHTTPSource(cfg.DataURL, nil), noop, nil
	case "s3":
		if cfg.DataS3Bucket == "" {
			return nil, noop, errors.New("DATA_S3_BUCKET is required for the s3 source")
		}
		return source.NewS3Source(s3.NewFromConfig(*awsCfg), cfg.DataS3Bucket, cfg.DataS3Key), noop, nil
	case "postgres":
		db, err := source.NewPostgresDB(cfg)
		if err != nil {
			return nil, noop, err
		}
		return source.NewSQLSource(db, source.DialectPostgres), closeDB(db), nil
	case "sqlite":
		db, err := source.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return source.NewSQLSource(db, source.DialectSQLite), closeDB(db), nil
	default:
		return nil, noop, fmt.Errorf("unknown DATA_SOURCE %q", cfg.DataSource)
	}
}

func closeDB(db *sql.DB) func() {
	return func() { db.Close() }
}
