package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/hitoshi/hoopfeed/internal/config"
	"github.com/hitoshi/hoopfeed/internal/court"
	"github.com/hitoshi/hoopfeed/internal/database"
	"github.com/hitoshi/hoopfeed/internal/events"
	"github.com/hitoshi/hoopfeed/internal/feed"
	"github.com/hitoshi/hoopfeed/internal/follow"
	"github.com/hitoshi/hoopfeed/internal/handler"
	"github.com/hitoshi/hoopfeed/internal/logger"
	"github.com/hitoshi/hoopfeed/internal/metrics"
	"github.com/hitoshi/hoopfeed/internal/middleware"
	"github.com/hitoshi/hoopfeed/internal/repository"
	"github.com/hitoshi/hoopfeed/internal/security"
	"github.com/hitoshi/hoopfeed/internal/seed"
	"github.com/hitoshi/hoopfeed/internal/status"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. Redis接続（未設定ならスナップショットキャッシュは無効で動作する）
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		slog.Info("redis snapshot cache enabled", slog.String("addr", cfg.RedisAddr))
	}

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. Kafkaプロデューサ（未設定ならイベント発行は無効で動作する）
	var producer events.Producer = events.NopProducer{}
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic, slog.Default(),
			events.WithRecorder(collector))
		slog.Info("kafka event producer enabled", slog.String("topic", cfg.KafkaTopic))
	}
	defer producer.Close()

	// 5. リポジトリの初期化
	statusRepo := repository.NewPostgresStatusRepo(db)
	matchRepo := repository.NewPostgresMatchRepo(db)
	teamMatchRepo := repository.NewPostgresTeamMatchRepo(db)
	courtRepo := repository.NewPostgresCourtRepo(db)
	followRepo := repository.NewPostgresFollowRepo(db)

	// 6. ドメインサービスの初期化
	sanitizer := security.NewContentSanitizer()

	snapshotCache := follow.NewSnapshotCache(rdb, cfg.FollowCacheTTL, slog.Default())
	followService := follow.NewService(followRepo, courtRepo, snapshotCache, producer)

	statusService := status.NewService(statusRepo, courtRepo, sanitizer, producer)
	courtService := court.NewService(courtRepo)

	feedService := feed.NewService(
		[]feed.Source{
			feed.NewStatusSource(statusRepo),
			feed.NewMatchSource(matchRepo),
			feed.NewTeamMatchSource(teamMatchRepo),
		},
		followService,
		slog.Default(),
		feed.WithTierTimeout(cfg.FeedTierTimeout),
		feed.WithMaxSocialCandidates(cfg.FeedMaxCandidates),
		feed.WithRecorder(collector),
	)

	// 7. ルーターの構築
	// configのレート値はreq/min単位なのでreq/secに変換する
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitPost > 0 {
		rateLimiterCfg.PostRate = rate.Limit(float64(cfg.RateLimitPost) / 60.0)
		rateLimiterCfg.PostBurst = cfg.RateLimitPost
	}

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(registry),

		FeedService:   feedService,
		StatusService: statusService,
		FollowService: followService,
		CourtService:  courtService,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.SchemaVersion(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("schema_version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// runSeed は開発用ダミーデータを投入する。
// マイグレーション適用済みのDBに対して実行することを想定している。
func runSeed(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	seeder := seed.NewSeeder(db, slog.Default())
	if err := seeder.Run(context.Background(), seed.Config{
		Users:    cfg.SeedUsers,
		Courts:   cfg.SeedCourts,
		Statuses: cfg.SeedStatuses,
	}); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
