package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hoopfeed/internal/middleware"
)

// HealthChecker はヘルスチェック時の依存先疎通確認を表す。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// フィード
	FeedService FeedServiceInterface

	// 投稿
	StatusService StatusServiceInterface

	// フォロー
	FollowService FollowServiceInterface

	// コート
	CourtService CourtServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS → Identity → RateLimit(General)
//
// IdentityMiddlewareは閲覧者ID不明でも拒否しない。書き込みエンドポイントの
// 401判定はハンドラー側、フィードの空エンベロープ応答もハンドラー側で行う。
// /health と /metrics はIdentity・RateLimitの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// 運用エンドポイント
	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	feedHandler := NewFeedHandler(deps.FeedService)
	statusHandler := NewStatusHandler(deps.StatusService)
	followHandler := NewFollowHandler(deps.FollowService)
	courtHandler := NewCourtHandler(deps.CourtService)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewIdentityMiddleware())
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 投稿とフィード
		r.Route("/statuses", func(r chi.Router) {
			// GET /statuses/unified-feed - 統合フィード
			r.Get("/unified-feed", feedHandler.UnifiedFeed)

			// POST /statuses - 投稿作成（投稿専用レート制限を追加）
			r.With(deps.RateLimiter.PostCreationMiddleware()).Post("/", statusHandler.CreateStatus)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", statusHandler.GetStatus)
				r.Delete("/", statusHandler.DeleteStatus)

				// エンゲージメント
				r.Post("/like", statusHandler.LikeStatus)
				r.Delete("/like", statusHandler.UnlikeStatus)
				r.Get("/likes", statusHandler.ListLikes)

				r.Post("/comments", statusHandler.AddComment)
				r.Get("/comments", statusHandler.ListComments)
				r.Delete("/comments/{commentID}", statusHandler.DeleteComment)

				r.Post("/attend", statusHandler.Attend)
				r.Delete("/attend", statusHandler.Unattend)
				r.Get("/attendees", statusHandler.ListAttendees)
			})
		})

		// フォローグラフ
		r.Route("/follows", func(r chi.Router) {
			r.Get("/", followHandler.ListFollows)
			r.Post("/players/{id}", followHandler.FollowPlayer)
			r.Delete("/players/{id}", followHandler.UnfollowPlayer)
			r.Post("/courts/{id}", followHandler.FollowCourt)
			r.Delete("/courts/{id}", followHandler.UnfollowCourt)
		})

		// コート
		r.Route("/courts", func(r chi.Router) {
			r.Get("/nearby", courtHandler.SearchNearby)
			r.Get("/{id}", courtHandler.GetCourt)
		})
	})

	return r
}

// healthHandler はDB疎通を確認してサービスの生存状態を返す。
// checkerがnilの場合はプロセス生存のみを報告する。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
