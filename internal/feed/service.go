package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/hoopfeed/internal/model"
	"github.com/hitoshi/hoopfeed/internal/repository"
)

const (
	// DefaultLimit はlimit未指定・不正指定時のページサイズ。
	DefaultLimit = 50
	// MaxLimit はページサイズの上限。クライアント入力に関わらずクランプする。
	MaxLimit = 100

	// defaultTierTimeout は1ティアあたりのクエリタイムアウト。
	// 遅いジオティアがフィード全体を無期限にブロックしないための上限で、
	// タイムアウトしたティアは空として扱い、完了済みのティアだけで応答する。
	defaultTierTimeout = 2 * time.Second

	// defaultMaxSocialCandidates はforyouのソーシャル層の最大取得件数。
	defaultMaxSocialCandidates = 150

	// localRadiusMiles はforyouのローカルディスカバリー層の半径。
	localRadiusMiles = 50.0
)

// expandingRadiiMiles はforyouの拡大半径フォールバックの試行順。
// 各半径は前段が不足した場合のみ試行する逐次の早期終了チェーンであり、
// 並行ファンアウトにしてはならない。
var expandingRadiiMiles = []float64{100, 250, 500}

// RelationshipIndex は閲覧者のフォロー関係スナップショットを提供する。
type RelationshipIndex interface {
	// SnapshotFor は閲覧者のフォロー中プレイヤー/コートIDのスナップショットを返す。
	// リクエスト開始時に1回だけ呼ばれ、リクエスト途中で再読み込みしない。
	SnapshotFor(ctx context.Context, userID string) (*model.RelationshipSnapshot, error)
}

// Recorder はフィードエンジンの観測イベントを記録する。
type Recorder interface {
	// FeedRequest はモード別のフィードリクエストを記録する。
	FeedRequest(mode string)
	// SourceFailure はコンテンツソースの部分失敗を記録する。
	SourceFailure(source string)
	// GeoTier は到達したジオティア（半径マイル）を記録する。
	GeoTier(radiusMiles int)
	// FeedDegraded は空エンベロープへの縮退を記録する。
	FeedDegraded(reason string)
	// RecordFeedLatency はフィード1ページの組み立て所要時間を記録する。
	RecordFeedLatency(duration time.Duration)
}

// nopRecorder は何も記録しないRecorder。
type nopRecorder struct{}

func (nopRecorder) FeedRequest(string)              {}
func (nopRecorder) SourceFailure(string)            {}
func (nopRecorder) GeoTier(int)                     {}
func (nopRecorder) FeedDegraded(string)             {}
func (nopRecorder) RecordFeedLatency(time.Duration) {}

// Service は統合フィードの組み立てを担う。
// リクエスト間で共有する可変状態を持たず、各フィード計算は
// （閲覧者ID、モード、位置、limit）と外部ストアの現在状態の純粋関数。
type Service struct {
	sources       []Source
	relationships RelationshipIndex
	logger        *slog.Logger
	recorder      Recorder

	tierTimeout         time.Duration
	maxSocialCandidates int
}

// Option はServiceの構成オプション。
type Option func(*Service)

// WithTierTimeout は1ティアあたりのタイムアウトを設定する。
func WithTierTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tierTimeout = d
		}
	}
}

// WithMaxSocialCandidates はforyouソーシャル層の最大取得件数を設定する。
func WithMaxSocialCandidates(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSocialCandidates = n
		}
	}
}

// WithRecorder は観測イベントの記録先を設定する。
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService はフィードサービスを生成する。
func NewService(sources []Source, relationships RelationshipIndex, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		sources:             sources,
		relationships:       relationships,
		logger:              logger,
		recorder:            nopRecorder{},
		tierTimeout:         defaultTierTimeout,
		maxSocialCandidates: defaultMaxSocialCandidates,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClampLimit はページサイズを[1, MaxLimit]にクランプする。
// 0以下（未指定・不正入力のフォールバックを含む）はDefaultLimitに置き換える。
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// UnifiedFeed は閲覧者コンテキストから統合フィードの1ページを組み立てる。
// 失敗は決してエラーとして返さない。閲覧者不明・内部失敗はすべて
// 空のエンベロープに縮退し、クライアントの無限スクロールUIを壊さない。
func (s *Service) UnifiedFeed(ctx context.Context, viewer model.Viewer) *model.FeedPage {
	if viewer.UserID == "" {
		// 閲覧者不明はエラーではなく「フィードなし」として扱う
		return model.EmptyFeedPage()
	}

	viewer.Limit = ClampLimit(viewer.Limit)
	if viewer.Offset < 0 {
		viewer.Offset = 0
	}
	if viewer.Mode != model.FeedModeFollowing && viewer.Mode != model.FeedModeForYou {
		viewer.Mode = model.FeedModeAll
	}
	s.recorder.FeedRequest(string(viewer.Mode))

	start := time.Now()
	defer func() { s.recorder.RecordFeedLatency(time.Since(start)) }()

	rel, err := s.relationships.SnapshotFor(ctx, viewer.UserID)
	if err != nil {
		s.logger.Error("フォロー関係スナップショットの取得に失敗しました。空のフィードに縮退します",
			"userId", viewer.UserID, "error", err)
		s.recorder.FeedDegraded("relationship_snapshot")
		return model.EmptyFeedPage()
	}

	now := time.Now()

	var candidates []model.FeedItem
	if viewer.Mode == model.FeedModeForYou {
		candidates = s.gatherForYou(ctx, viewer, rel)
	} else {
		// allとfollowingは同一のソーシャルグラフ述語。
		// allを真のファイアホースに「修正」しない（既存挙動の維持）。
		candidates = s.gatherSocial(ctx, viewer, rel, viewer.Offset+viewer.Limit+1)
	}

	dedup := NewDeduplicator()
	dedup.Add(candidates)

	ranked := ScoreAll(dedup.Items(), viewer.UserID, rel, now)

	if viewer.Offset >= len(ranked) {
		return model.EmptyFeedPage()
	}
	page := ranked[viewer.Offset:]

	// limit+1の先読みでhasMoreを判定し、COUNT(*)クエリを回避する
	hasMore := len(page) > viewer.Limit

	page = Interleave(page, viewer.Limit)
	if len(page) > viewer.Limit {
		page = page[:viewer.Limit]
	}

	items := make([]model.FeedItem, 0, len(page))
	for _, it := range page {
		// スコアとディスカバリーフラグはエンジン内部の値のため、ここで剥がす
		items = append(items, it.Item)
	}

	return &model.FeedPage{Items: items, HasMore: hasMore}
}

// gatherSocial は全ソースからソーシャルグラフ述語の候補を並行取得する。
func (s *Service) gatherSocial(ctx context.Context, viewer model.Viewer, rel *model.RelationshipSnapshot, fetchLimit int) []model.FeedItem {
	q := repository.FeedQuery{
		ViewerID:          viewer.UserID,
		FollowedPlayerIDs: setToSlice(rel.FollowedPlayerIDs),
		FollowedCourtIDs:  setToSlice(rel.FollowedCourtIDs),
		Limit:             fetchLimit,
	}

	tierCtx, cancel := context.WithTimeout(ctx, s.tierTimeout)
	defer cancel()

	return fanOut(tierCtx, s.sources, s.logger, s.recorder.SourceFailure,
		func(ctx context.Context, src Source) ([]model.FeedItem, error) {
			return src.ListSocial(ctx, q)
		})
}

// gatherForYou はディスカバリーモードの3層フォールバックを実行する。
// 層1: ソーシャル候補（最大 min(limit*3, 150) 件）。
// 層2: 位置情報があれば50マイル以内のローカルディスカバリー。
// 層3: 層1+2がlimitに満たない場合のみ、100/250/500マイルと半径を拡大。
// 位置情報がない場合、層2/3の代わりにネットワーク全体フォールバックを1回行う。
func (s *Service) gatherForYou(ctx context.Context, viewer model.Viewer, rel *model.RelationshipSnapshot) []model.FeedItem {
	socialLimit := viewer.Limit * 3
	if socialLimit > s.maxSocialCandidates {
		socialLimit = s.maxSocialCandidates
	}

	dedup := NewDeduplicator()
	dedup.Add(s.gatherSocial(ctx, viewer, rel, socialLimit))

	if !viewer.HasLocation() {
		if dedup.Len() < viewer.Limit {
			dedup.Add(s.gatherDiscovery(ctx, viewer, rel, socialLimit))
		}
		return dedup.Items()
	}

	dedup.Add(s.gatherNearby(ctx, viewer, rel, localRadiusMiles))

	if dedup.Len() < viewer.Limit {
		for _, radius := range expandingRadiiMiles {
			dedup.Add(s.gatherNearby(ctx, viewer, rel, radius))
			if dedup.Len() >= viewer.Limit {
				break
			}
		}
	}

	return dedup.Items()
}

// gatherNearby は全ソースから指定半径の候補を並行取得する。
func (s *Service) gatherNearby(ctx context.Context, viewer model.Viewer, rel *model.RelationshipSnapshot, radiusMiles float64) []model.FeedItem {
	s.recorder.GeoTier(int(radiusMiles))

	q := repository.GeoQuery{
		FeedQuery: repository.FeedQuery{
			ViewerID:          viewer.UserID,
			FollowedPlayerIDs: setToSlice(rel.FollowedPlayerIDs),
			Limit:             viewer.Limit,
		},
		Lat:         *viewer.Lat,
		Lng:         *viewer.Lng,
		RadiusMiles: radiusMiles,
	}

	tierCtx, cancel := context.WithTimeout(ctx, s.tierTimeout)
	defer cancel()

	return fanOut(tierCtx, s.sources, s.logger, s.recorder.SourceFailure,
		func(ctx context.Context, src Source) ([]model.FeedItem, error) {
			return src.ListNearby(ctx, q)
		})
}

// gatherDiscovery は位置情報なしのネットワーク全体フォールバックを並行取得する。
func (s *Service) gatherDiscovery(ctx context.Context, viewer model.Viewer, rel *model.RelationshipSnapshot, fetchLimit int) []model.FeedItem {
	q := repository.FeedQuery{
		ViewerID:          viewer.UserID,
		FollowedPlayerIDs: setToSlice(rel.FollowedPlayerIDs),
		Limit:             fetchLimit,
	}

	tierCtx, cancel := context.WithTimeout(ctx, s.tierTimeout)
	defer cancel()

	return fanOut(tierCtx, s.sources, s.logger, s.recorder.SourceFailure,
		func(ctx context.Context, src Source) ([]model.FeedItem, error) {
			return src.ListDiscovery(ctx, q)
		})
}

// setToSlice は集合をスライスへ変換する。順序は保証しない。
func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
