package feed

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/hoopfeed/internal/model"
	"github.com/hitoshi/hoopfeed/internal/repository"
)

// Source は1つのコンテンツソース（投稿・1v1マッチ・チームマッチ）への
// 候補取得インターフェース。半径パラメータ付きのランク検索プロバイダとして
// 抽象化し、空間インデックスなど別バックエンドへの差し替えを可能にする。
type Source interface {
	// Name はログ・メトリクス用のソース識別子を返す。
	Name() string

	// ListSocial はソーシャルグラフ述語に一致する候補をcreated_at降順で返す。
	ListSocial(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error)

	// ListNearby は指定半径内のコートに紐付く候補を返す。
	ListNearby(ctx context.Context, q repository.GeoQuery) ([]model.FeedItem, error)

	// ListDiscovery は地理フィルタなしのネットワーク全体フォールバック候補を返す。
	ListDiscovery(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error)
}

// contentLister はリポジトリ層がフィードに提供する共通メソッドセット。
type contentLister interface {
	ListSocial(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error)
	ListNearby(ctx context.Context, q repository.GeoQuery) ([]model.FeedItem, error)
	ListDiscovery(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error)
}

// namedSource はリポジトリにソース名を付与するアダプタ。
type namedSource struct {
	name string
	contentLister
}

func (s *namedSource) Name() string { return s.name }

// NewStatusSource は投稿リポジトリをフィードソースとして包む。
func NewStatusSource(repo repository.StatusRepository) Source {
	return &namedSource{name: "statuses", contentLister: repo}
}

// NewMatchSource は1v1マッチリポジトリをフィードソースとして包む。
func NewMatchSource(repo repository.MatchRepository) Source {
	return &namedSource{name: "matches", contentLister: repo}
}

// NewTeamMatchSource はチームマッチリポジトリをフィードソースとして包む。
func NewTeamMatchSource(repo repository.TeamMatchRepository) Source {
	return &namedSource{name: "team_matches", contentLister: repo}
}

// fanOut は全ソースに対して同一のクエリを並行発行し、結果を結合して返す。
// 個別ソースの失敗はログに記録してそのソースを空として扱い、
// リクエスト全体は継続する。壊れたマッチ履歴クエリがフィード全体を
// 空にしてはならない。
func fanOut(
	ctx context.Context,
	sources []Source,
	logger *slog.Logger,
	onFailure func(source string),
	query func(ctx context.Context, s Source) ([]model.FeedItem, error),
) []model.FeedItem {
	results := make([][]model.FeedItem, len(sources))

	var wg sync.WaitGroup
	for i, s := range sources {
		wg.Add(1)
		go func(i int, s Source) {
			defer wg.Done()
			items, err := query(ctx, s)
			if err != nil {
				logger.Warn("コンテンツソースのクエリに失敗しました。空として継続します",
					"source", s.Name(), "error", err)
				if onFailure != nil {
					onFailure(s.Name())
				}
				return
			}
			results[i] = items
		}(i, s)
	}
	wg.Wait()

	var merged []model.FeedItem
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged
}
