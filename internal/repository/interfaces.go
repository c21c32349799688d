// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/hoopfeed/internal/model"
)

// FeedQuery はコンテンツソースへの候補取得クエリの共通パラメータ。
// Socialはソーシャルグラフ述語、Nearbyは半径検索を表す。
type FeedQuery struct {
	ViewerID string
	// フォロー中プレイヤー/コートのID。SQLの述語に展開される。
	FollowedPlayerIDs []string
	FollowedCourtIDs  []string
	Limit             int
}

// GeoQuery は半径検索のパラメータ。
// 除外条件（自分自身・フォロー中プレイヤー）はFeedQueryのフィールドを流用する。
type GeoQuery struct {
	FeedQuery
	Lat         float64
	Lng         float64
	RadiusMiles float64
}

// StatusRepository は投稿データの永続化インターフェース。
// 投稿のCRUD・エンゲージメント操作と、フィード用の候補取得を提供する。
type StatusRepository interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, status *model.Status) error

	// FindByID は指定IDの投稿をエンゲージメント集計付きで取得する。
	// viewerIDはisLikedByMe/isAttendingの判定に使用する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, statusID, viewerID string) (*model.StatusDetail, error)

	// DeleteByOwner は所有者による投稿削除を行う。削除された場合はtrueを返す。
	DeleteByOwner(ctx context.Context, statusID, ownerID string) (bool, error)

	// Like / Unlike はいいねを冪等に付与・削除する。
	Like(ctx context.Context, statusID, userID string) error
	Unlike(ctx context.Context, statusID, userID string) error

	// ListLikes は投稿のいいね一覧を新しい順で返す。
	ListLikes(ctx context.Context, statusID string) ([]model.Reaction, error)

	// AddComment はコメントを作成する。
	AddComment(ctx context.Context, comment *model.StatusComment) error

	// ListComments は投稿のコメント一覧を古い順で返す。
	ListComments(ctx context.Context, statusID string) ([]model.StatusComment, error)

	// DeleteCommentByOwner は所有者によるコメント削除を行う。削除された場合はtrueを返す。
	DeleteCommentByOwner(ctx context.Context, commentID, ownerID string) (bool, error)

	// Attend / Unattend は予定されたランへの参加表明を冪等に付与・削除する。
	Attend(ctx context.Context, statusID, userID string) error
	Unattend(ctx context.Context, statusID, userID string) error

	// ListAttendees は参加表明の一覧を古い順で返す。
	ListAttendees(ctx context.Context, statusID string) ([]model.Reaction, error)

	// ListSocial はソーシャルグラフ述語（自分 OR フォロー中プレイヤー OR フォロー中コート）
	// に一致する投稿をcreated_at降順でFeedItemに正規化して返す。
	ListSocial(ctx context.Context, q FeedQuery) ([]model.FeedItem, error)

	// ListNearby は指定座標から半径内のコートに紐付く投稿を返す。
	// 自分自身とフォロー中プレイヤーの投稿は除外する（ソーシャル層で取得済みのため）。
	ListNearby(ctx context.Context, q GeoQuery) ([]model.FeedItem, error)

	// ListDiscovery は位置情報なしのディスカバリーフォールバック。
	// 地理フィルタを適用せず、自分自身とフォロー中プレイヤーを除外した
	// ネットワーク全体の投稿をcreated_at降順で返す。
	ListDiscovery(ctx context.Context, q FeedQuery) ([]model.FeedItem, error)
}

// MatchRepository は完了した1v1マッチの読み取り専用インターフェース。
// マッチのライフサイクルは外部のマッチ決済サービスが所有する。
type MatchRepository interface {
	// ListSocial はフォロー中プレイヤーが参加した、またはフォロー中コートで行われた
	// 完了マッチをcreated_at降順でFeedItemに正規化して返す。
	ListSocial(ctx context.Context, q FeedQuery) ([]model.FeedItem, error)

	// ListNearby は半径内のコートで行われた完了マッチを返す。
	ListNearby(ctx context.Context, q GeoQuery) ([]model.FeedItem, error)

	// ListDiscovery は位置情報なしのネットワーク全体フォールバック。
	ListDiscovery(ctx context.Context, q FeedQuery) ([]model.FeedItem, error)
}

// TeamMatchRepository は完了したチームマッチの読み取り専用インターフェース。
type TeamMatchRepository interface {
	ListSocial(ctx context.Context, q FeedQuery) ([]model.FeedItem, error)
	ListNearby(ctx context.Context, q GeoQuery) ([]model.FeedItem, error)
	ListDiscovery(ctx context.Context, q FeedQuery) ([]model.FeedItem, error)
}

// FollowRepository はフォローグラフの永続化インターフェース。
type FollowRepository interface {
	// ListFollowedPlayerIDs はフォロー中プレイヤーのID一覧を返す。
	ListFollowedPlayerIDs(ctx context.Context, userID string) ([]string, error)

	// ListFollowedCourtIDs はフォロー中コートのID一覧を返す。
	ListFollowedCourtIDs(ctx context.Context, userID string) ([]string, error)

	// FollowPlayer / UnfollowPlayer はプレイヤーのフォロー関係を冪等に作成・削除する。
	FollowPlayer(ctx context.Context, followerID, followedID string) error
	UnfollowPlayer(ctx context.Context, followerID, followedID string) error

	// FollowCourt / UnfollowCourt はコートのフォロー関係を冪等に作成・削除する。
	FollowCourt(ctx context.Context, userID, courtID string) error
	UnfollowCourt(ctx context.Context, userID, courtID string) error
}

// CourtRepository はコートデータの読み取りインターフェース。
type CourtRepository interface {
	// FindByID は指定IDのコートを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Court, error)

	// SearchByLocation は指定座標から半径radiusMiles以内のコートを距離昇順で返す。
	SearchByLocation(ctx context.Context, lat, lng, radiusMiles float64, limit int) ([]model.CourtWithDistance, error)
}
