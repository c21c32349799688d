// Package model はドメインモデルを定義する。
package model

import "time"

// FeedItemType はフィードアイテムのコンテンツ種別を表す。
type FeedItemType string

const (
	// FeedItemTypeStatus は投稿（ステータス）を表す。
	FeedItemTypeStatus FeedItemType = "status"
	// FeedItemTypeMatch は完了した1v1マッチを表す。
	FeedItemTypeMatch FeedItemType = "match"
	// FeedItemTypeTeamMatch は完了したチームマッチを表す。
	FeedItemTypeTeamMatch FeedItemType = "team_match"
)

// FeedMode は統合フィードの表示モードを表す。
type FeedMode string

const (
	// FeedModeAll はデフォルトのフィードモード。
	// ソーシャルグラフ（フォロー中プレイヤー/コート + 自分）に限定される。
	// followingと同一の述語だが、既存挙動として意図的に維持している。
	FeedModeAll FeedMode = "all"
	// FeedModeFollowing はフォロー中のコンテンツのみのモード。
	FeedModeFollowing FeedMode = "following"
	// FeedModeForYou はディスカバリーモード。ソーシャルコンテンツが不足する場合、
	// 半径を拡大しながら周辺のコンテンツを探索する。
	FeedModeForYou FeedMode = "foryou"
)

// FeedItem は3種のコンテンツソースを正規化した読み取り専用のフィードアイテム。
// IDはソース種別のプレフィックス付き（例: "status:<uuid>"）で、
// ソースをまたいだ衝突を防ぐ。
type FeedItem struct {
	ID            string       `json:"id"`
	Type          FeedItemType `json:"type"`
	UserID        string       `json:"userId"`
	UserName      string       `json:"userName,omitempty"`
	UserPhotoURL  string       `json:"userPhotoUrl,omitempty"`
	Content       string       `json:"content,omitempty"`
	ImageURL      string       `json:"imageUrl,omitempty"`
	CourtID       string       `json:"courtId,omitempty"`
	CourtName     string       `json:"courtName,omitempty"`
	MatchScore    string       `json:"matchScore,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	ScheduledAt   *time.Time   `json:"scheduledAt,omitempty"`
	LikeCount     int          `json:"likeCount"`
	CommentCount  int          `json:"commentCount"`
	AttendeeCount int          `json:"attendeeCount"`
}

// FeedPage は統合フィードのレスポンスエンベロープ。
// 失敗時も常にこの形を返す（itemsは空配列、hasMoreはfalse）。
type FeedPage struct {
	Items   []FeedItem `json:"items"`
	HasMore bool       `json:"hasMore"`
}

// EmptyFeedPage は空のフィードページを返す。
// itemsはnilではなく空スライスで初期化し、JSONで[]として出力されることを保証する。
func EmptyFeedPage() *FeedPage {
	return &FeedPage{Items: []FeedItem{}, HasMore: false}
}

// RelationshipSnapshot はリクエスト開始時に1回だけ読み取るフォロー関係のスナップショット。
// リクエスト途中で再読み込みしない。フィードはその時点のビューであり、
// 並行するフォロー/アンフォロー操作とのトランザクション整合性は保証しない。
type RelationshipSnapshot struct {
	FollowedPlayerIDs map[string]bool
	FollowedCourtIDs  map[string]bool
}

// NewRelationshipSnapshot は空のRelationshipSnapshotを生成する。
func NewRelationshipSnapshot() *RelationshipSnapshot {
	return &RelationshipSnapshot{
		FollowedPlayerIDs: make(map[string]bool),
		FollowedCourtIDs:  make(map[string]bool),
	}
}

// FollowsPlayer は指定プレイヤーをフォローしているかを返す。
func (r *RelationshipSnapshot) FollowsPlayer(userID string) bool {
	return r.FollowedPlayerIDs[userID]
}

// FollowsCourt は指定コートをフォローしているかを返す。
func (r *RelationshipSnapshot) FollowsCourt(courtID string) bool {
	return courtID != "" && r.FollowedCourtIDs[courtID]
}

// Viewer は1リクエスト分のフィード閲覧コンテキスト。
type Viewer struct {
	UserID string
	Mode   FeedMode
	Lat    *float64
	Lng    *float64
	Limit  int
	Offset int
}

// HasLocation は位置情報（lat/lng）が指定されているかを返す。
func (v *Viewer) HasLocation() bool {
	return v.Lat != nil && v.Lng != nil
}
