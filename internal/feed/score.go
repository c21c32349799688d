// Package feed は統合フィードのランキングエンジンを実装する。
// 取得 → 正規化 → 重複排除 → スコアリング → ソート → インターリーブ → ページング
// の明示的なパイプラインとして構成し、各ステージを独立にテスト可能にする。
package feed

import (
	"sort"
	"time"

	"github.com/hitoshi/hoopfeed/internal/model"
)

// スコアリングの重み。固定の契約値であり、設定では変更できない。
// 変更する場合は挙動変更としてリリースノートに記載すること。
const (
	recencyMax      = 100.0
	recencyWindowH  = 168.0 // 7日

	likeWeight      = 2.0
	likeCap         = 30.0
	commentWeight   = 3.0
	commentCap      = 45.0
	attendeeWeight  = 5.0
	attendeeCap     = 75.0

	ownBoost           = 60.0
	followedPlayerBoost = 50.0
	followedCourtBoost  = 40.0

	eventBoostMax    = 40.0
	eventNearWindowH = 48.0
	eventFarWindowH  = 168.0
	eventFarBoost    = 15.0

	matchTypeBonus = 10.0
)

// ScoredItem はスコアリング済みのフィードアイテム。
// ScoreとIsDiscoveryはエンジン内部の一時フィールドで、レスポンスには含めない。
type ScoredItem struct {
	Item        model.FeedItem
	Score       float64
	IsDiscovery bool
}

// Score はフィードアイテムと閲覧者コンテキストから関連度スコアと
// ディスカバリーフラグを計算する純粋関数。
// スコアは recency + engagement + relationship + event-proximity + type-bonus の合計。
// リクエストごとに再計算され、キャッシュしてはならない（recencyが時刻依存のため）。
func Score(item *model.FeedItem, viewerID string, rel *model.RelationshipSnapshot, now time.Time) (float64, bool) {
	score := recencyScore(item.CreatedAt, now)
	score += engagementScore(item.LikeCount, item.CommentCount, item.AttendeeCount)

	relBoost, isDiscovery := relationshipBoost(item, viewerID, rel)
	score += relBoost

	score += eventProximityBoost(item.ScheduledAt, now)

	if item.Type == model.FeedItemTypeMatch || item.Type == model.FeedItemTypeTeamMatch {
		score += matchTypeBonus
	}

	return score, isDiscovery
}

// recencyScore は投稿時刻からの線形減衰スコア（0〜100）。
// 7日で0になり、それより古いアイテムはrecencyに寄与しない。
func recencyScore(createdAt, now time.Time) float64 {
	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	s := recencyMax - (ageHours/recencyWindowH)*recencyMax
	if s < 0 {
		return 0
	}
	return s
}

// engagementScore はいいね/コメント/参加表明の加重和。各項は独立に上限を持つ。
func engagementScore(likes, comments, attendees int) float64 {
	return capped(float64(likes)*likeWeight, likeCap) +
		capped(float64(comments)*commentWeight, commentCap) +
		capped(float64(attendees)*attendeeWeight, attendeeCap)
}

func capped(v, upper float64) float64 {
	if v > upper {
		return upper
	}
	return v
}

// relationshipBoost はフォローグラフに基づくブースト。
// 排他的で優先度順：自分 > フォロー中プレイヤー > フォロー中コート。
// いずれにも該当しない場合のみディスカバリーアイテムとなる。
func relationshipBoost(item *model.FeedItem, viewerID string, rel *model.RelationshipSnapshot) (float64, bool) {
	switch {
	case item.UserID == viewerID:
		return ownBoost, false
	case rel.FollowsPlayer(item.UserID):
		return followedPlayerBoost, false
	case rel.FollowsCourt(item.CourtID):
		return followedCourtBoost, false
	default:
		return 0, true
	}
}

// eventProximityBoost は予定されたランの開始時刻が近いほど大きいブースト。
// 48時間以内は線形（h→0で40に漸近）、48〜168時間はフラットに15、
// 過去または168時間超は0。
func eventProximityBoost(scheduledAt *time.Time, now time.Time) float64 {
	if scheduledAt == nil {
		return 0
	}
	h := scheduledAt.Sub(now).Hours()
	switch {
	case h <= 0:
		return 0
	case h <= eventNearWindowH:
		return eventBoostMax * (1 - h/eventNearWindowH)
	case h <= eventFarWindowH:
		return eventFarBoost
	default:
		return 0
	}
}

// ScoreAll は候補全体をスコアリングし、スコア降順でソートして返す。
// 同点の場合はcreated_at降順で安定させる。
func ScoreAll(items []model.FeedItem, viewerID string, rel *model.RelationshipSnapshot, now time.Time) []ScoredItem {
	scored := make([]ScoredItem, 0, len(items))
	for i := range items {
		s, d := Score(&items[i], viewerID, rel, now)
		scored = append(scored, ScoredItem{Item: items[i], Score: s, IsDiscovery: d})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Item.CreatedAt.After(scored[j].Item.CreatedAt)
	})

	return scored
}
