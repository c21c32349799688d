package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/hoopfeed/internal/model"
)

// PostgresMatchRepo はPostgreSQLを使用した1v1マッチの読み取り専用リポジトリ。
// マッチの作成・決済は外部サービスが所有するため、completedのマッチのみを参照する。
type PostgresMatchRepo struct {
	db *sql.DB
}

// NewPostgresMatchRepo はPostgresMatchRepoを生成する。
func NewPostgresMatchRepo(db *sql.DB) *PostgresMatchRepo {
	return &PostgresMatchRepo{db: db}
}

// matchFeedColumns は完了マッチをFeedItemへ正規化するためのSELECT句。
// 行為者は勝者（winner_id）とし、スコアは "21-15" 形式の文字列に整形する。
const matchFeedColumns = `
	m.id, m.winner_id, u.display_name, u.avatar_url,
	m.court_id, c.name,
	m.score_creator || '-' || m.score_opponent,
	m.created_at`

// ListSocial はフォロー中プレイヤーが参加した、またはフォロー中コートで行われた
// 完了マッチをFeedItemに正規化して返す。自分が参加したマッチも含む。
func (r *PostgresMatchRepo) ListSocial(ctx context.Context, q FeedQuery) ([]model.FeedItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+matchFeedColumns+`
		 FROM matches m
		 JOIN users u ON m.winner_id = u.id
		 LEFT JOIN courts c ON m.court_id = c.id
		 WHERE m.status = 'completed'
		   AND (
		        m.creator_id = $1 OR m.opponent_id = $1
		     OR m.creator_id = ANY($2) OR m.opponent_id = ANY($2)
		     OR m.court_id = ANY($3)
		   )
		 ORDER BY m.created_at DESC
		 LIMIT $4`,
		q.ViewerID,
		pq.Array(nullableArray(q.FollowedPlayerIDs)),
		pq.Array(nullableArray(q.FollowedCourtIDs)),
		q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ソーシャルマッチの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanMatchFeedItems(rows, model.FeedItemTypeMatch, false, 0, 0, 0)
}

// ListNearby は半径内のコートで行われた完了マッチを返す。
// 自分とフォロー中プレイヤーが参加したマッチは除外する。
func (r *PostgresMatchRepo) ListNearby(ctx context.Context, q GeoQuery) ([]model.FeedItem, error) {
	latMin, latMax, lngMin, lngMax := boundingBox(q.Lat, q.Lng, q.RadiusMiles)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+matchFeedColumns+`, c.lat, c.lng
		 FROM matches m
		 JOIN users u ON m.winner_id = u.id
		 JOIN courts c ON m.court_id = c.id
		 WHERE m.status = 'completed'
		   AND c.lat BETWEEN $1 AND $2
		   AND c.lng BETWEEN $3 AND $4
		   AND m.creator_id <> $5 AND m.opponent_id <> $5
		   AND NOT (m.creator_id = ANY($6)) AND NOT (m.opponent_id = ANY($6))
		 ORDER BY m.created_at DESC
		 LIMIT $7`,
		latMin, latMax, lngMin, lngMax,
		q.ViewerID,
		pq.Array(nullableArray(q.FollowedPlayerIDs)),
		q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("周辺マッチの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanMatchFeedItems(rows, model.FeedItemTypeMatch, true, q.Lat, q.Lng, q.RadiusMiles)
}

// ListDiscovery は位置情報なしのネットワーク全体フォールバック。
// 地理フィルタを適用せず、自分とフォロー中プレイヤーが参加したマッチを除外する。
func (r *PostgresMatchRepo) ListDiscovery(ctx context.Context, q FeedQuery) ([]model.FeedItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+matchFeedColumns+`
		 FROM matches m
		 JOIN users u ON m.winner_id = u.id
		 LEFT JOIN courts c ON m.court_id = c.id
		 WHERE m.status = 'completed'
		   AND m.creator_id <> $1 AND m.opponent_id <> $1
		   AND NOT (m.creator_id = ANY($2)) AND NOT (m.opponent_id = ANY($2))
		 ORDER BY m.created_at DESC
		 LIMIT $3`,
		q.ViewerID,
		pq.Array(nullableArray(q.FollowedPlayerIDs)),
		q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ディスカバリーマッチの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanMatchFeedItems(rows, model.FeedItemTypeMatch, false, 0, 0, 0)
}

// scanMatchFeedItems はマッチ行をFeedItemのスライスへ変換する。
// withCoordsがtrueの場合は行末尾のlat/lngを読み取り、正確な距離で再判定する。
func scanMatchFeedItems(rows *sql.Rows, itemType model.FeedItemType, withCoords bool, lat, lng, radiusMiles float64) ([]model.FeedItem, error) {
	var items []model.FeedItem
	for rows.Next() {
		var item model.FeedItem
		var rawID string
		var photoURL, courtID, courtName, matchScore sql.NullString
		var courtLat, courtLng float64

		dest := []interface{}{
			&rawID, &item.UserID, &item.UserName, &photoURL,
			&courtID, &courtName, &matchScore, &item.CreatedAt,
		}
		if withCoords {
			dest = append(dest, &courtLat, &courtLng)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("マッチ行の読み取りに失敗しました: %w", err)
		}

		if withCoords && haversineMiles(lat, lng, courtLat, courtLng) > radiusMiles {
			continue
		}

		item.ID = string(itemType) + ":" + rawID
		item.Type = itemType
		item.UserPhotoURL = nullStringValue(photoURL)
		item.CourtID = nullStringValue(courtID)
		item.CourtName = nullStringValue(courtName)
		item.MatchScore = nullStringValue(matchScore)

		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("マッチ一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// compile-time interface check
var _ MatchRepository = (*PostgresMatchRepo)(nil)
