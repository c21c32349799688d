package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/hoopfeed/internal/model"
)

// PostgresTeamMatchRepo はPostgreSQLを使用したチームマッチの読み取り専用リポジトリ。
type PostgresTeamMatchRepo struct {
	db *sql.DB
}

// NewPostgresTeamMatchRepo はPostgresTeamMatchRepoを生成する。
func NewPostgresTeamMatchRepo(db *sql.DB) *PostgresTeamMatchRepo {
	return &PostgresTeamMatchRepo{db: db}
}

// teamMatchFeedColumns は完了チームマッチをFeedItemへ正規化するためのSELECT句。
// 行為者は勝利チームのキャプテン（winner_user_id）とする。
const teamMatchFeedColumns = `
	tm.id, tm.winner_user_id, u.display_name, u.avatar_url,
	tm.court_id, c.name,
	tm.score_home || '-' || tm.score_away,
	tm.created_at`

// ListSocial はフォロー中プレイヤーがキャプテンを務めた、またはフォロー中コートで
// 行われた完了チームマッチをFeedItemに正規化して返す。
func (r *PostgresTeamMatchRepo) ListSocial(ctx context.Context, q FeedQuery) ([]model.FeedItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+teamMatchFeedColumns+`
		 FROM team_matches tm
		 JOIN users u ON tm.winner_user_id = u.id
		 LEFT JOIN courts c ON tm.court_id = c.id
		 WHERE tm.status = 'completed'
		   AND (
		        tm.winner_user_id = $1
		     OR tm.winner_user_id = ANY($2)
		     OR tm.court_id = ANY($3)
		   )
		 ORDER BY tm.created_at DESC
		 LIMIT $4`,
		q.ViewerID,
		pq.Array(nullableArray(q.FollowedPlayerIDs)),
		pq.Array(nullableArray(q.FollowedCourtIDs)),
		q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ソーシャルチームマッチの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanMatchFeedItems(rows, model.FeedItemTypeTeamMatch, false, 0, 0, 0)
}

// ListNearby は半径内のコートで行われた完了チームマッチを返す。
func (r *PostgresTeamMatchRepo) ListNearby(ctx context.Context, q GeoQuery) ([]model.FeedItem, error) {
	latMin, latMax, lngMin, lngMax := boundingBox(q.Lat, q.Lng, q.RadiusMiles)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+teamMatchFeedColumns+`, c.lat, c.lng
		 FROM team_matches tm
		 JOIN users u ON tm.winner_user_id = u.id
		 JOIN courts c ON tm.court_id = c.id
		 WHERE tm.status = 'completed'
		   AND c.lat BETWEEN $1 AND $2
		   AND c.lng BETWEEN $3 AND $4
		   AND tm.winner_user_id <> $5
		   AND NOT (tm.winner_user_id = ANY($6))
		 ORDER BY tm.created_at DESC
		 LIMIT $7`,
		latMin, latMax, lngMin, lngMax,
		q.ViewerID,
		pq.Array(nullableArray(q.FollowedPlayerIDs)),
		q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("周辺チームマッチの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanMatchFeedItems(rows, model.FeedItemTypeTeamMatch, true, q.Lat, q.Lng, q.RadiusMiles)
}

// ListDiscovery は位置情報なしのネットワーク全体フォールバック。
func (r *PostgresTeamMatchRepo) ListDiscovery(ctx context.Context, q FeedQuery) ([]model.FeedItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+teamMatchFeedColumns+`
		 FROM team_matches tm
		 JOIN users u ON tm.winner_user_id = u.id
		 LEFT JOIN courts c ON tm.court_id = c.id
		 WHERE tm.status = 'completed'
		   AND tm.winner_user_id <> $1
		   AND NOT (tm.winner_user_id = ANY($2))
		 ORDER BY tm.created_at DESC
		 LIMIT $3`,
		q.ViewerID,
		pq.Array(nullableArray(q.FollowedPlayerIDs)),
		q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ディスカバリーチームマッチの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanMatchFeedItems(rows, model.FeedItemTypeTeamMatch, false, 0, 0, 0)
}

// compile-time interface check
var _ TeamMatchRepository = (*PostgresTeamMatchRepo)(nil)
