package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresFollowRepo はPostgreSQLを使用したフォローグラフリポジトリ。
type PostgresFollowRepo struct {
	db *sql.DB
}

// NewPostgresFollowRepo はPostgresFollowRepoを生成する。
func NewPostgresFollowRepo(db *sql.DB) *PostgresFollowRepo {
	return &PostgresFollowRepo{db: db}
}

// ListFollowedPlayerIDs はフォロー中プレイヤーのID一覧を返す。
func (r *PostgresFollowRepo) ListFollowedPlayerIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT followed_id FROM user_followed_players WHERE follower_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("フォロー中プレイヤーの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows, "フォロー中プレイヤー")
}

// ListFollowedCourtIDs はフォロー中コートのID一覧を返す。
func (r *PostgresFollowRepo) ListFollowedCourtIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT court_id FROM user_followed_courts WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("フォロー中コートの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows, "フォロー中コート")
}

// FollowPlayer はプレイヤーのフォロー関係を冪等に作成する。
func (r *PostgresFollowRepo) FollowPlayer(ctx context.Context, followerID, followedID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_followed_players (follower_id, followed_id, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (follower_id, followed_id) DO NOTHING`,
		followerID, followedID,
	)
	if err != nil {
		return fmt.Errorf("プレイヤーのフォローに失敗しました: %w", err)
	}
	return nil
}

// UnfollowPlayer はプレイヤーのフォロー関係を削除する。
func (r *PostgresFollowRepo) UnfollowPlayer(ctx context.Context, followerID, followedID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_followed_players WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID,
	)
	if err != nil {
		return fmt.Errorf("プレイヤーのフォロー解除に失敗しました: %w", err)
	}
	return nil
}

// FollowCourt はコートのフォロー関係を冪等に作成する。
func (r *PostgresFollowRepo) FollowCourt(ctx context.Context, userID, courtID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_followed_courts (user_id, court_id, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id, court_id) DO NOTHING`,
		userID, courtID,
	)
	if err != nil {
		return fmt.Errorf("コートのフォローに失敗しました: %w", err)
	}
	return nil
}

// UnfollowCourt はコートのフォロー関係を削除する。
func (r *PostgresFollowRepo) UnfollowCourt(ctx context.Context, userID, courtID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_followed_courts WHERE user_id = $1 AND court_id = $2`,
		userID, courtID,
	)
	if err != nil {
		return fmt.Errorf("コートのフォロー解除に失敗しました: %w", err)
	}
	return nil
}

// scanIDs はID列のみの行をスライスへ変換する。
func scanIDs(rows *sql.Rows, label string) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s行の読み取りに失敗しました: %w", label, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s一覧の走査に失敗しました: %w", label, err)
	}
	return ids, nil
}

// compile-time interface check
var _ FollowRepository = (*PostgresFollowRepo)(nil)
