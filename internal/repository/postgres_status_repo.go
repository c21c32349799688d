package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/hoopfeed/internal/model"
)

// PostgresStatusRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresStatusRepo struct {
	db *sql.DB
}

// NewPostgresStatusRepo はPostgresStatusRepoを生成する。
func NewPostgresStatusRepo(db *sql.DB) *PostgresStatusRepo {
	return &PostgresStatusRepo{db: db}
}

// Create は投稿を作成する。
func (r *PostgresStatusRepo) Create(ctx context.Context, status *model.Status) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO player_statuses (id, user_id, content, image_url, court_id, scheduled_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		status.ID, status.UserID, status.Content, nullString(status.ImageURL),
		nullString(status.CourtID), status.ScheduledAt, status.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの投稿をエンゲージメント集計付きで取得する。見つからない場合はnilを返す。
func (r *PostgresStatusRepo) FindByID(ctx context.Context, statusID, viewerID string) (*model.StatusDetail, error) {
	detail := &model.StatusDetail{}
	var imageURL, courtID, courtName, userPhotoURL sql.NullString
	var scheduledAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT ps.id, ps.user_id, u.display_name, u.avatar_url,
		        ps.content, ps.image_url, ps.court_id, c.name, ps.scheduled_at, ps.created_at,
		        (SELECT COUNT(*) FROM status_likes WHERE status_id = ps.id),
		        (SELECT COUNT(*) FROM status_comments WHERE status_id = ps.id),
		        (SELECT COUNT(*) FROM event_attendees WHERE status_id = ps.id),
		        EXISTS(SELECT 1 FROM status_likes WHERE status_id = ps.id AND user_id = $2),
		        EXISTS(SELECT 1 FROM event_attendees WHERE status_id = ps.id AND user_id = $2)
		 FROM player_statuses ps
		 JOIN users u ON ps.user_id = u.id
		 LEFT JOIN courts c ON ps.court_id = c.id
		 WHERE ps.id = $1`,
		statusID, viewerID,
	).Scan(
		&detail.ID, &detail.UserID, &detail.UserName, &userPhotoURL,
		&detail.Content, &imageURL, &courtID, &courtName, &scheduledAt, &detail.CreatedAt,
		&detail.LikeCount, &detail.CommentCount, &detail.AttendeeCount,
		&detail.IsLikedByMe, &detail.IsAttending,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}

	detail.UserPhotoURL = nullStringValue(userPhotoURL)
	detail.ImageURL = nullStringValue(imageURL)
	detail.CourtID = nullStringValue(courtID)
	detail.CourtName = nullStringValue(courtName)
	if scheduledAt.Valid {
		detail.ScheduledAt = &scheduledAt.Time
	}

	return detail, nil
}

// DeleteByOwner は所有者による投稿削除を行う。削除された場合はtrueを返す。
func (r *PostgresStatusRepo) DeleteByOwner(ctx context.Context, statusID, ownerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM player_statuses WHERE id = $1 AND user_id = $2`,
		statusID, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return rows > 0, nil
}

// Like はいいねを冪等に付与する。
func (r *PostgresStatusRepo) Like(ctx context.Context, statusID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO status_likes (status_id, user_id, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (status_id, user_id) DO NOTHING`,
		statusID, userID,
	)
	if err != nil {
		return fmt.Errorf("いいねの付与に失敗しました: %w", err)
	}
	return nil
}

// Unlike はいいねを削除する。
func (r *PostgresStatusRepo) Unlike(ctx context.Context, statusID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM status_likes WHERE status_id = $1 AND user_id = $2`,
		statusID, userID,
	)
	if err != nil {
		return fmt.Errorf("いいねの削除に失敗しました: %w", err)
	}
	return nil
}

// ListLikes は投稿のいいね一覧を新しい順で返す。
func (r *PostgresStatusRepo) ListLikes(ctx context.Context, statusID string) ([]model.Reaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sl.user_id, u.display_name, u.avatar_url, sl.created_at
		 FROM status_likes sl
		 JOIN users u ON sl.user_id = u.id
		 WHERE sl.status_id = $1
		 ORDER BY sl.created_at DESC`,
		statusID,
	)
	if err != nil {
		return nil, fmt.Errorf("いいね一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanReactions(rows)
}

// AddComment はコメントを作成する。
func (r *PostgresStatusRepo) AddComment(ctx context.Context, comment *model.StatusComment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO status_comments (id, status_id, user_id, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.StatusID, comment.UserID, comment.Content, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	return nil
}

// ListComments は投稿のコメント一覧を古い順で返す。
func (r *PostgresStatusRepo) ListComments(ctx context.Context, statusID string) ([]model.StatusComment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sc.id, sc.status_id, sc.user_id, u.display_name, u.avatar_url, sc.content, sc.created_at
		 FROM status_comments sc
		 JOIN users u ON sc.user_id = u.id
		 WHERE sc.status_id = $1
		 ORDER BY sc.created_at ASC`,
		statusID,
	)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var comments []model.StatusComment
	for rows.Next() {
		var c model.StatusComment
		var photoURL sql.NullString
		if err := rows.Scan(&c.ID, &c.StatusID, &c.UserID, &c.UserName, &photoURL, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("コメント行の読み取りに失敗しました: %w", err)
		}
		c.UserPhotoURL = nullStringValue(photoURL)
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コメント一覧の走査に失敗しました: %w", err)
	}

	return comments, nil
}

// DeleteCommentByOwner は所有者によるコメント削除を行う。削除された場合はtrueを返す。
func (r *PostgresStatusRepo) DeleteCommentByOwner(ctx context.Context, commentID, ownerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM status_comments WHERE id = $1 AND user_id = $2`,
		commentID, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return rows > 0, nil
}

// Attend は参加表明を冪等に付与する。
func (r *PostgresStatusRepo) Attend(ctx context.Context, statusID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_attendees (status_id, user_id, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (status_id, user_id) DO NOTHING`,
		statusID, userID,
	)
	if err != nil {
		return fmt.Errorf("参加表明の付与に失敗しました: %w", err)
	}
	return nil
}

// Unattend は参加表明を削除する。
func (r *PostgresStatusRepo) Unattend(ctx context.Context, statusID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM event_attendees WHERE status_id = $1 AND user_id = $2`,
		statusID, userID,
	)
	if err != nil {
		return fmt.Errorf("参加表明の削除に失敗しました: %w", err)
	}
	return nil
}

// ListAttendees は参加表明の一覧を古い順で返す。
func (r *PostgresStatusRepo) ListAttendees(ctx context.Context, statusID string) ([]model.Reaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ea.user_id, u.display_name, u.avatar_url, ea.created_at
		 FROM event_attendees ea
		 JOIN users u ON ea.user_id = u.id
		 WHERE ea.status_id = $1
		 ORDER BY ea.created_at ASC`,
		statusID,
	)
	if err != nil {
		return nil, fmt.Errorf("参加者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanReactions(rows)
}

// statusFeedColumns は投稿をFeedItemへ正規化するためのSELECT句。
// エンゲージメント集計はサブクエリで取得する。
const statusFeedColumns = `
	ps.id, ps.user_id, u.display_name, u.avatar_url,
	ps.content, ps.image_url, ps.court_id, c.name, ps.scheduled_at, ps.created_at,
	(SELECT COUNT(*) FROM status_likes WHERE status_id = ps.id),
	(SELECT COUNT(*) FROM status_comments WHERE status_id = ps.id),
	(SELECT COUNT(*) FROM event_attendees WHERE status_id = ps.id)`

// ListSocial はソーシャルグラフ述語に一致する投稿をFeedItemに正規化して返す。
func (r *PostgresStatusRepo) ListSocial(ctx context.Context, q FeedQuery) ([]model.FeedItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+statusFeedColumns+`
		 FROM player_statuses ps
		 JOIN users u ON ps.user_id = u.id
		 LEFT JOIN courts c ON ps.court_id = c.id
		 WHERE ps.user_id = $1
		    OR ps.user_id = ANY($2)
		    OR ps.court_id = ANY($3)
		 ORDER BY ps.created_at DESC
		 LIMIT $4`,
		q.ViewerID,
		pq.Array(nullableArray(q.FollowedPlayerIDs)),
		pq.Array(nullableArray(q.FollowedCourtIDs)),
		q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ソーシャル投稿の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanStatusFeedItems(rows)
}

// ListNearby は半径内のコートに紐付く投稿を返す。
// 自分自身とフォロー中プレイヤーの投稿はソーシャル層で取得済みのため除外する。
func (r *PostgresStatusRepo) ListNearby(ctx context.Context, q GeoQuery) ([]model.FeedItem, error) {
	latMin, latMax, lngMin, lngMax := boundingBox(q.Lat, q.Lng, q.RadiusMiles)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+statusFeedColumns+`, c.lat, c.lng
		 FROM player_statuses ps
		 JOIN users u ON ps.user_id = u.id
		 JOIN courts c ON ps.court_id = c.id
		 WHERE c.lat BETWEEN $1 AND $2
		   AND c.lng BETWEEN $3 AND $4
		   AND ps.user_id <> $5
		   AND NOT (ps.user_id = ANY($6))
		 ORDER BY ps.created_at DESC
		 LIMIT $7`,
		latMin, latMax, lngMin, lngMax,
		q.ViewerID,
		pq.Array(nullableArray(q.FollowedPlayerIDs)),
		q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("周辺投稿の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []model.FeedItem
	for rows.Next() {
		item, courtLat, courtLng, err := scanStatusFeedItemWithCoords(rows)
		if err != nil {
			return nil, err
		}
		// バウンディングボックスは粗いプレフィルタのため、正確な距離で再判定する
		if haversineMiles(q.Lat, q.Lng, courtLat, courtLng) > q.RadiusMiles {
			continue
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("周辺投稿の走査に失敗しました: %w", err)
	}

	return items, nil
}

// ListDiscovery は位置情報なしのディスカバリーフォールバック。
// 地理フィルタを適用せず、自分自身とフォロー中プレイヤーを除外して返す。
func (r *PostgresStatusRepo) ListDiscovery(ctx context.Context, q FeedQuery) ([]model.FeedItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+statusFeedColumns+`
		 FROM player_statuses ps
		 JOIN users u ON ps.user_id = u.id
		 LEFT JOIN courts c ON ps.court_id = c.id
		 WHERE ps.user_id <> $1
		   AND NOT (ps.user_id = ANY($2))
		 ORDER BY ps.created_at DESC
		 LIMIT $3`,
		q.ViewerID,
		pq.Array(nullableArray(q.FollowedPlayerIDs)),
		q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ディスカバリー投稿の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanStatusFeedItems(rows)
}

// scanStatusFeedItems は投稿行をFeedItemのスライスへ変換する。
func scanStatusFeedItems(rows *sql.Rows) ([]model.FeedItem, error) {
	var items []model.FeedItem
	for rows.Next() {
		item, err := scanStatusFeedItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

func scanStatusFeedItem(rows *sql.Rows) (model.FeedItem, error) {
	var item model.FeedItem
	var rawID string
	var photoURL, imageURL, courtID, courtName sql.NullString
	var scheduledAt sql.NullTime

	if err := rows.Scan(
		&rawID, &item.UserID, &item.UserName, &photoURL,
		&item.Content, &imageURL, &courtID, &courtName, &scheduledAt, &item.CreatedAt,
		&item.LikeCount, &item.CommentCount, &item.AttendeeCount,
	); err != nil {
		return model.FeedItem{}, fmt.Errorf("投稿行の読み取りに失敗しました: %w", err)
	}

	fillStatusFeedItem(&item, rawID, photoURL, imageURL, courtID, courtName, scheduledAt)
	return item, nil
}

func scanStatusFeedItemWithCoords(rows *sql.Rows) (model.FeedItem, float64, float64, error) {
	var item model.FeedItem
	var rawID string
	var photoURL, imageURL, courtID, courtName sql.NullString
	var scheduledAt sql.NullTime
	var lat, lng float64

	if err := rows.Scan(
		&rawID, &item.UserID, &item.UserName, &photoURL,
		&item.Content, &imageURL, &courtID, &courtName, &scheduledAt, &item.CreatedAt,
		&item.LikeCount, &item.CommentCount, &item.AttendeeCount,
		&lat, &lng,
	); err != nil {
		return model.FeedItem{}, 0, 0, fmt.Errorf("投稿行の読み取りに失敗しました: %w", err)
	}

	fillStatusFeedItem(&item, rawID, photoURL, imageURL, courtID, courtName, scheduledAt)
	return item, lat, lng, nil
}

func fillStatusFeedItem(item *model.FeedItem, rawID string, photoURL, imageURL, courtID, courtName sql.NullString, scheduledAt sql.NullTime) {
	item.ID = string(model.FeedItemTypeStatus) + ":" + rawID
	item.Type = model.FeedItemTypeStatus
	item.UserPhotoURL = nullStringValue(photoURL)
	item.ImageURL = nullStringValue(imageURL)
	item.CourtID = nullStringValue(courtID)
	item.CourtName = nullStringValue(courtName)
	if scheduledAt.Valid {
		item.ScheduledAt = &scheduledAt.Time
	}
}

// scanReactions はいいね/参加表明の行をReactionのスライスへ変換する。
func scanReactions(rows *sql.Rows) ([]model.Reaction, error) {
	var reactions []model.Reaction
	for rows.Next() {
		var reaction model.Reaction
		var photoURL sql.NullString
		if err := rows.Scan(&reaction.UserID, &reaction.UserName, &photoURL, &reaction.CreatedAt); err != nil {
			return nil, fmt.Errorf("リアクション行の読み取りに失敗しました: %w", err)
		}
		reaction.UserPhotoURL = nullStringValue(photoURL)
		reactions = append(reactions, reaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リアクション一覧の走査に失敗しました: %w", err)
	}
	return reactions, nil
}

// nullString は空文字列をsql.NullStringのNULLへ変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列値を取り出す。NULLの場合は空文字列を返す。
func nullStringValue(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

// compile-time interface check
var _ StatusRepository = (*PostgresStatusRepo)(nil)
