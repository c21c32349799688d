// Package follow はフォローグラフのサービス層を提供する。
package follow

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/hoopfeed/internal/model"
)

// cachedSnapshot はRedisに保存するスナップショットのワイヤ形式。
type cachedSnapshot struct {
	PlayerIDs []string `json:"playerIds"`
	CourtIDs  []string `json:"courtIds"`
}

// SnapshotCache はフォロー関係スナップショットのキャッシュ。
// フィードリクエストごとに2本のフォローグラフクエリが走るのを避ける。
// キャッシュの失敗は常にミスとして扱い、Postgresへ静かにフォールバックする。
type SnapshotCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSnapshotCache はSnapshotCacheを生成する。rdbがnilの場合はキャッシュ無効。
func NewSnapshotCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *SnapshotCache {
	return &SnapshotCache{rdb: rdb, ttl: ttl, logger: logger}
}

func snapshotKey(userID string) string {
	return "hoopfeed:follows:" + userID
}

// Get はキャッシュからスナップショットを取得する。ミスまたは失敗時はnilを返す。
func (c *SnapshotCache) Get(ctx context.Context, userID string) *model.RelationshipSnapshot {
	if c == nil || c.rdb == nil {
		return nil
	}

	raw, err := c.rdb.Get(ctx, snapshotKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("フォローキャッシュの読み取りに失敗しました。DBへフォールバックします",
				"userId", userID, "error", err)
		}
		return nil
	}

	var cached cachedSnapshot
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.logger.Warn("フォローキャッシュのデコードに失敗しました。DBへフォールバックします",
			"userId", userID, "error", err)
		return nil
	}

	snap := model.NewRelationshipSnapshot()
	for _, id := range cached.PlayerIDs {
		snap.FollowedPlayerIDs[id] = true
	}
	for _, id := range cached.CourtIDs {
		snap.FollowedCourtIDs[id] = true
	}
	return snap
}

// Set はスナップショットをTTL付きでキャッシュへ書き込む。失敗はログのみ。
func (c *SnapshotCache) Set(ctx context.Context, userID string, playerIDs, courtIDs []string) {
	if c == nil || c.rdb == nil {
		return
	}

	raw, err := json.Marshal(cachedSnapshot{PlayerIDs: playerIDs, CourtIDs: courtIDs})
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, snapshotKey(userID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("フォローキャッシュの書き込みに失敗しました", "userId", userID, "error", err)
	}
}

// Invalidate はフォロー関係の変更時にキャッシュを破棄する。失敗はログのみ。
func (c *SnapshotCache) Invalidate(ctx context.Context, userID string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, snapshotKey(userID)).Err(); err != nil {
		c.logger.Warn("フォローキャッシュの破棄に失敗しました", "userId", userID, "error", err)
	}
}
