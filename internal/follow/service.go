package follow

import (
	"context"
	"fmt"

	"github.com/hitoshi/hoopfeed/internal/events"
	"github.com/hitoshi/hoopfeed/internal/model"
	"github.com/hitoshi/hoopfeed/internal/repository"
)

// Service はフォローグラフのサービス層。
// フォロー/アンフォロー操作と、フィード用の関係スナップショット提供を担う。
// スナップショットはRedisにTTL付きでキャッシュし、書き込み時に破棄する。
type Service struct {
	followRepo repository.FollowRepository
	courtRepo  repository.CourtRepository
	cache      *SnapshotCache
	producer   events.Producer
}

// NewService はServiceの新しいインスタンスを生成する。
// cacheはnil可（キャッシュ無効で直接DBを参照する）。
func NewService(followRepo repository.FollowRepository, courtRepo repository.CourtRepository, cache *SnapshotCache, producer events.Producer) *Service {
	return &Service{
		followRepo: followRepo,
		courtRepo:  courtRepo,
		cache:      cache,
		producer:   producer,
	}
}

// SnapshotFor は閲覧者のフォロー関係スナップショットを返す。
// キャッシュヒット時はDBを参照しない。ミス時はフォロー中プレイヤーと
// フォロー中コートを取得し、結果をキャッシュへ書き戻す。
func (s *Service) SnapshotFor(ctx context.Context, userID string) (*model.RelationshipSnapshot, error) {
	if cached := s.cache.Get(ctx, userID); cached != nil {
		return cached, nil
	}

	playerIDs, err := s.followRepo.ListFollowedPlayerIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("フォロー中プレイヤーの取得に失敗しました: %w", err)
	}
	courtIDs, err := s.followRepo.ListFollowedCourtIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("フォロー中コートの取得に失敗しました: %w", err)
	}

	s.cache.Set(ctx, userID, playerIDs, courtIDs)

	snap := model.NewRelationshipSnapshot()
	for _, id := range playerIDs {
		snap.FollowedPlayerIDs[id] = true
	}
	for _, id := range courtIDs {
		snap.FollowedCourtIDs[id] = true
	}
	return snap, nil
}

// FollowPlayer はプレイヤーをフォローする。自分自身はフォローできない。
func (s *Service) FollowPlayer(ctx context.Context, followerID, followedID string) error {
	if followerID == followedID {
		return model.NewSelfFollowError()
	}
	if err := s.followRepo.FollowPlayer(ctx, followerID, followedID); err != nil {
		return fmt.Errorf("プレイヤーのフォローに失敗しました: %w", err)
	}
	s.cache.Invalidate(ctx, followerID)
	s.producer.Publish(ctx, events.TypePlayerFollowed, followerID, followedID)
	return nil
}

// UnfollowPlayer はプレイヤーのフォローを解除する。
func (s *Service) UnfollowPlayer(ctx context.Context, followerID, followedID string) error {
	if err := s.followRepo.UnfollowPlayer(ctx, followerID, followedID); err != nil {
		return fmt.Errorf("プレイヤーのフォロー解除に失敗しました: %w", err)
	}
	s.cache.Invalidate(ctx, followerID)
	return nil
}

// FollowCourt はコートをフォローする。存在しないコートはフォローできない。
func (s *Service) FollowCourt(ctx context.Context, userID, courtID string) error {
	court, err := s.courtRepo.FindByID(ctx, courtID)
	if err != nil {
		return fmt.Errorf("コートの取得に失敗しました: %w", err)
	}
	if court == nil {
		return model.NewCourtNotFoundError(courtID)
	}
	if err := s.followRepo.FollowCourt(ctx, userID, courtID); err != nil {
		return fmt.Errorf("コートのフォローに失敗しました: %w", err)
	}
	s.cache.Invalidate(ctx, userID)
	s.producer.Publish(ctx, events.TypeCourtFollowed, userID, courtID)
	return nil
}

// UnfollowCourt はコートのフォローを解除する。
func (s *Service) UnfollowCourt(ctx context.Context, userID, courtID string) error {
	if err := s.followRepo.UnfollowCourt(ctx, userID, courtID); err != nil {
		return fmt.Errorf("コートのフォロー解除に失敗しました: %w", err)
	}
	s.cache.Invalidate(ctx, userID)
	return nil
}
