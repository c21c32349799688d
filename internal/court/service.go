// Package court はコート検索のドメインロジックを提供する。
package court

import (
	"context"
	"fmt"

	"github.com/hitoshi/hoopfeed/internal/model"
	"github.com/hitoshi/hoopfeed/internal/repository"
)

const (
	// defaultSearchRadiusMiles は半径未指定時の検索半径。
	defaultSearchRadiusMiles = 25.0
	// maxSearchRadiusMiles は検索半径の上限。
	maxSearchRadiusMiles = 500.0
	// defaultSearchLimit は件数未指定時の検索件数。
	defaultSearchLimit = 20
	// maxSearchLimit は検索件数の上限。
	maxSearchLimit = 100
)

// Service はコートのサービス層。
type Service struct {
	courtRepo repository.CourtRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(courtRepo repository.CourtRepository) *Service {
	return &Service{courtRepo: courtRepo}
}

// GetCourt は指定IDのコートを取得する。
func (s *Service) GetCourt(ctx context.Context, courtID string) (*model.Court, error) {
	court, err := s.courtRepo.FindByID(ctx, courtID)
	if err != nil {
		return nil, fmt.Errorf("コートの取得に失敗しました: %w", err)
	}
	if court == nil {
		return nil, model.NewCourtNotFoundError(courtID)
	}
	return court, nil
}

// SearchNearby は指定座標の周辺コートを距離昇順で返す。
// 半径と件数は範囲外の指定をデフォルト値・上限値へクランプする。
func (s *Service) SearchNearby(ctx context.Context, lat, lng, radiusMiles float64, limit int) ([]model.CourtWithDistance, error) {
	if radiusMiles <= 0 {
		radiusMiles = defaultSearchRadiusMiles
	}
	if radiusMiles > maxSearchRadiusMiles {
		radiusMiles = maxSearchRadiusMiles
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	courts, err := s.courtRepo.SearchByLocation(ctx, lat, lng, radiusMiles, limit)
	if err != nil {
		return nil, fmt.Errorf("コートの検索に失敗しました: %w", err)
	}
	return courts, nil
}
