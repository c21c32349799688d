// Package status は投稿（ステータス）のドメインロジックを提供する。
package status

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/hoopfeed/internal/events"
	"github.com/hitoshi/hoopfeed/internal/model"
	"github.com/hitoshi/hoopfeed/internal/repository"
	"github.com/hitoshi/hoopfeed/internal/security"
)

// contentMaxLength は投稿本文の最大長（文字数ではなくバイト数）。
const contentMaxLength = 2000

// CreateStatusInput は投稿作成の入力。
type CreateStatusInput struct {
	Content     string
	ImageURL    string
	CourtID     string
	ScheduledAt *time.Time
}

// Service は投稿のサービス層。
// 投稿の作成・削除・エンゲージメント操作のビジネスロジックを提供し、
// 各書き込み操作をアクティビティイベントとして発行する。
type Service struct {
	statusRepo repository.StatusRepository
	courtRepo  repository.CourtRepository
	sanitizer  security.ContentSanitizerService
	producer   events.Producer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	statusRepo repository.StatusRepository,
	courtRepo repository.CourtRepository,
	sanitizer security.ContentSanitizerService,
	producer events.Producer,
) *Service {
	return &Service{
		statusRepo: statusRepo,
		courtRepo:  courtRepo,
		sanitizer:  sanitizer,
		producer:   producer,
	}
}

// CreateStatus は投稿を作成する。
// 本文はサニタイズ後に検証し、空の場合はエラーを返す。
// コートIDが指定されている場合は存在を検証する。
func (s *Service) CreateStatus(ctx context.Context, userID string, input CreateStatusInput) (*model.StatusDetail, error) {
	content := s.sanitizer.Sanitize(input.Content)
	if content == "" {
		return nil, model.NewEmptyContentError()
	}
	if len(content) > contentMaxLength {
		content = content[:contentMaxLength]
	}

	if input.CourtID != "" {
		court, err := s.courtRepo.FindByID(ctx, input.CourtID)
		if err != nil {
			return nil, fmt.Errorf("コートの取得に失敗しました: %w", err)
		}
		if court == nil {
			return nil, model.NewCourtNotFoundError(input.CourtID)
		}
	}

	status := &model.Status{
		ID:          uuid.New().String(),
		UserID:      userID,
		Content:     content,
		ImageURL:    input.ImageURL,
		CourtID:     input.CourtID,
		ScheduledAt: input.ScheduledAt,
		CreatedAt:   time.Now(),
	}

	if err := s.statusRepo.Create(ctx, status); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	s.producer.Publish(ctx, events.TypeStatusCreated, userID, status.ID)

	detail, err := s.statusRepo.FindByID(ctx, status.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("作成した投稿の取得に失敗しました: %w", err)
	}
	return detail, nil
}

// GetStatus は投稿をエンゲージメント集計付きで取得する。
func (s *Service) GetStatus(ctx context.Context, statusID, viewerID string) (*model.StatusDetail, error) {
	detail, err := s.statusRepo.FindByID(ctx, statusID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if detail == nil {
		return nil, model.NewStatusNotFoundError(statusID)
	}
	return detail, nil
}

// DeleteStatus は投稿を削除する。所有者以外は削除できない。
func (s *Service) DeleteStatus(ctx context.Context, statusID, userID string) error {
	deleted, err := s.statusRepo.DeleteByOwner(ctx, statusID, userID)
	if err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	if !deleted {
		// 存在しないか所有者が異なる。区別せず未検出として扱う
		return model.NewStatusNotFoundError(statusID)
	}
	return nil
}

// LikeStatus はいいねを付与する。冪等であり、二重いいねはエラーにならない。
func (s *Service) LikeStatus(ctx context.Context, statusID, userID string) error {
	if err := s.ensureStatusExists(ctx, statusID, userID); err != nil {
		return err
	}
	if err := s.statusRepo.Like(ctx, statusID, userID); err != nil {
		return fmt.Errorf("いいねの付与に失敗しました: %w", err)
	}
	s.producer.Publish(ctx, events.TypeStatusLiked, userID, statusID)
	return nil
}

// UnlikeStatus はいいねを削除する。
func (s *Service) UnlikeStatus(ctx context.Context, statusID, userID string) error {
	if err := s.statusRepo.Unlike(ctx, statusID, userID); err != nil {
		return fmt.Errorf("いいねの削除に失敗しました: %w", err)
	}
	return nil
}

// ListLikes は投稿のいいね一覧を返す。
func (s *Service) ListLikes(ctx context.Context, statusID string) ([]model.Reaction, error) {
	likes, err := s.statusRepo.ListLikes(ctx, statusID)
	if err != nil {
		return nil, fmt.Errorf("いいね一覧の取得に失敗しました: %w", err)
	}
	return likes, nil
}

// AddComment はコメントを作成する。本文はサニタイズ後に検証する。
func (s *Service) AddComment(ctx context.Context, statusID, userID, content string) (*model.StatusComment, error) {
	sanitized := s.sanitizer.Sanitize(content)
	if sanitized == "" {
		return nil, model.NewEmptyContentError()
	}

	if err := s.ensureStatusExists(ctx, statusID, userID); err != nil {
		return nil, err
	}

	comment := &model.StatusComment{
		ID:        uuid.New().String(),
		StatusID:  statusID,
		UserID:    userID,
		Content:   sanitized,
		CreatedAt: time.Now(),
	}
	if err := s.statusRepo.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}

	s.producer.Publish(ctx, events.TypeStatusComment, userID, statusID)
	return comment, nil
}

// ListComments は投稿のコメント一覧を返す。
func (s *Service) ListComments(ctx context.Context, statusID string) ([]model.StatusComment, error) {
	comments, err := s.statusRepo.ListComments(ctx, statusID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return comments, nil
}

// DeleteComment はコメントを削除する。所有者以外は削除できない。
func (s *Service) DeleteComment(ctx context.Context, commentID, userID string) error {
	deleted, err := s.statusRepo.DeleteCommentByOwner(ctx, commentID, userID)
	if err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewCommentNotFoundError(commentID)
	}
	return nil
}

// Attend は予定されたランへの参加表明を付与する。冪等。
func (s *Service) Attend(ctx context.Context, statusID, userID string) error {
	if err := s.ensureStatusExists(ctx, statusID, userID); err != nil {
		return err
	}
	if err := s.statusRepo.Attend(ctx, statusID, userID); err != nil {
		return fmt.Errorf("参加表明の付与に失敗しました: %w", err)
	}
	s.producer.Publish(ctx, events.TypeStatusAttended, userID, statusID)
	return nil
}

// Unattend は参加表明を削除する。
func (s *Service) Unattend(ctx context.Context, statusID, userID string) error {
	if err := s.statusRepo.Unattend(ctx, statusID, userID); err != nil {
		return fmt.Errorf("参加表明の削除に失敗しました: %w", err)
	}
	return nil
}

// ListAttendees は参加表明の一覧を返す。
func (s *Service) ListAttendees(ctx context.Context, statusID string) ([]model.Reaction, error) {
	attendees, err := s.statusRepo.ListAttendees(ctx, statusID)
	if err != nil {
		return nil, fmt.Errorf("参加者一覧の取得に失敗しました: %w", err)
	}
	return attendees, nil
}

func (s *Service) ensureStatusExists(ctx context.Context, statusID, viewerID string) error {
	detail, err := s.statusRepo.FindByID(ctx, statusID, viewerID)
	if err != nil {
		return fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if detail == nil {
		return model.NewStatusNotFoundError(statusID)
	}
	return nil
}
