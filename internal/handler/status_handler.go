package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hoopfeed/internal/middleware"
	"github.com/hitoshi/hoopfeed/internal/model"
	"github.com/hitoshi/hoopfeed/internal/status"
)

// StatusServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type StatusServiceInterface interface {
	CreateStatus(ctx context.Context, userID string, input status.CreateStatusInput) (*model.StatusDetail, error)
	GetStatus(ctx context.Context, statusID, viewerID string) (*model.StatusDetail, error)
	DeleteStatus(ctx context.Context, statusID, userID string) error
	LikeStatus(ctx context.Context, statusID, userID string) error
	UnlikeStatus(ctx context.Context, statusID, userID string) error
	ListLikes(ctx context.Context, statusID string) ([]model.Reaction, error)
	AddComment(ctx context.Context, statusID, userID, content string) (*model.StatusComment, error)
	ListComments(ctx context.Context, statusID string) ([]model.StatusComment, error)
	DeleteComment(ctx context.Context, commentID, userID string) error
	Attend(ctx context.Context, statusID, userID string) error
	Unattend(ctx context.Context, statusID, userID string) error
	ListAttendees(ctx context.Context, statusID string) ([]model.Reaction, error)
}

// StatusHandler は投稿管理のHTTPハンドラー。
type StatusHandler struct {
	service StatusServiceInterface
}

// NewStatusHandler はStatusHandlerを生成する。
func NewStatusHandler(service StatusServiceInterface) *StatusHandler {
	return &StatusHandler{service: service}
}

// createStatusRequest は投稿作成リクエストのボディ。
type createStatusRequest struct {
	Content     string     `json:"content"`
	ImageURL    string     `json:"imageUrl"`
	CourtID     string     `json:"courtId"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

// addCommentRequest はコメント追加リクエストのボディ。
type addCommentRequest struct {
	Content string `json:"content"`
}

// statusResponse は投稿詳細のAPIレスポンス。
type statusResponse struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	UserName      string     `json:"userName,omitempty"`
	UserPhotoURL  string     `json:"userPhotoUrl,omitempty"`
	Content       string     `json:"content"`
	ImageURL      string     `json:"imageUrl,omitempty"`
	CourtID       string     `json:"courtId,omitempty"`
	CourtName     string     `json:"courtName,omitempty"`
	ScheduledAt   *time.Time `json:"scheduledAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	LikeCount     int        `json:"likeCount"`
	CommentCount  int        `json:"commentCount"`
	AttendeeCount int        `json:"attendeeCount"`
	IsLikedByMe   bool       `json:"isLikedByMe"`
	IsAttending   bool       `json:"isAttending"`
}

// commentResponse はコメントのAPIレスポンス。
type commentResponse struct {
	ID           string    `json:"id"`
	StatusID     string    `json:"statusId"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName,omitempty"`
	UserPhotoURL string    `json:"userPhotoUrl,omitempty"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
}

// reactionResponse はいいね・参加表明のAPIレスポンス。
type reactionResponse struct {
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName,omitempty"`
	UserPhotoURL string    `json:"userPhotoUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateStatus は投稿を作成する。
// POST /statuses
func (h *StatusHandler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	detail, err := h.service.CreateStatus(r.Context(), userID, status.CreateStatusInput{
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		CourtID:     req.CourtID,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toStatusResponse(detail))
}

// GetStatus は投稿詳細を取得する。
// GET /statuses/:id
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	statusID := chi.URLParam(r, "id")
	viewerID, _ := middleware.UserIDFromContext(r.Context())

	detail, err := h.service.GetStatus(r.Context(), statusID, viewerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStatusResponse(detail))
}

// DeleteStatus は投稿を削除する。所有者のみ実行できる。
// DELETE /statuses/:id
func (h *StatusHandler) DeleteStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.DeleteStatus(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LikeStatus は投稿にいいねを付ける。
// POST /statuses/:id/like
func (h *StatusHandler) LikeStatus(w http.ResponseWriter, r *http.Request) {
	h.reaction(w, r, h.service.LikeStatus)
}

// UnlikeStatus は投稿のいいねを取り消す。
// DELETE /statuses/:id/like
func (h *StatusHandler) UnlikeStatus(w http.ResponseWriter, r *http.Request) {
	h.reaction(w, r, h.service.UnlikeStatus)
}

// Attend は試合募集の投稿に参加表明する。
// POST /statuses/:id/attend
func (h *StatusHandler) Attend(w http.ResponseWriter, r *http.Request) {
	h.reaction(w, r, h.service.Attend)
}

// Unattend は参加表明を取り消す。
// DELETE /statuses/:id/attend
func (h *StatusHandler) Unattend(w http.ResponseWriter, r *http.Request) {
	h.reaction(w, r, h.service.Unattend)
}

// reaction はいいね・参加表明系の共通処理。
func (h *StatusHandler) reaction(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, statusID, userID string) error) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := op(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListLikes は投稿にいいねしたユーザーの一覧を取得する。
// GET /statuses/:id/likes
func (h *StatusHandler) ListLikes(w http.ResponseWriter, r *http.Request) {
	h.reactionList(w, r, h.service.ListLikes)
}

// ListAttendees は参加表明したユーザーの一覧を取得する。
// GET /statuses/:id/attendees
func (h *StatusHandler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	h.reactionList(w, r, h.service.ListAttendees)
}

// reactionList はいいね・参加表明一覧の共通処理。
func (h *StatusHandler) reactionList(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, statusID string) ([]model.Reaction, error)) {
	reactions, err := op(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]reactionResponse, 0, len(reactions))
	for _, reaction := range reactions {
		res = append(res, reactionResponse{
			UserID:       reaction.UserID,
			UserName:     reaction.UserName,
			UserPhotoURL: reaction.UserPhotoURL,
			CreatedAt:    reaction.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, res)
}

// AddComment は投稿にコメントを追加する。
// POST /statuses/:id/comments
func (h *StatusHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	comment, err := h.service.AddComment(r.Context(), chi.URLParam(r, "id"), userID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(comment))
}

// ListComments は投稿のコメント一覧を取得する。
// GET /statuses/:id/comments
func (h *StatusHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]commentResponse, 0, len(comments))
	for i := range comments {
		res = append(res, toCommentResponse(&comments[i]))
	}

	writeJSON(w, http.StatusOK, res)
}

// DeleteComment はコメントを削除する。コメントの所有者のみ実行できる。
// DELETE /statuses/:id/comments/:commentID
func (h *StatusHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.DeleteComment(r.Context(), chi.URLParam(r, "commentID"), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toStatusResponse はmodel.StatusDetailからAPIレスポンスに変換する。
func toStatusResponse(detail *model.StatusDetail) statusResponse {
	return statusResponse{
		ID:            detail.ID,
		UserID:        detail.UserID,
		UserName:      detail.UserName,
		UserPhotoURL:  detail.UserPhotoURL,
		Content:       detail.Content,
		ImageURL:      detail.ImageURL,
		CourtID:       detail.CourtID,
		CourtName:     detail.CourtName,
		ScheduledAt:   detail.ScheduledAt,
		CreatedAt:     detail.CreatedAt,
		LikeCount:     detail.LikeCount,
		CommentCount:  detail.CommentCount,
		AttendeeCount: detail.AttendeeCount,
		IsLikedByMe:   detail.IsLikedByMe,
		IsAttending:   detail.IsAttending,
	}
}

// toCommentResponse はmodel.StatusCommentからAPIレスポンスに変換する。
func toCommentResponse(comment *model.StatusComment) commentResponse {
	return commentResponse{
		ID:           comment.ID,
		StatusID:     comment.StatusID,
		UserID:       comment.UserID,
		UserName:     comment.UserName,
		UserPhotoURL: comment.UserPhotoURL,
		Content:      comment.Content,
		CreatedAt:    comment.CreatedAt,
	}
}
