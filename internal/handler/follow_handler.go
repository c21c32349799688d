package handler

import (
	"context"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hoopfeed/internal/middleware"
	"github.com/hitoshi/hoopfeed/internal/model"
)

// FollowServiceInterface はフォローハンドラーが必要とするサービスインターフェース。
type FollowServiceInterface interface {
	FollowPlayer(ctx context.Context, followerID, followedID string) error
	UnfollowPlayer(ctx context.Context, followerID, followedID string) error
	FollowCourt(ctx context.Context, userID, courtID string) error
	UnfollowCourt(ctx context.Context, userID, courtID string) error
	SnapshotFor(ctx context.Context, userID string) (*model.RelationshipSnapshot, error)
}

// followsResponse はフォロー関係スナップショットのレスポンス。
type followsResponse struct {
	PlayerIDs []string `json:"playerIds"`
	CourtIDs  []string `json:"courtIds"`
}

// FollowHandler はフォローグラフ管理のHTTPハンドラー。
type FollowHandler struct {
	service FollowServiceInterface
}

// NewFollowHandler はFollowHandlerを生成する。
func NewFollowHandler(service FollowServiceInterface) *FollowHandler {
	return &FollowHandler{service: service}
}

// FollowPlayer はプレイヤーをフォローする。
// POST /follows/players/:id
func (h *FollowHandler) FollowPlayer(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.service.FollowPlayer)
}

// UnfollowPlayer はプレイヤーのフォローを解除する。
// DELETE /follows/players/:id
func (h *FollowHandler) UnfollowPlayer(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.service.UnfollowPlayer)
}

// FollowCourt はコートをフォローする。
// POST /follows/courts/:id
func (h *FollowHandler) FollowCourt(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.service.FollowCourt)
}

// UnfollowCourt はコートのフォローを解除する。
// DELETE /follows/courts/:id
func (h *FollowHandler) UnfollowCourt(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.service.UnfollowCourt)
}

// ListFollows は閲覧者のフォロー中プレイヤー/コートIDの一覧を返す。
// GET /follows
func (h *FollowHandler) ListFollows(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	snapshot, err := h.service.SnapshotFor(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, followsResponse{
		PlayerIDs: sortedKeys(snapshot.FollowedPlayerIDs),
		CourtIDs:  sortedKeys(snapshot.FollowedCourtIDs),
	})
}

// sortedKeys はセットのキーをソート済みスライスに変換する。空でも[]を返す。
func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// apply はフォロー操作の共通処理。対象IDはURLパラメータから取る。
func (h *FollowHandler) apply(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, targetID string) error) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := op(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
