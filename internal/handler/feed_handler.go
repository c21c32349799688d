// Package handler はHTTP APIハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/hoopfeed/internal/middleware"
	"github.com/hitoshi/hoopfeed/internal/model"
)

// FeedServiceInterface はフィードハンドラーが必要とするサービスインターフェース。
type FeedServiceInterface interface {
	// UnifiedFeed は閲覧者向けの統合フィードを返す。失敗時も空のページを返す。
	UnifiedFeed(ctx context.Context, viewer model.Viewer) *model.FeedPage
}

// FeedHandler は統合フィードのHTTPハンドラー。
type FeedHandler struct {
	service FeedServiceInterface
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(service FeedServiceInterface) *FeedHandler {
	return &FeedHandler{service: service}
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// UnifiedFeed は統合フィードを返す。
// GET /statuses/unified-feed?filter=all|following|foryou&lat=&lng=&limit=&offset=
//
// フィードは常に200で応答する。閲覧者不明やパラメータ不正で5xxや4xxを返すと
// クライアントのタイムラインが壊れるため、解釈できない入力はデフォルトに落とし、
// 閲覧者が特定できない場合は空のエンベロープを返す。
func (h *FeedHandler) UnifiedFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, model.EmptyFeedPage())
		return
	}

	q := r.URL.Query()

	viewer := model.Viewer{
		UserID: userID,
		Mode:   model.FeedMode(q.Get("filter")),
		Limit:  parseIntParam(q.Get("limit"), 0),
		Offset: parseIntParam(q.Get("offset"), 0),
	}

	// 緯度経度は両方揃って初めて位置情報として扱う
	if lat, latErr := strconv.ParseFloat(q.Get("lat"), 64); latErr == nil {
		if lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64); lngErr == nil {
			viewer.Lat = &lat
			viewer.Lng = &lng
		}
	}

	page := h.service.UnifiedFeed(r.Context(), viewer)

	writeJSON(w, http.StatusOK, page)
}

// parseIntParam はクエリパラメータを整数として解釈する。
// 解釈できない場合はフォールバック値を返す。
func parseIntParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// --- ヘルパー関数 ---

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeUnauthorized は認証必須エンドポイントの401レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "閲覧者IDが必要です。",
		Category: "auth",
		Action:   "x-user-idヘッダーを付与してください。",
	})
}

// writeInvalidRequestBody はリクエストボディ解析失敗の400レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     model.ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeStatusNotFound, model.ErrCodeCourtNotFound, model.ErrCodeCommentNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidFilter, model.ErrCodeInvalidRequest, model.ErrCodeEmptyContent, model.ErrCodeSelfFollow:
		return http.StatusBadRequest
	case model.ErrCodeNotOwner:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
