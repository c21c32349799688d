package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hoopfeed/internal/model"
)

// CourtServiceInterface はコートハンドラーが必要とするサービスインターフェース。
type CourtServiceInterface interface {
	GetCourt(ctx context.Context, courtID string) (*model.Court, error)
	SearchNearby(ctx context.Context, lat, lng, radiusMiles float64, limit int) ([]model.CourtWithDistance, error)
}

// CourtHandler はコートのHTTPハンドラー。
type CourtHandler struct {
	service CourtServiceInterface
}

// NewCourtHandler はCourtHandlerを生成する。
func NewCourtHandler(service CourtServiceInterface) *CourtHandler {
	return &CourtHandler{service: service}
}

// courtResponse はコート情報のAPIレスポンス。
type courtResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	City          string    `json:"city"`
	Lat           float64   `json:"lat"`
	Lng           float64   `json:"lng"`
	Indoor        bool      `json:"indoor"`
	Rims          int       `json:"rims"`
	Access        string    `json:"access"`
	CreatedAt     time.Time `json:"createdAt"`
	DistanceMiles *float64  `json:"distanceMiles,omitempty"`
}

// GetCourt はコート詳細を取得する。
// GET /courts/:id
func (h *CourtHandler) GetCourt(w http.ResponseWriter, r *http.Request) {
	court, err := h.service.GetCourt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCourtResponse(court, nil))
}

// SearchNearby は指定座標の近隣コートを距離順に返す。
// GET /courts/nearby?lat=&lng=&radius=&limit=
func (h *CourtHandler) SearchNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "緯度経度の指定が不正です。",
			Category: "validation",
			Action:   "latとlngに数値を指定してください。",
		})
		return
	}

	radius, _ := strconv.ParseFloat(q.Get("radius"), 64)
	limit := parseIntParam(q.Get("limit"), 0)

	courts, err := h.service.SearchNearby(r.Context(), lat, lng, radius, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]courtResponse, 0, len(courts))
	for i := range courts {
		res = append(res, toCourtResponse(&courts[i].Court, &courts[i].DistanceMiles))
	}

	writeJSON(w, http.StatusOK, res)
}

// toCourtResponse はmodel.CourtからAPIレスポンスに変換する。
func toCourtResponse(court *model.Court, distanceMiles *float64) courtResponse {
	return courtResponse{
		ID:            court.ID,
		Name:          court.Name,
		City:          court.City,
		Lat:           court.Lat,
		Lng:           court.Lng,
		Indoor:        court.Indoor,
		Rims:          court.Rims,
		Access:        court.Access,
		CreatedAt:     court.CreatedAt,
		DistanceMiles: distanceMiles,
	}
}
