package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/hoopfeed/internal/model"
)

// mockFollowService はFollowServiceInterfaceのモック実装。
type mockFollowService struct {
	followPlayerFn   func(ctx context.Context, followerID, followedID string) error
	unfollowPlayerFn func(ctx context.Context, followerID, followedID string) error
	followCourtFn    func(ctx context.Context, userID, courtID string) error
	unfollowCourtFn  func(ctx context.Context, userID, courtID string) error
	snapshotForFn    func(ctx context.Context, userID string) (*model.RelationshipSnapshot, error)
}

func (m *mockFollowService) SnapshotFor(ctx context.Context, userID string) (*model.RelationshipSnapshot, error) {
	if m.snapshotForFn != nil {
		return m.snapshotForFn(ctx, userID)
	}
	return model.NewRelationshipSnapshot(), nil
}

func (m *mockFollowService) FollowPlayer(ctx context.Context, followerID, followedID string) error {
	if m.followPlayerFn != nil {
		return m.followPlayerFn(ctx, followerID, followedID)
	}
	return nil
}

func (m *mockFollowService) UnfollowPlayer(ctx context.Context, followerID, followedID string) error {
	if m.unfollowPlayerFn != nil {
		return m.unfollowPlayerFn(ctx, followerID, followedID)
	}
	return nil
}

func (m *mockFollowService) FollowCourt(ctx context.Context, userID, courtID string) error {
	if m.followCourtFn != nil {
		return m.followCourtFn(ctx, userID, courtID)
	}
	return nil
}

func (m *mockFollowService) UnfollowCourt(ctx context.Context, userID, courtID string) error {
	if m.unfollowCourtFn != nil {
		return m.unfollowCourtFn(ctx, userID, courtID)
	}
	return nil
}

func TestFollowHandler_FollowPlayer_Success(t *testing.T) {
	svc := &mockFollowService{
		followPlayerFn: func(ctx context.Context, followerID, followedID string) error {
			if followerID != "user-123" || followedID != "user-456" {
				t.Errorf("got (%q, %q), want (user-123, user-456)", followerID, followedID)
			}
			return nil
		},
	}

	h := NewFollowHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/follows/players/user-456", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "user-456")
	w := httptest.NewRecorder()

	h.FollowPlayer(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
}

func TestFollowHandler_FollowPlayer_SelfFollow_Returns400(t *testing.T) {
	svc := &mockFollowService{
		followPlayerFn: func(ctx context.Context, followerID, followedID string) error {
			return model.NewSelfFollowError()
		},
	}

	h := NewFollowHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/follows/players/user-123", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "user-123")
	w := httptest.NewRecorder()

	h.FollowPlayer(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}

	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeSelfFollow {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeSelfFollow)
	}
}

func TestFollowHandler_FollowPlayer_NoUserID_Returns401(t *testing.T) {
	h := NewFollowHandler(&mockFollowService{})

	req := httptest.NewRequest(http.MethodPost, "/follows/players/user-456", nil)
	req = withChiURLParam(req, "id", "user-456")
	w := httptest.NewRecorder()

	h.FollowPlayer(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestFollowHandler_FollowCourt_UnknownCourt_Returns404(t *testing.T) {
	svc := &mockFollowService{
		followCourtFn: func(ctx context.Context, userID, courtID string) error {
			return model.NewCourtNotFoundError(courtID)
		},
	}

	h := NewFollowHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/follows/courts/court-missing", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "court-missing")
	w := httptest.NewRecorder()

	h.FollowCourt(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestFollowHandler_UnfollowPlayer_Success(t *testing.T) {
	unfollowed := false
	svc := &mockFollowService{
		unfollowPlayerFn: func(ctx context.Context, followerID, followedID string) error {
			unfollowed = true
			return nil
		},
	}

	h := NewFollowHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/follows/players/user-456", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "user-456")
	w := httptest.NewRecorder()

	h.UnfollowPlayer(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if !unfollowed {
		t.Error("expected UnfollowPlayer to be called")
	}
}

func TestFollowHandler_UnfollowCourt_Success(t *testing.T) {
	svc := &mockFollowService{
		unfollowCourtFn: func(ctx context.Context, userID, courtID string) error {
			if courtID != "court-1" {
				t.Errorf("courtID = %q, want %q", courtID, "court-1")
			}
			return nil
		},
	}

	h := NewFollowHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/follows/courts/court-1", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "court-1")
	w := httptest.NewRecorder()

	h.UnfollowCourt(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
}

func TestFollowHandler_ListFollows_Success(t *testing.T) {
	svc := &mockFollowService{
		snapshotForFn: func(ctx context.Context, userID string) (*model.RelationshipSnapshot, error) {
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			return &model.RelationshipSnapshot{
				FollowedPlayerIDs: map[string]bool{"user-b": true, "user-a": true},
				FollowedCourtIDs:  map[string]bool{"court-1": true},
			}, nil
		},
	}

	h := NewFollowHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/follows", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.ListFollows(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var body struct {
		PlayerIDs []string `json:"playerIds"`
		CourtIDs  []string `json:"courtIds"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}

	// キーはソート済みで返る
	if len(body.PlayerIDs) != 2 || body.PlayerIDs[0] != "user-a" || body.PlayerIDs[1] != "user-b" {
		t.Errorf("playerIds = %v, want [user-a user-b]", body.PlayerIDs)
	}
	if len(body.CourtIDs) != 1 || body.CourtIDs[0] != "court-1" {
		t.Errorf("courtIds = %v, want [court-1]", body.CourtIDs)
	}
}

func TestFollowHandler_ListFollows_EmptySnapshot_ReturnsEmptyArrays(t *testing.T) {
	h := NewFollowHandler(&mockFollowService{})

	req := httptest.NewRequest(http.MethodGet, "/follows", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.ListFollows(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	// 空でもnullではなく[]を返す
	body := w.Body.String()
	if body != "{\"playerIds\":[],\"courtIds\":[]}\n" {
		t.Errorf("body = %q, want empty arrays", body)
	}
}

func TestFollowHandler_ListFollows_NoUserID_Returns401(t *testing.T) {
	h := NewFollowHandler(&mockFollowService{})

	req := httptest.NewRequest(http.MethodGet, "/follows", nil)
	w := httptest.NewRecorder()

	h.ListFollows(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}
