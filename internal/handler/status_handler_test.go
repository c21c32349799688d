package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/hoopfeed/internal/model"
	"github.com/hitoshi/hoopfeed/internal/status"
)

// mockStatusService はStatusServiceInterfaceのモック実装。
type mockStatusService struct {
	createStatusFn  func(ctx context.Context, userID string, input status.CreateStatusInput) (*model.StatusDetail, error)
	getStatusFn     func(ctx context.Context, statusID, viewerID string) (*model.StatusDetail, error)
	deleteStatusFn  func(ctx context.Context, statusID, userID string) error
	likeStatusFn    func(ctx context.Context, statusID, userID string) error
	unlikeStatusFn  func(ctx context.Context, statusID, userID string) error
	listLikesFn     func(ctx context.Context, statusID string) ([]model.Reaction, error)
	addCommentFn    func(ctx context.Context, statusID, userID, content string) (*model.StatusComment, error)
	listCommentsFn  func(ctx context.Context, statusID string) ([]model.StatusComment, error)
	deleteCommentFn func(ctx context.Context, commentID, userID string) error
	attendFn        func(ctx context.Context, statusID, userID string) error
	unattendFn      func(ctx context.Context, statusID, userID string) error
	listAttendeesFn func(ctx context.Context, statusID string) ([]model.Reaction, error)
}

func (m *mockStatusService) CreateStatus(ctx context.Context, userID string, input status.CreateStatusInput) (*model.StatusDetail, error) {
	if m.createStatusFn != nil {
		return m.createStatusFn(ctx, userID, input)
	}
	return &model.StatusDetail{}, nil
}

func (m *mockStatusService) GetStatus(ctx context.Context, statusID, viewerID string) (*model.StatusDetail, error) {
	if m.getStatusFn != nil {
		return m.getStatusFn(ctx, statusID, viewerID)
	}
	return &model.StatusDetail{}, nil
}

func (m *mockStatusService) DeleteStatus(ctx context.Context, statusID, userID string) error {
	if m.deleteStatusFn != nil {
		return m.deleteStatusFn(ctx, statusID, userID)
	}
	return nil
}

func (m *mockStatusService) LikeStatus(ctx context.Context, statusID, userID string) error {
	if m.likeStatusFn != nil {
		return m.likeStatusFn(ctx, statusID, userID)
	}
	return nil
}

func (m *mockStatusService) UnlikeStatus(ctx context.Context, statusID, userID string) error {
	if m.unlikeStatusFn != nil {
		return m.unlikeStatusFn(ctx, statusID, userID)
	}
	return nil
}

func (m *mockStatusService) ListLikes(ctx context.Context, statusID string) ([]model.Reaction, error) {
	if m.listLikesFn != nil {
		return m.listLikesFn(ctx, statusID)
	}
	return nil, nil
}

func (m *mockStatusService) AddComment(ctx context.Context, statusID, userID, content string) (*model.StatusComment, error) {
	if m.addCommentFn != nil {
		return m.addCommentFn(ctx, statusID, userID, content)
	}
	return &model.StatusComment{}, nil
}

func (m *mockStatusService) ListComments(ctx context.Context, statusID string) ([]model.StatusComment, error) {
	if m.listCommentsFn != nil {
		return m.listCommentsFn(ctx, statusID)
	}
	return nil, nil
}

func (m *mockStatusService) DeleteComment(ctx context.Context, commentID, userID string) error {
	if m.deleteCommentFn != nil {
		return m.deleteCommentFn(ctx, commentID, userID)
	}
	return nil
}

func (m *mockStatusService) Attend(ctx context.Context, statusID, userID string) error {
	if m.attendFn != nil {
		return m.attendFn(ctx, statusID, userID)
	}
	return nil
}

func (m *mockStatusService) Unattend(ctx context.Context, statusID, userID string) error {
	if m.unattendFn != nil {
		return m.unattendFn(ctx, statusID, userID)
	}
	return nil
}

func (m *mockStatusService) ListAttendees(ctx context.Context, statusID string) ([]model.Reaction, error) {
	if m.listAttendeesFn != nil {
		return m.listAttendeesFn(ctx, statusID)
	}
	return nil, nil
}

// --- POST /statuses テスト ---

func TestStatusHandler_CreateStatus_Success(t *testing.T) {
	svc := &mockStatusService{
		createStatusFn: func(ctx context.Context, userID string, input status.CreateStatusInput) (*model.StatusDetail, error) {
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			if input.Content != "5on5やりましょう" {
				t.Errorf("content = %q, want %q", input.Content, "5on5やりましょう")
			}
			if input.CourtID != "court-1" {
				t.Errorf("courtID = %q, want %q", input.CourtID, "court-1")
			}
			return &model.StatusDetail{
				Status: model.Status{
					ID:        "status:abc",
					UserID:    userID,
					Content:   input.Content,
					CourtID:   input.CourtID,
					CreatedAt: time.Now(),
				},
				CourtName: "Riverside Park",
			}, nil
		},
	}

	h := NewStatusHandler(svc)

	body := `{"content": "5on5やりましょう", "courtId": "court-1"}`
	req := httptest.NewRequest(http.MethodPost, "/statuses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.CreateStatus(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var res statusResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.ID != "status:abc" {
		t.Errorf("id = %q, want %q", res.ID, "status:abc")
	}
	if res.CourtName != "Riverside Park" {
		t.Errorf("courtName = %q, want %q", res.CourtName, "Riverside Park")
	}
}

func TestStatusHandler_CreateStatus_NoUserID_Returns401(t *testing.T) {
	h := NewStatusHandler(&mockStatusService{})

	req := httptest.NewRequest(http.MethodPost, "/statuses", bytes.NewBufferString(`{"content":"x"}`))
	w := httptest.NewRecorder()

	h.CreateStatus(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestStatusHandler_CreateStatus_InvalidBody_Returns400(t *testing.T) {
	h := NewStatusHandler(&mockStatusService{})

	req := httptest.NewRequest(http.MethodPost, "/statuses", bytes.NewBufferString(`{invalid`))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.CreateStatus(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}

	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeInvalidRequest)
	}
}

func TestStatusHandler_CreateStatus_EmptyContent_Returns400(t *testing.T) {
	svc := &mockStatusService{
		createStatusFn: func(ctx context.Context, userID string, input status.CreateStatusInput) (*model.StatusDetail, error) {
			return nil, model.NewEmptyContentError()
		},
	}

	h := NewStatusHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/statuses", bytes.NewBufferString(`{"content":"<p></p>"}`))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.CreateStatus(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}

	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeEmptyContent {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeEmptyContent)
	}
}

// --- GET /statuses/:id テスト ---

func TestStatusHandler_GetStatus_Success(t *testing.T) {
	svc := &mockStatusService{
		getStatusFn: func(ctx context.Context, statusID, viewerID string) (*model.StatusDetail, error) {
			if statusID != "status:1" {
				t.Errorf("statusID = %q, want %q", statusID, "status:1")
			}
			if viewerID != "user-123" {
				t.Errorf("viewerID = %q, want %q", viewerID, "user-123")
			}
			return &model.StatusDetail{
				Status:      model.Status{ID: statusID, UserID: "author-1", Content: "run at 6"},
				LikeCount:   3,
				IsLikedByMe: true,
			}, nil
		},
	}

	h := NewStatusHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/statuses/status:1", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "status:1")
	w := httptest.NewRecorder()

	h.GetStatus(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var res statusResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.LikeCount != 3 || !res.IsLikedByMe {
		t.Errorf("likeCount = %d isLikedByMe = %v, want 3/true", res.LikeCount, res.IsLikedByMe)
	}
}

func TestStatusHandler_GetStatus_NotFound_Returns404(t *testing.T) {
	svc := &mockStatusService{
		getStatusFn: func(ctx context.Context, statusID, viewerID string) (*model.StatusDetail, error) {
			return nil, model.NewStatusNotFoundError(statusID)
		},
	}

	h := NewStatusHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/statuses/status:missing", nil)
	req = withChiURLParam(req, "id", "status:missing")
	w := httptest.NewRecorder()

	h.GetStatus(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

// --- DELETE /statuses/:id テスト ---

func TestStatusHandler_DeleteStatus_Success(t *testing.T) {
	svc := &mockStatusService{
		deleteStatusFn: func(ctx context.Context, statusID, userID string) error {
			if statusID != "status:1" || userID != "user-123" {
				t.Errorf("got (%q, %q), want (status:1, user-123)", statusID, userID)
			}
			return nil
		},
	}

	h := NewStatusHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/statuses/status:1", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "status:1")
	w := httptest.NewRecorder()

	h.DeleteStatus(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
}

func TestStatusHandler_DeleteStatus_NoUserID_Returns401(t *testing.T) {
	h := NewStatusHandler(&mockStatusService{})

	req := httptest.NewRequest(http.MethodDelete, "/statuses/status:1", nil)
	req = withChiURLParam(req, "id", "status:1")
	w := httptest.NewRecorder()

	h.DeleteStatus(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// --- エンゲージメント系テスト ---

func TestStatusHandler_LikeStatus_Success(t *testing.T) {
	liked := false
	svc := &mockStatusService{
		likeStatusFn: func(ctx context.Context, statusID, userID string) error {
			liked = true
			return nil
		},
	}

	h := NewStatusHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/statuses/status:1/like", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "status:1")
	w := httptest.NewRecorder()

	h.LikeStatus(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if !liked {
		t.Error("expected LikeStatus to be called")
	}
}

func TestStatusHandler_LikeStatus_UnknownStatus_Returns404(t *testing.T) {
	svc := &mockStatusService{
		likeStatusFn: func(ctx context.Context, statusID, userID string) error {
			return model.NewStatusNotFoundError(statusID)
		},
	}

	h := NewStatusHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/statuses/status:missing/like", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "status:missing")
	w := httptest.NewRecorder()

	h.LikeStatus(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestStatusHandler_ListLikes_ReturnsReactions(t *testing.T) {
	svc := &mockStatusService{
		listLikesFn: func(ctx context.Context, statusID string) ([]model.Reaction, error) {
			return []model.Reaction{
				{UserID: "user-a", UserName: "Alice"},
				{UserID: "user-b", UserName: "Bob"},
			}, nil
		},
	}

	h := NewStatusHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/statuses/status:1/likes", nil)
	req = withChiURLParam(req, "id", "status:1")
	w := httptest.NewRecorder()

	h.ListLikes(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var res []reactionResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("len = %d, want 2", len(res))
	}
	if res[0].UserID != "user-a" || res[1].UserID != "user-b" {
		t.Errorf("unexpected reactions: %+v", res)
	}
}

func TestStatusHandler_Attend_Success(t *testing.T) {
	svc := &mockStatusService{
		attendFn: func(ctx context.Context, statusID, userID string) error {
			return nil
		},
	}

	h := NewStatusHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/statuses/status:1/attend", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "status:1")
	w := httptest.NewRecorder()

	h.Attend(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
}

// --- コメント系テスト ---

func TestStatusHandler_AddComment_Success(t *testing.T) {
	svc := &mockStatusService{
		addCommentFn: func(ctx context.Context, statusID, userID, content string) (*model.StatusComment, error) {
			if statusID != "status:1" || userID != "user-123" {
				t.Errorf("got (%q, %q), want (status:1, user-123)", statusID, userID)
			}
			return &model.StatusComment{
				ID:       "comment-1",
				StatusID: statusID,
				UserID:   userID,
				Content:  content,
			}, nil
		},
	}

	h := NewStatusHandler(svc)

	body := `{"content": "参加します"}`
	req := httptest.NewRequest(http.MethodPost, "/statuses/status:1/comments", bytes.NewBufferString(body))
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "status:1")
	w := httptest.NewRecorder()

	h.AddComment(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}

	var res commentResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.ID != "comment-1" || res.Content != "参加します" {
		t.Errorf("unexpected comment: %+v", res)
	}
}

func TestStatusHandler_DeleteComment_UsesCommentIDParam(t *testing.T) {
	var capturedCommentID string
	svc := &mockStatusService{
		deleteCommentFn: func(ctx context.Context, commentID, userID string) error {
			capturedCommentID = commentID
			return nil
		},
	}

	h := NewStatusHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/statuses/status:1/comments/comment-9", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "commentID", "comment-9")
	w := httptest.NewRecorder()

	h.DeleteComment(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if capturedCommentID != "comment-9" {
		t.Errorf("commentID = %q, want %q", capturedCommentID, "comment-9")
	}
}

func TestStatusHandler_ListComments_ReturnsEmptyArray(t *testing.T) {
	h := NewStatusHandler(&mockStatusService{})

	req := httptest.NewRequest(http.MethodGet, "/statuses/status:1/comments", nil)
	req = withChiURLParam(req, "id", "status:1")
	w := httptest.NewRecorder()

	h.ListComments(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	// コメントが無い場合もnullではなく空配列
	if got := w.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want %q", got, "[]\n")
	}
}
