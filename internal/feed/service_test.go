package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/hoopfeed/internal/model"
	"github.com/hitoshi/hoopfeed/internal/repository"
)

// mockSource はテスト用のコンテンツソース。
type mockSource struct {
	name              string
	listSocialFunc    func(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error)
	listNearbyFunc    func(ctx context.Context, q repository.GeoQuery) ([]model.FeedItem, error)
	listDiscoveryFunc func(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error)
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) ListSocial(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error) {
	if m.listSocialFunc == nil {
		return nil, nil
	}
	return m.listSocialFunc(ctx, q)
}

func (m *mockSource) ListNearby(ctx context.Context, q repository.GeoQuery) ([]model.FeedItem, error) {
	if m.listNearbyFunc == nil {
		return nil, nil
	}
	return m.listNearbyFunc(ctx, q)
}

func (m *mockSource) ListDiscovery(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error) {
	if m.listDiscoveryFunc == nil {
		return nil, nil
	}
	return m.listDiscoveryFunc(ctx, q)
}

// mockRelationships はテスト用のRelationshipIndex。
type mockRelationships struct {
	snapshotForFunc func(ctx context.Context, userID string) (*model.RelationshipSnapshot, error)
}

func (m *mockRelationships) SnapshotFor(ctx context.Context, userID string) (*model.RelationshipSnapshot, error) {
	if m.snapshotForFunc == nil {
		return model.NewRelationshipSnapshot(), nil
	}
	return m.snapshotForFunc(ctx, userID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func statusItems(prefix string, n int, createdAt time.Time) []model.FeedItem {
	items := make([]model.FeedItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, model.FeedItem{
			ID:        fmt.Sprintf("status:%s-%d", prefix, i),
			Type:      model.FeedItemTypeStatus,
			UserID:    prefix,
			CreatedAt: createdAt.Add(-time.Duration(i) * time.Minute),
		})
	}
	return items
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  int
	}{
		{"0はデフォルト50", 0, 50},
		{"負数はデフォルト50", -5, 50},
		{"999は100にクランプ", 999, 100},
		{"範囲内はそのまま", 20, 20},
		{"上限ちょうど", 100, 100},
		{"下限ちょうど", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampLimit(tt.input); got != tt.want {
				t.Errorf("ClampLimit(%d) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestUnifiedFeed_MissingViewer(t *testing.T) {
	svc := NewService(nil, &mockRelationships{}, testLogger())

	page := svc.UnifiedFeed(context.Background(), model.Viewer{UserID: "", Mode: model.FeedModeAll})

	if page == nil {
		t.Fatal("page is nil")
	}
	if len(page.Items) != 0 || page.HasMore {
		t.Errorf("want empty envelope, got items=%d hasMore=%v", len(page.Items), page.HasMore)
	}
	if page.Items == nil {
		t.Error("Items should be an empty slice, not nil")
	}
}

func TestUnifiedFeed_RelationshipFailureDegradesToEmpty(t *testing.T) {
	rel := &mockRelationships{
		snapshotForFunc: func(ctx context.Context, userID string) (*model.RelationshipSnapshot, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewService(nil, rel, testLogger())

	page := svc.UnifiedFeed(context.Background(), model.Viewer{UserID: "u1", Mode: model.FeedModeAll})

	if len(page.Items) != 0 || page.HasMore {
		t.Errorf("want empty envelope, got items=%d hasMore=%v", len(page.Items), page.HasMore)
	}
}

func TestUnifiedFeed_SourceFailureDoesNotBlankFeed(t *testing.T) {
	now := time.Now()
	good := &mockSource{
		name: "statuses",
		listSocialFunc: func(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error) {
			return statusItems("u1", 3, now), nil
		},
	}
	broken := &mockSource{
		name: "matches",
		listSocialFunc: func(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error) {
			return nil, errors.New("query failed")
		},
	}

	svc := NewService([]Source{good, broken}, &mockRelationships{}, testLogger())

	page := svc.UnifiedFeed(context.Background(), model.Viewer{
		UserID: "u1",
		Mode:   model.FeedModeFollowing,
		Limit:  10,
	})

	if len(page.Items) != 3 {
		t.Errorf("len(items) = %d, want 3（壊れたソースはフィード全体を空にしない）", len(page.Items))
	}
}

func TestUnifiedFeed_Pagination(t *testing.T) {
	now := time.Now()

	newService := func(total int) *Service {
		src := &mockSource{
			name: "statuses",
			listSocialFunc: func(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error) {
				items := statusItems("u1", total, now)
				if len(items) > q.Limit {
					items = items[:q.Limit]
				}
				return items, nil
			},
		}
		return NewService([]Source{src}, &mockRelationships{}, testLogger())
	}

	t.Run("limit=2に対して3件あればhasMore=true", func(t *testing.T) {
		page := newService(3).UnifiedFeed(context.Background(), model.Viewer{
			UserID: "u1", Mode: model.FeedModeAll, Limit: 2,
		})
		if len(page.Items) != 2 {
			t.Errorf("len(items) = %d, want 2", len(page.Items))
		}
		if !page.HasMore {
			t.Error("hasMore = false, want true")
		}
	})

	t.Run("limit=2に対して1件ならhasMore=false", func(t *testing.T) {
		page := newService(1).UnifiedFeed(context.Background(), model.Viewer{
			UserID: "u1", Mode: model.FeedModeAll, Limit: 2,
		})
		if len(page.Items) != 1 {
			t.Errorf("len(items) = %d, want 1", len(page.Items))
		}
		if page.HasMore {
			t.Error("hasMore = true, want false")
		}
	})

	t.Run("offsetが全件数を超える場合は空ページ", func(t *testing.T) {
		page := newService(3).UnifiedFeed(context.Background(), model.Viewer{
			UserID: "u1", Mode: model.FeedModeAll, Limit: 10, Offset: 100,
		})
		if len(page.Items) != 0 || page.HasMore {
			t.Errorf("want empty page, got items=%d hasMore=%v", len(page.Items), page.HasMore)
		}
	})
}

func TestUnifiedFeed_DeduplicatesAcrossTiers(t *testing.T) {
	now := time.Now()
	lat, lng := 40.7128, -74.0060

	shared := model.FeedItem{
		ID:        "status:shared",
		Type:      model.FeedItemTypeStatus,
		UserID:    "follower-court-poster",
		CourtID:   "court-1",
		CreatedAt: now,
	}

	src := &mockSource{
		name: "statuses",
		listSocialFunc: func(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error) {
			// フォロー中のコートの投稿としてソーシャル層にも現れる
			return []model.FeedItem{shared}, nil
		},
		listNearbyFunc: func(ctx context.Context, q repository.GeoQuery) ([]model.FeedItem, error) {
			// 50マイル層でも同じ投稿が返る
			return []model.FeedItem{shared}, nil
		},
	}

	svc := NewService([]Source{src}, &mockRelationships{}, testLogger())

	page := svc.UnifiedFeed(context.Background(), model.Viewer{
		UserID: "u1",
		Mode:   model.FeedModeForYou,
		Lat:    &lat,
		Lng:    &lng,
		Limit:  10,
	})

	count := 0
	for _, it := range page.Items {
		if it.ID == "status:shared" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("shared item appears %d times, want exactly 1", count)
	}
}

func TestUnifiedFeed_ForYouExpandsRadius(t *testing.T) {
	now := time.Now()
	lat, lng := 40.7128, -74.0060

	var radii []float64
	src := &mockSource{
		name: "statuses",
		listNearbyFunc: func(ctx context.Context, q repository.GeoQuery) ([]model.FeedItem, error) {
			radii = append(radii, q.RadiusMiles)
			if q.RadiusMiles < 250 {
				return nil, nil
			}
			// 250マイルで十分な件数が見つかる
			return statusItems("far", 10, now), nil
		},
	}

	svc := NewService([]Source{src}, &mockRelationships{}, testLogger())

	page := svc.UnifiedFeed(context.Background(), model.Viewer{
		UserID: "u1",
		Mode:   model.FeedModeForYou,
		Lat:    &lat,
		Lng:    &lng,
		Limit:  10,
	})

	// 50 → 100 → 250 と拡大し、limitに達した時点で500は試行しない
	want := []float64{50, 100, 250}
	if len(radii) != len(want) {
		t.Fatalf("radii = %v, want %v", radii, want)
	}
	for i := range want {
		if radii[i] != want[i] {
			t.Errorf("radii[%d] = %f, want %f", i, radii[i], want[i])
		}
	}
	if len(page.Items) != 10 {
		t.Errorf("len(items) = %d, want 10", len(page.Items))
	}
}

func TestUnifiedFeed_ForYouStopsAtFirstSufficientTier(t *testing.T) {
	now := time.Now()
	lat, lng := 40.7128, -74.0060

	var radii []float64
	src := &mockSource{
		name: "statuses",
		listNearbyFunc: func(ctx context.Context, q repository.GeoQuery) ([]model.FeedItem, error) {
			radii = append(radii, q.RadiusMiles)
			return statusItems("near", 20, now), nil
		},
	}

	svc := NewService([]Source{src}, &mockRelationships{}, testLogger())

	svc.UnifiedFeed(context.Background(), model.Viewer{
		UserID: "u1",
		Mode:   model.FeedModeForYou,
		Lat:    &lat,
		Lng:    &lng,
		Limit:  10,
	})

	// 50マイル層で十分なため拡大半径は試行しない
	if len(radii) != 1 || radii[0] != 50 {
		t.Errorf("radii = %v, want [50]", radii)
	}
}

func TestUnifiedFeed_ForYouWithoutLocationFallsBackNetworkWide(t *testing.T) {
	now := time.Now()

	nearbyCalled := false
	discoveryCalled := false
	src := &mockSource{
		name: "statuses",
		listSocialFunc: func(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error) {
			return statusItems("u1", 2, now), nil
		},
		listNearbyFunc: func(ctx context.Context, q repository.GeoQuery) ([]model.FeedItem, error) {
			nearbyCalled = true
			return nil, nil
		},
		listDiscoveryFunc: func(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error) {
			discoveryCalled = true
			return statusItems("network", 10, now), nil
		},
	}

	svc := NewService([]Source{src}, &mockRelationships{}, testLogger())

	page := svc.UnifiedFeed(context.Background(), model.Viewer{
		UserID: "u1",
		Mode:   model.FeedModeForYou,
		Limit:  10,
	})

	if nearbyCalled {
		t.Error("位置情報なしでは半径検索を行わない")
	}
	if !discoveryCalled {
		t.Error("ソーシャル層が不足する場合はネットワーク全体フォールバックを行う")
	}
	if len(page.Items) != 10 {
		t.Errorf("len(items) = %d, want 10", len(page.Items))
	}
}

func TestUnifiedFeed_ForYouSkipsFallbackWhenSocialSufficient(t *testing.T) {
	now := time.Now()

	discoveryCalled := false
	src := &mockSource{
		name: "statuses",
		listSocialFunc: func(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error) {
			return statusItems("u1", 30, now), nil
		},
		listDiscoveryFunc: func(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error) {
			discoveryCalled = true
			return nil, nil
		},
	}

	svc := NewService([]Source{src}, &mockRelationships{}, testLogger())

	svc.UnifiedFeed(context.Background(), model.Viewer{
		UserID: "u1",
		Mode:   model.FeedModeForYou,
		Limit:  10,
	})

	if discoveryCalled {
		t.Error("ソーシャル層が十分な場合はフォールバックを行わない")
	}
}

func TestUnifiedFeed_ForYouSocialTierLimit(t *testing.T) {
	var gotLimit int
	src := &mockSource{
		name: "statuses",
		listSocialFunc: func(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error) {
			gotLimit = q.Limit
			return nil, nil
		},
	}

	svc := NewService([]Source{src}, &mockRelationships{}, testLogger())

	t.Run("limit*3を要求", func(t *testing.T) {
		svc.UnifiedFeed(context.Background(), model.Viewer{
			UserID: "u1", Mode: model.FeedModeForYou, Limit: 20,
		})
		if gotLimit != 60 {
			t.Errorf("social tier limit = %d, want 60", gotLimit)
		}
	})

	t.Run("150で頭打ち", func(t *testing.T) {
		svc.UnifiedFeed(context.Background(), model.Viewer{
			UserID: "u1", Mode: model.FeedModeForYou, Limit: 100,
		})
		if gotLimit != 150 {
			t.Errorf("social tier limit = %d, want 150", gotLimit)
		}
	})
}

func TestUnifiedFeed_DiscoveryShare(t *testing.T) {
	now := time.Now()
	lat, lng := 40.7128, -74.0060

	src := &mockSource{
		name: "statuses",
		listSocialFunc: func(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error) {
			// 自分の投稿が大量にある（すべて非ディスカバリー）
			return statusItems("u1", 60, now), nil
		},
		listNearbyFunc: func(ctx context.Context, q repository.GeoQuery) ([]model.FeedItem, error) {
			if q.RadiusMiles > 50 {
				return nil, nil
			}
			return statusItems("stranger", 20, now.Add(-time.Hour)), nil
		},
	}

	svc := NewService([]Source{src}, &mockRelationships{}, testLogger())

	page := svc.UnifiedFeed(context.Background(), model.Viewer{
		UserID: "u1",
		Mode:   model.FeedModeForYou,
		Lat:    &lat,
		Lng:    &lng,
		Limit:  50,
	})

	if len(page.Items) != 50 {
		t.Fatalf("len(items) = %d, want 50", len(page.Items))
	}

	// limit=50に対して最低max(2, floor(50*0.2))=10件のディスカバリーを含む
	discoveryCount := 0
	for _, it := range page.Items {
		if it.UserID == "stranger" {
			discoveryCount++
		}
	}
	if discoveryCount < 10 {
		t.Errorf("discovery items = %d, want >= 10", discoveryCount)
	}
}

func TestUnifiedFeed_InvalidModeDefaultsToAll(t *testing.T) {
	socialCalled := false
	src := &mockSource{
		name: "statuses",
		listSocialFunc: func(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error) {
			socialCalled = true
			return nil, nil
		},
	}

	svc := NewService([]Source{src}, &mockRelationships{}, testLogger())
	svc.UnifiedFeed(context.Background(), model.Viewer{UserID: "u1", Mode: "bogus"})

	if !socialCalled {
		t.Error("不正なモードはallとして扱いソーシャルクエリを行う")
	}
}

// captureRecorder はRecorderの呼び出しを記録するテスト用実装。
type captureRecorder struct {
	requests  []string
	failures  []string
	tiers     []int
	degraded  []string
	latencies []time.Duration
}

func (r *captureRecorder) FeedRequest(mode string)           { r.requests = append(r.requests, mode) }
func (r *captureRecorder) SourceFailure(source string)       { r.failures = append(r.failures, source) }
func (r *captureRecorder) GeoTier(radiusMiles int)           { r.tiers = append(r.tiers, radiusMiles) }
func (r *captureRecorder) FeedDegraded(reason string)        { r.degraded = append(r.degraded, reason) }
func (r *captureRecorder) RecordFeedLatency(d time.Duration) { r.latencies = append(r.latencies, d) }

func TestUnifiedFeed_RecordsObservations(t *testing.T) {
	rec := &captureRecorder{}
	src := &mockSource{
		name: "status",
		listSocialFunc: func(ctx context.Context, q repository.FeedQuery) ([]model.FeedItem, error) {
			return statusItems("u2", 3, time.Now()), nil
		},
	}
	svc := NewService([]Source{src}, &mockRelationships{}, testLogger(), WithRecorder(rec))

	svc.UnifiedFeed(context.Background(), model.Viewer{UserID: "u1", Mode: model.FeedModeFollowing, Limit: 10})

	if len(rec.requests) != 1 || rec.requests[0] != "following" {
		t.Errorf("requests = %v, want [following]", rec.requests)
	}
	if len(rec.latencies) != 1 {
		t.Fatalf("latencies = %v, want exactly one observation", rec.latencies)
	}
	if rec.latencies[0] < 0 {
		t.Errorf("latency = %v, want non-negative", rec.latencies[0])
	}
	if len(rec.degraded) != 0 {
		t.Errorf("degraded = %v, want none", rec.degraded)
	}
}

func TestUnifiedFeed_RecordsDegradationReason(t *testing.T) {
	rec := &captureRecorder{}
	rel := &mockRelationships{
		snapshotForFunc: func(ctx context.Context, userID string) (*model.RelationshipSnapshot, error) {
			return nil, errors.New("redis down")
		},
	}
	svc := NewService(nil, rel, testLogger(), WithRecorder(rec))

	svc.UnifiedFeed(context.Background(), model.Viewer{UserID: "u1", Mode: model.FeedModeAll})

	if len(rec.degraded) != 1 || rec.degraded[0] != "relationship_snapshot" {
		t.Errorf("degraded = %v, want [relationship_snapshot]", rec.degraded)
	}
	// 縮退時もレイテンシは記録される
	if len(rec.latencies) != 1 {
		t.Errorf("latencies = %v, want exactly one observation", rec.latencies)
	}
}
