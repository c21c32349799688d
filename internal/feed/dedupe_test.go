package feed

import (
	"testing"

	"github.com/hitoshi/hoopfeed/internal/model"
)

func TestDeduplicator_DropsDuplicateIDs(t *testing.T) {
	dedup := NewDeduplicator()

	social := []model.FeedItem{
		{ID: "status:1"},
		{ID: "match:1"},
	}
	// ジオ層がソーシャル層と同じ投稿を返すケース
	// （フォロー中のコートが近隣でもある場合に正当に発生する）
	nearby := []model.FeedItem{
		{ID: "status:1"},
		{ID: "status:2"},
	}

	if added := dedup.Add(social); added != 2 {
		t.Errorf("first Add = %d, want 2", added)
	}
	if added := dedup.Add(nearby); added != 1 {
		t.Errorf("second Add = %d, want 1", added)
	}

	items := dedup.Items()
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}

	// 最初に見た順序を保存する
	wantOrder := []string{"status:1", "match:1", "status:2"}
	for i, want := range wantOrder {
		if items[i].ID != want {
			t.Errorf("items[%d].ID = %s, want %s", i, items[i].ID, want)
		}
	}
}

func TestDeduplicator_Empty(t *testing.T) {
	dedup := NewDeduplicator()
	if dedup.Len() != 0 {
		t.Errorf("Len() = %d, want 0", dedup.Len())
	}
	if added := dedup.Add(nil); added != 0 {
		t.Errorf("Add(nil) = %d, want 0", added)
	}
}
