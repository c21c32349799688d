package feed

import "github.com/hitoshi/hoopfeed/internal/model"

// Deduplicator は1リクエスト内の複数クエリ（ソーシャル + 各ジオ層）を
// またいでアイテムIDの重複を排除する。
// ソーシャルクエリとジオクエリは同一の元データを参照するため、
// フォロー中のコートが同時に近隣でもある場合などに正当に重複が発生する。
// 最初に見たアイテムを採用し、以降の同一IDは捨てる。
type Deduplicator struct {
	seen  map[string]bool
	items []model.FeedItem
}

// NewDeduplicator はDeduplicatorを生成する。
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]bool)}
}

// Add は候補アイテム群をマージする。既出のIDはスキップし、
// 新規に採用した件数を返す。
func (d *Deduplicator) Add(items []model.FeedItem) int {
	added := 0
	for _, item := range items {
		if d.seen[item.ID] {
			continue
		}
		d.seen[item.ID] = true
		d.items = append(d.items, item)
		added++
	}
	return added
}

// Len は採用済みアイテムの件数を返す。
func (d *Deduplicator) Len() int {
	return len(d.items)
}

// Items は採用済みアイテムを最初に見た順で返す。
func (d *Deduplicator) Items() []model.FeedItem {
	return d.items
}
