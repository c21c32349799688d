// Package model はドメインモデルを定義する。
package model

import "time"

// Court はバスケットコート（物理会場）を表す。
// 座標はフィードのジオフォールバック検索に使用される。
type Court struct {
	ID        string
	Name      string
	City      string
	Lat       float64
	Lng       float64
	Indoor    bool
	Rims      int
	Access    string // 'public' | 'members' | 'paid'
	CreatedAt time.Time
}

// CourtWithDistance はコートと検索地点からの距離（マイル）を結合した読み取りモデル。
type CourtWithDistance struct {
	Court
	DistanceMiles float64
}
