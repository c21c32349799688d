// Package model はドメインモデルを定義する。
package model

import "time"

// Status はプレイヤーの投稿（ステータス）を表す。
// scheduled_atが設定されている場合は予定されたラン（ピックアップゲームの募集）を表す。
type Status struct {
	ID          string
	UserID      string
	Content     string // サニタイズ済み
	ImageURL    string
	CourtID     string
	ScheduledAt *time.Time
	CreatedAt   time.Time
}

// StatusDetail は投稿とエンゲージメント集計を結合した読み取りモデル。
type StatusDetail struct {
	Status
	UserName      string
	UserPhotoURL  string
	CourtName     string
	LikeCount     int
	CommentCount  int
	AttendeeCount int
	IsLikedByMe   bool
	IsAttending   bool
}

// StatusComment は投稿へのコメントを表す。
type StatusComment struct {
	ID           string
	StatusID     string
	UserID       string
	UserName     string
	UserPhotoURL string
	Content      string
	CreatedAt    time.Time
}

// Reaction はいいね・参加表明など、投稿に対するユーザーの反応を表す。
// likes/attendees一覧のレスポンスで共用する。
type Reaction struct {
	UserID       string
	UserName     string
	UserPhotoURL string
	CreatedAt    time.Time
}
