// Package model はドメインモデルを定義する。
package model

import "time"

// Match は完了した1v1マッチの読み取り専用プロジェクション。
// マッチのライフサイクル（作成・受諾・スコア確定）は外部のマッチ決済サービスが所有し、
// フィードエンジンはcompletedのマッチのみを参照する。
type Match struct {
	ID             string
	CreatorID      string
	OpponentID     string
	WinnerID       string
	WinnerName     string
	WinnerPhotoURL string
	CourtID        string
	CourtName      string
	ScoreCreator   int
	ScoreOpponent  int
	CreatedAt      time.Time
}

// TeamMatch は完了したチームマッチの読み取り専用プロジェクション。
// WinnerUserIDは勝利チームのキャプテンを指し、フィード上の行為者として扱う。
type TeamMatch struct {
	ID             string
	HomeTeamID     string
	AwayTeamID     string
	WinnerTeamID   string
	WinnerUserID   string
	WinnerName     string
	WinnerPhotoURL string
	CourtID        string
	CourtName      string
	ScoreHome      int
	ScoreAway      int
	CreatedAt      time.Time
}
