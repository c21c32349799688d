// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, feed, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeStatusNotFound  = "STATUS_NOT_FOUND"
	ErrCodeCourtNotFound   = "COURT_NOT_FOUND"
	ErrCodeCommentNotFound = "COMMENT_NOT_FOUND"
	ErrCodeInvalidFilter   = "INVALID_FILTER"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeEmptyContent    = "EMPTY_CONTENT"
	ErrCodeNotOwner        = "NOT_OWNER"
	ErrCodeSelfFollow      = "SELF_FOLLOW"
)

// NewStatusNotFoundError は投稿未検出エラーを生成する。
func NewStatusNotFoundError(statusID string) *APIError {
	return &APIError{
		Code:     ErrCodeStatusNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", statusID),
		Category: "feed",
		Action:   "投稿IDを確認してください。",
	}
}

// NewCourtNotFoundError はコート未検出エラーを生成する。
func NewCourtNotFoundError(courtID string) *APIError {
	return &APIError{
		Code:     ErrCodeCourtNotFound,
		Message:  fmt.Sprintf("指定されたコートが見つかりません: %s", courtID),
		Category: "feed",
		Action:   "コートIDを確認してください。",
	}
}

// NewCommentNotFoundError はコメント未検出エラーを生成する。
func NewCommentNotFoundError(commentID string) *APIError {
	return &APIError{
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("指定されたコメントが見つかりません: %s", commentID),
		Category: "feed",
		Action:   "コメントIDを確認してください。",
	}
}

// NewInvalidFilterError は無効なフィルタエラーを生成する。
func NewInvalidFilterError(filter string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFilter,
		Message:  fmt.Sprintf("無効なフィルタです: %s", filter),
		Category: "validation",
		Action:   "フィルタには all、following、foryou のいずれかを指定してください。",
	}
}

// NewEmptyContentError は本文が空の投稿に対するエラーを生成する。
func NewEmptyContentError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyContent,
		Message:  "投稿の本文が空です。",
		Category: "validation",
		Action:   "本文を入力してください。",
	}
}

// NewNotOwnerError は所有者以外による削除操作に対するエラーを生成する。
func NewNotOwnerError() *APIError {
	return &APIError{
		Code:     ErrCodeNotOwner,
		Message:  "この操作は投稿の所有者のみが実行できます。",
		Category: "auth",
		Action:   "自分の投稿に対してのみ実行してください。",
	}
}

// NewSelfFollowError は自分自身のフォロー操作に対するエラーを生成する。
func NewSelfFollowError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfFollow,
		Message:  "自分自身をフォローすることはできません。",
		Category: "validation",
		Action:   "他のプレイヤーを指定してください。",
	}
}
