// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は投稿・コメントのユーザー入力をサニタイズし、
// XSS攻撃などのセキュリティリスクから他の閲覧者を保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 投稿本文はプレーンテキストとして扱い、HTMLタグをすべて除去する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はユーザー入力のサニタイズ機能のインターフェースを定義する。
// 投稿・コメントの保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize はユーザー入力からHTMLタグをすべて除去し、
	// 前後の空白をトリムしたプレーンテキストを返す。
	// scriptタグ、on*イベント属性、インラインスタイルを含むあらゆるマークアップが除去される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 投稿本文はリッチテキストを想定しないため、StrictPolicy（全タグ除去）を用いる。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はユーザー入力からHTMLタグを除去したプレーンテキストを返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
