// Package events はアクティビティイベントのKafkaへの発行を提供する。
//
// 投稿・いいね・コメント・参加表明・フォローの各操作は通知ファンアウトなどの
// 下流コンシューマ向けにイベントとして発行される。発行は投げっぱなしで、
// Kafkaの障害が書き込みリクエストを失敗させることはない。
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// イベント種別
const (
	TypeStatusCreated  = "status.created"
	TypeStatusLiked    = "status.liked"
	TypeStatusComment  = "status.commented"
	TypeStatusAttended = "status.attended"
	TypePlayerFollowed = "player.followed"
	TypeCourtFollowed  = "court.followed"
)

// ActivityEvent はKafkaへ発行するアクティビティイベントのワイヤ形式。
type ActivityEvent struct {
	Type       string    `json:"type"`
	ActorID    string    `json:"actorId"`
	TargetID   string    `json:"targetId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Producer はアクティビティイベントの発行インターフェース。
type Producer interface {
	// Publish はイベントを発行する。失敗はログに記録するのみで、
	// 呼び出し元にエラーを返さない。
	Publish(ctx context.Context, eventType, actorID, targetID string)

	// Close はプロデューサを閉じる。
	Close() error
}

// Recorder はイベント発行の観測フック。
type Recorder interface {
	RecordEventPublished(eventType string)
}

// nopRecorder は何も記録しないRecorder。
type nopRecorder struct{}

func (nopRecorder) RecordEventPublished(string) {}

// Option はKafkaProducerの構成オプション。
type Option func(*KafkaProducer)

// WithRecorder は発行イベントの記録先を設定する。
func WithRecorder(r Recorder) Option {
	return func(p *KafkaProducer) {
		if r != nil {
			p.recorder = r
		}
	}
}

// KafkaProducer はkafka-goのWriterを使ったProducer実装。
type KafkaProducer struct {
	writer   *kafka.Writer
	logger   *slog.Logger
	recorder Recorder
}

// NewKafkaProducer はKafkaProducerを生成する。
// 非同期書き込みのため、WriteMessagesはブローカ応答を待たない。
func NewKafkaProducer(brokers []string, topic string, logger *slog.Logger, opts ...Option) *KafkaProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
	}
	p := &KafkaProducer{writer: w, logger: logger, recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish はイベントをJSONとして発行する。actorIDをキーにして
// 同一ユーザーのイベント順序をパーティション内で保つ。
func (p *KafkaProducer) Publish(ctx context.Context, eventType, actorID, targetID string) {
	event := ActivityEvent{
		Type:       eventType,
		ActorID:    actorID,
		TargetID:   targetID,
		OccurredAt: time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("アクティビティイベントのエンコードに失敗しました", "type", eventType, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(actorID),
		Value: value,
		Time:  event.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("アクティビティイベントの発行に失敗しました", "type", eventType, "error", err)
		return
	}
	p.recorder.RecordEventPublished(eventType)
}

// Close はWriterを閉じ、バッファ済みメッセージをフラッシュする。
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// NopProducer はKafka未構成時に使う何もしないProducer。
type NopProducer struct{}

func (NopProducer) Publish(ctx context.Context, eventType, actorID, targetID string) {}
func (NopProducer) Close() error                                                     { return nil }

var (
	_ Producer = (*KafkaProducer)(nil)
	_ Producer = NopProducer{}
)
