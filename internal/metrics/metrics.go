// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// フィードエンジンとハンドラー層から利用する。
type MetricsCollector interface {
	FeedRequest(mode string)
	SourceFailure(source string)
	GeoTier(radiusMiles int)
	FeedDegraded(reason string)
	RecordFeedLatency(duration time.Duration)
	RecordEventPublished(eventType string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	feedRequests    *prometheus.CounterVec
	sourceFailures  *prometheus.CounterVec
	geoTiers        *prometheus.CounterVec
	feedDegraded    *prometheus.CounterVec
	feedLatency     prometheus.Histogram
	eventsPublished *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		feedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hoopfeed_feed_requests_total",
			Help: "モード別のフィードリクエスト数",
		}, []string{"mode"}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hoopfeed_source_failures_total",
			Help: "コンテンツソース別の部分失敗数",
		}, []string{"source"}),
		geoTiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hoopfeed_geo_tier_total",
			Help: "到達したジオティア（半径マイル）別のリクエスト数",
		}, []string{"radius_miles"}),
		feedDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hoopfeed_feed_degraded_total",
			Help: "空エンベロープへ縮退したフィードリクエスト数",
		}, []string{"reason"}),
		feedLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hoopfeed_feed_latency_seconds",
			Help:    "フィード組み立てのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hoopfeed_events_published_total",
			Help: "発行されたアクティビティイベント数",
		}, []string{"event_type"}),
	}

	reg.MustRegister(
		c.feedRequests,
		c.sourceFailures,
		c.geoTiers,
		c.feedDegraded,
		c.feedLatency,
		c.eventsPublished,
	)

	return c
}

// FeedRequest はモード別のフィードリクエストを記録する。
func (c *Collector) FeedRequest(mode string) {
	c.feedRequests.WithLabelValues(mode).Inc()
}

// SourceFailure はコンテンツソースの部分失敗を記録する。
func (c *Collector) SourceFailure(source string) {
	c.sourceFailures.WithLabelValues(source).Inc()
}

// GeoTier は到達したジオティアを記録する。
func (c *Collector) GeoTier(radiusMiles int) {
	c.geoTiers.WithLabelValues(strconv.Itoa(radiusMiles)).Inc()
}

// FeedDegraded は空エンベロープへの縮退を記録する。
func (c *Collector) FeedDegraded(reason string) {
	c.feedDegraded.WithLabelValues(reason).Inc()
}

// RecordFeedLatency はフィード組み立てのレイテンシを記録する。
func (c *Collector) RecordFeedLatency(duration time.Duration) {
	c.feedLatency.Observe(duration.Seconds())
}

// RecordEventPublished はアクティビティイベントの発行を記録する。
func (c *Collector) RecordEventPublished(eventType string) {
	c.eventsPublished.WithLabelValues(eventType).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
