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
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordTopicCreated()
	RecordPostCreated()
	RecordPostUpdated()
	RecordPostDeleted()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	topicsCreated  prometheus.Counter
	postsCreated   prometheus.Counter
	postsUpdated   prometheus.Counter
	postsDeleted   prometheus.Counter
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		topicsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boardman_topics_created_total",
			Help: "作成されたトピックの合計数",
		}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boardman_posts_created_total",
			Help: "作成された投稿の合計数",
		}),
		postsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boardman_posts_updated_total",
			Help: "更新された投稿の合計数",
		}),
		postsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boardman_posts_deleted_total",
			Help: "削除された投稿の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boardman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "boardman_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.topicsCreated,
		c.postsCreated,
		c.postsUpdated,
		c.postsDeleted,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordTopicCreated はトピック作成を記録する。
func (c *Collector) RecordTopicCreated() {
	c.topicsCreated.Inc()
}

// RecordPostCreated は投稿作成を記録する。
func (c *Collector) RecordPostCreated() {
	c.postsCreated.Inc()
}

// RecordPostUpdated は投稿更新を記録する。
func (c *Collector) RecordPostUpdated() {
	c.postsUpdated.Inc()
}

// RecordPostDeleted は投稿削除を記録する。
func (c *Collector) RecordPostDeleted() {
	c.postsDeleted.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
