package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 服務專用的指標註冊表
var Registry = prometheus.NewRegistry()

var (
	// Classifications 各分類規則命中次數
	Classifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "classifications_total",
			Help:      "Category classifications by the rule that decided them",
		},
		[]string{"rule"},
	)

	// InventoryMatches 庫存比對結果
	InventoryMatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "inventory_matches_total",
			Help:      "Inventory match outcomes by match type",
		},
		[]string{"match_type"},
	)

	// SkippedEntries 因格式錯誤被略過的輸入
	SkippedEntries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "skipped_entries_total",
			Help:      "Malformed raw entries skipped during consolidation",
		},
	)

	// ListsGenerated 生成的購物清單數
	ListsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "shopping_lists_generated_total",
			Help:      "Shopping lists built",
		},
	)

	// ListSize 每份清單的項目數
	ListSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "grocery",
			Name:      "shopping_list_items",
			Help:      "Number of resolved items per shopping list",
			Buckets:   prometheus.LinearBuckets(0, 10, 10),
		},
	)

	// HTTPRequests HTTP 請求計數
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration HTTP 請求耗時
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "grocery",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Classifications,
		InventoryMatches,
		SkippedEntries,
		ListsGenerated,
		ListSize,
		HTTPRequests,
		HTTPDuration,
	)
}

// Handler 指標輸出端點
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
