package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	namespace = "imageprompt"

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	generationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompt_generation_total",
			Help:      "Number of prompt generation attempts by outcome",
		},
		[]string{"outcome", "mime_type"},
	)

	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prompt_generation_duration_seconds",
			Help:      "Prompt generation duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	uploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_size_bytes",
			Help:      "Size of uploaded images in bytes",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 7),
		},
	)
)

// HTTPRequestsTotal は、HTTPリクエスト数をメソッド・ルート・ステータス別に加算します
func HTTPRequestsTotal(method, path, code string) {
	httpRequestsTotal.With(prometheus.Labels{
		"method": method,
		"path":   path,
		"code":   code,
	}).Inc()
}

// HTTPRequestDuration は、HTTPリクエストの処理時間を記録します
func HTTPRequestDuration(method, path string, duration time.Duration) {
	httpRequestDuration.With(prometheus.Labels{
		"method": method,
		"path":   path,
	}).Observe(duration.Seconds())
}

// GenerationObserved は、一回の生成結果を記録します
func GenerationObserved(outcome, mimeType string, duration time.Duration) {
	generationTotal.With(prometheus.Labels{
		"outcome":   outcome,
		"mime_type": mimeType,
	}).Inc()
	generationDuration.With(prometheus.Labels{
		"outcome": outcome,
	}).Observe(duration.Seconds())
}

// UploadObserved は、アップロードされた画像のサイズを記録します
func UploadObserved(size int) {
	uploadBytes.Observe(float64(size))
}

// Middleware は、リクエストごとに件数と処理時間を記録するHTTPミドルウェアです
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		path := routePattern(r)
		HTTPRequestsTotal(r.Method, path, strconv.Itoa(ww.status))
		HTTPRequestDuration(r.Method, path, duration)
	})
}

// routePattern は、ラベルの種類が増えないようにルートパターンを返します
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
