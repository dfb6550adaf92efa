// Package metrics defines the Prometheus collectors exported by the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// UploadsTotal counts uploads by outcome: stored, rejected or failed.
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framesplit_uploads_total",
		Help: "Total number of video uploads, by status",
	}, []string{"status"})

	// UploadBytesTotal counts bytes of stored uploads.
	UploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framesplit_upload_bytes_total",
		Help: "Total number of bytes written by the ingestor",
	})

	// SplitsTotal counts splits by outcome: completed, decode_failed,
	// write_failed or failed.
	SplitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framesplit_splits_total",
		Help: "Total number of frame split requests, by status",
	}, []string{"status"})

	// FramesWrittenTotal counts frame images written to storage.
	FramesWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framesplit_frames_written_total",
		Help: "Total number of frame images written across all jobs",
	})

	// SplitDuration observes the wall time of each split, failed ones included.
	SplitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "framesplit_split_duration_seconds",
		Help:    "Duration of a full decode and sample pass",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	})
)

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
