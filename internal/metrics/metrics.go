// Package metrics exposes Prometheus instrumentation for drive operations.
//
// All metrics use the "folio_" prefix. Methods handle a nil receiver, so a nil
// *DriveMetrics is a no-op when metrics are disabled (tests, tooling).
package metrics

import (
	"errors"
	"time"

	"folio/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// DriveMetrics tracks hierarchy, upload and blob cleanup activity
type DriveMetrics struct {
	// OperationsTotal counts service operations.
	// Labels: op, result=[ok, validation, not_found, forbidden, conflict, quota, storage, state, error]
	OperationsTotal *prometheus.CounterVec

	// OperationDuration tracks service operation latency.
	// Labels: op
	OperationDuration *prometheus.HistogramVec

	// UploadedBytesTotal counts bytes accepted into the object store
	UploadedBytesTotal prometheus.Counter

	// FreedBytesTotal counts bytes released from owner quotas
	FreedBytesTotal prometheus.Counter

	// BlobDeleteFailuresTotal counts blob deletions that failed after metadata was removed
	BlobDeleteFailuresTotal prometheus.Counter

	// CascadeNodesTotal counts descendants rewritten by rename and move cascades
	CascadeNodesTotal prometheus.Counter
}

// NewDriveMetrics creates and registers drive metrics.
// If registerer is nil, prometheus.DefaultRegisterer is used.
func NewDriveMetrics(registerer prometheus.Registerer) *DriveMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &DriveMetrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_drive_operations_total",
				Help: "Total drive operations by result",
			},
			[]string{"op", "result"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "folio_drive_operation_duration_seconds",
				Help:    "Drive operation latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		UploadedBytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "folio_drive_uploaded_bytes_total",
				Help: "Bytes written to the object store by uploads, versions and copies",
			},
		),
		FreedBytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "folio_drive_freed_bytes_total",
				Help: "Bytes released from owner quotas by deletes",
			},
		),
		BlobDeleteFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "folio_drive_blob_delete_failures_total",
				Help: "Blob deletions that failed after their metadata was removed",
			},
		),
		CascadeNodesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "folio_drive_cascade_nodes_total",
				Help: "Descendant nodes rewritten by rename and move cascades",
			},
		),
	}

	registerer.MustRegister(
		m.OperationsTotal,
		m.OperationDuration,
		m.UploadedBytesTotal,
		m.FreedBytesTotal,
		m.BlobDeleteFailuresTotal,
		m.CascadeNodesTotal,
	)

	return m
}

// ObserveOperation records the outcome and latency of one operation
func (m *DriveMetrics) ObserveOperation(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// RecordUpload counts bytes written to the object store
func (m *DriveMetrics) RecordUpload(bytes int64) {
	if m == nil || bytes <= 0 {
		return
	}
	m.UploadedBytesTotal.Add(float64(bytes))
}

// RecordFreed counts bytes released from quotas
func (m *DriveMetrics) RecordFreed(bytes int64) {
	if m == nil || bytes <= 0 {
		return
	}
	m.FreedBytesTotal.Add(float64(bytes))
}

// RecordBlobDeleteFailure counts one failed blob deletion
func (m *DriveMetrics) RecordBlobDeleteFailure() {
	if m == nil {
		return
	}
	m.BlobDeleteFailuresTotal.Inc()
}

// RecordCascade counts descendants touched by a rename or move
func (m *DriveMetrics) RecordCascade(nodes int) {
	if m == nil || nodes <= 0 {
		return
	}
	m.CascadeNodesTotal.Add(float64(nodes))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, domain.ErrStorage):
		return "storage"
	case errors.Is(err, domain.ErrInvalidState):
		return "state"
	default:
		return "error"
	}
}
