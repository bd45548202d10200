package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"folio/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResultLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{domain.NewValidationError("bad"), "validation"},
		{fmt.Errorf("wrapped: %w", &domain.NotFoundError{ResourceType: "folder", ResourceID: "x"}), "not_found"},
		{&domain.AccessDeniedError{}, "forbidden"},
		{&domain.ConflictError{Reason: domain.ConflictDuplicateName}, "conflict"},
		{&domain.QuotaExceededError{}, "quota"},
		{&domain.StorageBackendError{Op: "put", Err: errors.New("boom")}, "storage"},
		{&domain.StateError{From: "ready", To: "processing"}, "state"},
		{errors.New("other"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, resultLabel(tt.err))
		})
	}
}

func TestDriveMetrics(t *testing.T) {
	m := NewDriveMetrics(prometheus.NewRegistry())

	m.ObserveOperation("create_folder", time.Now(), nil)
	m.ObserveOperation("create_folder", time.Now(), &domain.ConflictError{})
	m.RecordUpload(100)
	m.RecordUpload(-1)
	m.RecordBlobDeleteFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("create_folder", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("create_folder", "conflict")))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.UploadedBytesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BlobDeleteFailuresTotal))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *DriveMetrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("x", time.Now(), nil)
		m.RecordUpload(1)
		m.RecordFreed(1)
		m.RecordBlobDeleteFailure()
		m.RecordCascade(3)
	})
}
