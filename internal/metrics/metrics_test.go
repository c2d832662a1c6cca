package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.TrackBooking("confirmed")
	r.TrackBooking("confirmed")
	r.TrackBooking("waiting")
	r.TrackCapacityRejection()
	r.TrackCancellation()
	r.TrackPromotions("rac_to_confirmed", 1)
	r.TrackPromotions("waiting_to_rac", 0)
	r.TrackRetry("book")
	r.TrackConflict("book")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.bookings.WithLabelValues("confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.bookings.WithLabelValues("waiting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.capacityRejections))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cancellations))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.promotions.WithLabelValues("rac_to_confirmed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.promotions.WithLabelValues("waiting_to_rac")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.txRetries.WithLabelValues("book")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.txConflicts.WithLabelValues("book")))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.TrackBooking("rac")
		r.TrackCapacityRejection()
		r.TrackCancellation()
		r.TrackPromotions("rac_to_confirmed", 2)
		r.TrackRetry("cancel")
		r.TrackConflict("cancel")
		r.TrackOperation("cancel", errors.New("boom"), time.Millisecond)
	})
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())
	r.TrackBooking("rac")
	r.TrackOperation("book", nil, 5*time.Millisecond)

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	r.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `berth_allocator_bookings_total{status="rac"} 1`)
	assert.Contains(t, w.Body.String(), `berth_allocator_operation_duration_seconds_count{operation="book",outcome="ok"} 1`)
}
