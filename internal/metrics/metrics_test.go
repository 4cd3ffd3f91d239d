package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStoreOperation(t *testing.T) {
	okBefore := testutil.ToFloat64(StoreOperationsTotal.WithLabelValues("metrics_test", "ok"))
	errBefore := testutil.ToFloat64(StoreOperationsTotal.WithLabelValues("metrics_test", "error"))

	ObserveStoreOperation("metrics_test", time.Now(), nil)
	ObserveStoreOperation("metrics_test", time.Now(), errors.New("boom"))
	ObserveStoreOperation("metrics_test", time.Now(), nil)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(StoreOperationsTotal.WithLabelValues("metrics_test", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(StoreOperationsTotal.WithLabelValues("metrics_test", "error")))
}
