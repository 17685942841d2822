package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPageResult(t *testing.T) {
	ok := PagesFetched.WithLabelValues(StageDetail, "ok")
	failed := PagesFetched.WithLabelValues(StageDetail, "failed")
	okBefore := testutil.ToFloat64(ok)
	failedBefore := testutil.ToFloat64(failed)

	PageResult(StageDetail, nil)
	PageResult(StageDetail, errors.New("timeout"))
	PageResult(StageDetail, nil)

	if got := testutil.ToFloat64(ok) - okBefore; got != 2 {
		t.Errorf("ok delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(failed) - failedBefore; got != 1 {
		t.Errorf("failed delta = %v, want 1", got)
	}
}
