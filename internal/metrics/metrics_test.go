package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveLoanOperation(t *testing.T) {
	before := testutil.ToFloat64(loanOperations.WithLabelValues("renew", ResultOK))
	ObserveLoanOperation("renew", "", time.Now())
	ObserveLoanOperation("renew", "renewal_limit_reached", time.Now())

	assert.Equal(t, before+1, testutil.ToFloat64(loanOperations.WithLabelValues("renew", ResultOK)))
	assert.GreaterOrEqual(t, testutil.ToFloat64(loanOperations.WithLabelValues("renew", "renewal_limit_reached")), 1.0)
}

func TestObserveTask(t *testing.T) {
	before := testutil.ToFloat64(tasksProcessed.WithLabelValues("scan_overdue_loans", "error"))
	ObserveTask("scan_overdue_loans", errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(tasksProcessed.WithLabelValues("scan_overdue_loans", "error")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	SetOverdueLoans(3)
	ObserveAuth("login", true)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "elibrary_loans_overdue 3"))
	assert.True(t, strings.Contains(body, `elibrary_auth_attempts_total{action="login",result="ok"}`))
}
