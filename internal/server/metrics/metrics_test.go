package metrics

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{common.ErrInvalidCredentials, "invalid_credentials"},
		{common.ErrInvalidToken, "invalid_token"},
		{common.ErrPrincipalNotFound, "principal_not_found"},
		{common.ErrDuplicateIdentifier, "duplicate_identifier"},
		{common.ErrInvalidIdentifier, "invalid_identifier"},
		{common.ErrForbidden, "forbidden"},
		{fmt.Errorf("%w: db down", common.ErrorInternal), "error"},
		{errors.New("other"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Result(tt.err))
	}
}

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveLogin(nil)
	m.ObserveLogin(common.ErrInvalidCredentials)
	m.ObserveLogin(common.ErrInvalidCredentials)
	m.ObserveRefresh(common.ErrInvalidToken)
	m.ObserveSignup(nil)
	m.ObserveRejection(common.ErrForbidden)
	m.ObserveRejection(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues("invalid_credentials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("invalid_token")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.signups.WithLabelValues("ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.rejections))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveLogin(nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `auth_login_total{result="ok"} 1`))
}
