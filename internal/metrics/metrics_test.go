package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/titles/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/titles/:id", "200"))
	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/titles/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/titles/:id", "200"))
	assert.Equal(t, 2.0, after-before)
}

func TestRecordSignupAndExchange(t *testing.T) {
	before := testutil.ToFloat64(Signups.WithLabelValues(SignupResent))
	RecordSignup(SignupResent)
	assert.Equal(t, 1.0, testutil.ToFloat64(Signups.WithLabelValues(SignupResent))-before)

	before = testutil.ToFloat64(TokenExchanges.WithLabelValues(TokenRejected))
	RecordTokenExchange(TokenRejected)
	assert.Equal(t, 1.0, testutil.ToFloat64(TokenExchanges.WithLabelValues(TokenRejected))-before)
}

func TestHandlerServesRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RecordSignup(SignupCreated)

	r := gin.New()
	r.GET("/metrics", Handler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "yamdb_signups_total"))
}
