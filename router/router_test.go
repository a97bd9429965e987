package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"summarymaker/config"
	"summarymaker/socket"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := socket.NewHub()
	go hub.Run(ctx)

	cfg := config.Config{
		JWTSecret:      "router-secret",
		CORSAllow:      []string{"*"},
		ListMaxLimit:   1000,
		RequestTimeout: 5 * time.Second,
	}
	return Setup(cfg, db, hub, nil), mock
}

func TestHealthAndReadiness(t *testing.T) {
	h, mock := newRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	mock.ExpectPing()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mock.ExpectPing().WillReturnError(errors.New("down"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newRouter(t)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "summary_http_requests_total")
}

func TestUnknownRoute(t *testing.T) {
	h, _ := newRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"Resource Not Found","message":"Resource Not Found."},"data":null}`, rec.Body.String())
}

func TestSummaryRoutesRequireToken(t *testing.T) {
	h, _ := newRouter(t)

	for _, path := range []string{
		"/summary/users/u1/documents",
		"/summary/users/u1/documents/d1",
		"/summary/documents/d1/blocks/b1/content",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestFetchDocumentThroughStore(t *testing.T) {
	h, mock := newRouter(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1 AND created_by = \\$2").
		WithArgs("d1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "template_id", "created_by", "json_object", "version", "created_at", "updated_at"}).
			AddRow("d1", "t1", "u1", []byte(`{"name":"Doc"}`), int64(2), now, now))
	mock.ExpectQuery("SELECT (.+) FROM templates WHERE id = \\$1").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "json_object", "created_at", "updated_at"}).
			AddRow("t1", "", []byte(`{"name":"Tpl","variables":[{"_id":"v1","value":"X"}]}`), now, now))

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "google|u1"}).SignedString([]byte("router-secret"))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/summary/users/u1/documents/d1", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `"2"`, rec.Header().Get("ETag"))
	assert.Contains(t, rec.Body.String(), `"variables":[{"_id":"v1","value":"X"}]`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
