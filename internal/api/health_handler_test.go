package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/ignite/voucher-console/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_AllUp(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store, err := storage.NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	hc := NewHealthChecker(db, rdb, store)
	rec := httptest.NewRecorder()
	hc.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var st HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "healthy", st.Status)
	assert.Equal(t, "up", st.Checks["database"].Status)
	assert.Equal(t, "up", st.Checks["redis"].Status)
	assert.Equal(t, "up", st.Checks["storage"].Status)
}

func TestHealthChecker_DatabaseDown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	hc := NewHealthChecker(db, nil, nil)
	rec := httptest.NewRecorder()
	hc.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDetermineOverallStatus(t *testing.T) {
	assert.Equal(t, "healthy", determineOverallStatus(map[string]ComponentCheck{
		"database": {Status: "down", Message: notConfigured},
	}))
	assert.Equal(t, "degraded", determineOverallStatus(map[string]ComponentCheck{
		"database": {Status: "up"},
		"redis":    {Status: "down", Message: "ping failed"},
	}))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5s", formatUptime(5e9))
	assert.Equal(t, "1m 5s", formatUptime(65e9))
}
