package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadyEndpoint(t *testing.T) {
	t.Run("not ready before gate opens", func(t *testing.T) {
		h := New()

		rec := httptest.NewRecorder()
		h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "service is not ready")
	})

	t.Run("ready when gate open and checks pass", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("db", time.Second, func(context.Context) error { return nil })
		h.runAll(context.Background())
		h.SetReady(true)

		rec := httptest.NewRecorder()
		h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
		assert.True(t, h.IsReady())
	})

	t.Run("failing readiness check reported", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("db", time.Second, func(context.Context) error {
			return errors.New("connection refused")
		})
		h.runAll(context.Background())
		h.SetReady(true)

		rec := httptest.NewRecorder()
		h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "connection refused")
		assert.False(t, h.IsReady())
	})
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(1))
	h.runAll(context.Background())

	rec := httptest.NewRecorder()
	h.LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutine count")
}

func TestStartRunsChecks(t *testing.T) {
	h := New()
	ran := make(chan struct{})
	h.AddReadinessCheck("once", time.Second, func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	h.Start(context.Background(), time.Hour)
	defer h.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("check did not run after Start")
	}
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestPingCheck(t *testing.T) {
	require.NoError(t, PingCheck(stubPinger{})(context.Background()))

	err := PingCheck(stubPinger{err: errors.New("down")})(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
}
