package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReadiness(t *testing.T) {
	h := New("test", nil)
	h.RegisterCheck("redis", func(context.Context) error { return nil })

	w := serve(h, "/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)

	h.RegisterCheck("kafka", func(context.Context) error { return errors.New("no brokers reachable") })
	w = serve(h, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "up", resp.Checks["redis"])
	assert.Contains(t, resp.Checks["kafka"], "no brokers reachable")
}

func TestStatusListsChains(t *testing.T) {
	w := serve(New("staging", []string{"0xa", "0x82750", "0x1"}), "/health")

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "staging", resp.Environment)
	assert.Equal(t, []string{"0x1", "0x82750", "0xa"}, resp.Chains)
	assert.Equal(t, http.StatusOK, serve(New("x", nil), "/health/live").Code)
}
