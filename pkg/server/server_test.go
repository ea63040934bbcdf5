package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orderlots/matchcache/pkg/config"
	"github.com/orderlots/matchcache/pkg/directory"
	"github.com/orderlots/matchcache/pkg/matchcache"
)

func newTestEngine() *Engine {
	cache := matchcache.New(matchcache.DefaultConfig(), nil)
	dir := directory.NewInMemoryDirectory()
	return New(cache, dir, config.Defaults())
}

func TestAddAndListOrders(t *testing.T) {
	eng := newTestEngine()

	body := strings.NewReader(`{"id":"1","security_id":"Sec","side":"Buy","qty":100,"user_id":"u1","company_id":"A"}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	eng.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec2 := httptest.NewRecorder()
	eng.srv.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/orders", nil))
	require.Equal(t, http.StatusOK, rec2.Code)
	require.Contains(t, rec2.Body.String(), `"ID":"1"`)
}

func TestMatchingSizeEndpoint(t *testing.T) {
	eng := newTestEngine()

	for _, payload := range []string{
		`{"id":"buy","security_id":"Sec","side":"Buy","qty":100,"user_id":"u1","company_id":"A"}`,
		`{"id":"sell","security_id":"Sec","side":"Sell","qty":100,"user_id":"u2","company_id":"B"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		eng.srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	rec := httptest.NewRecorder()
	eng.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/securities/Sec/matching-size", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"matching_size":100`)
}

func TestCancelUnknownOrderReturnsNotFound(t *testing.T) {
	opts := matchcache.DefaultConfig()
	opts.StrictValidation = true
	cache := matchcache.New(opts, nil)
	eng := New(cache, nil, config.Defaults())

	rec := httptest.NewRecorder()
	eng.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/orders/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserCompanyEndpointWithoutDirectory(t *testing.T) {
	cache := matchcache.New(matchcache.DefaultConfig(), nil)
	eng := New(cache, nil, config.Defaults())

	rec := httptest.NewRecorder()
	eng.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/alice/company", nil))
	require.Equal(t, http.StatusNotImplemented, rec.Code)
}
