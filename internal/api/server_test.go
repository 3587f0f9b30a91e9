package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wcperfit/internal/api/handlers"
	"wcperfit/internal/config"
	"wcperfit/internal/database"
	"wcperfit/internal/integration"
	"wcperfit/internal/logger"
	"wcperfit/internal/metrics"
	"wcperfit/internal/options"
	"wcperfit/internal/services/woocommerce"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router *gin.Engine
	keys   *woocommerce.KeyProvisioner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metrics.RegisterDefault()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewSilent(fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	log := logger.New("error")
	keys := woocommerce.NewKeyProvisioner(db.DB, log)
	webhooks := woocommerce.NewWebhookProvisioner(db.DB, log, nil)
	lifecycle := integration.New(integration.Config{
		Store:    options.NewStore(db.DB),
		Keys:     keys,
		Webhooks: webhooks,
		Site:     integration.Site{HomeURL: "https://shop.example.com", AccountRoute: handlers.AccountRoute},
		Logger:   log,
	})

	cfg := &config.Config{
		AdminToken:  "admin-secret",
		AdminUserID: 1,
		SiteName:    "Shop",
		SiteURL:     "https://shop.example.com",
		CORSOrigins: []string{"*"},
	}
	srv := New(cfg, log, Dependencies{Lifecycle: lifecycle, Keys: keys, Webhooks: webhooks})
	return &testEnv{router: srv.Router(), keys: keys}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestAccountEndpoint_RequiresConsumerKey(t *testing.T) {
	env := newTestEnv(t)
	key, err := env.keys.Provision(context.Background(), 1)
	require.NoError(t, err)

	t.Run("no credentials", func(t *testing.T) {
		w := env.do(httptest.NewRequest(http.MethodGet, "/wp-json/wcperfit/v1/account", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "woocommerce_rest_cannot_view")
	})

	t.Run("wrong secret", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/wp-json/wcperfit/v1/account", nil)
		req.SetBasicAuth(key.ConsumerKey, "cs_wrong")
		w := env.do(req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("basic auth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/wp-json/wcperfit/v1/account", nil)
		req.SetBasicAuth(key.ConsumerKey, key.ConsumerSecret)
		w := env.do(req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"site_name":"Shop","site_url":"https://shop.example.com","logo_url":null}`, w.Body.String())
	})

	t.Run("query parameters", func(t *testing.T) {
		url := fmt.Sprintf("/wp-json/wcperfit/v1/account?consumer_key=%s&consumer_secret=%s", key.ConsumerKey, key.ConsumerSecret)
		w := env.do(httptest.NewRequest(http.MethodGet, url, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, env.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
	req.Header.Set("Authorization", "Bearer admin-secret")
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"inactive"`)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/webhooks", nil)
	req.Header.Set("Authorization", "Bearer admin-secret")
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data"`)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(httptest.NewRequest(http.MethodGet, "/wp-json/wcperfit/v1/account", nil))

	w := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
