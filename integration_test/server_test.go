package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punktual/backend/internal/auth"
	"github.com/punktual/backend/internal/config"
	"github.com/punktual/backend/internal/model"
	"github.com/punktual/backend/internal/observability"
	"github.com/punktual/backend/internal/server"
	"github.com/punktual/backend/internal/testutil"
)

var (
	testDB    *testutil.TestDB
	testCache *testutil.TestCache
	testCfg   *config.Config
	testObs   *observability.Observability
)

// TestMain sets up the test environment once for all tests
func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	testDB, err = testutil.SetupTestDB(ctx)
	if err != nil {
		panic("failed to setup test database: " + err.Error())
	}

	testCache, err = testutil.SetupTestCache(ctx)
	if err != nil {
		panic("failed to setup test cache: " + err.Error())
	}

	testCfg, err = config.Load()
	if err != nil {
		panic("failed to load test config: " + err.Error())
	}
	testCfg.Server.Port = "0"
	testCfg.Auth.JWTSecret = "integration-test-secret"
	testCfg.App.MonthlyQuota = 5

	testObs, err = observability.Setup(ctx, observability.Config{
		ServiceName: "punktual-test",
		Environment: "development",
	})
	if err != nil {
		panic("failed to setup observability: " + err.Error())
	}

	code := m.Run()

	testCache.Teardown(ctx)
	testDB.Teardown(ctx)
	os.Exit(code)
}

func setupTestServer(t *testing.T) (*http.Server, string) {
	gin.SetMode(gin.TestMode)
	srv := server.NewServer(testCfg, testDB.Pool, testCache.Client, nil, testObs)

	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)

	baseURL := "http://" + listener.Addr().String()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			t.Logf("Server error: %v", err)
		}
	}()
	waitForServer(t, baseURL+"/health", 3*time.Second)

	return srv, baseURL
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
			t.Logf("Health check returned %d:", resp.StatusCode)
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("Server did not become ready within %v", timeout)
}

func noRedirectClient() *http.Client {
	return &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	manager := auth.NewJWTManager(testCfg.Auth.JWTSecret, testCfg.Auth.TokenTTL)
	token, _, err := manager.GenerateToken(userID, userID+"@example.com")
	require.NoError(t, err)
	return "Bearer " + token
}

func postJSON(t *testing.T, url string, payload any, headers map[string]string) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return doJSON(t, http.MethodPost, url, body, headers)
}

func doJSON(t *testing.T, method, url string, body []byte, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func completeEventRequest() model.CreateEventRequest {
	return model.CreateEventRequest{
		EventData: model.EventData{
			Title:     "Launch",
			StartDate: "2025-06-01",
			StartTime: "09:00",
			EndDate:   "2025-06-01",
			EndTime:   "10:00",
		},
		ButtonData: model.ButtonData{
			ButtonStyle:       model.StyleStandard,
			ButtonSize:        model.SizeMedium,
			ButtonLayout:      model.LayoutDropdown,
			SelectedPlatforms: []model.Platform{model.PlatformGoogle, model.PlatformApple},
		},
	}
}

func createShortLink(t *testing.T, baseURL, longURL string) string {
	t.Helper()
	resp := postJSON(t, baseURL+"/api/v1/links", map[string]string{"url": longURL}, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created model.CreateShortLinkResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.ShortCode)
	return created.ShortCode
}

// TestHealthCheck verifies the health check endpoint
func TestHealthCheck(t *testing.T) {
	ctx := context.Background()
	testDB.Cleanup(ctx)
	testCache.Cleanup(ctx)
	srv, baseURL := setupTestServer(t)
	defer srv.Shutdown(ctx)

	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var response map[string]any
	json.NewDecoder(resp.Body).Decode(&response)
	assert.Equal(t, "ok", response["status"])
}

// TestShortLink_FullFlow exercises create, metadata, redirect with click
// counting and soft delete end to end.
func TestShortLink_FullFlow(t *testing.T) {
	ctx := context.Background()
	testDB.Cleanup(ctx)
	testCache.Cleanup(ctx)
	srv, baseURL := setupTestServer(t)
	defer srv.Shutdown(ctx)

	longURL := "https://calendar.google.com/calendar/render?action=TEMPLATE&text=Launch"
	code := createShortLink(t, baseURL, longURL)

	// Short URL ends with the code
	resp, err := http.Get(baseURL + "/api/v1/links/" + code)
	require.NoError(t, err)
	var meta model.ShortLinkResponse
	json.NewDecoder(resp.Body).Decode(&meta)
	resp.Body.Close()
	assert.Equal(t, longURL, meta.OriginalURL)
	assert.True(t, strings.HasSuffix(meta.ShortURL, "/"+code))
	assert.True(t, meta.IsActive)

	// Redirect is a 302 pointing at the original URL
	resp, err = noRedirectClient().Get(baseURL + "/" + code)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, longURL, resp.Header.Get("Location"))

	// The click lands asynchronously
	require.Eventually(t, func() bool {
		var clicks int64
		testDB.Pool.QueryRow(ctx, "SELECT click_count FROM short_links WHERE short_code = $1", code).Scan(&clicks)
		return clicks == 1
	}, 5*time.Second, 100*time.Millisecond, "expected the redirect click to be counted")

	// Deactivate
	resp = doJSON(t, http.MethodDelete, baseURL+"/api/v1/links/"+code, nil, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Row survives as inactive, redirect now reports 404
	var active bool
	require.NoError(t, testDB.Pool.QueryRow(ctx, "SELECT is_active FROM short_links WHERE short_code = $1", code).Scan(&active))
	assert.False(t, active)

	resp, err = noRedirectClient().Get(baseURL + "/" + code)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestShortLink_SameURLTwiceGetsDistinctCodes verifies collision retry
func TestShortLink_SameURLTwiceGetsDistinctCodes(t *testing.T) {
	ctx := context.Background()
	testDB.Cleanup(ctx)
	testCache.Cleanup(ctx)
	srv, baseURL := setupTestServer(t)
	defer srv.Shutdown(ctx)

	longURL := "https://example.com/launch"
	code1 := createShortLink(t, baseURL, longURL)
	code2 := createShortLink(t, baseURL, longURL)
	require.NotEqual(t, code1, code2, "expected a different code after collision retry")

	for _, code := range []string{code1, code2} {
		resp, err := noRedirectClient().Get(baseURL + "/" + code)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, longURL, resp.Header.Get("Location"))
	}
}

// TestShortLink_InvalidRequests tests request validation
func TestShortLink_InvalidRequests(t *testing.T) {
	ctx := context.Background()
	testDB.Cleanup(ctx)
	testCache.Cleanup(ctx)
	srv, baseURL := setupTestServer(t)
	defer srv.Shutdown(ctx)

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "missing url field", body: `{"invalid": "field"}`},
		{name: "empty url value", body: `{"url": ""}`},
		{name: "invalid url format", body: `{"url": "not-a-valid-url"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, baseURL+"/api/v1/links", []byte(tt.body), nil)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

// TestGenerateLinks verifies the preview endpoint produces per-platform links
func TestGenerateLinks(t *testing.T) {
	ctx := context.Background()
	testDB.Cleanup(ctx)
	testCache.Cleanup(ctx)
	srv, baseURL := setupTestServer(t)
	defer srv.Shutdown(ctx)

	resp := postJSON(t, baseURL+"/api/v1/links/generate", completeEventRequest(), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var response model.GenerateLinksResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	assert.Contains(t, response.Links[model.PlatformGoogle], "calendar.google.com")
	assert.Contains(t, response.Links[model.PlatformApple], "BEGIN:VCALENDAR")
	assert.NotContains(t, response.Links, model.PlatformYahoo)
}

// TestEventStatus verifies the completeness endpoint
func TestEventStatus(t *testing.T) {
	ctx := context.Background()
	testDB.Cleanup(ctx)
	testCache.Cleanup(ctx)
	srv, baseURL := setupTestServer(t)
	defer srv.Shutdown(ctx)

	body := completeEventRequest()
	body.ButtonData.SelectedPlatforms = nil

	resp := postJSON(t, baseURL+"/api/v1/events/status", body, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status model.StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.False(t, status.Complete)
	assert.Contains(t, status.Missing, "At least one calendar platform")
}

// TestCreateEvent_AuthAndQuota walks the authenticated creation flow up to
// the monthly limit.
func TestCreateEvent_AuthAndQuota(t *testing.T) {
	ctx := context.Background()
	testDB.Cleanup(ctx)
	testCache.Cleanup(ctx)
	srv, baseURL := setupTestServer(t)
	defer srv.Shutdown(ctx)

	// Unauthenticated request is rejected
	resp := postJSON(t, baseURL+"/api/v1/events", completeEventRequest(), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	authHeader := map[string]string{"Authorization": bearerToken(t, "quota-user")}

	// The quota admits exactly five creations
	for i := 0; i < testCfg.App.MonthlyQuota; i++ {
		resp = postJSON(t, baseURL+"/api/v1/events", completeEventRequest(), authHeader)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var created model.CreateEventResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
		resp.Body.Close()
		assert.Contains(t, created.HTML, "punktual-button")
		assert.Equal(t, "quota-user", created.Event.UserID)
	}

	resp = postJSON(t, baseURL+"/api/v1/events", completeEventRequest(), authHeader)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var errResp model.ErrorResponse
	json.NewDecoder(resp.Body).Decode(&errResp)
	assert.Contains(t, errResp.Message, "Monthly event limit reached")

	// Another user is unaffected
	resp = postJSON(t, baseURL+"/api/v1/events", completeEventRequest(),
		map[string]string{"Authorization": bearerToken(t, "other-user")})
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

// TestCreateEvent_IncompleteForm verifies incomplete forms are refused
func TestCreateEvent_IncompleteForm(t *testing.T) {
	ctx := context.Background()
	testDB.Cleanup(ctx)
	testCache.Cleanup(ctx)
	srv, baseURL := setupTestServer(t)
	defer srv.Shutdown(ctx)

	body := completeEventRequest()
	body.EventData.Title = ""

	resp := postJSON(t, baseURL+"/api/v1/events", body,
		map[string]string{"Authorization": bearerToken(t, "user-1")})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var count int
	testDB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM events").Scan(&count)
	assert.Equal(t, 0, count)
}

// TestDraft_Lifecycle verifies save, load and clear against real Redis
func TestDraft_Lifecycle(t *testing.T) {
	ctx := context.Background()
	testDB.Cleanup(ctx)
	testCache.Cleanup(ctx)
	srv, baseURL := setupTestServer(t)
	defer srv.Shutdown(ctx)

	authHeader := map[string]string{"Authorization": bearerToken(t, "draft-user")}

	// No draft yet
	resp := doJSON(t, http.MethodGet, baseURL+"/api/v1/draft", nil, authHeader)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Save
	payload, err := json.Marshal(completeEventRequest())
	require.NoError(t, err)
	resp = doJSON(t, http.MethodPut, baseURL+"/api/v1/draft", payload, authHeader)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Load round-trips
	resp = doJSON(t, http.MethodGet, baseURL+"/api/v1/draft", nil, authHeader)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var draft model.Draft
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&draft))
	resp.Body.Close()
	assert.Equal(t, "Launch", draft.EventData.Title)

	// Drafts belong to their user
	resp = doJSON(t, http.MethodGet, baseURL+"/api/v1/draft", nil,
		map[string]string{"Authorization": bearerToken(t, "someone-else")})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Clear
	resp = doJSON(t, http.MethodDelete, baseURL+"/api/v1/draft", nil, authHeader)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, baseURL+"/api/v1/draft", nil, authHeader)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestCSRFToken verifies the cookie pair issued by the CSRF endpoint
func TestCSRFToken(t *testing.T) {
	ctx := context.Background()
	testDB.Cleanup(ctx)
	testCache.Cleanup(ctx)
	srv, baseURL := setupTestServer(t)
	defer srv.Shutdown(ctx)

	resp, err := http.Get(baseURL + "/api/v1/csrf")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body model.CSRFTokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.CSRFToken)

	var hashCookie, tokenCookie *http.Cookie
	for _, c := range resp.Cookies() {
		switch c.Name {
		case auth.CSRFHashCookie:
			hashCookie = c
		case auth.CSRFTokenCookie:
			tokenCookie = c
		}
	}
	require.NotNil(t, hashCookie)
	require.NotNil(t, tokenCookie)
	assert.True(t, hashCookie.HttpOnly)
	assert.Equal(t, body.CSRFToken, tokenCookie.Value)
	assert.Equal(t, auth.HashCSRFToken(body.CSRFToken), hashCookie.Value)
}

// TestCache_LinkIsCachedAfterResolve verifies cache-aside fill on resolution
func TestCache_LinkIsCachedAfterResolve(t *testing.T) {
	ctx := context.Background()
	testDB.Cleanup(ctx)
	testCache.Cleanup(ctx)
	srv, baseURL := setupTestServer(t)
	defer srv.Shutdown(ctx)

	code := createShortLink(t, baseURL, "https://example.com/cached")

	resp, err := noRedirectClient().Get(baseURL + "/" + code)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	exists, err := testCache.Client.Exists(ctx, "punktual:link:"+code).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists, "link should be cached after first resolution")
}
