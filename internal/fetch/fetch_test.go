package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/persona-cli/internal/config"
)

func testConfig() config.FetchConfig {
	return config.FetchConfig{
		TimeoutSecs: 5,
		MaxBodyKB:   64,
		UserAgent:   "persona-cli/1.0 (+https://github.com/sells-group/persona-cli)",
	}
}

func TestFetchReturnsPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>Dr. Rohit Arora</body></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testConfig())
	page, err := f.Fetch(context.Background(), srv.URL+"/about")

	require.NoError(t, err)
	assert.Equal(t, 200, page.StatusCode)
	assert.Contains(t, page.HTML, "Rohit Arora")
	assert.False(t, page.Blocked)
	assert.Equal(t, srv.URL+"/about", page.FinalURL)
}

func TestFetchServesFromCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("<html>cached</html>"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.CacheTTLMinutes = 5
	f := NewHTTPFetcher(cfg)

	first, err := f.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
	assert.Same(t, first, second)
}

func TestFetchCapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 8192)))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBodyKB = 1
	f := NewHTTPFetcher(cfg)

	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(page.HTML), 1024)
}

func TestFetchForbiddenIsBlockedNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testConfig())
	page, err := f.Fetch(context.Background(), srv.URL+"/profile")

	require.NoError(t, err)
	assert.Equal(t, 403, page.StatusCode)
	assert.True(t, page.Blocked)
	assert.Equal(t, BlockForbidden, page.BlockKind)
}

func TestFetchRetriesTransientStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("<html>recovered</html>"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRetries = 2
	f := NewHTTPFetcher(cfg)
	f.retry.InitialBackoff = time.Millisecond

	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 200, page.StatusCode)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchExhaustedRetriesDeliversLastResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRetries = 1
	f := NewHTTPFetcher(cfg)
	f.retry.InitialBackoff = time.Millisecond

	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 503, page.StatusCode)
}

func TestFetchRobotsDisallow(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		_, _ = w.Write([]byte("<html>open</html>"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RespectRobots = true
	f := NewHTTPFetcher(cfg)

	blocked, err := f.Fetch(context.Background(), srv.URL+"/private/cv")
	require.NoError(t, err)
	assert.True(t, blocked.Blocked)
	assert.Equal(t, BlockRobots, blocked.BlockKind)

	open, err := f.Fetch(context.Background(), srv.URL+"/team")
	require.NoError(t, err)
	assert.Equal(t, 200, open.StatusCode)
	assert.False(t, open.Blocked)

	mu.Lock()
	defer mu.Unlock()
	assert.NotContains(t, paths, "/private/cv")
	assert.Contains(t, paths, "/team")
}

func TestFetchDetectsChallengeInterstitial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>Checking your browser before accessing example.com</html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testConfig())
	page, err := f.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.True(t, page.Blocked)
	assert.Equal(t, BlockChallenge, page.BlockKind)
}

func TestFetchRejectsBadURL(t *testing.T) {
	f := NewHTTPFetcher(testConfig())

	_, err := f.Fetch(context.Background(), "/relative/only")
	assert.Error(t, err)
}

func TestLimiterIsPerDomain(t *testing.T) {
	cfg := testConfig()
	cfg.PerDomainDelayMs = 100
	f := NewHTTPFetcher(cfg)

	a := f.limiterFor("a.example")
	b := f.limiterFor("b.example")
	assert.Same(t, a, f.limiterFor("a.example"))
	assert.NotSame(t, a, b)
}

func TestProductToken(t *testing.T) {
	assert.Equal(t, "persona-cli", productToken("persona-cli/1.0 (+https://github.com/sells-group/persona-cli)"))
	assert.Equal(t, "curl", productToken("curl"))
	assert.Equal(t, "", productToken(""))
}
