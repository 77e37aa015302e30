package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_SendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "en-US", r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<h1>Nurse</h1>"))
	}))
	defer server.Close()

	res, err := URL(context.Background(), server.URL, &Options{Headers: map[string]string{"Accept-Language": "en-US"}})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Nurse</h1>", res.HTML)
	assert.Equal(t, "text/html", res.ContentType)
	assert.False(t, res.Truncated)
}

func TestURL_BadURL(t *testing.T) {
	for _, raw := range []string{"no-scheme", "http://", "::bad"} {
		_, err := URL(context.Background(), raw, nil)
		var fe *Error
		require.ErrorAs(t, err, &fe, raw)
		assert.Equal(t, "parse", fe.Op)
	}
}

func TestURL_BadStatusKeepsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("blocked"))
	}))
	defer server.Close()

	res, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadStatus))
	assert.Contains(t, err.Error(), "HTTP 403")
	require.NotNil(t, res)
	assert.Equal(t, "blocked", res.HTML)
}

func TestURL_Truncates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	res, err := URL(context.Background(), server.URL, &Options{MaxBody: 10})
	require.NoError(t, err)
	assert.Len(t, res.HTML, 10)
	assert.True(t, res.Truncated)
}

func TestURL_LimiterCanceled(t *testing.T) {
	lim := NewHostLimiter(0.001, 1)
	require.NoError(t, lim.Wait(context.Background(), "127.0.0.1:1"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := URL(ctx, "http://127.0.0.1:1/", &Options{Limiter: lim})
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "wait", fe.Op)
}

func TestExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	assert.True(t, Exists(context.Background(), server.URL+"/ooh/registered-nurses.htm", nil))
	assert.False(t, Exists(context.Background(), server.URL+"/missing", nil))
	assert.False(t, Exists(context.Background(), "::bad", nil))
}

func TestExtractMainText(t *testing.T) {
	html := `<html><body>
		<nav>Jobs | Salaries</nav>
		<div class="promo">Sign up</div>
		<div role="main">
			<h1>Registered   Nurse</h1>
			<p>Provides patient care.</p>
		</div>
		<footer>Contact</footer>
	</body></html>`

	text, err := ExtractMainText(html, DefaultTextSelectors(), ".promo")
	require.NoError(t, err)
	assert.Equal(t, "Registered Nurse\nProvides patient care.", text)
}

func TestExtractMainText_FallbackToBody(t *testing.T) {
	text, err := ExtractMainText(`<html><body><script>x()</script><div>Only text.</div></body></html>`, DefaultTextSelectors())
	require.NoError(t, err)
	assert.Equal(t, "Only text.", text)
}

func TestCleanWhitespace(t *testing.T) {
	assert.Equal(t, "a b\nc", CleanWhitespace("  a   b \n\n\t\n c  "))
	assert.Equal(t, "", CleanWhitespace(" \n "))
}

func TestCachedFetcher_Expiry(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("page"))
	}))
	defer server.Close()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewCachedFetcher(&CachedFetcherConfig{CacheTTL: time.Hour, Now: func() time.Time { return now }})

	first, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, "page", second.HTML)
	assert.EqualValues(t, 1, hits.Load())

	now = now.Add(2 * time.Hour)
	third, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	assert.EqualValues(t, 2, hits.Load())
	assert.Equal(t, 1, f.Len())

	f.Purge()
	assert.Equal(t, 0, f.Len())
}

func TestCachedFetcher_ErrorsNotCached(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewCachedFetcher(nil)
	for range 2 {
		_, err := f.Fetch(context.Background(), server.URL)
		require.Error(t, err)
	}
	assert.EqualValues(t, 2, hits.Load())
	assert.Equal(t, 0, f.Len())
}

func TestCachedFetcher_CoalescesConcurrentFetches(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte("page"))
	}))
	defer server.Close()

	f := NewCachedFetcher(&CachedFetcherConfig{SkipCache: true})
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.Fetch(context.Background(), server.URL)
			assert.NoError(t, err)
			assert.Equal(t, "page", res.HTML)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, 0, f.Len())
}

func TestHostLimiter(t *testing.T) {
	hl := NewHostLimiter(0, 0)
	require.NoError(t, hl.Wait(context.Background(), "a.example"))

	slow := NewHostLimiter(0.001, 1)
	require.NoError(t, slow.Wait(context.Background(), "b.example"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, slow.Wait(ctx, "b.example"), "second request must wait past the deadline")
	assert.NoError(t, slow.Wait(context.Background(), "c.example"), "hosts are limited independently")
}
