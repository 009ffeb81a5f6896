package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/weblink-inspector/internal/codec"
	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

func TestFetcherBuildCollector(t *testing.T) {
	t.Parallel()

	f := New(Config{UserAgent: "coverage-agent", Timeout: time.Second, MaxBodyBytes: 1024}, nil)
	collector := f.buildCollector(context.Background(), &fetchState{})
	require.Equal(t, "coverage-agent", collector.UserAgent)
	require.True(t, collector.IgnoreRobotsTxt)
	require.True(t, collector.AllowURLRevisit)
	require.True(t, collector.ParseHTTPErrorResponse)
	require.Equal(t, 1024, collector.MaxBodySize)
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	require.Equal(t, DefaultUserAgent, f.cfg.UserAgent)
	require.Equal(t, DefaultTimeout, f.cfg.Timeout)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	state := &fetchState{requested: "http://example.com/"}
	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, state)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	hooks.onResponse(&colly.Response{StatusCode: http.StatusOK, Body: []byte("body")})
	require.True(t, state.responded)
	require.Equal(t, http.StatusOK, state.statusCode)
	require.Equal(t, "body", string(state.body))

	hooks.onError(nil, errors.New("boom"))
	require.EqualError(t, state.err, "boom")
}

func TestFetchReturnsContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>Hello</title></head></html>"))
	}))
	t.Cleanup(srv.Close)

	result := New(Config{}, nil).Fetch(context.Background(), srv.URL+"/")
	require.True(t, result.Success, result.Message)
	require.Equal(t, http.StatusOK, result.StatusCode)
	require.Contains(t, result.Content, "<title>Hello</title>")
}

func TestFetchSameURLTwice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))
	t.Cleanup(srv.Close)

	f := New(Config{}, nil)
	for i := 0; i < 2; i++ {
		result := f.Fetch(context.Background(), srv.URL+"/")
		require.True(t, result.Success, result.Message)
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	t.Parallel()

	seen := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	result := New(Config{}, nil).Fetch(context.Background(), srv.URL+"/")
	require.True(t, result.Success, result.Message)
	require.Equal(t, DefaultUserAgent, <-seen)
}

func TestFetchHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	result := New(Config{}, nil).Fetch(context.Background(), srv.URL+"/")
	require.False(t, result.Success)
	require.Equal(t, http.StatusNotFound, result.StatusCode)
	require.Equal(t, "Not Found", result.Message)
	require.Equal(t, weblink.FailureHTTP, weblink.FailureKind(result.Err))
}

func TestFetchRejectsRedirect(t *testing.T) {
	t.Parallel()

	for _, code := range []int{http.StatusMovedPermanently, http.StatusFound} {
		mux := http.NewServeMux()
		mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/new", code)
		})
		mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html></html>"))
		})
		srv := httptest.NewServer(mux)

		result := New(Config{}, nil).Fetch(context.Background(), srv.URL+"/old")
		srv.Close()

		require.False(t, result.Success)
		require.Equal(t, 0, result.StatusCode)
		require.Equal(t, "redirect to "+srv.URL+"/new", result.Message)
		require.ErrorIs(t, result.Err, weblink.ErrRedirectRejected)
	}
}

func TestFetchInvalidEncoding(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{0xff, 0xfe, 0xfd})
	}))
	t.Cleanup(srv.Close)

	result := New(Config{}, nil).Fetch(context.Background(), srv.URL+"/")
	require.False(t, result.Success)
	require.ErrorIs(t, result.Err, codec.ErrEncoding)
}

func TestFetchTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte("late"))
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	result := New(Config{Timeout: 50 * time.Millisecond}, nil).Fetch(context.Background(), srv.URL+"/")
	require.False(t, result.Success)
	require.Equal(t, weblink.FailureTransport, weblink.FailureKind(result.Err))
}

func TestFetchConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	result := New(Config{}, nil).Fetch(context.Background(), addr+"/")
	require.False(t, result.Success)
	require.Equal(t, 0, result.StatusCode)
	require.Equal(t, weblink.FailureTransport, weblink.FailureKind(result.Err))
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	result := New(Config{Timeout: time.Second}, nil).Fetch(ctx, srv.URL+"/")
	require.False(t, result.Success)
	require.ErrorIs(t, result.Err, context.Canceled)
}

func TestFetchStateResultPrecedence(t *testing.T) {
	t.Parallel()

	state := &fetchState{
		requested:  "http://a.test/",
		finalURL:   "http://b.test/",
		responded:  true,
		statusCode: http.StatusInternalServerError,
	}
	result := state.result()
	require.Equal(t, http.StatusInternalServerError, result.StatusCode)
	require.Equal(t, weblink.FailureHTTP, weblink.FailureKind(result.Err))

	state.statusCode = http.StatusOK
	result = state.result()
	require.Equal(t, weblink.FailureRedirect, weblink.FailureKind(result.Err))
}

type stubHooks struct {
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) { s.onResponse = cb }

func (s *stubHooks) OnError(cb colly.ErrorCallback) { s.onError = cb }
