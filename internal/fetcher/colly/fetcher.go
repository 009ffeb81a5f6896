// Package collyfetcher implements weblink.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/weblink-inspector/internal/codec"
	"github.com/JakeFAU/weblink-inspector/internal/metrics"
	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

// Defaults applied when Config leaves a field empty.
const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 6.2; WOW64)"
	DefaultTimeout   = 5 * time.Second

	maxRedirects = 10
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// MaxBodyBytes caps the response body; zero keeps colly's default.
	MaxBodyBytes int
	// DetectCharset sniffs the body encoding when Content-Type has no charset.
	DetectCharset bool
}

// Fetcher implements weblink.Fetcher with a fresh Colly collector per fetch.
type Fetcher struct {
	cfg       Config
	transport http.RoundTripper
	logger    *zap.Logger
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		cfg:       cfg,
		transport: newHTTPTransport(),
		logger:    logger,
	}
}

// fetchState collects what the collector callbacks observed for one fetch.
type fetchState struct {
	requested  string
	finalURL   string
	responded  bool
	statusCode int
	body       []byte
	err        error
}

// Fetch issues a single GET for rawURL. Redirects are followed only to learn
// where they end; a fetch that ends anywhere but rawURL is rejected.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) weblink.FetchResult {
	target, err := codec.Normalize(codec.Text(rawURL))
	if err != nil {
		return weblink.FetchFailed(0, err)
	}

	start := time.Now()
	state := &fetchState{requested: target}
	collector := f.buildCollector(ctx, state)
	f.configureCollectorHooks(collector, state)

	if err := f.runCollector(ctx, collector, target); err != nil {
		f.logger.Debug("fetch aborted", zap.String("url", target), zap.Error(err))
		return weblink.FetchFailed(0, &weblink.TransportError{Err: err})
	}
	metrics.ObserveFetch(target, time.Since(start), len(state.body))

	result := state.result()
	f.logger.Debug("fetch finished",
		zap.String("url", target),
		zap.Bool("success", result.Success),
		zap.Int("status", result.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return result
}

func (f *Fetcher) buildCollector(ctx context.Context, state *fetchState) *colly.Collector {
	options := []colly.CollectorOption{
		colly.StdlibContext(ctx),
		colly.UserAgent(f.cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	}
	if f.cfg.MaxBodyBytes > 0 {
		options = append(options, colly.MaxBodySize(f.cfg.MaxBodyBytes))
	}
	if f.cfg.DetectCharset {
		options = append(options, colly.DetectCharset())
	}
	collector := colly.NewCollector(options...)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(f.transport)
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.SetRedirectHandler(state.trackRedirect)
	return collector
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, state *fetchState) {
	hooks.OnResponse(func(r *colly.Response) {
		state.responded = true
		state.statusCode = r.StatusCode
		state.body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			state.responded = true
			state.statusCode = r.StatusCode
			return
		}
		state.err = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return err
		}
		return nil
	}
}

func (s *fetchState) trackRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	s.finalURL = req.URL.String()
	return nil
}

func (s *fetchState) result() weblink.FetchResult {
	switch {
	case s.err != nil:
		return weblink.FetchFailed(0, &weblink.TransportError{Err: s.err})
	case !s.responded:
		return weblink.FetchFailed(0, &weblink.TransportError{Err: fmt.Errorf("no response for %s", s.requested)})
	case s.statusCode < 200 || s.statusCode > 299:
		return weblink.FetchFailed(s.statusCode, weblink.NewHTTPError(s.statusCode))
	case s.finalURL != "" && s.finalURL != s.requested:
		return weblink.FetchFailed(0, &weblink.RedirectError{Location: s.finalURL})
	}
	content, err := codec.Normalize(codec.Bytes(s.body))
	if err != nil {
		return weblink.FetchFailed(0, err)
	}
	return weblink.FetchResult{
		Success:    true,
		StatusCode: s.statusCode,
		Content:    content,
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
