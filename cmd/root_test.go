package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/weblink-inspector/internal/config"
	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

type fakeApp struct {
	mu        sync.Mutex
	inspected []string
	history   map[string][]weblink.Record
	runErr    error
	ran       bool
	closed    bool
}

func (f *fakeApp) Run(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ran = true
	return f.runErr
}

func (f *fakeApp) Inspect(_ context.Context, url string) weblink.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inspected = append(f.inspected, url)
	if strings.Contains(url, "broken") {
		return weblink.Outcome{Message: "Not Found"}
	}
	title := "Hello"
	return weblink.Outcome{Success: true, Record: &weblink.Record{URL: url, Version: 1, Title: &title}}
}

func (f *fakeApp) History(_ context.Context, url string) ([]weblink.Record, error) {
	if url == "http://fail.test" {
		return nil, errors.New("boom")
	}
	return f.history[url], nil
}

func (f *fakeApp) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// run executes the root command against app. It swaps the package-level
// factory, so callers must not run in parallel.
func run(t *testing.T, app App, args ...string) (string, *config.Config, error) {
	t.Helper()
	original := newApp
	t.Cleanup(func() { newApp = original })

	var loaded *config.Config
	newApp = func(_ context.Context, cfg *config.Config) (App, error) {
		loaded = cfg
		return app, nil
	}

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), loaded, err
}

func TestInspectPrintsOneOutcomePerURL(t *testing.T) {
	app := &fakeApp{}
	out, _, err := run(t, app, "inspect", "http://a.test", "http://broken.test", "http://a.test")
	require.NoError(t, err)
	require.Equal(t, []string{"http://a.test", "http://broken.test"}, app.inspected)
	require.True(t, app.closed)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var first, second weblink.Outcome
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.True(t, first.Success)
	require.Equal(t, "Hello", *first.Record.Title)
	require.False(t, second.Success)
	require.Equal(t, "Not Found", second.Message)
}

func TestInspectResolvesAgainstBase(t *testing.T) {
	app := &fakeApp{}
	_, _, err := run(t, app, "inspect", "--base", "https://Example.com/deep/path", "/About", "about")
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com/about"}, app.inspected)
}

func TestInspectRejectsBaseWithoutOrigin(t *testing.T) {
	app := &fakeApp{}
	_, _, err := run(t, app, "inspect", "--base", "/relative", "page")
	require.Error(t, err)
	require.Empty(t, app.inspected)
}

func TestInspectRequiresArgs(t *testing.T) {
	_, _, err := run(t, &fakeApp{}, "inspect")
	require.Error(t, err)
}

func TestHistoryPrintsRecords(t *testing.T) {
	app := &fakeApp{history: map[string][]weblink.Record{
		"http://a.test": {{URL: "http://a.test", Version: 2}, {URL: "http://a.test", Version: 1}},
	}}
	out, _, err := run(t, app, "history", "http://a.test")
	require.NoError(t, err)

	var records []weblink.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	require.Equal(t, 2, records[0].Version)
}

func TestHistoryEmptyPrintsArray(t *testing.T) {
	out, _, err := run(t, &fakeApp{}, "history", "http://none.test")
	require.NoError(t, err)
	require.Equal(t, "[]", strings.TrimSpace(out))
}

func TestHistoryError(t *testing.T) {
	_, _, err := run(t, &fakeApp{}, "history", "http://fail.test")
	require.ErrorContains(t, err, "load history: boom")
}

func TestServeRunsApp(t *testing.T) {
	app := &fakeApp{}
	_, _, err := run(t, app, "serve")
	require.NoError(t, err)
	require.True(t, app.ran)

	app = &fakeApp{runErr: context.Canceled}
	_, _, err = run(t, app, "serve")
	require.NoError(t, err)

	app = &fakeApp{runErr: errors.New("listen failed")}
	_, _, err = run(t, app, "serve")
	require.ErrorContains(t, err, "run server: listen failed")
}

func TestConfigFlagLoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  user_agent: test-agent\n"), 0o600))

	_, cfg, err := run(t, &fakeApp{}, "--config", path, "history", "http://a.test")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, "test-agent", cfg.HTTP.UserAgent)
}

func TestMissingConfigFileFails(t *testing.T) {
	_, _, err := run(t, &fakeApp{}, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "history", "http://a.test")
	require.ErrorContains(t, err, "load config")
}

func TestFactoryErrorIsReported(t *testing.T) {
	original := newApp
	t.Cleanup(func() { newApp = original })
	newApp = func(context.Context, *config.Config) (App, error) {
		return nil, errors.New("no database")
	}
	root := newRootCmd()
	root.SetArgs([]string{"history", "http://a.test"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	require.ErrorContains(t, err, "no database")
}

func TestResolveAppMissing(t *testing.T) {
	_, err := resolveApp(context.Background())
	require.Error(t, err)
}
