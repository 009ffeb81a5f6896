// Package cmd defines the weblink-inspector command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/weblink-inspector/internal/config"
	"github.com/JakeFAU/weblink-inspector/internal/server"
	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

const closeTimeout = 10 * time.Second

// App is what the subcommands need from the application.
// Tests swap in a fake through newApp.
type App interface {
	Run(ctx context.Context) error
	Inspect(ctx context.Context, url string) weblink.Outcome
	History(ctx context.Context, url string) ([]weblink.Record, error)
	Close(ctx context.Context) error
}

// serverApp adapts *server.App to App.
type serverApp struct {
	*server.App
}

func (a serverApp) Inspect(ctx context.Context, url string) weblink.Outcome {
	return a.Inspector.Inspect(ctx, url)
}

func (a serverApp) History(ctx context.Context, url string) ([]weblink.Record, error) {
	return a.Inspector.History(ctx, url)
}

// newApp is the application factory.
var newApp = func(ctx context.Context, cfg *config.Config) (App, error) {
	app, err := server.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return serverApp{app}, nil
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "weblink-inspector",
		Short: "Fetches web pages and records their title and meta tags.",
		Long: `weblink-inspector fetches a page, extracts its title, description,
keywords and author, and stores each inspection as a new version of the
URL's weblink record.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			appInstance, err := newApp(cmd.Context(), &cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, ok := cmd.Context().Value(appKey).(App)
			if !ok || appInstance == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), closeTimeout)
			defer cancel()
			return appInstance.Close(ctx)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, JSON or TOML)")

	cmd.AddCommand(newServeCmd(), newInspectCmd(), newHistoryCmd())
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		zap.L().Error("command execution failed", zap.Error(err))
		os.Exit(1)
	}
}
