package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/coopco/autopost/internal/backend"
	"github.com/coopco/autopost/internal/config"
)

var (
	configPath string
	serverURL  string
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "autopost",
		Short: "Recurring Discord auto-message bot",
		Long: `autopost keeps named profiles of Discord messages and posts them on a schedule.

Each profile holds a bot token, a target channel, a list of messages of one kind
(text, embed or attachment) and a schedule (fixed interval, cron preset or
"HH:MM on day" cron). Every firing posts one message picked at random.

Quick Start:
  autopost serve                                   # Start the profile server
  autopost save news --token T --channel C --text "Hello {now}"
  autopost start news                              # Begin posting
  autopost watch                                   # Follow delivery status`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.autopost/config.json)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server base URL (overrides client.baseUrl)")

	rootCmd.AddCommand(
		newServeCmd(),
		newProfilesCmd(),
		newShowCmd(),
		newSaveCmd(),
		newSendCmd(),
		newDuplicateCmd(),
		newDeleteCmd(),
		newStartCmd(),
		newStopCmd(),
		newStatusCmd(),
		newHistoryCmd(),
		newWatchCmd(),
		newSuggestCmd(),
		newPresetsCmd(),
	)
	return rootCmd
}

// loadConfig reads the config file and installs the slog default handler.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.Client.BaseURL = serverURL
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// newClient returns a client for the server named by cfg.
func newClient(cfg *config.Config) *backend.Client {
	return backend.NewClient(cfg.Client.BaseURL, time.Duration(cfg.Client.TimeoutSeconds)*time.Second)
}

// remote loads the config and returns a client for it.
func remote() (*backend.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newClient(cfg), nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
