package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coopco/autopost/internal/config"
	"github.com/coopco/autopost/internal/editor"
	"github.com/coopco/autopost/internal/profile"
	"github.com/coopco/autopost/internal/providers"
	"github.com/coopco/autopost/internal/suggest"
)

func newSuggestCmd() *cobra.Command {
	var (
		count    int
		importTo string
	)
	suggestCmd := &cobra.Command{
		Use:   "suggest TOPIC",
		Short: "Propose text messages for a topic",
		Long: `Ask the configured LLM provider for short text messages about TOPIC.

Configure suggest.provider, suggest.model and suggest.apiKey (or AUTOPOST_SUGGEST_*).
Without a model, simple template lines are printed instead.

With --import-to the lines are appended to that profile's text messages and saved.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gen, err := newGenerator(cfg.Suggest)
			if err != nil {
				return err
			}
			lines, err := gen.Suggest(cmd.Context(), strings.Join(args, " "), count)
			if err != nil {
				return err
			}
			for _, line := range lines {
				printf(cmd, "%s\n", line)
			}
			if importTo == "" {
				return nil
			}

			sess := editor.New(newClient(cfg))
			if err := sess.Load(cmd.Context(), importTo); err != nil {
				return err
			}
			added := sess.ImportText(strings.Join(lines, "\n"))
			if err := sess.SelectMessageKind(profile.KindText); err != nil {
				return err
			}
			if _, err := sess.Save(cmd.Context()); err != nil {
				return reportValidation(cmd, err)
			}
			printf(cmd, "Added %d message(s) to profile %q\n", added, importTo)
			return nil
		},
	}
	suggestCmd.Flags().IntVarP(&count, "count", "n", 5, "Number of messages")
	suggestCmd.Flags().StringVar(&importTo, "import-to", "", "Append the suggestions to this profile and save it")
	return suggestCmd
}

// newGenerator builds a generator from config. No model and no provider
// means the template fallback.
func newGenerator(cfg config.SuggestConfig) (*suggest.Generator, error) {
	if cfg.Provider == "" && cfg.Model == "" {
		return suggest.New(nil, ""), nil
	}
	p, err := providers.New(cfg.Provider, cfg.APIKey, cfg.BaseURL, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggestion provider: %w", err)
	}
	return suggest.New(p, cfg.Model), nil
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the cron presets accepted by --preset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tEXPRESSION")
			for _, p := range cfg.CronPresets {
				fmt.Fprintf(tw, "%s\t%s\n", p.Label, p.Expression)
			}
			return tw.Flush()
		},
	}
}
